package service

import (
	"errors"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type ReportService struct {
	ReportRepo   *repository.ReportRepository
	TaskRepo     *repository.TaskRepository
	FileRepo     *repository.TaskFileRepository
	ProgressRepo *repository.ProgressRepository
	QuizRepo     *repository.QuizRepository
	UserRepo     *repository.UserRepository
}

func NewReportService(reportRepo *repository.ReportRepository, taskRepo *repository.TaskRepository, fileRepo *repository.TaskFileRepository, progressRepo *repository.ProgressRepository, quizRepo *repository.QuizRepository, userRepo *repository.UserRepository) *ReportService {
	return &ReportService{
		ReportRepo:   reportRepo,
		TaskRepo:     taskRepo,
		FileRepo:     fileRepo,
		ProgressRepo: progressRepo,
		QuizRepo:     quizRepo,
		UserRepo:     userRepo,
	}
}

// TaskReport 任务维度的汇总：每个被指派用户的整体进度、完成数、
// 累计学习时长和最优测验成绩
func (s *ReportService) TaskReport(taskID uint) (*model.TaskReport, error) {
	task, err := s.TaskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskNotFound
		}
		return nil, err
	}

	files, err := s.FileRepo.ListByTask(taskID)
	if err != nil {
		return nil, err
	}

	users, err := s.ReportRepo.AssignedUsers(taskID)
	if err != nil {
		return nil, err
	}

	rows, err := s.ProgressRepo.ListByTask(taskID)
	if err != nil {
		return nil, err
	}

	byUser := make(map[uint][]model.FileProgress)
	for _, row := range rows {
		byUser[row.UserID] = append(byUser[row.UserID], row)
	}

	report := &model.TaskReport{
		TaskID:        task.ID,
		Title:         task.Title,
		AssignedCount: len(users),
		Users:         make([]model.TaskUserReport, 0, len(users)),
	}

	for _, user := range users {
		entry := model.TaskUserReport{
			UserID:     user.ID,
			UserName:   user.Name,
			Email:      user.Email,
			FilesTotal: len(files),
		}

		var percentSum float64
		for _, row := range byUser[user.ID] {
			percentSum += row.Progress
			entry.EffectiveTime += row.EffectiveTime
			if row.CompletedAt != nil {
				entry.FilesCompleted++
			}
		}
		// 未上报过的文件按0%计入均值
		if len(files) > 0 {
			entry.OverallPercent = percentSum / float64(len(files))
		}

		// 没有提交记录是正常情形，留空；真正的存储错误要往上报
		best, err := s.QuizRepo.BestSubmission(taskID, user.ID)
		switch {
		case err == nil:
			entry.BestQuizScore = &best.Score
			entry.QuizPassed = &best.Passed
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}

		attempts, err := s.QuizRepo.CountAttempts(taskID, user.ID)
		if err != nil {
			return nil, err
		}
		entry.QuizAttempts = int(attempts)

		report.Users = append(report.Users, entry)
	}

	return report, nil
}

// UserReport 用户维度的明细：每个文件的进度行和全部测验提交
func (s *ReportService) UserReport(userID uint) (*model.UserReport, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	rows, err := s.ProgressRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	report := &model.UserReport{
		UserID:   user.ID,
		UserName: user.Name,
		Files:    make([]model.UserFileReport, 0, len(rows)),
	}

	taskTitles := make(map[uint]string)
	for _, row := range rows {
		entry := model.UserFileReport{
			TaskID:        row.TaskID,
			FileID:        row.FileID,
			Progress:      row.Progress,
			EffectiveTime: row.EffectiveTime,
			CompletedAt:   row.CompletedAt,
			LastAccessed:  row.LastAccessed,
		}

		if title, ok := taskTitles[row.TaskID]; ok {
			entry.TaskTitle = title
		} else if task, err := s.TaskRepo.FindByID(row.TaskID); err == nil {
			taskTitles[row.TaskID] = task.Title
			entry.TaskTitle = task.Title
		}

		if file, err := s.FileRepo.FindByID(row.FileID); err == nil {
			entry.FileName = file.Name
			entry.FileType = file.Type
		}

		report.Files = append(report.Files, entry)
	}

	subs, err := s.QuizRepo.ListSubmissionsByUser(userID)
	if err != nil {
		return nil, err
	}
	report.Submissions = subs

	return report, nil
}

func (s *ReportService) Overview() (*model.PlatformOverview, error) {
	return s.ReportRepo.Overview()
}
