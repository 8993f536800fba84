package service

import (
	"errors"
	"math"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type QuizService struct {
	QuizRepo *repository.QuizRepository
	TaskRepo *repository.TaskRepository
}

func NewQuizService(quizRepo *repository.QuizRepository, taskRepo *repository.TaskRepository) *QuizService {
	return &QuizService{
		QuizRepo: quizRepo,
		TaskRepo: taskRepo,
	}
}

type QuizAnswer struct {
	QuestionID    uint `json:"questionId" binding:"required"`
	SelectedIndex int  `json:"selectedIndex" binding:"min=0"`
}

// swagger:model QuizSubmissionRequest
type QuizSubmissionRequest struct {
	TaskID  uint         `json:"taskId" binding:"required"`
	Answers []QuizAnswer `json:"answers" binding:"required,dive"`
}

// swagger:model QuizScoreResult
type QuizScoreResult struct {
	Score          int  `json:"score"`
	Passed         bool `json:"passed"`
	CorrectAnswers int  `json:"correctAnswers"`
	TotalQuestions int  `json:"totalQuestions"`
	Attempt        int  `json:"attempt"`
}

// Submit 对一次完整作答评分并落一条不可变提交记录。
// 及格与否按提交时刻任务配置的及格线判定，此后阈值调整不回算历史记录。
// 不限制重考次数，每次提交 Attempt 递增
func (s *QuizService) Submit(userID uint, req *QuizSubmissionRequest) (*QuizScoreResult, error) {
	task, err := s.TaskRepo.FindByID(req.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskNotFound
		}
		return nil, err
	}
	if task.Status != model.TaskPublished {
		return nil, util.ErrTaskNotPublished
	}

	questions, err := s.QuizRepo.ListQuestions(req.TaskID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, util.ErrTaskHasNoQuiz
	}

	// 先把作答折叠成每题一条（重复作答同一题以最后一条为准），
	// 再按题目集合计分：每题至多得一分，未作答按答错计
	answers := make(map[uint]int, len(req.Answers))
	for _, ans := range req.Answers {
		answers[ans.QuestionID] = ans.SelectedIndex
	}

	correct := 0
	for _, q := range questions {
		if selected, ok := answers[q.ID]; ok && selected == q.CorrectOption {
			correct++
		}
	}

	total := len(questions)
	score := int(math.Round(float64(correct) / float64(total) * 100))
	passed := score >= task.PassingScore

	prior, err := s.QuizRepo.CountAttempts(req.TaskID, userID)
	if err != nil {
		return nil, err
	}
	attempt := int(prior) + 1

	submission := &model.QuizSubmission{
		TaskID:       req.TaskID,
		UserID:       userID,
		Attempt:      attempt,
		Score:        score,
		Passed:       passed,
		CorrectCount: correct,
		TotalCount:   total,
		Answers:      answers,
		SubmittedAt:  time.Now(),
	}
	if err := s.QuizRepo.CreateSubmission(submission); err != nil {
		return nil, err
	}

	return &QuizScoreResult{
		Score:          score,
		Passed:         passed,
		CorrectAnswers: correct,
		TotalQuestions: total,
		Attempt:        attempt,
	}, nil
}

// Questions 发布给学习者的题目（不含正确答案，模型序列化时已隐藏）
func (s *QuizService) Questions(taskID uint) ([]model.QuizQuestion, error) {
	task, err := s.TaskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskNotFound
		}
		return nil, err
	}
	if task.Status != model.TaskPublished {
		return nil, util.ErrTaskNotPublished
	}
	return s.QuizRepo.ListQuestions(taskID)
}

func (s *QuizService) Submissions(taskID, userID uint) ([]model.QuizSubmission, error) {
	return s.QuizRepo.ListSubmissionsByTaskUser(taskID, userID)
}
