package service

import (
	"context"
	"errors"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type TaskService struct {
	TaskRepo *repository.TaskRepository
	FileRepo *repository.TaskFileRepository
	QuizRepo *repository.QuizRepository
	UserRepo *repository.UserRepository
	Storage  *StorageService
}

func NewTaskService(taskRepo *repository.TaskRepository, fileRepo *repository.TaskFileRepository, quizRepo *repository.QuizRepository, userRepo *repository.UserRepository, storage *StorageService) *TaskService {
	return &TaskService{
		TaskRepo: taskRepo,
		FileRepo: fileRepo,
		QuizRepo: quizRepo,
		UserRepo: userRepo,
		Storage:  storage,
	}
}

func (s *TaskService) Create(task *model.Task) error {
	task.Status = model.TaskDraft
	return s.TaskRepo.Create(task)
}

func (s *TaskService) Get(id uint) (*model.Task, error) {
	task, err := s.TaskRepo.FindByIDWithDetails(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

func (s *TaskService) List(status model.TaskStatus, page, limit int) ([]model.Task, int64, error) {
	return s.TaskRepo.List(status, page, limit)
}

func (s *TaskService) ListAssigned(userID uint) ([]model.Task, error) {
	return s.TaskRepo.ListAssignedPublished(userID)
}

func (s *TaskService) Update(id uint, title, description string, passingScore *int) (*model.Task, error) {
	task, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if title != "" {
		task.Title = title
	}
	if description != "" {
		task.Description = description
	}
	// 及格线调整只影响之后的提交，历史记录的 passed 不回算
	if passingScore != nil {
		task.PassingScore = *passingScore
	}

	if err := s.TaskRepo.Update(task); err != nil {
		return nil, err
	}
	return task, nil
}

// Publish 发布任务。只有已发布的任务接受进度上报和测验提交
func (s *TaskService) Publish(id uint) error {
	task, err := s.Get(id)
	if err != nil {
		return err
	}
	if task.Status == model.TaskPublished {
		return util.ErrInvalidTransition
	}
	now := time.Now()
	return s.TaskRepo.UpdateStatus(id, model.TaskPublished, &now)
}

func (s *TaskService) Archive(id uint) error {
	task, err := s.Get(id)
	if err != nil {
		return err
	}
	if task.Status != model.TaskPublished {
		return util.ErrInvalidTransition
	}
	return s.TaskRepo.UpdateStatus(id, model.TaskArchived, nil)
}

func (s *TaskService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.TaskRepo.Delete(id)
}

type RegisterFileRequest struct {
	Name        string         `json:"name" binding:"required"`
	Type        model.FileType `json:"type" binding:"required,oneof=document slides video"`
	ObjectKey   string         `json:"objectKey" binding:"required"`
	ContentType string         `json:"contentType"`
	Size        int64          `json:"size" binding:"min=0"`
	Extent      int            `json:"extent" binding:"min=0"`
	Order       int            `json:"order" binding:"min=0"`
}

// RegisterFile 在任务下登记一个已经上传到对象存储的文件。
// 视频在本地存储时用ffprobe实测时长覆盖客户端上报的总量
func (s *TaskService) RegisterFile(taskID uint, req *RegisterFileRequest) (*model.TaskFile, error) {
	if _, err := s.Get(taskID); err != nil {
		return nil, err
	}

	extent := req.Extent
	if req.Type == model.FileVideo {
		if probed, ok := s.Storage.ProbeLocalVideoDuration(req.ObjectKey); ok {
			extent = probed
		}
	}

	file := &model.TaskFile{
		TaskID:      taskID,
		Name:        req.Name,
		Type:        req.Type,
		ObjectKey:   req.ObjectKey,
		ContentType: req.ContentType,
		Size:        req.Size,
		Extent:      extent,
		Order:       req.Order,
	}
	if err := s.FileRepo.Create(file); err != nil {
		return nil, err
	}
	return file, nil
}

func (s *TaskService) RemoveFile(taskID uint, fileID string) error {
	file, err := s.FileRepo.FindInTask(fileID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrFileNotFound
		}
		return err
	}

	if err := s.FileRepo.Delete(file.ID); err != nil {
		return err
	}
	// 对象存储里的内容尽力清理，失败不阻塞删除
	_ = s.Storage.Delete(context.Background(), file.ObjectKey)
	return nil
}

// FileDownloadURL 学习者获取文件内容的签名下载地址
func (s *TaskService) FileDownloadURL(ctx context.Context, userID, taskID uint, fileID string) (string, error) {
	task, err := s.TaskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", util.ErrTaskNotFound
		}
		return "", err
	}
	if task.Status != model.TaskPublished {
		return "", util.ErrTaskNotPublished
	}

	assigned, err := s.TaskRepo.IsAssigned(taskID, userID)
	if err != nil {
		return "", err
	}
	if !assigned {
		return "", util.ErrNotAssigned
	}

	file, err := s.FileRepo.FindInTask(fileID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", util.ErrFileNotFound
		}
		return "", err
	}

	return s.Storage.DownloadURL(ctx, file.ObjectKey)
}

func (s *TaskService) Assign(taskID uint, userIDs []uint, assignedBy uint) error {
	if _, err := s.Get(taskID); err != nil {
		return err
	}
	for _, userID := range userIDs {
		if _, err := s.UserRepo.FindByID(userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrUserNotFound
			}
			return err
		}
		if err := s.TaskRepo.Assign(taskID, userID, assignedBy); err != nil {
			return err
		}
	}
	return nil
}

func (s *TaskService) Unassign(taskID, userID uint) error {
	return s.TaskRepo.Unassign(taskID, userID)
}

type AddQuestionRequest struct {
	Text          string   `json:"text" binding:"required"`
	Options       []string `json:"options" binding:"required,min=2"`
	CorrectOption int      `json:"correctOption" binding:"min=0"`
	Order         int      `json:"order" binding:"min=0"`
}

func (s *TaskService) AddQuestion(taskID uint, req *AddQuestionRequest) (*model.QuizQuestion, error) {
	if _, err := s.Get(taskID); err != nil {
		return nil, err
	}
	if req.CorrectOption >= len(req.Options) {
		return nil, util.ErrInvalidAnswerIndex
	}

	q := &model.QuizQuestion{
		TaskID:        taskID,
		Text:          req.Text,
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
		Order:         req.Order,
	}
	if err := s.QuizRepo.CreateQuestion(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *TaskService) RemoveQuestion(taskID, questionID uint) error {
	return s.QuizRepo.DeleteQuestion(questionID, taskID)
}
