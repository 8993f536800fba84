package service

import (
	"errors"
	"math"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
	TaskRepo     *repository.TaskRepository
	FileRepo     *repository.TaskFileRepository
}

func NewProgressService(progressRepo *repository.ProgressRepository, taskRepo *repository.TaskRepository, fileRepo *repository.TaskFileRepository) *ProgressService {
	return &ProgressService{
		ProgressRepo: progressRepo,
		TaskRepo:     taskRepo,
		FileRepo:     fileRepo,
	}
}

// ProgressReportRequest 客户端进度上报
// swagger:model ProgressReportRequest
type ProgressReportRequest struct {
	TaskID uint   `json:"taskId" binding:"required"`
	FileID string `json:"fileId" binding:"required,uuid"`
	// Position 页码或播放秒数
	Position int `json:"position" binding:"min=0"`
	// Extent 客户端已知的总量，服务端登记值优先
	Extent int `json:"extent" binding:"min=0"`
	// SessionDurationDelta 距上次上报经过的有效秒数，只增不减
	SessionDurationDelta int64                `json:"sessionDurationDelta" binding:"min=0"`
	Action               model.ProgressAction `json:"actionKind" binding:"required"`
}

// ProgressResult 合并后的进度记录
// swagger:model ProgressResult
type ProgressResult struct {
	Position        int     `json:"position"`
	Extent          int     `json:"extent"`
	ProgressPercent float64 `json:"progressPercent"`
	EffectiveTime   int64   `json:"effectiveTime"`
	IsCompleted     bool    `json:"isCompleted"`
}

// Report 把一次学习事件合并进持久进度记录。
//
// 前置校验：任务存在且已发布，文件存在且属于该任务，动作类型合法。
// 合并本身是存储层的一条原子 upsert，见 ProgressRepository.Merge。
// 位置与百分比采用 last-write-wins：乱序到达的旧事件会覆盖新值，
// 这是有意记录在案的策略，不保证事件顺序
func (s *ProgressService) Report(userID uint, req *ProgressReportRequest) (*ProgressResult, error) {
	if !req.Action.Valid() {
		return nil, util.ErrInvalidAction
	}

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

	file, err := s.FileRepo.FindInTask(req.FileID, req.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrFileNotFound
		}
		return nil, err
	}

	// 服务端登记的总量优先，登记缺失时退回客户端上报值
	extent := file.Extent
	if extent <= 0 {
		extent = req.Extent
	}

	percent := CompletionPercent(req.Position, extent)
	completedNow := IsCompleted(file.Type, req.Position, extent)

	now := time.Now()
	record := &model.FileProgress{
		UserID:        userID,
		FileID:        file.ID,
		TaskID:        task.ID,
		Position:      req.Position,
		Extent:        extent,
		Progress:      percent,
		EffectiveTime: req.SessionDurationDelta,
		StartedAt:     now,
		LastAccessed:  now,
	}
	if completedNow {
		record.CompletedAt = &now
	}

	if err := s.ProgressRepo.Merge(record, req.SessionDurationDelta); err != nil {
		return nil, err
	}

	// 审计流水独立于进度记录，仅追加。进度此时已经落库，
	// 流水写失败只记日志不报错，否则客户端重试会重复累加时长增量
	event := &model.ProgressEvent{
		UserID:          userID,
		FileID:          file.ID,
		TaskID:          task.ID,
		Action:          req.Action,
		Position:        req.Position,
		Extent:          extent,
		SessionDuration: req.SessionDurationDelta,
		ReportedAt:      now,
	}
	if err := s.ProgressRepo.AppendEvent(event); err != nil {
		logger.Log.Warn("进度审计流水写入失败",
			zap.Uint("userId", userID),
			zap.String("fileId", file.ID),
			zap.Error(err))
	}

	merged, err := s.ProgressRepo.Find(userID, file.ID)
	if err != nil {
		return nil, err
	}

	return &ProgressResult{
		Position:        merged.Position,
		Extent:          merged.Extent,
		ProgressPercent: merged.Progress,
		EffectiveTime:   merged.EffectiveTime,
		IsCompleted:     merged.CompletedAt != nil,
	}, nil
}

func (s *ProgressService) ListForTask(userID, taskID uint) ([]model.FileProgress, error) {
	return s.ProgressRepo.ListByUserTask(userID, taskID)
}

// CompletionPercent 完成百分比，恒在 [0,100] 内；总量未知时记0
func CompletionPercent(position, extent int) float64 {
	if extent <= 0 {
		return 0
	}
	percent := float64(position) / float64(extent) * 100
	return math.Min(math.Max(percent, 0), 100)
}

// IsCompleted 类型相关的完成判定：分页内容到末页即完成，
// 视频播放到时长95%即完成
func IsCompleted(fileType model.FileType, position, extent int) bool {
	if extent <= 0 {
		return false
	}
	if fileType.IsTimed() {
		return float64(position) >= util.VideoCompletionRatio*float64(extent)
	}
	return position >= extent
}
