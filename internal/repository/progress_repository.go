package repository

import (
	"time"

	"lms_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// Merge 把一次上报折叠进 (user, file) 的进度记录，单条原子语句完成。
// 同一用户多端并发上报靠 (user_id, file_id) 唯一索引上的
// insert-or-update 合并，不做应用层的读-改-写。
//
// 冲突分支的语义：
//   - position/extent/progress/last_accessed 无条件覆盖为本次上报值
//   - effective_time 累加增量，从不覆盖
//   - completed_at 用 COALESCE 实现单向闩锁：已置位的值永远保留
func (r *ProgressRepository) Merge(record *model.FileProgress, durationDelta int64) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "file_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"position":       record.Position,
			"extent":         record.Extent,
			"progress":       record.Progress,
			"last_accessed":  record.LastAccessed,
			"updated_at":     time.Now(),
			"effective_time": gorm.Expr("effective_time + ?", durationDelta),
			"completed_at":   gorm.Expr("COALESCE(completed_at, ?)", record.CompletedAt),
		}),
	}).Create(record).Error
}

func (r *ProgressRepository) Find(userID uint, fileID string) (*model.FileProgress, error) {
	var record model.FileProgress
	err := r.DB.Where("user_id = ? AND file_id = ?", userID, fileID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *ProgressRepository) ListByUserTask(userID, taskID uint) ([]model.FileProgress, error) {
	var records []model.FileProgress
	err := r.DB.Where("user_id = ? AND task_id = ?", userID, taskID).Find(&records).Error
	return records, err
}

func (r *ProgressRepository) ListByUser(userID uint) ([]model.FileProgress, error) {
	var records []model.FileProgress
	err := r.DB.Where("user_id = ?", userID).Order("last_accessed DESC").Find(&records).Error
	return records, err
}

func (r *ProgressRepository) ListByTask(taskID uint) ([]model.FileProgress, error) {
	var records []model.FileProgress
	err := r.DB.Where("task_id = ?", taskID).Find(&records).Error
	return records, err
}

// AppendEvent 审计日志，仅插入
func (r *ProgressRepository) AppendEvent(event *model.ProgressEvent) error {
	return r.DB.Create(event).Error
}

func (r *ProgressRepository) CountCompleted() (int64, error) {
	var count int64
	err := r.DB.Model(&model.FileProgress{}).Where("completed_at IS NOT NULL").Count(&count).Error
	return count, err
}

func (r *ProgressRepository) AverageProgress() (float64, error) {
	var avg *float64
	err := r.DB.Model(&model.FileProgress{}).Select("AVG(progress)").Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}
