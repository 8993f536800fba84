package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type ReportRepository struct {
	DB *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{DB: db}
}

// AssignedUsers 任务的全部被指派用户
func (r *ReportRepository) AssignedUsers(taskID uint) ([]model.User, error) {
	var users []model.User
	err := r.DB.
		Joins("JOIN task_assignments ON task_assignments.user_id = users.id AND task_assignments.deleted_at IS NULL").
		Where("task_assignments.task_id = ?", taskID).
		Order("users.id").
		Find(&users).Error
	return users, err
}

func (r *ReportRepository) Overview() (*model.PlatformOverview, error) {
	var overview model.PlatformOverview

	if err := r.DB.Model(&model.User{}).Count(&overview.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&model.Task{}).Count(&overview.TotalTasks).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&model.Task{}).Where("status = ?", model.TaskPublished).Count(&overview.PublishedTasks).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&model.FileProgress{}).Where("completed_at IS NOT NULL").Count(&overview.TotalCompletions).Error; err != nil {
		return nil, err
	}

	var avg *float64
	if err := r.DB.Model(&model.FileProgress{}).Select("AVG(progress)").Scan(&avg).Error; err != nil {
		return nil, err
	}
	if avg != nil {
		overview.AverageCompletion = *avg
	}

	return &overview, nil
}
