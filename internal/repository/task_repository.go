package repository

import (
	"errors"

	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type TaskRepository struct {
	DB *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{DB: db}
}

func (r *TaskRepository) Create(task *model.Task) error {
	return r.DB.Create(task).Error
}

func (r *TaskRepository) FindByID(id uint) (*model.Task, error) {
	var task model.Task
	err := r.DB.First(&task, id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) FindByIDWithDetails(id uint) (*model.Task, error) {
	var task model.Task
	err := r.DB.
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("`order`") }).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("`order`") }).
		First(&task, id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Update(task *model.Task) error {
	return r.DB.Save(task).Error
}

func (r *TaskRepository) UpdateStatus(id uint, status model.TaskStatus, publishedAt interface{}) error {
	updates := map[string]interface{}{"status": status}
	if publishedAt != nil {
		updates["published_at"] = publishedAt
	}
	return r.DB.Model(&model.Task{}).Where("id = ?", id).Updates(updates).Error
}

// Delete 级联删除任务及其文件、指派、题目、进度和提交。
// 模型使用软删除，外键级联不会触发，这里在一个事务内显式清理
func (r *TaskRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var fileIDs []string
		if err := tx.Model(&model.TaskFile{}).Where("task_id = ?", id).Pluck("id", &fileIDs).Error; err != nil {
			return err
		}

		if len(fileIDs) > 0 {
			if err := tx.Where("file_id IN ?", fileIDs).Delete(&model.FileProgress{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("task_id = ?", id).Delete(&model.TaskFile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&model.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Task{}, id).Error
	})
}

func (r *TaskRepository) List(status model.TaskStatus, page, limit int) ([]model.Task, int64, error) {
	var tasks []model.Task
	var total int64

	query := r.DB.Model(&model.Task{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id DESC").Offset((page - 1) * limit).Limit(limit).Find(&tasks).Error
	return tasks, total, err
}

// ListAssignedPublished 用户被指派且已发布的任务
func (r *TaskRepository) ListAssignedPublished(userID uint) ([]model.Task, error) {
	var tasks []model.Task
	err := r.DB.
		Joins("JOIN task_assignments ON task_assignments.task_id = tasks.id AND task_assignments.deleted_at IS NULL").
		Where("task_assignments.user_id = ? AND tasks.status = ?", userID, model.TaskPublished).
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("`order`") }).
		Order("tasks.id DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) Assign(taskID, userID, assignedBy uint) error {
	var existing model.TaskAssignment
	err := r.DB.Where("task_id = ? AND user_id = ?", taskID, userID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	assignment := &model.TaskAssignment{
		TaskID:       taskID,
		UserID:       userID,
		AssignedByID: assignedBy,
	}
	return r.DB.Create(assignment).Error
}

func (r *TaskRepository) Unassign(taskID, userID uint) error {
	return r.DB.Where("task_id = ? AND user_id = ?", taskID, userID).Delete(&model.TaskAssignment{}).Error
}

func (r *TaskRepository) IsAssigned(taskID, userID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.TaskAssignment{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *TaskRepository) ListAssignments(taskID uint) ([]model.TaskAssignment, error) {
	var assignments []model.TaskAssignment
	err := r.DB.Where("task_id = ?", taskID).Find(&assignments).Error
	return assignments, err
}
