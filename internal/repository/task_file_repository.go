package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type TaskFileRepository struct {
	DB *gorm.DB
}

func NewTaskFileRepository(db *gorm.DB) *TaskFileRepository {
	return &TaskFileRepository{DB: db}
}

func (r *TaskFileRepository) Create(file *model.TaskFile) error {
	return r.DB.Create(file).Error
}

func (r *TaskFileRepository) FindByID(id string) (*model.TaskFile, error) {
	var file model.TaskFile
	err := r.DB.Where("id = ?", id).First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// FindInTask 查找属于指定任务的文件，归属不符等同于不存在
func (r *TaskFileRepository) FindInTask(id string, taskID uint) (*model.TaskFile, error) {
	var file model.TaskFile
	err := r.DB.Where("id = ? AND task_id = ?", id, taskID).First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *TaskFileRepository) ListByTask(taskID uint) ([]model.TaskFile, error) {
	var files []model.TaskFile
	err := r.DB.Where("task_id = ?", taskID).Order("`order`").Find(&files).Error
	return files, err
}

func (r *TaskFileRepository) Update(file *model.TaskFile) error {
	return r.DB.Save(file).Error
}

func (r *TaskFileRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", id).Delete(&model.FileProgress{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.TaskFile{}).Error
	})
}
