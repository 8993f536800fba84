package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) CreateQuestion(q *model.QuizQuestion) error {
	return r.DB.Create(q).Error
}

func (r *QuizRepository) ListQuestions(taskID uint) ([]model.QuizQuestion, error) {
	var questions []model.QuizQuestion
	err := r.DB.Where("task_id = ?", taskID).Order("`order`").Find(&questions).Error
	return questions, err
}

func (r *QuizRepository) DeleteQuestion(id, taskID uint) error {
	return r.DB.Where("id = ? AND task_id = ?", id, taskID).Delete(&model.QuizQuestion{}).Error
}

func (r *QuizRepository) CreateSubmission(s *model.QuizSubmission) error {
	return r.DB.Create(s).Error
}

func (r *QuizRepository) CountAttempts(taskID, userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizSubmission{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Count(&count).Error
	return count, err
}

func (r *QuizRepository) ListSubmissionsByUser(userID uint) ([]model.QuizSubmission, error) {
	var subs []model.QuizSubmission
	err := r.DB.Where("user_id = ?", userID).Order("submitted_at DESC").Find(&subs).Error
	return subs, err
}

func (r *QuizRepository) ListSubmissionsByTaskUser(taskID, userID uint) ([]model.QuizSubmission, error) {
	var subs []model.QuizSubmission
	err := r.DB.Where("task_id = ? AND user_id = ?", taskID, userID).Order("attempt").Find(&subs).Error
	return subs, err
}

// BestSubmission 用户在某任务下得分最高的一次提交
func (r *QuizRepository) BestSubmission(taskID, userID uint) (*model.QuizSubmission, error) {
	var sub model.QuizSubmission
	err := r.DB.Where("task_id = ? AND user_id = ?", taskID, userID).
		Order("score DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
