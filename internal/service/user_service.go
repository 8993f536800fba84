package service

import (
	"errors"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

func (s *UserService) Get(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(page, limit int) ([]model.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.UserRepo.List(page, limit)
}

func (s *UserService) ChangeRole(id uint, role model.UserRole) error {
	if role != model.RoleUser && role != model.RoleAdmin {
		return errors.New("unknown role")
	}
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.UserRepo.UpdateRole(id, role)
}

func (s *UserService) SetDisabled(id uint, disabled bool) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.UserRepo.SetDisabled(id, disabled)
}
