package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("account disabled")
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskNotPublished   = errors.New("task not published")
	ErrTaskHasNoQuiz      = errors.New("task has no quiz questions")
	ErrFileNotFound       = errors.New("file not found")
	ErrNotAssigned        = errors.New("task not assigned to user")
	ErrInvalidTransition  = errors.New("invalid task status transition")
	ErrInvalidAction      = errors.New("invalid action kind")
	ErrInvalidAnswerIndex = errors.New("correct option index out of range")
)
