package service

import (
	"testing"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthService(db *gorm.DB) *AuthService {
	cfg := &config.Config{}
	cfg.JWT.Secret = "unit-test-session-secret-0123456789"
	cfg.JWT.ExpireTime = config.SessionTokenTTL
	return NewAuthService(repository.NewUserRepository(db), cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user := &model.User{Name: "小王", Email: "wang@example.com", Password: "s3cret-pass"}
	require.NoError(t, svc.Register(user))

	// 密码落库前必须散列
	var stored model.User
	require.NoError(t, db.Where("email = ?", "wang@example.com").First(&stored).Error)
	assert.NotEqual(t, "s3cret-pass", stored.Password)
	assert.Equal(t, model.RoleUser, stored.Role)

	token, logged, err := svc.Login("wang@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, stored.ID, logged.ID)

	claims, err := util.ParseSessionToken(token, svc.Cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, claims.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	require.NoError(t, svc.Register(&model.User{Name: "a", Email: "dup@example.com", Password: "pw123456"}))
	err := svc.Register(&model.User{Name: "b", Email: "dup@example.com", Password: "pw123456"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
}

func TestLoginUniformFailure(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	require.NoError(t, svc.Register(&model.User{Name: "a", Email: "a@example.com", Password: "pw123456"}))
	require.NoError(t, db.Model(&model.User{}).Where("email = ?", "a@example.com").Update("disabled", true).Error)

	// 账号不存在、密码错误、账号禁用返回同一个错误，不泄露原因
	_, _, err := svc.Login("nobody@example.com", "pw123456")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, _, err = svc.Login("a@example.com", "wrong-pass")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, _, err = svc.Login("a@example.com", "pw123456")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}
