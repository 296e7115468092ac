package service_test

import (
	"context"
	"testing"

	"session-token-server/internal/model"
	"session-token-server/internal/security"
	"session-token-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegister_Success(t *testing.T) {
	userRepo := new(MockUserRepo)
	svc := service.NewUserService(userRepo)
	ctx := context.Background()

	userRepo.On("CreateUser", ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.Login == "user0001" && u.UUID != "" &&
			security.CheckPassword("StrongPass1!", u.PasswordHash)
	})).Return(&model.User{UUID: "u1", Login: "user0001"}, nil)

	user, err := svc.Register(ctx, "user0001", "StrongPass1!")

	require.NoError(t, err)
	assert.Equal(t, "u1", user.UUID)
}

func TestRegister_RejectsShortLogin(t *testing.T) {
	userRepo := new(MockUserRepo)
	svc := service.NewUserService(userRepo)

	_, err := svc.Register(context.Background(), "user1", "StrongPass1!")

	assert.ErrorContains(t, err, "логин")
	userRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestRegister_RejectsWeakPassword(t *testing.T) {
	userRepo := new(MockUserRepo)
	svc := service.NewUserService(userRepo)

	_, err := svc.Register(context.Background(), "user0001", "password")

	assert.ErrorContains(t, err, "пароль")
	userRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}
