package ports

import (
	"context"

	"session-token-server/internal/model"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	FindByUUID(ctx context.Context, uuid string) (*model.User, error)
	FindByLogin(ctx context.Context, login string) (*model.User, error)
	Exists(ctx context.Context, uuid string) (bool, error)
}

type UserService interface {
	Register(ctx context.Context, login string, password string) (*model.User, error)
}
