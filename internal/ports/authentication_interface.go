package ports

import (
	"context"

	"session-token-server/internal/model"
)

type AuthenticationService interface {
	Login(ctx context.Context, login, password, deviceID, userAgent, ipAddress string) (*model.IssuedSession, error)
	Refresh(ctx context.Context, token, userAgent, ipAddress string) (string, bool, error)
	Logout(ctx context.Context, ownerUUID string, token string) (bool, error)
	LogoutAll(ctx context.Context, ownerUUID string) (int64, error)
	ListSessions(ctx context.Context, ownerUUID string) ([]*model.SessionToken, error)
	VerifySession(ctx context.Context, token string) (*model.SessionToken, error)
}
