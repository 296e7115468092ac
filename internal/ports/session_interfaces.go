package ports

import (
	"context"
	"time"

	"session-token-server/internal/model"
	"session-token-server/internal/security"
)

// SessionRepositoryInterface : долговременный учёт выданных токенов
type SessionRepositoryInterface interface {
	Issue(ctx context.Context, session *model.SessionToken) (int64, error)
	Verify(ctx context.Context, token string, nowMs int64) (*model.SessionToken, error)
	RevokeOne(ctx context.Context, ownerUUID string, token string) (bool, error)
	RevokeAll(ctx context.Context, ownerUUID string) (int64, error)
	ListActive(ctx context.Context, ownerUUID string, nowMs int64) ([]*model.SessionToken, error)
	ListExpired(ctx context.Context, nowMs int64) ([]*model.SessionToken, error)
	PurgeExpired(ctx context.Context, nowMs int64) (int64, error)
}

// TokenCodecInterface : подпись и проверка токенов без знания о хранилище
type TokenCodecInterface interface {
	Sign(ownerUUID string, deviceID string, ttl time.Duration) (string, *security.Claims, error)
	Verify(tokenStr string) (*security.Claims, error)
	DecodeUnsafe(tokenStr string) (*security.Claims, error)
	Refresh(tokenStr string) (string, bool, error)
}

// SessionCache : Redis слой поверх БД сессий
type SessionCache interface {
	SetSession(ctx context.Context, session *model.SessionToken) error
	GetSession(ctx context.Context, token string) (*model.SessionToken, error)
	DeleteSession(ctx context.Context, ownerUUID string, token string) error
	DeleteOwnerSessions(ctx context.Context, ownerUUID string) error
}

// SessionArchive : выгрузка просроченных строк перед удалением
type SessionArchive interface {
	ArchiveSessions(ctx context.Context, sessions []*model.SessionToken) error
}
