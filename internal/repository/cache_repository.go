package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"session-token-server/config"
	"session-token-server/internal/model"
	"session-token-server/internal/util"

	"github.com/redis/go-redis/v9"
)

// CacheRepository хранит в Redis положительный кэш живых сессий.
// Кэш только ускоряет проверку: промах или сбой Redis всегда ведут в БД
type CacheRepository struct {
	client *config.RedisClient
	ttl    time.Duration
}

func NewCacheRepository(rdb *config.RedisClient, ttl time.Duration) *CacheRepository {
	return &CacheRepository{rdb, ttl}
}

// SetSession кладёт строку сессии в кэш и регистрирует токен в индексе владельца.
// TTL записи не превышает остаток жизни самой сессии
func (r *CacheRepository) SetSession(ctx context.Context, session *model.SessionToken) error {
	data, err := json.Marshal(session)
	if err != nil {
		return util.LogError("ошибка сериализации сессии", err)
	}

	ttl := r.ttl
	if remaining := time.Until(time.UnixMilli(session.ExpiresAt)); remaining < ttl {
		if remaining <= 0 {
			return nil // просроченную сессию кэшировать нечего
		}
		ttl = remaining
	}

	pipe := r.client.Client.Pipeline()
	pipe.Set(ctx, r.key(session.Token), data, ttl)
	pipe.SAdd(ctx, r.ownerKey(session.OwnerUUID), session.Token)
	pipe.Expire(ctx, r.ownerKey(session.OwnerUUID), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return util.LogError("ошибка сохранения сессии в Redis", err)
	}

	return nil
}

// GetSession возвращает сессию из кэша либо nil при промахе
func (r *CacheRepository) GetSession(ctx context.Context, token string) (*model.SessionToken, error) {
	val, err := r.client.Client.Get(ctx, r.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // нет в кэше
	} else if err != nil {
		return nil, util.LogError("ошибка получения сессии из Redis", err)
	}

	var session model.SessionToken
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, util.LogError("ошибка десериализации сессии из кэша", err)
	}
	return &session, nil
}

// DeleteSession выбрасывает сессию из кэша при отзыве
func (r *CacheRepository) DeleteSession(ctx context.Context, ownerUUID string, token string) error {
	pipe := r.client.Client.Pipeline()
	pipe.Del(ctx, r.key(token))
	pipe.SRem(ctx, r.ownerKey(ownerUUID), token)
	if _, err := pipe.Exec(ctx); err != nil {
		return util.LogError("ошибка удаления сессии из Redis", err)
	}
	return nil
}

// DeleteOwnerSessions выбрасывает из кэша все сессии владельца ("выйти везде")
func (r *CacheRepository) DeleteOwnerSessions(ctx context.Context, ownerUUID string) error {
	tokens, err := r.client.Client.SMembers(ctx, r.ownerKey(ownerUUID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return util.LogError("ошибка чтения индекса сессий владельца", err)
	}

	pipe := r.client.Client.Pipeline()
	for _, token := range tokens {
		pipe.Del(ctx, r.key(token))
	}
	pipe.Del(ctx, r.ownerKey(ownerUUID))
	if _, err := pipe.Exec(ctx); err != nil {
		return util.LogError("ошибка удаления сессий владельца из Redis", err)
	}

	return nil
}

func (r *CacheRepository) key(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func (r *CacheRepository) ownerKey(ownerUUID string) string {
	return fmt.Sprintf("owner_sessions:%s", ownerUUID)
}
