package repository

import (
	"context"
	"database/sql"
	"errors"

	"session-token-server/config"
	"session-token-server/internal/model"
	"session-token-server/internal/util"
)

// ErrSessionNotFound возвращается одинаково для отсутствующей, отозванной
// и просроченной строки, чтобы по ответу нельзя было перечислять токены
var ErrSessionNotFound = errors.New("сессия не найдена")

type SessionRepository struct {
	*config.Database
}

func NewSessionRepository(database *config.Database) *SessionRepository {
	return &SessionRepository{database}
}

// Issue сохраняет новую строку сессии и возвращает её id.
// Всегда вставка, никакого upsert: повторный логин того же владельца
// с того же устройства создаёт новую строку
func (r *SessionRepository) Issue(ctx context.Context, session *model.SessionToken) (int64, error) {
	query := `INSERT INTO sessions (owner_uuid, token, device_id, user_agent, ip_address, created_at, expires_at, revoked)
				VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
				RETURNING id
	`

	var id int64
	err := r.DB.QueryRowContext(ctx, query,
		session.OwnerUUID,
		session.Token,
		session.DeviceID,
		session.UserAgent,
		session.IpAddress,
		session.CreatedAt,
		session.ExpiresAt,
	).Scan(&id)

	if err != nil {
		return 0, util.LogError("[SessionRepo] ошибка вставки сессии в БД", err)
	}

	return id, nil
}

// Verify ищет живую строку по точному значению токена.
// Живая строка: не отозвана и expires_at > nowMs
func (r *SessionRepository) Verify(ctx context.Context, token string, nowMs int64) (*model.SessionToken, error) {
	query := `SELECT id, owner_uuid, token, device_id, user_agent, ip_address, created_at, expires_at, revoked
				FROM sessions
				WHERE token = $1 AND revoked = FALSE AND expires_at > $2`

	session := &model.SessionToken{}
	err := r.DB.GetContext(ctx, session, query, token, nowMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, util.LogError("[SessionRepo] ошибка при выполнении запроса", err)
	}

	return session, nil
}

// RevokeOne помечает отозванной строку, совпавшую по владельцу и токену.
// Возвращает false без ошибки, если живой строки не нашлось: повторный
// отзыв и отзыв чужого токена не являются сбоем
func (r *SessionRepository) RevokeOne(ctx context.Context, ownerUUID string, token string) (bool, error) {
	query := `UPDATE sessions SET revoked = TRUE WHERE owner_uuid = $1 AND token = $2 AND revoked = FALSE`

	result, err := r.DB.ExecContext(ctx, query, ownerUUID, token)
	if err != nil {
		return false, util.LogError("[SessionRepo] не удалось отозвать сессию", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("[SessionRepo] не удалось проверить, отозвана ли сессия", err)
	}

	return rowsAffected > 0, nil
}

// RevokeAll отзывает все живые сессии владельца ("выйти везде").
// Возвращает число отозванных строк
func (r *SessionRepository) RevokeAll(ctx context.Context, ownerUUID string) (int64, error) {
	query := `UPDATE sessions SET revoked = TRUE WHERE owner_uuid = $1 AND revoked = FALSE`

	result, err := r.DB.ExecContext(ctx, query, ownerUUID)
	if err != nil {
		return 0, util.LogError("[SessionRepo] не удалось отозвать сессии владельца", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, util.LogError("[SessionRepo] не удалось получить число отозванных сессий", err)
	}

	return rowsAffected, nil
}

// ListActive возвращает живые сессии владельца для списка устройств
func (r *SessionRepository) ListActive(ctx context.Context, ownerUUID string, nowMs int64) ([]*model.SessionToken, error) {
	query := `SELECT id, owner_uuid, token, device_id, user_agent, ip_address, created_at, expires_at, revoked
				FROM sessions
				WHERE owner_uuid = $1 AND revoked = FALSE AND expires_at > $2
				ORDER BY created_at DESC`

	var sessions []*model.SessionToken
	if err := r.DB.SelectContext(ctx, &sessions, query, ownerUUID, nowMs); err != nil {
		return nil, util.LogError("[SessionRepo] не удалось получить список сессий", err)
	}

	return sessions, nil
}

// ListExpired возвращает просроченные строки перед их удалением (для архива)
func (r *SessionRepository) ListExpired(ctx context.Context, nowMs int64) ([]*model.SessionToken, error) {
	query := `SELECT id, owner_uuid, token, device_id, user_agent, ip_address, created_at, expires_at, revoked
				FROM sessions
				WHERE expires_at < $1`

	var sessions []*model.SessionToken
	if err := r.DB.SelectContext(ctx, &sessions, query, nowMs); err != nil {
		return nil, util.LogError("[SessionRepo] не удалось получить просроченные сессии", err)
	}

	return sessions, nil
}

// PurgeExpired удаляет строки с истёкшим сроком независимо от флага revoked.
// Отозванные, но не просроченные строки остаются как история
func (r *SessionRepository) PurgeExpired(ctx context.Context, nowMs int64) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at < $1`

	result, err := r.DB.ExecContext(ctx, query, nowMs)
	if err != nil {
		return 0, util.LogError("[SessionRepo] не удалось удалить просроченные сессии", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, util.LogError("[SessionRepo] не удалось получить число удалённых сессий", err)
	}

	return rowsAffected, nil
}
