package model

// DefaultDeviceID подставляется, когда клиент не сообщил устройство
const DefaultDeviceID = "unknown"

// SessionToken : строка учёта выданного токена в БД сессий.
// После создания изменяется только поле Revoked (и только в сторону true).
// Эта структура целиком сериализуется в кэш и в архив, поэтому токен из JSON
// не вырезается; наружу в HTTP-ответы уходят только DTO из requestresponse.
type SessionToken struct {
	ID        int64  `db:"id" json:"id"`
	OwnerUUID string `db:"owner_uuid" json:"owner_uuid"`
	Token     string `db:"token" json:"token"`
	DeviceID  string `db:"device_id" json:"device_id"`
	UserAgent string `db:"user_agent" json:"user_agent"`
	IpAddress string `db:"ip_address" json:"ip_address"`
	// CreatedAt и ExpiresAt — миллисекунды от эпохи
	CreatedAt int64 `db:"created_at" json:"created_at"`
	ExpiresAt int64 `db:"expires_at" json:"expires_at"`
	Revoked   bool  `db:"revoked" json:"revoked"`
}

// IssuedSession : результат выдачи токена при логине
// swagger:model
type IssuedSession struct {
	// Токен сессии (JWT)
	// example: eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9...
	Token string `json:"token"`

	// Срок действия, миллисекунды от эпохи
	ExpiresAt int64 `json:"expires_at"`
}
