package security

import (
	"fmt"
	"time"

	"session-token-server/config"
	"session-token-server/internal/model"
	"session-token-server/internal/util"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "session-token-server"

type Claims struct {
	OwnerUUID string `json:"owner_uuid"`
	DeviceID  string `json:"device_id,omitempty"`
	IsAdmin   bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec подписывает и проверяет токены сессий.
// Не знает о хранилище сессий: чистая функция от входа, секрета и часов.
type TokenCodec struct {
	*config.JWTConfig
	now func() time.Time
}

func NewTokenCodec(cfg *config.JWTConfig) *TokenCodec {
	return &TokenCodec{cfg, time.Now}
}

// Sign выдаёт подписанный токен для пары владелец+устройство.
// При ttl <= 0 используется срок из конфигурации.
// Возвращает строку токена и вложенные в него claims
func (c *TokenCodec) Sign(ownerUUID string, deviceID string, ttl time.Duration) (string, *Claims, error) {
	if ownerUUID == "" {
		return "", nil, fmt.Errorf("owner uuid обязателен")
	}
	if deviceID == "" {
		deviceID = model.DefaultDeviceID
	}

	if ttl <= 0 {
		parsed, err := time.ParseDuration(c.TokenTTL)
		if err != nil {
			return "", nil, util.LogError("ошибка парсинга token_ttl", err)
		}
		ttl = parsed
	}

	now := c.now()
	claims := &Claims{
		OwnerUUID: ownerUUID,
		DeviceID:  deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := jwtToken.SignedString([]byte(c.SecretKey))
	if err != nil {
		return "", nil, util.LogError("ошибка подписи токена", err)
	}

	return signed, claims, nil
}

// Verify проверяет подпись и срок действия токена.
// Ошибка возвращается одинаковой для битой подписи, мусорного токена и просроченных claims
func (c *TokenCodec) Verify(tokenStr string) (*Claims, error) {
	var claims = &Claims{}

	jwtToken, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Header["alg"] != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return []byte(c.SecretKey), nil
	}, jwt.WithTimeFunc(c.now))

	if err != nil || jwtToken.Valid == false {
		return nil, util.LogError("невалидный токен", err)
	}

	return claims, nil
}

// DecodeUnsafe извлекает claims без проверки подписи.
// Только для чтения срока действия, не для решений об авторизации
func (c *TokenCodec) DecodeUnsafe(tokenStr string) (*Claims, error) {
	var claims = &Claims{}

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, util.LogError("не удалось разобрать токен", err)
	}

	return claims, nil
}

// Refresh перевыпускает токен, если остаток его жизни меньше порога.
// Возвращает (новый токен, true) либо (исходный токен, false), если обновление ещё не нужно.
// Хранилище сессий не трогает: новую строку сохраняет вызывающая сторона
func (c *TokenCodec) Refresh(tokenStr string) (string, bool, error) {
	claims, err := c.Verify(tokenStr)
	if err != nil {
		return "", false, err
	}

	threshold, err := time.ParseDuration(c.RefreshThreshold)
	if err != nil {
		return "", false, util.LogError("ошибка парсинга refresh_threshold", err)
	}

	if claims.ExpiresAt == nil {
		return "", false, fmt.Errorf("невалидный токен: отсутствует срок действия")
	}

	if claims.ExpiresAt.Time.Sub(c.now()) >= threshold {
		return tokenStr, false, nil
	}

	newToken, _, err := c.Sign(claims.OwnerUUID, claims.DeviceID, 0)
	if err != nil {
		return "", false, util.LogError("ошибка перевыпуска токена", err)
	}

	return newToken, true, nil
}
