package requestresponse

// LoginRequest : тело запроса на аутентификацию
type LoginRequest struct {
	Login    string `json:"login" example:"user1"`
	Password string `json:"password" example:"P@ssw0rd123"`
	DeviceID string `json:"device_id,omitempty" example:"phoneA"`
}

// LoginResponse : ответ на успешную аутентификацию
type LoginResponse struct {
	Response struct {
		Token     string `json:"token" example:"eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9..."`
		ExpiresAt int64  `json:"expires_at" example:"1757000000000"`
	} `json:"response"`
}

// RegisterRequest : тело запроса на регистрацию
type RegisterRequest struct {
	Login    string `json:"login" example:"user1"`
	Password string `json:"password" example:"P@ssw0rd123"`
}

// RegisterResponse : ответ на успешную регистрацию
type RegisterResponse struct {
	Response struct {
		UserUUID string `json:"user_uuid" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
	} `json:"response"`
}

// CurrentUserResponse : информация о текущем пользователе
type CurrentUserResponse struct {
	Response struct {
		UserUUID string `json:"user_uuid" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
		DeviceID string `json:"device_id" example:"phoneA"`
	} `json:"response"`
}

// RefreshTokenResponse : ответ на запрос обновления токена
type RefreshTokenResponse struct {
	Response struct {
		Token string `json:"token" example:"eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9..."`
		// Refreshed равен false, если остаток жизни токена ещё велик и токен не менялся
		Refreshed bool `json:"refreshed" example:"true"`
	} `json:"response"`
}

// LogoutResponse : ответ на завершение одной сессии
type LogoutResponse struct {
	Response struct {
		Revoked bool `json:"revoked" example:"true"`
	} `json:"response"`
}

// LogoutAllResponse : ответ на завершение всех сессий пользователя
type LogoutAllResponse struct {
	Response struct {
		RevokedCount int64 `json:"revoked_count" example:"3"`
	} `json:"response"`
}

// SessionItem : одна активная сессия в списке устройств
type SessionItem struct {
	DeviceID  string `json:"device_id" example:"phoneA"`
	UserAgent string `json:"user_agent" example:"Mozilla/5.0"`
	IpAddress string `json:"ip_address" example:"203.0.113.7:51234"`
	CreatedAt int64  `json:"created_at" example:"1756300000000"`
	ExpiresAt int64  `json:"expires_at" example:"1757000000000"`
}

// SessionsResponse : список активных сессий пользователя
type SessionsResponse struct {
	Response []SessionItem `json:"response"`
}

// ErrorResponse : стандартный ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error" example:"Unauthorized"`
	Message string `json:"message" example:"невалидный токен"`
	Code    int    `json:"code" example:"401"`
}
