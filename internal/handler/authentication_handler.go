package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"session-token-server/internal/model/requestresponse"
	"session-token-server/internal/ports"
	"session-token-server/internal/security"

	"github.com/go-chi/chi/v5"
)

type AuthenticationHandler struct {
	ports.AuthenticationService
	ports.TokenCodecInterface
}

func NewAuthenticationHandler(
	authenticationService ports.AuthenticationService,
	codec ports.TokenCodecInterface,
) *AuthenticationHandler {
	return &AuthenticationHandler{
		authenticationService,
		codec,
	}
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Получение токена сессии по логину и паролю. Необязательное поле device_id различает сессии одного пользователя на разных устройствах
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса" example({"login": "user1", "password": "StrongPass123!", "device_id": "phoneA"})
// @Success 200 {object} requestresponse.LoginResponse "Успешная аутентификация"
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный JSON или пустые поля"
// @Failure 401 {object} requestresponse.ErrorResponse "Неверный логин или пароль"
// @Failure 404 {object} requestresponse.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, 400, "некорректный JSON")
		return
	}

	if req.Login == "" || req.Password == "" {
		sendErrorResponse(w, 400, "login и password обязательны")
		return
	}

	issued, err := h.AuthenticationService.Login(ctx, req.Login, req.Password, req.DeviceID, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		log.Println(err)
		switch {
		case strings.Contains(err.Error(), "не найден"):
			sendErrorResponse(w, http.StatusNotFound, "пользователь не найден")
		case strings.Contains(err.Error(), "неверный логин или пароль"):
			sendErrorResponse(w, http.StatusUnauthorized, "неверный логин или пароль")
		default:
			sendErrorResponse(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		}
		return
	}

	resp := requestresponse.LoginResponse{}
	resp.Response.Token = issued.Token
	resp.Response.ExpiresAt = issued.ExpiresAt

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// GetCurrentUser godoc
// @Summary Информация о текущем пользователе
// @Description Возвращает UUID владельца и устройство авторизованной сессии
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <token>)
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthenticationHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendErrorResponse(w, 401, "не авторизован")
		return
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	resp := requestresponse.CurrentUserResponse{}
	resp.Response.UserUUID = claims.OwnerUUID
	resp.Response.DeviceID = claims.DeviceID

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// GetCurrentUserHead godoc
// @Summary Информация о текущем пользователе
// @Description Возвращает UUID владельца и устройство авторизованной сессии
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <token>)
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/me [head]
func (h *AuthenticationHandler) GetCurrentUserHead(w http.ResponseWriter, r *http.Request) {
	h.GetCurrentUser(w, r)
}

// RefreshToken godoc
// @Summary Обновление токена сессии
// @Description Перевыпускает токен, если остаток его жизни меньше суток. Иначе возвращает исходный токен с refreshed = false
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <token>)
// @Success 200 {object} requestresponse.RefreshTokenResponse "Текущий или перевыпущенный токен"
// @Failure 401 {object} requestresponse.ErrorResponse "Не авторизован или невалидный токен"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/refresh [post]
func (h *AuthenticationHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	token, err := security.GetTokenFromContext(ctx)
	if err != nil {
		sendErrorResponse(w, 401, "не авторизован")
		return
	}

	newToken, refreshed, err := h.AuthenticationService.Refresh(ctx, token, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		log.Println(err)
		switch {
		case strings.Contains(err.Error(), "не удалось провалидировать токен"),
			strings.Contains(err.Error(), "невалидный токен"):
			sendErrorResponse(w, 401, "не удалось обновить токен")
		default:
			sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		}
		return
	}

	resp := requestresponse.RefreshTokenResponse{}
	resp.Response.Token = newToken
	resp.Response.Refreshed = refreshed

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// Logout godoc
// @Summary Завершение одной сессии
// @Description Отзывает сессию по токену, переданному в URL. Повторный отзыв не является ошибкой
// @Tags Authentication
// @Produce json
// @Param token path string true "Токен сессии (JWT)"
// @Success 200 {object} requestresponse.LogoutResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/{token} [delete]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	token := chi.URLParam(r, "token")
	if token == "" {
		sendErrorResponse(w, http.StatusBadRequest, "токен не указан")
		return
	}

	claims, err := h.TokenCodecInterface.Verify(token)
	if err != nil {
		sendErrorResponse(w, http.StatusUnauthorized, "невалидный токен")
		return
	}

	revoked, err := h.AuthenticationService.Logout(ctx, claims.OwnerUUID, token)
	if err != nil {
		log.Println(err)
		sendErrorResponse(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	resp := requestresponse.LogoutResponse{}
	resp.Response.Revoked = revoked

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Println("ошибка кодирования ответа:", err)
	}
}

// LogoutAll godoc
// @Summary Завершение всех сессий пользователя
// @Description Отзывает все живые сессии владельца текущего токена ("выйти везде")
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <token>)
// @Success 200 {object} requestresponse.LogoutAllResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/sessions [delete]
func (h *AuthenticationHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		sendErrorResponse(w, 401, "не авторизован")
		return
	}

	count, err := h.AuthenticationService.LogoutAll(ctx, claims.OwnerUUID)
	if err != nil {
		log.Println(err)
		sendErrorResponse(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	resp := requestresponse.LogoutAllResponse{}
	resp.Response.RevokedCount = count

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// ListSessions godoc
// @Summary Список активных сессий
// @Description Возвращает живые сессии владельца текущего токена для списка устройств
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <token>)
// @Success 200 {object} requestresponse.SessionsResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/sessions [get]
func (h *AuthenticationHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		sendErrorResponse(w, 401, "не авторизован")
		return
	}

	sessions, err := h.AuthenticationService.ListSessions(ctx, claims.OwnerUUID)
	if err != nil {
		log.Println(err)
		sendErrorResponse(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	resp := requestresponse.SessionsResponse{
		Response: make([]requestresponse.SessionItem, 0, len(sessions)),
	}
	for _, s := range sessions {
		resp.Response = append(resp.Response, requestresponse.SessionItem{
			DeviceID:  s.DeviceID,
			UserAgent: s.UserAgent,
			IpAddress: s.IpAddress,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
		})
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(requestresponse.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}
