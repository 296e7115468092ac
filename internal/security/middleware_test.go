package security

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"session-token-server/config"
	"session-token-server/internal/model"
	"session-token-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ===== MOCKS =====

type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) Verify(tokenStr string) (*Claims, error) {
	args := m.Called(tokenStr)
	if claims, ok := args.Get(0).(*Claims); ok {
		return claims, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSessionVerifier struct {
	mock.Mock
}

func (m *MockSessionVerifier) VerifySession(ctx context.Context, token string) (*model.SessionToken, error) {
	args := m.Called(ctx, token)
	if session, ok := args.Get(0).(*model.SessionToken); ok {
		return session, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockIdentityFinder struct {
	mock.Mock
}

func (m *MockIdentityFinder) FindByUUID(ctx context.Context, uuid string) (*model.User, error) {
	args := m.Called(ctx, uuid)
	if user, ok := args.Get(0).(*model.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// ===== HELPERS =====

func newAuthedRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return req
}

func runMiddleware(t *testing.T, codec TokenVerifier, sessions SessionVerifier, users IdentityFinder, adminToken string, req *http.Request) (*httptest.ResponseRecorder, *bool) {
	t.Helper()

	handlerCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	recorder := httptest.NewRecorder()
	AuthMiddleware(codec, sessions, users, adminToken)(next).ServeHTTP(recorder, req)

	return recorder, &handlerCalled
}

func liveSession(owner, token string) *model.SessionToken {
	now := time.Now().UnixMilli()
	return &model.SessionToken{
		ID:        1,
		OwnerUUID: owner,
		Token:     token,
		DeviceID:  "phoneA",
		CreatedAt: now,
		ExpiresAt: now + int64(7*24*time.Hour/time.Millisecond),
	}
}

// ===== TESTS =====

// Пустой заголовок: отказ без единого вызова кодека или хранилища
func TestAuthMiddleware_MissingHeader(t *testing.T) {
	codec := new(MockTokenVerifier)
	sessions := new(MockSessionVerifier)
	users := new(MockIdentityFinder)

	recorder, handlerCalled := runMiddleware(t, codec, sessions, users, "", newAuthedRequest(""))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, *handlerCalled)
	codec.AssertNotCalled(t, "Verify", mock.Anything)
	sessions.AssertNotCalled(t, "VerifySession", mock.Anything, mock.Anything)
}

// Сценарий D: искажённая схема заголовка, хранилище не трогаем
func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	codec := new(MockTokenVerifier)
	sessions := new(MockSessionVerifier)
	users := new(MockIdentityFinder)

	recorder, handlerCalled := runMiddleware(t, codec, sessions, users, "", newAuthedRequest("Toklen abc"))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, *handlerCalled)
	codec.AssertNotCalled(t, "Verify", mock.Anything)
	sessions.AssertNotCalled(t, "VerifySession", mock.Anything, mock.Anything)
}

// Битая подпись отсекается до похода в хранилище
func TestAuthMiddleware_InvalidSignature(t *testing.T) {
	codec := new(MockTokenVerifier)
	sessions := new(MockSessionVerifier)
	users := new(MockIdentityFinder)

	codec.On("Verify", "bad-token").Return(nil, fmt.Errorf("невалидный токен"))

	recorder, handlerCalled := runMiddleware(t, codec, sessions, users, "", newAuthedRequest("Bearer bad-token"))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, *handlerCalled)
	sessions.AssertNotCalled(t, "VerifySession", mock.Anything, mock.Anything)
}

// Подпись валидна, но строки в хранилище нет: тот же ответ, что и на битую подпись
func TestAuthMiddleware_SessionNotFound(t *testing.T) {
	codec := new(MockTokenVerifier)
	sessions := new(MockSessionVerifier)
	users := new(MockIdentityFinder)

	codec.On("Verify", "tok").Return(&Claims{OwnerUUID: "u1"}, nil)
	sessions.On("VerifySession", mock.Anything, "tok").Return(nil, repository.ErrSessionNotFound)

	recorder, handlerCalled := runMiddleware(t, codec, sessions, users, "", newAuthedRequest("Bearer tok"))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "невалидный токен")
	assert.False(t, *handlerCalled)
	users.AssertNotCalled(t, "FindByUUID", mock.Anything, mock.Anything)
}

// Сбой хранилища не маскируется под отсутствие сессии
func TestAuthMiddleware_StorageFault(t *testing.T) {
	codec := new(MockTokenVerifier)
	sessions := new(MockSessionVerifier)
	users := new(MockIdentityFinder)

	codec.On("Verify", "tok").Return(&Claims{OwnerUUID: "u1"}, nil)
	sessions.On("VerifySession", mock.Anything, "tok").Return(nil, errors.New("connection refused"))

	recorder, handlerCalled := runMiddleware(t, codec, sessions, users, "", newAuthedRequest("Bearer tok"))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.False(t, *handlerCalled)
}

// Походы в хранилище и за владельцем идут с ограниченным по времени контекстом
func TestAuthMiddleware_LookupsCarryDeadline(t *testing.T) {
	codec := new(MockTokenVerifier)
	sessions := new(MockSessionVerifier)
	users := new(MockIdentityFinder)

	codec.On("Verify", "tok").Return(&Claims{OwnerUUID: "u1"}, nil)

	var storeDeadline, userDeadline time.Time
	var storeHasDeadline, userHasDeadline bool
	sessions.On("VerifySession", mock.Anything, "tok").Run(func(args mock.Arguments) {
		storeDeadline, storeHasDeadline = args.Get(0).(context.Context).Deadline()
	}).Return(liveSession("u1", "tok"), nil)
	users.On("FindByUUID", mock.Anything, "u1").Run(func(args mock.Arguments) {
		userDeadline, userHasDeadline = args.Get(0).(context.Context).Deadline()
	}).Return(&model.User{UUID: "u1", Login: "user0001"}, nil)

	before := time.Now()
	recorder, _ := runMiddleware(t, codec, sessions, users, "", newAuthedRequest("Bearer tok"))

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.True(t, storeHasDeadline)
	require.True(t, userHasDeadline)
	assert.WithinDuration(t, before.Add(lookupTimeout), storeDeadline, time.Second)
	assert.WithinDuration(t, before.Add(lookupTimeout), userDeadline, time.Second)
}

// Обрыв похода по дедлайну — серверный сбой, а не невалидный токен
func TestAuthMiddleware_LookupDeadlineExceededIsStorageFault(t *testing.T) {
	codec := new(MockTokenVerifier)
	sessions := new(MockSessionVerifier)
	users := new(MockIdentityFinder)

	codec.On("Verify", "tok").Return(&Claims{OwnerUUID: "u1"}, nil)
	sessions.On("VerifySession", mock.Anything, "tok").Return(nil, context.DeadlineExceeded)

	recorder, handlerCalled := runMiddleware(t, codec, sessions, users, "", newAuthedRequest("Bearer tok"))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "невалидный токен")
	assert.False(t, *handlerCalled)
}

// Токен живой, но владелец удалён
func TestAuthMiddleware_IdentityMissing(t *testing.T) {
	codec := new(MockTokenVerifier)
	sessions := new(MockSessionVerifier)
	users := new(MockIdentityFinder)

	codec.On("Verify", "tok").Return(&Claims{OwnerUUID: "u1"}, nil)
	sessions.On("VerifySession", mock.Anything, "tok").Return(liveSession("u1", "tok"), nil)
	users.On("FindByUUID", mock.Anything, "u1").Return(nil, repository.ErrUserNotFound)

	recorder, handlerCalled := runMiddleware(t, codec, sessions, users, "", newAuthedRequest("Bearer tok"))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "пользователь не найден")
	assert.False(t, *handlerCalled)
}

// Сбой поиска владельца — серверная ошибка, а не 401
func TestAuthMiddleware_IdentityLookupFault(t *testing.T) {
	codec := new(MockTokenVerifier)
	sessions := new(MockSessionVerifier)
	users := new(MockIdentityFinder)

	codec.On("Verify", "tok").Return(&Claims{OwnerUUID: "u1"}, nil)
	sessions.On("VerifySession", mock.Anything, "tok").Return(liveSession("u1", "tok"), nil)
	users.On("FindByUUID", mock.Anything, "u1").Return(nil, errors.New("timeout"))

	recorder, handlerCalled := runMiddleware(t, codec, sessions, users, "", newAuthedRequest("Bearer tok"))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.False(t, *handlerCalled)
}

// Полный успех: claims и токен доступны обработчику из контекста
func TestAuthMiddleware_Success(t *testing.T) {
	codec := new(MockTokenVerifier)
	sessions := new(MockSessionVerifier)
	users := new(MockIdentityFinder)

	codec.On("Verify", "tok").Return(&Claims{OwnerUUID: "u1", DeviceID: "phoneA"}, nil)
	sessions.On("VerifySession", mock.Anything, "tok").Return(liveSession("u1", "tok"), nil)
	users.On("FindByUUID", mock.Anything, "u1").Return(&model.User{UUID: "u1", Login: "user0001"}, nil)

	var gotClaims *Claims
	var gotToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = GetClaimsFromContext(r.Context())
		gotToken, _ = GetTokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	recorder := httptest.NewRecorder()
	AuthMiddleware(codec, sessions, users, "")(next).ServeHTTP(recorder, newAuthedRequest("Bearer tok"))

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "u1", gotClaims.OwnerUUID)
	assert.Equal(t, "tok", gotToken)
}

// Токен администратора минует кодек и хранилище
func TestAuthMiddleware_AdminToken(t *testing.T) {
	codec := new(MockTokenVerifier)
	sessions := new(MockSessionVerifier)
	users := new(MockIdentityFinder)

	recorder, handlerCalled := runMiddleware(t, codec, sessions, users, "super-admin", newAuthedRequest("Bearer super-admin"))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, *handlerCalled)
	codec.AssertNotCalled(t, "Verify", mock.Anything)
	sessions.AssertNotCalled(t, "VerifySession", mock.Anything, mock.Anything)
}

// ===== END-TO-END (реальный кодек + хранилище в памяти) =====

type fakeSessionStore struct {
	sessions map[string]*model.SessionToken
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*model.SessionToken)}
}

func (f *fakeSessionStore) VerifySession(_ context.Context, token string) (*model.SessionToken, error) {
	session, ok := f.sessions[token]
	if !ok || session.Revoked || session.ExpiresAt <= time.Now().UnixMilli() {
		return nil, repository.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessionStore) issue(owner, token string, expiresAt int64) {
	f.sessions[token] = &model.SessionToken{
		OwnerUUID: owner,
		Token:     token,
		DeviceID:  "phoneA",
		CreatedAt: time.Now().UnixMilli(),
		ExpiresAt: expiresAt,
	}
}

func (f *fakeSessionStore) revokeAll(owner string) {
	for _, session := range f.sessions {
		if session.OwnerUUID == owner {
			session.Revoked = true
		}
	}
}

type fakeUserStore struct {
	users map[string]*model.User
}

func (f *fakeUserStore) FindByUUID(_ context.Context, uuid string) (*model.User, error) {
	user, ok := f.users[uuid]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func newEndToEndFixture() (*TokenCodec, *fakeSessionStore, *fakeUserStore) {
	codec := NewTokenCodec(&config.JWTConfig{
		SecretKey:        "e2e-secret",
		TokenTTL:         "168h",
		RefreshThreshold: "24h",
	})
	store := newFakeSessionStore()
	users := &fakeUserStore{users: map[string]*model.User{
		"u1": {UUID: "u1", Login: "user0001"},
	}}
	return codec, store, users
}

// Сценарий A: выдача токена и успешный проход через middleware
func TestEndToEnd_IssueAndAuthorize(t *testing.T) {
	codec, store, users := newEndToEndFixture()

	token, claims, err := codec.Sign("u1", "phoneA", 7*24*time.Hour)
	require.NoError(t, err)
	store.issue("u1", token, claims.ExpiresAt.UnixMilli())

	var gotClaims *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = GetClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	recorder := httptest.NewRecorder()
	AuthMiddleware(codec, store, users, "")(next).ServeHTTP(recorder, newAuthedRequest("Bearer "+token))

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "u1", gotClaims.OwnerUUID)
}

// Сценарий B: "выйти везде" отклоняет оба старых токена, новый работает
func TestEndToEnd_RevokeAll(t *testing.T) {
	codec, store, users := newEndToEndFixture()

	tokenA, claimsA, err := codec.Sign("u1", "phoneA", 7*24*time.Hour)
	require.NoError(t, err)
	store.issue("u1", tokenA, claimsA.ExpiresAt.UnixMilli())

	tokenB, claimsB, err := codec.Sign("u1", "phoneB", 7*24*time.Hour)
	require.NoError(t, err)
	store.issue("u1", tokenB, claimsB.ExpiresAt.UnixMilli())

	store.revokeAll("u1")

	middleware := AuthMiddleware(codec, store, users, "")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, token := range []string{tokenA, tokenB} {
		recorder := httptest.NewRecorder()
		middleware(next).ServeHTTP(recorder, newAuthedRequest("Bearer "+token))
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	}

	tokenC, claimsC, err := codec.Sign("u1", "phoneA", 7*24*time.Hour)
	require.NoError(t, err)
	store.issue("u1", tokenC, claimsC.ExpiresAt.UnixMilli())

	recorder := httptest.NewRecorder()
	middleware(next).ServeHTTP(recorder, newAuthedRequest("Bearer "+tokenC))
	assert.Equal(t, http.StatusOK, recorder.Code)
}

// Сценарий C: просроченный токен отклоняется, хотя строка ещё не удалена
func TestEndToEnd_ExpiredToken(t *testing.T) {
	codec, store, users := newEndToEndFixture()

	token, claims, err := codec.Sign("u1", "phoneA", time.Second)
	require.NoError(t, err)
	store.issue("u1", token, claims.ExpiresAt.UnixMilli())

	// имитация прошедших 2 секунд
	codec.now = func() time.Time { return time.Now().Add(2 * time.Second) }

	recorder := httptest.NewRecorder()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	AuthMiddleware(codec, store, users, "")(next).ServeHTTP(recorder, newAuthedRequest("Bearer "+token))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
