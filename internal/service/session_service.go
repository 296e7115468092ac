package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"session-token-server/config"
	"session-token-server/internal/model"
	"session-token-server/internal/notifier"
	"session-token-server/internal/ports"
	"session-token-server/internal/repository"
	"session-token-server/internal/security"
	"session-token-server/internal/util"
)

type SessionService struct {
	sessionRepo ports.SessionRepositoryInterface
	codec       ports.TokenCodecInterface
	userRepo    ports.UserRepository
	cache       ports.SessionCache
	archive     ports.SessionArchive
	*config.AppConfig

	purgeRunning atomic.Bool
}

func NewSessionService(
	sessionRepo ports.SessionRepositoryInterface,
	codec ports.TokenCodecInterface,
	userRepo ports.UserRepository,
	cache ports.SessionCache,
	archive ports.SessionArchive,
	cfg *config.AppConfig,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		codec:       codec,
		userRepo:    userRepo,
		cache:       cache,
		archive:     archive,
		AppConfig:   cfg,
	}
}

// Login проверяет учётные данные, подписывает токен и сохраняет строку сессии.
// Ошибка записи в хранилище проваливает весь логин: токен, который хранилище
// не сможет потом подтвердить, клиенту не отдаётся
func (s *SessionService) Login(ctx context.Context, login, password, deviceID, userAgent, ipAddress string) (*model.IssuedSession, error) {
	user, err := s.userRepo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("пользователь не найден")
		}
		return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("неверный логин или пароль")
	}

	token, claims, err := s.codec.Sign(user.UUID, deviceID, 0)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации токена: %w", err)
	}

	session, err := s.issueRecord(ctx, token, claims, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	return &model.IssuedSession{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// issueRecord сохраняет строку сессии для подписанного токена и кладёт её в кэш
func (s *SessionService) issueRecord(ctx context.Context, token string, claims *security.Claims, userAgent, ipAddress string) (*model.SessionToken, error) {
	session := &model.SessionToken{
		OwnerUUID: claims.OwnerUUID,
		Token:     token,
		DeviceID:  claims.DeviceID,
		UserAgent: userAgent,
		IpAddress: ipAddress,
		CreatedAt: claims.IssuedAt.Time.UnixMilli(),
		ExpiresAt: claims.ExpiresAt.Time.UnixMilli(),
	}

	id, err := s.sessionRepo.Issue(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("не удалось сохранить сессию: %w", err)
	}
	session.ID = id

	if s.cache != nil {
		if err := s.cache.SetSession(ctx, session); err != nil {
			log.Printf("[SessionService] кэш недоступен при выдаче: %v", err)
		}
	}

	return session, nil
}

// VerifySession подтверждает наличие живой строки сессии по точному значению токена.
// Сначала кэш, затем БД; сбой кэша не превращается в отказ проверки
func (s *SessionService) VerifySession(ctx context.Context, token string) (*model.SessionToken, error) {
	nowMs := time.Now().UnixMilli()

	if s.cache != nil {
		cached, err := s.cache.GetSession(ctx, token)
		if err != nil {
			log.Printf("[SessionService] ошибка чтения кэша: %v", err)
		} else if cached != nil && !cached.Revoked && cached.ExpiresAt > nowMs {
			return cached, nil
		}
	}

	session, err := s.sessionRepo.Verify(ctx, token, nowMs)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetSession(ctx, session); err != nil {
			log.Printf("[SessionService] кэш недоступен при проверке: %v", err)
		}
	}

	return session, nil
}

// Refresh перевыпускает токен с остатком жизни ниже порога.
// Новый токен сохраняется отдельной строкой, чтобы его можно было отзывать
// независимо от исходного. Старая строка остаётся живой до своего срока
func (s *SessionService) Refresh(ctx context.Context, token, userAgent, ipAddress string) (string, bool, error) {
	if _, err := s.codec.Verify(token); err != nil {
		return "", false, util.LogError("не удалось провалидировать токен", err)
	}

	session, err := s.VerifySession(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return "", false, fmt.Errorf("невалидный токен")
		}
		return "", false, util.LogError("не удалось найти сессию", err)
	}

	if session.IpAddress != ipAddress {
		log.Printf("обнаружено обновление токена с нового ip адреса, отправка webhook")
		timeout, _ := time.ParseDuration(s.Webhook.Timeout)
		go func() {
			if err := notifier.NotifyWebhook(s.Webhook.URL, timeout, session.OwnerUUID, ipAddress, session.IpAddress); err != nil {
				log.Printf("ошибка отправки webhook: %v", err)
			}
		}()
	}

	newToken, refreshed, err := s.codec.Refresh(token)
	if err != nil {
		return "", false, util.LogError("ошибка перевыпуска токена", err)
	}
	if !refreshed {
		return token, false, nil
	}

	claims, err := s.codec.DecodeUnsafe(newToken)
	if err != nil {
		return "", false, util.LogError("не удалось прочитать новый токен", err)
	}

	if _, err := s.issueRecord(ctx, newToken, claims, userAgent, ipAddress); err != nil {
		return "", false, util.LogError("не удалось сохранить перевыпущенную сессию", err)
	}

	return newToken, true, nil
}

// Logout отзывает одну сессию владельца.
// Возвращает false без ошибки, если живой строки уже нет: отзыв идемпотентен
func (s *SessionService) Logout(ctx context.Context, ownerUUID string, token string) (bool, error) {
	revoked, err := s.sessionRepo.RevokeOne(ctx, ownerUUID, token)
	if err != nil {
		return false, fmt.Errorf("не удалось отозвать сессию: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.DeleteSession(ctx, ownerUUID, token); err != nil {
			log.Printf("[SessionService] не удалось убрать сессию из кэша: %v", err)
		}
	}

	return revoked, nil
}

// LogoutAll отзывает все живые сессии владельца ("выйти везде")
func (s *SessionService) LogoutAll(ctx context.Context, ownerUUID string) (int64, error) {
	count, err := s.sessionRepo.RevokeAll(ctx, ownerUUID)
	if err != nil {
		return 0, fmt.Errorf("не удалось отозвать сессии владельца: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.DeleteOwnerSessions(ctx, ownerUUID); err != nil {
			log.Printf("[SessionService] не удалось убрать сессии владельца из кэша: %v", err)
		}
	}

	return count, nil
}

// ListSessions возвращает активные сессии владельца для списка устройств
func (s *SessionService) ListSessions(ctx context.Context, ownerUUID string) ([]*model.SessionToken, error) {
	sessions, err := s.sessionRepo.ListActive(ctx, ownerUUID, time.Now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("не удалось получить список сессий: %w", err)
	}
	return sessions, nil
}

// StartPurgeLoop запускает периодическую очистку просроченных строк.
// Работает отдельно от обработки запросов и останавливается с контекстом
func (s *SessionService) StartPurgeLoop(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.RunPurge(ctx); err != nil {
					log.Printf("[SessionService] ошибка очистки сессий: %v", err)
				}
			}
		}
	}()
}

// RunPurge выполняет один проход очистки.
// Если предыдущий проход ещё не завершился, этот пропускается
func (s *SessionService) RunPurge(ctx context.Context) (int64, error) {
	if !s.purgeRunning.CompareAndSwap(false, true) {
		log.Printf("[SessionService] очистка уже выполняется, проход пропущен")
		return 0, nil
	}
	defer s.purgeRunning.Store(false)

	nowMs := time.Now().UnixMilli()

	if s.archive != nil {
		expired, err := s.sessionRepo.ListExpired(ctx, nowMs)
		if err != nil {
			return 0, fmt.Errorf("не удалось получить просроченные сессии: %w", err)
		}
		if len(expired) > 0 {
			// без архива строки не удаляются, попробуем на следующем проходе
			if err := s.archive.ArchiveSessions(ctx, expired); err != nil {
				return 0, fmt.Errorf("не удалось заархивировать сессии: %w", err)
			}
		}
	}

	count, err := s.sessionRepo.PurgeExpired(ctx, nowMs)
	if err != nil {
		return 0, fmt.Errorf("не удалось удалить просроченные сессии: %w", err)
	}

	if count > 0 {
		log.Printf("[SessionService] удалено просроченных сессий: %d", count)
	}

	return count, nil
}
