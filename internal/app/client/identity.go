package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"

	"notekeeper/internal/domain/sync"
	"notekeeper/internal/domain/user"
)

// Session сохраненная аутентификация. Токен пустой, если сессия получена
// офлайн и сервер ее еще не подтверждал.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token,omitempty"`
	IsAdmin   bool      `json:"is_admin,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthRemote - auth-эндпоинты сервера глазами клиента
type AuthRemote interface {
	SignUp(ctx context.Context, email, password string) (*user.Identity, error)
	SignIn(ctx context.Context, email, password string) (*user.Identity, error)
	SetCredentials(token, userID string)
}

// Identity сводит локальную и серверную личность пользователя к одному id.
// Офлайн-регистрация выдает локальный uuid; когда сервер позже признает
// пользователя под своим id, все локальные данные перевешиваются на него
// одной транзакцией. Это rename, а не merge.
type Identity struct {
	replica     *Replica
	remote      AuthRemote
	sessionPath string
	log         *slog.Logger
	now         func() time.Time

	mu      gosync.Mutex
	session *Session
}

func NewIdentity(replica *Replica, remote AuthRemote, sessionPath string, log *slog.Logger) *Identity {
	return &Identity{
		replica:     replica,
		remote:      remote,
		sessionPath: sessionPath,
		log:         log,
		now:         time.Now,
	}
}

// Restore поднимает сессию с диска при старте приложения
func (i *Identity) Restore() error {
	data, err := os.ReadFile(i.sessionPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ошибка чтения сессии: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("ошибка парсинга сессии: %w", err)
	}

	i.mu.Lock()
	i.session = &s
	i.mu.Unlock()

	i.remote.SetCredentials(s.Token, s.UserID)
	return nil
}

// Current возвращает копию активной сессии или nil
func (i *Identity) Current() *Session {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.session == nil {
		return nil
	}
	s := *i.session
	return &s
}

func (i *Identity) IsAuthenticated() bool {
	return i.Current() != nil
}

// SignUp регистрирует пользователя. Локальная учетная запись создается сразу
// и работает без сети; серверная регистрация выполняется как best-effort,
// при недоступности сервера откладывается до первого онлайн-входа.
func (i *Identity) SignUp(ctx context.Context, email, password string) (*Session, error) {
	localUser, err := i.ensureLocalUser(email, password)
	if err != nil {
		return nil, err
	}

	identity, err := i.remote.SignUp(ctx, email, password)
	switch {
	case err == nil:
		return i.adopt(localUser.ID, identity)

	case errors.Is(err, sync.ErrNetwork), errors.Is(err, sync.ErrServer):
		i.log.Info("Сервер недоступен, регистрация отложена до первого онлайн-входа",
			"email", email)
		return i.saveSession(&Session{
			UserID:    localUser.ID,
			Email:     email,
			CreatedAt: i.now(),
		})

	default:
		return nil, err
	}
}

// SignIn аутентифицирует пользователя. Сначала сервер; если он недоступен,
// пароль проверяется по локальному bcrypt-хэшу и сессия живет без токена.
func (i *Identity) SignIn(ctx context.Context, email, password string) (*Session, error) {
	identity, err := i.remote.SignIn(ctx, email, password)
	switch {
	case err == nil:
		localID := identity.ID
		if localUser, lookupErr := i.replica.GetUserByEmail(email); lookupErr == nil {
			localID = localUser.ID
		}

		// материализуем локальную учетную запись для офлайн-входа
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, fmt.Errorf("ошибка хэширования пароля: %w", hashErr)
		}
		if saveErr := i.replica.SaveUser(&user.User{
			ID:           localID,
			Email:        email,
			PasswordHash: string(hash),
			IsAdmin:      identity.IsAdmin,
			CreatedAt:    i.now(),
		}); saveErr != nil {
			return nil, saveErr
		}

		return i.adopt(localID, identity)

	case errors.Is(err, sync.ErrUnauthorized), errors.Is(err, sync.ErrValidation):
		return nil, user.ErrInvalidAuth

	case errors.Is(err, sync.ErrNetwork), errors.Is(err, sync.ErrServer):
		return i.signInOffline(email, password)

	default:
		return nil, err
	}
}

// SignOut сбрасывает сессию. Локальные данные остаются на месте.
func (i *Identity) SignOut() error {
	i.mu.Lock()
	i.session = nil
	i.mu.Unlock()

	i.remote.SetCredentials("", "")

	if err := os.Remove(i.sessionPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления сессии: %w", err)
	}
	return nil
}

// adopt принимает серверную личность: при расхождении id локальные данные
// атомарно перевешиваются на серверный id
func (i *Identity) adopt(localID string, identity *user.Identity) (*Session, error) {
	if localID != identity.ID {
		if err := i.replica.RekeyOwner(localID, identity.ID); err != nil {
			return nil, fmt.Errorf("ошибка смены id владельца: %w", err)
		}
		i.log.Info("Локальный id владельца заменен серверным",
			"old_id", localID, "new_id", identity.ID)
	}

	i.remote.SetCredentials(identity.Token, identity.ID)

	return i.saveSession(&Session{
		UserID:    identity.ID,
		Email:     identity.Email,
		Token:     identity.Token,
		IsAdmin:   identity.IsAdmin,
		CreatedAt: i.now(),
	})
}

func (i *Identity) signInOffline(email, password string) (*Session, error) {
	localUser, err := i.replica.GetUserByEmail(email)
	if errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("сервер недоступен и локальная учетная запись не найдена: %w", sync.ErrNetwork)
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(localUser.PasswordHash), []byte(password)) != nil {
		return nil, user.ErrInvalidAuth
	}

	i.log.Info("Офлайн-вход по локальному хэшу", "email", email)

	return i.saveSession(&Session{
		UserID:    localUser.ID,
		Email:     localUser.Email,
		IsAdmin:   localUser.IsAdmin,
		CreatedAt: i.now(),
	})
}

// ensureLocalUser создает локальную учетную запись или возвращает
// существующую, если пароль совпадает. Повторная офлайн-регистрация
// с тем же паролем не плодит дублей.
func (i *Identity) ensureLocalUser(email, password string) (*user.User, error) {
	existing, err := i.replica.GetUserByEmail(email)
	if err == nil {
		if bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(password)) != nil {
			return nil, user.ErrEmailTaken
		}
		return existing, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	u := &user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    i.now(),
	}
	if err := i.replica.SaveUser(u); err != nil {
		return nil, err
	}

	return u, nil
}

func (i *Identity) saveSession(s *Session) (*Session, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации сессии: %w", err)
	}
	if err := os.WriteFile(i.sessionPath, data, 0600); err != nil {
		return nil, fmt.Errorf("ошибка записи сессии: %w", err)
	}

	i.mu.Lock()
	i.session = s
	i.mu.Unlock()

	out := *s
	return &out, nil
}
