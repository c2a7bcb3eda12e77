package client

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"notekeeper/internal/domain/sync"
	"notekeeper/internal/domain/user"
)

// fakeAuthRemote - auth-эндпоинты сервера в памяти
type fakeAuthRemote struct {
	signUpResult *user.Identity
	signUpErr    error
	signInResult *user.Identity
	signInErr    error

	token, userID string
}

func (f *fakeAuthRemote) SignUp(ctx context.Context, email, password string) (*user.Identity, error) {
	return f.signUpResult, f.signUpErr
}

func (f *fakeAuthRemote) SignIn(ctx context.Context, email, password string) (*user.Identity, error) {
	return f.signInResult, f.signInErr
}

func (f *fakeAuthRemote) SetCredentials(token, userID string) {
	f.token = token
	f.userID = userID
}

func newTestIdentity(t *testing.T, remote AuthRemote) (*Identity, *Replica) {
	t.Helper()
	replica := newTestReplica(t)
	id := NewIdentity(replica, remote, filepath.Join(t.TempDir(), "session.json"), testLogger())
	return id, replica
}

func TestIdentityOnlineSignUp(t *testing.T) {
	remote := &fakeAuthRemote{
		signUpResult: &user.Identity{ID: "srv-1", Email: "a@b.c", Token: "tok"},
	}
	id, replica := newTestIdentity(t, remote)

	s, err := id.SignUp(context.Background(), "a@b.c", "password123")
	if err != nil {
		t.Fatalf("Ошибка регистрации: %v", err)
	}

	if s.UserID != "srv-1" || s.Token != "tok" {
		t.Errorf("Неверная сессия: %+v", s)
	}
	if remote.token != "tok" || remote.userID != "srv-1" {
		t.Error("Учетные данные не переданы http-клиенту")
	}

	// локальная учетная запись перевешана на серверный id
	u, err := replica.GetUserByEmail("a@b.c")
	if err != nil {
		t.Fatalf("Ошибка получения пользователя: %v", err)
	}
	if u.ID != "srv-1" {
		t.Errorf("Локальный id не заменен серверным: %s", u.ID)
	}
}

func TestIdentityOfflineSignUpThenAdopt(t *testing.T) {
	remote := &fakeAuthRemote{
		signUpErr: fmt.Errorf("%w: refused", sync.ErrNetwork),
	}
	id, replica := newTestIdentity(t, remote)

	s, err := id.SignUp(context.Background(), "a@b.c", "password123")
	if err != nil {
		t.Fatalf("Ошибка офлайн-регистрации: %v", err)
	}
	if s.Token != "" {
		t.Error("Офлайн-сессия не должна иметь токена")
	}
	localID := s.UserID
	if localID == "" {
		t.Fatal("Офлайн-регистрация не выдала локальный id")
	}

	// офлайн-пользователь создает заметки
	if err := replica.SaveNote(testNote("n1", localID, time.Now().UTC()), OriginLocal); err != nil {
		t.Fatalf("Ошибка сохранения заметки: %v", err)
	}

	// сервер вернулся и признал пользователя под своим id
	remote.signInResult = &user.Identity{ID: "srv-9", Email: "a@b.c", Token: "tok"}
	s, err = id.SignIn(context.Background(), "a@b.c", "password123")
	if err != nil {
		t.Fatalf("Ошибка входа: %v", err)
	}
	if s.UserID != "srv-9" || s.Token != "tok" {
		t.Errorf("Сессия не приняла серверную личность: %+v", s)
	}

	// заметки атомарно перевешаны на серверный id
	notes, err := replica.ListNotes("srv-9")
	if err != nil {
		t.Fatalf("Ошибка получения списка: %v", err)
	}
	if len(notes) != 1 {
		t.Errorf("Заметки не перенесены на серверный id: %d", len(notes))
	}
	orphans, _ := replica.ListNotes(localID)
	if len(orphans) != 0 {
		t.Errorf("Под локальным id остались заметки: %d", len(orphans))
	}
}

func TestIdentityRepeatedOfflineSignUp(t *testing.T) {
	remote := &fakeAuthRemote{
		signUpErr: fmt.Errorf("%w: refused", sync.ErrNetwork),
	}
	id, _ := newTestIdentity(t, remote)

	s1, err := id.SignUp(context.Background(), "a@b.c", "password123")
	if err != nil {
		t.Fatalf("Ошибка первой регистрации: %v", err)
	}

	// тот же пароль - та же учетная запись, без дублей
	s2, err := id.SignUp(context.Background(), "a@b.c", "password123")
	if err != nil {
		t.Fatalf("Ошибка повторной регистрации: %v", err)
	}
	if s1.UserID != s2.UserID {
		t.Error("Повторная регистрация создала дубль пользователя")
	}

	// другой пароль - email занят
	if _, err := id.SignUp(context.Background(), "a@b.c", "different"); !errors.Is(err, user.ErrEmailTaken) {
		t.Errorf("Ожидалась ErrEmailTaken, получено %v", err)
	}
}

func TestIdentityOfflineSignIn(t *testing.T) {
	remote := &fakeAuthRemote{
		signInResult: &user.Identity{ID: "srv-1", Email: "a@b.c", Token: "tok"},
	}
	id, _ := newTestIdentity(t, remote)

	// онлайн-вход материализует локальный хэш
	if _, err := id.SignIn(context.Background(), "a@b.c", "password123"); err != nil {
		t.Fatalf("Ошибка онлайн-входа: %v", err)
	}
	if err := id.SignOut(); err != nil {
		t.Fatalf("Ошибка выхода: %v", err)
	}

	// сервер пропал
	remote.signInResult = nil
	remote.signInErr = fmt.Errorf("%w: refused", sync.ErrNetwork)

	t.Run("CorrectPassword", func(t *testing.T) {
		s, err := id.SignIn(context.Background(), "a@b.c", "password123")
		if err != nil {
			t.Fatalf("Ошибка офлайн-входа: %v", err)
		}
		if s.UserID != "srv-1" {
			t.Errorf("Неверный id в офлайн-сессии: %s", s.UserID)
		}
		if s.Token != "" {
			t.Error("Офлайн-сессия не должна иметь токена")
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		if _, err := id.SignIn(context.Background(), "a@b.c", "wrong"); !errors.Is(err, user.ErrInvalidAuth) {
			t.Errorf("Ожидалась ErrInvalidAuth, получено %v", err)
		}
	})

	t.Run("UnknownUser", func(t *testing.T) {
		if _, err := id.SignIn(context.Background(), "x@y.z", "password123"); err == nil {
			t.Error("Ожидалась ошибка для неизвестного пользователя")
		}
	})
}

func TestIdentityRejectedCredentials(t *testing.T) {
	remote := &fakeAuthRemote{
		signInErr: fmt.Errorf("%w: bad credentials", sync.ErrUnauthorized),
	}
	id, _ := newTestIdentity(t, remote)

	if _, err := id.SignIn(context.Background(), "a@b.c", "wrong"); !errors.Is(err, user.ErrInvalidAuth) {
		t.Errorf("Ожидалась ErrInvalidAuth, получено %v", err)
	}
}

func TestIdentitySessionRestore(t *testing.T) {
	remote := &fakeAuthRemote{
		signInResult: &user.Identity{ID: "srv-1", Email: "a@b.c", Token: "tok"},
	}
	replica := newTestReplica(t)
	sessionPath := filepath.Join(t.TempDir(), "session.json")

	id := NewIdentity(replica, remote, sessionPath, testLogger())
	if _, err := id.SignIn(context.Background(), "a@b.c", "password123"); err != nil {
		t.Fatalf("Ошибка входа: %v", err)
	}

	// перезапуск приложения
	remote2 := &fakeAuthRemote{}
	restored := NewIdentity(replica, remote2, sessionPath, testLogger())
	if err := restored.Restore(); err != nil {
		t.Fatalf("Ошибка восстановления сессии: %v", err)
	}

	s := restored.Current()
	if s == nil {
		t.Fatal("Сессия не восстановлена")
	}
	if s.UserID != "srv-1" || s.Token != "tok" {
		t.Errorf("Сессия восстановлена неверно: %+v", s)
	}
	if remote2.token != "tok" || remote2.userID != "srv-1" {
		t.Error("Учетные данные не переданы http-клиенту при восстановлении")
	}
}

func TestIdentitySignOutKeepsData(t *testing.T) {
	remote := &fakeAuthRemote{
		signInResult: &user.Identity{ID: "srv-1", Email: "a@b.c", Token: "tok"},
	}
	id, replica := newTestIdentity(t, remote)

	if _, err := id.SignIn(context.Background(), "a@b.c", "password123"); err != nil {
		t.Fatalf("Ошибка входа: %v", err)
	}
	if err := replica.SaveNote(testNote("n1", "srv-1", time.Now().UTC()), OriginLocal); err != nil {
		t.Fatalf("Ошибка сохранения заметки: %v", err)
	}

	if err := id.SignOut(); err != nil {
		t.Fatalf("Ошибка выхода: %v", err)
	}

	if id.IsAuthenticated() {
		t.Error("Сессия осталась после выхода")
	}
	notes, _ := replica.ListNotes("srv-1")
	if len(notes) != 1 {
		t.Error("Локальные данные пропали после выхода")
	}

	// повторный выход безвреден
	if err := id.SignOut(); err != nil {
		t.Errorf("Повторный выход вернул ошибку: %v", err)
	}
}
