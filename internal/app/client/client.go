package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"notekeeper/internal/app/client/config"
	"notekeeper/internal/domain/note"
	"notekeeper/internal/domain/sync"
)

// App собирает клиент целиком: реплика, журнал изменений, широковещание
// между экземплярами, HTTP-клиент, identity и оркестратор синхронизации.
// Все мутации сначала применяются к реплике и видны без сети.
type App struct {
	config       *config.Config
	log          *slog.Logger
	replica      *Replica
	changelog    *ChangeLog
	broadcast    *Broadcast
	httpClient   *httpClient
	identity     *Identity
	orchestrator *Orchestrator
	now          func() time.Time
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	replica, err := NewReplica(cfg.ReplicaPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия реплики: %w", err)
	}

	changelog, err := NewChangeLog(cfg.ChangelogPath, log)
	if err != nil {
		replica.Close()
		return nil, fmt.Errorf("ошибка открытия журнала изменений: %w", err)
	}

	broadcast, err := NewBroadcast(cfg.EventsPath, log)
	if err != nil {
		replica.Close()
		return nil, fmt.Errorf("ошибка запуска широковещания: %w", err)
	}

	httpClient, err := NewHTTPClient(cfg, log)
	if err != nil {
		broadcast.Close()
		replica.Close()
		return nil, fmt.Errorf("ошибка создания HTTP-клиента: %w", err)
	}

	identity := NewIdentity(replica, httpClient, cfg.SessionPath, log)

	orchestrator := NewOrchestrator(replica, changelog, httpClient, broadcast,
		time.Duration(cfg.SyncInterval)*time.Second, log)

	app := &App{
		config:       cfg,
		log:          log,
		replica:      replica,
		changelog:    changelog,
		broadcast:    broadcast,
		httpClient:   httpClient,
		identity:     identity,
		orchestrator: orchestrator,
		now:          time.Now,
	}

	if err := identity.Restore(); err != nil {
		app.log.Warn("Сессия не восстановлена", "error", err)
	}
	if s := identity.Current(); s != nil {
		orchestrator.SetOwner(s.UserID)
	}

	return app, nil
}

func (a *App) Close() error {
	a.broadcast.Close()
	return a.replica.Close()
}

// Run запускает фоновую синхронизацию до отмены контекста
func (a *App) Run(ctx context.Context) {
	a.orchestrator.Run(ctx)
}

// --- аутентификация ---

func (a *App) SignUp(ctx context.Context, email, password string) (*Session, error) {
	s, err := a.identity.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	a.afterAuth(s)
	return s, nil
}

func (a *App) SignIn(ctx context.Context, email, password string) (*Session, error) {
	s, err := a.identity.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	a.afterAuth(s)
	return s, nil
}

func (a *App) SignOut() error {
	a.orchestrator.SetOwner("")
	return a.identity.SignOut()
}

func (a *App) CurrentSession() *Session {
	return a.identity.Current()
}

func (a *App) IsAuthenticated() bool {
	return a.identity.IsAuthenticated()
}

// afterAuth перепривязывает оркестратор. Токен в сессии означает, что сервер
// только что ответил, так что сеть считается доступной.
func (a *App) afterAuth(s *Session) {
	a.orchestrator.SetOwner(s.UserID)
	if s.Token != "" {
		a.orchestrator.SetOnline(true)
	}
}

// --- заметки ---

// CreateNote создает заметку локально и ставит ее в очередь на отправку.
// Возврат управления не ждет сети.
func (a *App) CreateNote(req note.CreateRequest) (*note.Note, error) {
	s := a.identity.Current()
	if s == nil {
		return nil, fmt.Errorf("пользователь не аутентифицирован")
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	now := a.now()
	n := &note.Note{
		ID:        id,
		OwnerID:   s.UserID,
		Title:     req.Title,
		Content:   req.Content,
		AudioURL:  req.AudioURL,
		Duration:  req.Duration,
		Language:  req.Language,
		Tags:      req.Tags,
		NoteType:  req.NoteType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	n.Normalize()

	if err := a.replica.SaveNote(n, OriginLocal); err != nil {
		return nil, err
	}
	if err := a.enqueue(sync.ChangeCreate, n); err != nil {
		return nil, err
	}
	a.publish(sync.EventCreated, n.ID, n.OwnerID)

	return n, nil
}

// UpdateNote применяет частичное обновление локально и ставит заметку
// в очередь на отправку
func (a *App) UpdateNote(id string, req note.UpdateRequest) (*note.Note, error) {
	n, err := a.replica.GetNote(id)
	if err != nil {
		return nil, err
	}

	req.Apply(n)
	n.Touch(a.now())

	if err := a.replica.SaveNote(n, OriginLocal); err != nil {
		return nil, err
	}

	// Не доехавшая до сервера заметка остается в очереди как create:
	// update по неизвестному серверу id закончился бы NotFound.
	changeType := sync.ChangeUpdate
	pushed, err := a.replica.IsPushed(id)
	if err != nil {
		return nil, err
	}
	if !pushed {
		changeType = sync.ChangeCreate
	}

	if err := a.enqueue(changeType, n); err != nil {
		return nil, err
	}
	a.publish(sync.EventUpdated, n.ID, n.OwnerID)

	return n, nil
}

// DeleteNote удаляет заметку локально. Delete уходит в очередь только если
// заметка уже доезжала до сервера; иначе достаточно выбросить ее из очереди.
func (a *App) DeleteNote(id string) error {
	n, err := a.replica.GetNote(id)
	if err != nil {
		if errors.Is(err, note.ErrNotFound) {
			return nil
		}
		return err
	}

	pushed, err := a.replica.IsPushed(id)
	if err != nil {
		return err
	}

	if err := a.replica.DeleteNote(id); err != nil {
		return err
	}

	if pushed {
		if err := a.changelog.Enqueue(sync.PendingChange{
			Type:      sync.ChangeDelete,
			NoteID:    id,
			Timestamp: a.now(),
		}); err != nil {
			return err
		}
	} else {
		if err := a.changelog.Remove(id); err != nil {
			return err
		}
	}

	a.publish(sync.EventDeleted, id, n.OwnerID)
	return nil
}

func (a *App) GetNote(id string) (*note.Note, error) {
	return a.replica.GetNote(id)
}

func (a *App) ListNotes() ([]note.Note, error) {
	s := a.identity.Current()
	if s == nil {
		return nil, fmt.Errorf("пользователь не аутентифицирован")
	}
	return a.replica.ListNotes(s.UserID)
}

// AttachAudio загружает аудиофайл на сервер и привязывает его URL к заметке.
// Единственная операция клиента, требующая сети.
func (a *App) AttachAudio(ctx context.Context, noteID, filename string, audio io.Reader) (*note.Note, error) {
	if _, err := a.replica.GetNote(noteID); err != nil {
		return nil, err
	}

	url, err := a.httpClient.UploadAudio(ctx, noteID, filename, audio)
	if err != nil {
		return nil, err
	}

	voice := note.TypeVoice
	return a.UpdateNote(noteID, note.UpdateRequest{
		AudioURL: &url,
		NoteType: &voice,
	})
}

// --- синхронизация ---

// SyncNow выполняет один цикл синхронизации немедленно
func (a *App) SyncNow(ctx context.Context) error {
	a.refreshOnline(ctx)
	return a.orchestrator.Sync(ctx)
}

// SyncStatus возвращает локальное состояние синхронизации
func (a *App) SyncStatus() sync.Status {
	return a.orchestrator.Status()
}

// SetOnline явно переключает признак доступности сети
func (a *App) SetOnline(online bool) {
	a.orchestrator.SetOnline(online)
}

// Subscribe подписывает на события изменений, включая события других
// экземпляров приложения на этом устройстве
func (a *App) Subscribe(fn func(sync.Event)) func() {
	return a.broadcast.Subscribe(fn)
}

func (a *App) refreshOnline(ctx context.Context) {
	a.orchestrator.SetOnline(a.httpClient.HealthCheck(ctx) == nil)
}

func (a *App) enqueue(changeType sync.ChangeType, n *note.Note) error {
	payload := *n
	return a.changelog.Enqueue(sync.PendingChange{
		Type:      changeType,
		NoteID:    n.ID,
		Payload:   &payload,
		Timestamp: a.now(),
	})
}

func (a *App) publish(eventType sync.EventType, noteID, ownerID string) {
	a.broadcast.Publish(sync.Event{
		Type:      eventType,
		NoteID:    noteID,
		OwnerID:   ownerID,
		Timestamp: a.now(),
	})
}
