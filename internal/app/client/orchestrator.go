package client

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"notekeeper/internal/domain/note"
	"notekeeper/internal/domain/sync"
)

// State фаза цикла синхронизации
type State string

const (
	StateIdle        State = "idle"
	StatePulling     State = "pulling"
	StateReconciling State = "reconciling"
	StateDraining    State = "draining"
	StateCooldown    State = "cooldown"
)

// RemoteClient - удаленное каноническое хранилище глазами оркестратора
type RemoteClient interface {
	HealthCheck(ctx context.Context) error
	Pull(ctx context.Context, local []note.Note) ([]note.Note, error)
	PushCreate(ctx context.Context, n note.Note) error
	PushUpdate(ctx context.Context, n note.Note) error
	PushDelete(ctx context.Context, noteID string) error
}

// Orchestrator гоняет цикл pull -> reconcile -> drain. Порядок жесткий:
// сначала канонический снимок с сервера, потом слив очереди, иначе устаревшая
// локальная версия может перетереть более свежую серверную.
type Orchestrator struct {
	replica   *Replica
	changelog *ChangeLog
	remote    RemoteClient
	broadcast *Broadcast
	log       *slog.Logger
	interval  time.Duration
	now       func() time.Time

	mu       gosync.Mutex
	state    State
	inFlight bool
	online   bool
	ownerID  string

	kick chan struct{}
}

func NewOrchestrator(replica *Replica, changelog *ChangeLog, remote RemoteClient, broadcast *Broadcast, interval time.Duration, log *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		replica:   replica,
		changelog: changelog,
		remote:    remote,
		broadcast: broadcast,
		log:       log,
		interval:  interval,
		now:       time.Now,
		state:     StateIdle,
		kick:      make(chan struct{}, 1),
	}

	// локальная мутация при онлайне будит цикл, не дожидаясь тикера
	changelog.SetWake(o.Kick)

	return o
}

// SetOwner привязывает оркестратор к аутентифицированному пользователю
func (o *Orchestrator) SetOwner(ownerID string) {
	o.mu.Lock()
	o.ownerID = ownerID
	o.mu.Unlock()
}

// SetOnline переключает признак доступности сети. Переход в онлайн
// сам по себе триггер синхронизации.
func (o *Orchestrator) SetOnline(online bool) {
	o.mu.Lock()
	wasOnline := o.online
	o.online = online
	o.mu.Unlock()

	if online && !wasOnline {
		o.Kick()
	}
}

// Kick просит цикл синхронизироваться при первой возможности
func (o *Orchestrator) Kick() {
	select {
	case o.kick <- struct{}{}:
	default:
	}
}

// State возвращает текущую фазу цикла
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Status возвращает наблюдаемое состояние синхронизации
func (o *Orchestrator) Status() sync.Status {
	o.mu.Lock()
	ownerID := o.ownerID
	inFlight := o.inFlight
	o.mu.Unlock()

	lastSync, err := o.replica.LastSync(ownerID)
	if err != nil {
		o.log.Warn("Ошибка чтения времени последней синхронизации", "error", err)
	}

	return sync.Status{
		OwnerID:        ownerID,
		LastSync:       lastSync,
		PendingChanges: o.changelog.Len(),
		IsSyncing:      inFlight,
	}
}

// Run крутит периодическую синхронизацию до отмены контекста
func (o *Orchestrator) Run(ctx context.Context) {
	o.log.Info("Запуск автоматической синхронизации", "interval", o.interval)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.log.Info("Автоматическая синхронизация остановлена")
			return
		case <-ticker.C:
		case <-o.kick:
		}

		if err := o.Sync(ctx); err != nil {
			o.log.Debug("Цикл синхронизации не состоялся", "error", err)
		}
	}
}

// Sync выполняет один цикл pull -> reconcile -> drain.
// Параллельный вызов во время идущего цикла возвращает ошибку, а не ждет.
func (o *Orchestrator) Sync(ctx context.Context) error {
	ownerID, err := o.begin()
	if err != nil {
		return err
	}
	defer o.finish()

	if err := o.remote.HealthCheck(ctx); err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}

	o.setState(StatePulling)
	local, err := o.replica.ListNotes(ownerID)
	if err != nil {
		return fmt.Errorf("ошибка чтения реплики: %w", err)
	}

	remote, err := o.remote.Pull(ctx, local)
	if err != nil {
		// реплика и очередь не тронуты, следующий цикл начнет заново
		return fmt.Errorf("ошибка получения снимка с сервера: %w", err)
	}

	o.setState(StateReconciling)
	if err := o.reconcile(ownerID, local, remote); err != nil {
		return err
	}

	o.setState(StateDraining)
	if err := o.drain(ctx); err != nil {
		return err
	}

	o.setState(StateCooldown)
	if err := o.replica.SetLastSync(ownerID, o.now()); err != nil {
		o.log.Warn("Ошибка записи времени последней синхронизации", "error", err)
	}

	o.log.Info("Синхронизация завершена",
		"owner_id", ownerID,
		"pulled", len(remote),
		"pending", o.changelog.Len(),
	)

	return nil
}

func (o *Orchestrator) begin() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight {
		return "", fmt.Errorf("синхронизация уже выполняется")
	}
	if !o.online {
		return "", fmt.Errorf("нет соединения с сервером")
	}
	if o.ownerID == "" {
		return "", fmt.Errorf("пользователь не аутентифицирован")
	}

	o.inFlight = true
	return o.ownerID, nil
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	o.inFlight = false
	o.state = StateIdle
	o.mu.Unlock()
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// reconcile вливает серверный снимок в реплику по правилу "новее побеждает".
// Сравнение по updated_at, при равенстве локальная версия остается.
// Победа серверной версии выбрасывает устаревшую мутацию той же заметки
// из журнала: иначе drain отправил бы ее поверх более свежей серверной.
func (o *Orchestrator) reconcile(ownerID string, local []note.Note, remote []note.Note) error {
	remoteIDs := make(map[string]bool, len(remote))

	pending := make(map[string]sync.PendingChange)
	for _, c := range o.changelog.Pending() {
		pending[c.NoteID] = c
	}

	for _, rn := range remote {
		remoteIDs[rn.ID] = true

		ln, err := o.replica.GetNote(rn.ID)
		switch {
		case errors.Is(err, note.ErrNotFound):
			// заметка создана на другом устройстве либо удалена локально
		case err != nil:
			return fmt.Errorf("ошибка чтения заметки %s: %w", rn.ID, err)
		case !rn.UpdatedAt.After(ln.UpdatedAt):
			continue
		}

		if pc, ok := pending[rn.ID]; ok {
			if !rn.UpdatedAt.After(pc.Timestamp) {
				// локальная мутация свежее серверной версии, она дойдет в drain
				continue
			}
			if err := o.changelog.Remove(rn.ID); err != nil {
				return fmt.Errorf("ошибка удаления устаревшей мутации %s: %w", rn.ID, err)
			}
			delete(pending, rn.ID)
			o.log.Debug("Устаревшая локальная мутация выброшена",
				"note_id", rn.ID, "type", pc.Type)
		}

		if err := o.replica.SaveNote(&rn, OriginReconciliation); err != nil {
			return fmt.Errorf("ошибка применения заметки %s: %w", rn.ID, err)
		}
		o.publish(sync.EventUpdated, rn.ID, ownerID)
	}

	// Заметка есть локально, уже доезжала до сервера, в снимке отсутствует
	// и не ждет отправки - значит, ее удалили на другом устройстве.
	for _, ln := range local {
		if remoteIDs[ln.ID] {
			continue
		}
		if _, ok := pending[ln.ID]; ok {
			continue
		}
		pushed, err := o.replica.IsPushed(ln.ID)
		if err != nil || !pushed {
			continue
		}
		if err := o.replica.DeleteNote(ln.ID); err != nil {
			return fmt.Errorf("ошибка удаления заметки %s: %w", ln.ID, err)
		}
		o.publish(sync.EventDeleted, ln.ID, ownerID)
	}

	return nil
}

// drain отправляет очередь на сервер поэлементно. Unauthorized обрывает слив
// и возвращает все в очередь; NotFound и Validation выбрасывают элемент,
// потому что повтор не поможет; остальное возвращается в очередь до
// следующего цикла.
func (o *Orchestrator) drain(ctx context.Context) error {
	changes, err := o.changelog.Drain()
	if err != nil {
		return fmt.Errorf("ошибка чтения журнала изменений: %w", err)
	}

	for i, change := range changes {
		err := o.push(ctx, change)
		if err == nil {
			if change.Type != sync.ChangeDelete {
				if err := o.replica.MarkPushed(change.NoteID); err != nil {
					o.log.Warn("Ошибка отметки отправленной заметки",
						"note_id", change.NoteID, "error", err)
				}
			}
			continue
		}

		switch {
		case errors.Is(err, sync.ErrUnauthorized):
			for _, rest := range changes[i:] {
				if rqErr := o.changelog.Requeue(rest); rqErr != nil {
					o.log.Error("Ошибка возврата изменения в очередь",
						"note_id", rest.NoteID, "error", rqErr)
				}
			}
			return fmt.Errorf("сессия недействительна: %w", err)

		case errors.Is(err, sync.ErrNotFound), errors.Is(err, sync.ErrValidation):
			o.log.Warn("Изменение отвергнуто сервером и выброшено",
				"note_id", change.NoteID,
				"type", change.Type,
				"error", err,
			)

		default:
			if rqErr := o.changelog.Requeue(change); rqErr != nil {
				o.log.Error("Ошибка возврата изменения в очередь",
					"note_id", change.NoteID, "error", rqErr)
			}
		}
	}

	return nil
}

func (o *Orchestrator) push(ctx context.Context, change sync.PendingChange) error {
	switch change.Type {
	case sync.ChangeCreate:
		return o.remote.PushCreate(ctx, *change.Payload)
	case sync.ChangeUpdate:
		return o.remote.PushUpdate(ctx, *change.Payload)
	case sync.ChangeDelete:
		return o.remote.PushDelete(ctx, change.NoteID)
	default:
		return fmt.Errorf("неизвестный тип изменения: %s", change.Type)
	}
}

func (o *Orchestrator) publish(eventType sync.EventType, noteID, ownerID string) {
	if o.broadcast == nil {
		return
	}
	o.broadcast.Publish(sync.Event{
		Type:      eventType,
		NoteID:    noteID,
		OwnerID:   ownerID,
		Timestamp: o.now(),
	})
}
