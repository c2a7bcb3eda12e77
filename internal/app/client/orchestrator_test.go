package client

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	gosync "sync"
	"testing"
	"time"

	"notekeeper/internal/domain/note"
	"notekeeper/internal/domain/sync"
)

// fakeRemote - сервер в памяти для тестов оркестратора
type fakeRemote struct {
	mu    gosync.Mutex
	notes map[string]note.Note

	healthErr error
	pullErr   error
	pushErr   error

	creates, updates, deletes int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{notes: make(map[string]note.Note)}
}

func (f *fakeRemote) HealthCheck(ctx context.Context) error {
	return f.healthErr
}

func (f *fakeRemote) Pull(ctx context.Context, local []note.Note) ([]note.Note, error) {
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]note.Note, 0, len(f.notes))
	for _, n := range f.notes {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeRemote) PushCreate(ctx context.Context, n note.Note) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.notes[n.ID] = n
	return nil
}

func (f *fakeRemote) PushUpdate(ctx context.Context, n note.Note) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	f.notes[n.ID] = n
	return nil
}

func (f *fakeRemote) PushDelete(ctx context.Context, noteID string) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.notes, noteID)
	return nil
}

type syncFixture struct {
	replica   *Replica
	changelog *ChangeLog
	remote    *fakeRemote
	orch      *Orchestrator
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	replica := newTestReplica(t)
	cl, err := NewChangeLog(filepath.Join(t.TempDir(), "changelog.json"), testLogger())
	if err != nil {
		t.Fatalf("Ошибка создания журнала: %v", err)
	}
	remote := newFakeRemote()

	orch := NewOrchestrator(replica, cl, remote, nil, time.Hour, testLogger())
	orch.SetOwner("owner1")
	orch.SetOnline(true)

	return &syncFixture{replica: replica, changelog: cl, remote: remote, orch: orch}
}

// enqueueLocalCreate имитирует офлайн-создание заметки
func (f *syncFixture) enqueueLocalCreate(t *testing.T, n *note.Note) {
	t.Helper()
	if err := f.replica.SaveNote(n, OriginLocal); err != nil {
		t.Fatalf("Ошибка сохранения заметки: %v", err)
	}
	if err := f.changelog.Enqueue(sync.PendingChange{
		Type:      sync.ChangeCreate,
		NoteID:    n.ID,
		Payload:   n,
		Timestamp: n.UpdatedAt,
	}); err != nil {
		t.Fatalf("Ошибка добавления в журнал: %v", err)
	}
}

func TestSyncDrainsOfflineCreate(t *testing.T) {
	f := newSyncFixture(t)
	n := testNote("n1", "owner1", time.Now().UTC())
	f.enqueueLocalCreate(t, n)

	if err := f.orch.Sync(context.Background()); err != nil {
		t.Fatalf("Ошибка синхронизации: %v", err)
	}

	if f.remote.creates != 1 {
		t.Errorf("Ожидался 1 create на сервере, получено %d", f.remote.creates)
	}
	if f.changelog.Len() != 0 {
		t.Errorf("Очередь не пуста после синхронизации: %d", f.changelog.Len())
	}
	pushed, _ := f.replica.IsPushed("n1")
	if !pushed {
		t.Error("Заметка не помечена как отправленная")
	}

	lastSync, _ := f.replica.LastSync("owner1")
	if lastSync.IsZero() {
		t.Error("Время последней синхронизации не записано")
	}
}

func TestSyncRemoteNewerWins(t *testing.T) {
	f := newSyncFixture(t)
	now := time.Now().UTC()

	stale := testNote("n1", "owner1", now)
	if err := f.replica.SaveNote(stale, OriginReconciliation); err != nil {
		t.Fatalf("Ошибка сохранения: %v", err)
	}

	fresh := *testNote("n1", "owner1", now.Add(time.Minute))
	fresh.Title = "Свежая версия"
	f.remote.notes["n1"] = fresh

	if err := f.orch.Sync(context.Background()); err != nil {
		t.Fatalf("Ошибка синхронизации: %v", err)
	}

	got, err := f.replica.GetNote("n1")
	if err != nil {
		t.Fatalf("Ошибка чтения заметки: %v", err)
	}
	if got.Title != "Свежая версия" {
		t.Errorf("Серверная версия не применилась: %s", got.Title)
	}
}

func TestSyncLocalNewerSurvivesPull(t *testing.T) {
	f := newSyncFixture(t)
	now := time.Now().UTC()

	local := *testNote("n1", "owner1", now.Add(time.Minute))
	local.Title = "Локальная правка"
	if err := f.replica.SaveNote(&local, OriginLocal); err != nil {
		t.Fatalf("Ошибка сохранения: %v", err)
	}
	if err := f.changelog.Enqueue(sync.PendingChange{
		Type:      sync.ChangeUpdate,
		NoteID:    "n1",
		Payload:   &local,
		Timestamp: local.UpdatedAt,
	}); err != nil {
		t.Fatalf("Ошибка добавления в журнал: %v", err)
	}

	f.remote.notes["n1"] = *testNote("n1", "owner1", now)

	if err := f.orch.Sync(context.Background()); err != nil {
		t.Fatalf("Ошибка синхронизации: %v", err)
	}

	got, _ := f.replica.GetNote("n1")
	if got.Title != "Локальная правка" {
		t.Errorf("Устаревшая серверная версия перетерла локальную: %s", got.Title)
	}
	if f.remote.updates != 1 {
		t.Errorf("Локальная правка не доехала до сервера: %d updates", f.remote.updates)
	}
}

func TestSyncStaleQueuedEditLosesToNewerRemote(t *testing.T) {
	f := newSyncFixture(t)
	now := time.Now().UTC()

	// офлайн-правка, успевшая устареть
	stale := *testNote("n1", "owner1", now)
	stale.Title = "Устаревшая офлайн-правка"
	if err := f.replica.SaveNote(&stale, OriginLocal); err != nil {
		t.Fatalf("Ошибка сохранения: %v", err)
	}
	if err := f.changelog.Enqueue(sync.PendingChange{
		Type:      sync.ChangeUpdate,
		NoteID:    "n1",
		Payload:   &stale,
		Timestamp: stale.UpdatedAt,
	}); err != nil {
		t.Fatalf("Ошибка добавления в журнал: %v", err)
	}

	// на другом устройстве заметку отредактировали позже
	fresh := *testNote("n1", "owner1", now.Add(time.Minute))
	fresh.Title = "Свежая серверная правка"
	f.remote.notes["n1"] = fresh

	if err := f.orch.Sync(context.Background()); err != nil {
		t.Fatalf("Ошибка синхронизации: %v", err)
	}

	// устаревшая мутация не должна перетереть сервер
	if f.remote.updates != 0 {
		t.Errorf("Устаревшая правка отправлена на сервер: %d updates", f.remote.updates)
	}
	if got := f.remote.notes["n1"]; got.Title != "Свежая серверная правка" {
		t.Errorf("Сервер потерял свежую версию: %s", got.Title)
	}

	// реплика и сервер сходятся на свежей версии
	local, err := f.replica.GetNote("n1")
	if err != nil {
		t.Fatalf("Ошибка чтения заметки: %v", err)
	}
	if local.Title != "Свежая серверная правка" {
		t.Errorf("Реплика разошлась с сервером: %s", local.Title)
	}
	if f.changelog.Len() != 0 {
		t.Errorf("Устаревшая мутация осталась в очереди: %d", f.changelog.Len())
	}
}

func TestSyncNewerPendingDeleteBeatsRemote(t *testing.T) {
	f := newSyncFixture(t)
	now := time.Now().UTC()

	// заметка удалена локально позже, чем обновлена на сервере
	f.remote.notes["n1"] = *testNote("n1", "owner1", now)
	if err := f.changelog.Enqueue(sync.PendingChange{
		Type:      sync.ChangeDelete,
		NoteID:    "n1",
		Timestamp: now.Add(time.Minute),
	}); err != nil {
		t.Fatalf("Ошибка добавления в журнал: %v", err)
	}

	if err := f.orch.Sync(context.Background()); err != nil {
		t.Fatalf("Ошибка синхронизации: %v", err)
	}

	if _, err := f.replica.GetNote("n1"); !errors.Is(err, note.ErrNotFound) {
		t.Error("Удаленная заметка воскрешена устаревшим серверным снимком")
	}
	if f.remote.deletes != 1 {
		t.Errorf("Удаление не доехало до сервера: %d deletes", f.remote.deletes)
	}
	if _, ok := f.remote.notes["n1"]; ok {
		t.Error("Заметка осталась на сервере")
	}
}

func TestSyncRemoteDeletionRemovesLocal(t *testing.T) {
	f := newSyncFixture(t)
	now := time.Now().UTC()

	// заметка доезжала до сервера, но в снимке ее больше нет
	if err := f.replica.SaveNote(testNote("gone", "owner1", now), OriginReconciliation); err != nil {
		t.Fatalf("Ошибка сохранения: %v", err)
	}
	// а эта создана офлайн и сервера еще не видела
	f.enqueueLocalCreate(t, testNote("fresh", "owner1", now))

	if err := f.orch.Sync(context.Background()); err != nil {
		t.Fatalf("Ошибка синхронизации: %v", err)
	}

	if _, err := f.replica.GetNote("gone"); !errors.Is(err, note.ErrNotFound) {
		t.Error("Удаленная на другом устройстве заметка осталась в реплике")
	}
	if _, err := f.replica.GetNote("fresh"); err != nil {
		t.Errorf("Не отправленная заметка ошибочно удалена: %v", err)
	}
}

func TestSyncPullFailureLeavesStateUntouched(t *testing.T) {
	f := newSyncFixture(t)
	f.enqueueLocalCreate(t, testNote("n1", "owner1", time.Now().UTC()))
	f.remote.pullErr = fmt.Errorf("%w: connection reset", sync.ErrNetwork)

	if err := f.orch.Sync(context.Background()); err == nil {
		t.Fatal("Ожидалась ошибка синхронизации")
	}

	if f.changelog.Len() != 1 {
		t.Errorf("Очередь изменилась при неудачном pull: %d", f.changelog.Len())
	}
	if f.remote.creates != 0 {
		t.Error("Слив очереди состоялся несмотря на неудачный pull")
	}
	lastSync, _ := f.replica.LastSync("owner1")
	if !lastSync.IsZero() {
		t.Error("Время синхронизации записано при неудачном цикле")
	}
}

func TestSyncUnauthorizedAbortsAndRequeues(t *testing.T) {
	f := newSyncFixture(t)
	now := time.Now().UTC()
	f.enqueueLocalCreate(t, testNote("n1", "owner1", now))
	f.enqueueLocalCreate(t, testNote("n2", "owner1", now))

	f.remote.pushErr = fmt.Errorf("%w: токен истек", sync.ErrUnauthorized)

	if err := f.orch.Sync(context.Background()); err == nil {
		t.Fatal("Ожидалась ошибка синхронизации")
	}

	if f.changelog.Len() != 2 {
		t.Errorf("Изменения потеряны при Unauthorized: осталось %d", f.changelog.Len())
	}
}

func TestSyncRejectedChangeDropped(t *testing.T) {
	f := newSyncFixture(t)
	f.enqueueLocalCreate(t, testNote("n1", "owner1", time.Now().UTC()))

	f.remote.pushErr = fmt.Errorf("%w: пустой заголовок", sync.ErrValidation)

	if err := f.orch.Sync(context.Background()); err != nil {
		t.Fatalf("Отвергнутое изменение не должно валить цикл: %v", err)
	}

	if f.changelog.Len() != 0 {
		t.Errorf("Отвергнутое изменение осталось в очереди: %d", f.changelog.Len())
	}
}

func TestSyncTransientErrorRequeues(t *testing.T) {
	f := newSyncFixture(t)
	f.enqueueLocalCreate(t, testNote("n1", "owner1", time.Now().UTC()))

	f.remote.pushErr = fmt.Errorf("%w: 502", sync.ErrServer)

	if err := f.orch.Sync(context.Background()); err != nil {
		t.Fatalf("Временная ошибка не должна валить цикл: %v", err)
	}

	if f.changelog.Len() != 1 {
		t.Errorf("Изменение не вернулось в очередь: %d", f.changelog.Len())
	}

	// следующий цикл доставляет
	f.remote.pushErr = nil
	if err := f.orch.Sync(context.Background()); err != nil {
		t.Fatalf("Ошибка повторной синхронизации: %v", err)
	}
	if f.remote.creates != 1 || f.changelog.Len() != 0 {
		t.Error("Повторный цикл не доставил изменение")
	}
}

func TestSyncPreconditions(t *testing.T) {
	t.Run("Offline", func(t *testing.T) {
		f := newSyncFixture(t)
		f.orch.SetOnline(false)
		if err := f.orch.Sync(context.Background()); err == nil {
			t.Error("Ожидалась ошибка при отсутствии сети")
		}
	})

	t.Run("NoOwner", func(t *testing.T) {
		f := newSyncFixture(t)
		f.orch.SetOwner("")
		if err := f.orch.Sync(context.Background()); err == nil {
			t.Error("Ожидалась ошибка без аутентификации")
		}
	})

	t.Run("ServerDown", func(t *testing.T) {
		f := newSyncFixture(t)
		f.remote.healthErr = fmt.Errorf("%w: refused", sync.ErrNetwork)
		if err := f.orch.Sync(context.Background()); err == nil {
			t.Error("Ожидалась ошибка при недоступном сервере")
		}
	})
}

func TestSyncStatusReflectsQueue(t *testing.T) {
	f := newSyncFixture(t)
	f.enqueueLocalCreate(t, testNote("n1", "owner1", time.Now().UTC()))

	st := f.orch.Status()
	if st.OwnerID != "owner1" {
		t.Errorf("Неверный владелец: %s", st.OwnerID)
	}
	if st.PendingChanges != 1 {
		t.Errorf("Ожидалось 1 изменение в очереди, получено %d", st.PendingChanges)
	}
	if st.IsSyncing {
		t.Error("Синхронизация не идет, но статус говорит обратное")
	}
}
