package client

import (
	"encoding/json"
	"fmt"
	"os"
	gosync "sync"

	"golang.org/x/exp/slog"
	"notekeeper/internal/domain/sync"
)

// changelogVersion - версия схемы durable-журнала. Первые сборки писали
// голый JSON-массив без версии (v0); он мигрируется при загрузке.
const changelogVersion = 1

type changelogFile struct {
	Version int                  `json:"version"`
	Changes []sync.PendingChange `json:"changes"`
}

// ChangeLog - durable-очередь не подтвержденных сервером мутаций.
// Загружается при создании, сохраняется после каждого мутирующего вызова,
// переживает перезапуск. На каждый noteId - не больше одной записи.
type ChangeLog struct {
	path string
	log  *slog.Logger

	mu      gosync.Mutex
	changes []sync.PendingChange
	wake    func()
}

func NewChangeLog(path string, log *slog.Logger) (*ChangeLog, error) {
	cl := &ChangeLog{
		path: path,
		log:  log,
	}

	if err := cl.load(); err != nil {
		return nil, err
	}

	return cl, nil
}

// SetWake регистрирует колбэк, который дергается после успешного enqueue.
// Оркестратор использует его как триггер "локальная мутация при онлайне".
func (cl *ChangeLog) SetWake(fn func()) {
	cl.mu.Lock()
	cl.wake = fn
	cl.mu.Unlock()
}

// Enqueue добавляет мутацию, замещая существующую запись с тем же noteId
func (cl *ChangeLog) Enqueue(change sync.PendingChange) error {
	cl.mu.Lock()
	cl.replaceLocked(change)
	err := cl.persistLocked()
	wake := cl.wake
	cl.mu.Unlock()

	if err != nil {
		return err
	}

	if wake != nil {
		wake()
	}
	return nil
}

// Requeue возвращает в очередь элемент, не доехавший до сервера.
// Если за время обработки пользователь успел записать более свежую мутацию
// той же заметки, она побеждает: журнал хранит только последнюю версию.
func (cl *ChangeLog) Requeue(change sync.PendingChange) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	for _, existing := range cl.changes {
		if existing.NoteID == change.NoteID && !existing.Timestamp.Before(change.Timestamp) {
			return nil
		}
	}
	cl.replaceLocked(change)
	return cl.persistLocked()
}

// Drain атомарно возвращает и очищает текущее содержимое очереди
func (cl *ChangeLog) Drain() ([]sync.PendingChange, error) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	drained := cl.changes
	cl.changes = nil
	if err := cl.persistLocked(); err != nil {
		// очередь остается как была - лучше продублировать push, чем потерять
		cl.changes = drained
		return nil, err
	}

	return drained, nil
}

// Remove выбрасывает запись для заметки, например при ее удалении
func (cl *ChangeLog) Remove(noteID string) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	kept := cl.changes[:0]
	for _, c := range cl.changes {
		if c.NoteID != noteID {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(cl.changes) {
		return nil
	}
	cl.changes = kept
	return cl.persistLocked()
}

func (cl *ChangeLog) Len() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.changes)
}

// Pending возвращает копию очереди для статусных выводов
func (cl *ChangeLog) Pending() []sync.PendingChange {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	out := make([]sync.PendingChange, len(cl.changes))
	copy(out, cl.changes)
	return out
}

func (cl *ChangeLog) replaceLocked(change sync.PendingChange) {
	for i, existing := range cl.changes {
		if existing.NoteID == change.NoteID {
			cl.changes[i] = change
			return
		}
	}
	cl.changes = append(cl.changes, change)
}

func (cl *ChangeLog) load() error {
	data, err := os.ReadFile(cl.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ошибка чтения журнала изменений: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var file changelogFile
	if err := json.Unmarshal(data, &file); err == nil && file.Version > 0 {
		if file.Version > changelogVersion {
			return fmt.Errorf("неизвестная версия журнала изменений: %d", file.Version)
		}
		cl.changes = file.Changes
		return nil
	}

	// v0: голый массив PendingChange. Мигрируем молча, формат записей совпадает.
	var legacy []sync.PendingChange
	if err := json.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("ошибка парсинга журнала изменений: %w", err)
	}

	cl.changes = legacy
	cl.log.Info("changelog migrated", "from_version", 0, "to_version", changelogVersion,
		"entries", len(legacy))

	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.persistLocked()
}

func (cl *ChangeLog) persistLocked() error {
	file := changelogFile{
		Version: changelogVersion,
		Changes: cl.changes,
	}
	if file.Changes == nil {
		file.Changes = []sync.PendingChange{}
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации журнала изменений: %w", err)
	}

	if err := os.WriteFile(cl.path, data, 0600); err != nil {
		return fmt.Errorf("ошибка записи журнала изменений: %w", err)
	}

	return nil
}
