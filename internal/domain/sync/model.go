package sync

import (
	"time"

	"notekeeper/internal/domain/note"
)

// ChangeType тип отложенной мутации
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// PendingChange - не подтвержденная сервером локальная мутация.
// Инвариант журнала: не больше одной записи на NoteID, новая мутация
// замещает старую, чтобы на сервер уходила только последняя версия.
type PendingChange struct {
	Type      ChangeType `json:"type"`
	NoteID    string     `json:"note_id"`
	Payload   *note.Note `json:"payload,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// EventType тип события для других экземпляров приложения
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// Event - уведомление "что-то поменялось" между экземплярами на одном
// устройстве. Полезной нагрузки не несет: получатель перечитывает реплику.
type Event struct {
	Type      EventType `json:"type"`
	NoteID    string    `json:"note_id"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
	Seq       int64     `json:"seq"`
	Instance  string    `json:"instance"`
}

// Status наблюдаемое состояние синхронизации
type Status struct {
	OwnerID        string    `json:"owner_id"`
	LastSync       time.Time `json:"lastSync"`
	PendingChanges int       `json:"pendingChanges"`
	IsSyncing      bool      `json:"isSyncing,omitempty"`
}
