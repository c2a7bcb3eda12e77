package sync

import (
	"encoding/json"
	"time"

	"notekeeper/internal/domain/note"
)

// DTO протокола обмена. Все ответы сервера завернуты в единый конверт
// {success, data?, error?}.

// Envelope конверт ответа сервера
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// PullRequest тело POST /api/sync: полный локальный снимок владельца
type PullRequest struct {
	Notes []note.Note `json:"notes"`
}

// PullData ответ POST /api/sync. Сервер не применяет присланные заметки
// и не вычисляет конфликты - conflicts всегда пуст, поле оставлено
// ради совместимости формата.
type PullData struct {
	Notes     []note.Note       `json:"notes"`
	Conflicts []json.RawMessage `json:"conflicts"`
}

// StatusData ответ GET /api/sync/status
type StatusData struct {
	LastSync       time.Time `json:"lastSync"`
	PendingChanges int       `json:"pendingChanges"`
}

// AudioData ответ POST /api/notes/{id}/audio
type AudioData struct {
	URL string `json:"url"`
}
