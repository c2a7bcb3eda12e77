package note

import (
	"time"
)

type Type string

const (
	TypeText  Type = "text"
	TypeVoice Type = "voice"
)

const (
	DefaultTitle    = "Untitled Note"
	DefaultLanguage = "en"
)

// Note - заметка пользователя. Одна и та же структура используется локальной
// репликой и протоколом обмена с сервером.
type Note struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Content   *string   `json:"content"`
	AudioURL  *string   `json:"audio_url"`
	Duration  *float64  `json:"duration"`
	Language  string    `json:"language"`
	Tags      []string  `json:"tags"`
	NoteType  Type      `json:"note_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize подставляет значения по умолчанию и поддерживает
// инвариант updated_at >= created_at.
func (n *Note) Normalize() {
	if n.Title == "" {
		n.Title = DefaultTitle
	}
	if n.Language == "" {
		n.Language = DefaultLanguage
	}
	if n.NoteType == "" {
		n.NoteType = TypeText
	}
	if n.UpdatedAt.Before(n.CreatedAt) {
		n.UpdatedAt = n.CreatedAt
	}
}

// Touch двигает updated_at вперед. Часы передаются снаружи, чтобы
// в тестах можно было управлять временем.
func (n *Note) Touch(now time.Time) {
	if now.After(n.UpdatedAt) {
		n.UpdatedAt = now
	} else {
		// часы ушли назад - updated_at обязан оставаться монотонным
		n.UpdatedAt = n.UpdatedAt.Add(time.Millisecond)
	}
}
