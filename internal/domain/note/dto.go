package note

import "time"

// DTO для API заметок

// CreateRequest запрос на создание заметки. Временные метки присылает
// клиент: created_at и updated_at фиксируют момент мутации на устройстве,
// а не момент прихода на сервер, иначе разрешение конфликтов по updated_at
// вырождается в "кто последний доехал".
type CreateRequest struct {
	ID        string     `json:"id,omitempty"`
	Title     string     `json:"title,omitempty"`
	Content   *string    `json:"content,omitempty"`
	AudioURL  *string    `json:"audio_url,omitempty"`
	Duration  *float64   `json:"duration,omitempty"`
	Language  string     `json:"language,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	NoteType  Type       `json:"note_type,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// UpdateRequest запрос на частичное обновление заметки.
// nil-поле означает "не трогать".
type UpdateRequest struct {
	Title     *string    `json:"title,omitempty"`
	Content   *string    `json:"content,omitempty"`
	AudioURL  *string    `json:"audio_url,omitempty"`
	Duration  *float64   `json:"duration,omitempty"`
	Language  *string    `json:"language,omitempty"`
	Tags      *[]string  `json:"tags,omitempty"`
	NoteType  *Type      `json:"note_type,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Apply накладывает частичное обновление на заметку
func (r UpdateRequest) Apply(n *Note) {
	if r.Title != nil {
		n.Title = *r.Title
	}
	if r.Content != nil {
		n.Content = r.Content
	}
	if r.AudioURL != nil {
		n.AudioURL = r.AudioURL
	}
	if r.Duration != nil {
		n.Duration = r.Duration
	}
	if r.Language != nil {
		n.Language = *r.Language
	}
	if r.Tags != nil {
		n.Tags = *r.Tags
	}
	if r.NoteType != nil {
		n.NoteType = *r.NoteType
	}
	n.Normalize()
}
