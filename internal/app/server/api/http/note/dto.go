package note

import (
	"github.com/danielgtaylor/huma/v2"

	"notekeeper/internal/app/server/api/http/envelope"
	"notekeeper/internal/domain/note"
)

type output struct {
	Status int
	Body   envelope.Envelope
}

type createInput struct {
	Body note.CreateRequest
}

type findInput struct {
	ID string `path:"id" example:"b8a2f0f4-9e7e-4a3f-8d28-1f0c2b7a9a11" doc:"ID заметки"`
}

type updateInput struct {
	ID   string `path:"id" doc:"ID заметки"`
	Body note.UpdateRequest
}

type deleteInput struct {
	ID string `path:"id" doc:"ID заметки"`
}

type uploadAudioInput struct {
	ID      string `path:"id" doc:"ID заметки"`
	RawBody huma.MultipartFormFiles[audioFormData]
}

type audioFormData struct {
	Audio huma.FormFile `form:"audio" contentType:"audio/mpeg,audio/wav,audio/ogg,audio/mp4,application/octet-stream" required:"true"`
}

// audioResponse тело поля data ответа загрузки аудио
type audioResponse struct {
	URL string `json:"url"`
}
