package note

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "notes-list",
		Method:      http.MethodGet,
		Path:        "/api/notes",
		Summary:     "Список заметок пользователя",
		Tags:        []string{"notes"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID: "notes-create",
		Method:      http.MethodPost,
		Path:        "/api/notes",
		Summary:     "Создать заметку",
		Description: "Создает заметку. Клиентский id сохраняется, повтор с тем же id перезаписывает заметку, а не плодит дубли.",
		Tags:        []string{"notes"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) findOp() huma.Operation {
	return huma.Operation{
		OperationID: "notes-find",
		Method:      http.MethodGet,
		Path:        "/api/notes/{id}",
		Summary:     "Получить заметку",
		Tags:        []string{"notes"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) updateOp() huma.Operation {
	return huma.Operation{
		OperationID: "notes-update",
		Method:      http.MethodPatch,
		Path:        "/api/notes/{id}",
		Summary:     "Частично обновить заметку",
		Tags:        []string{"notes"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID: "notes-delete",
		Method:      http.MethodDelete,
		Path:        "/api/notes/{id}",
		Summary:     "Удалить заметку",
		Description: "Удаление отсутствующей заметки отвечает success: повтор от второго клиента - штатная ситуация.",
		Tags:        []string{"notes"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) uploadAudioOp() huma.Operation {
	return huma.Operation{
		OperationID: "notes-upload-audio",
		Method:      http.MethodPost,
		Path:        "/api/notes/{id}/audio",
		Summary:     "Загрузить аудиофайл заметки",
		Description: "Принимает multipart-форму с частью audio и возвращает URL файла.",
		Tags:        []string{"notes", "audio"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
