package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"notekeeper/internal/app/server/api/http/envelope"
	"notekeeper/internal/app/server/api/http/middleware/auth"
	"notekeeper/internal/domain/note"
	"notekeeper/internal/domain/sync"
)

// StatusStore хранит серверное время последней синхронизации владельца
type StatusStore interface {
	LastSync(ctx context.Context, ownerID string) (time.Time, error)
	Touch(ctx context.Context, ownerID string, t time.Time) error
}

type Handler struct {
	notes      note.Servicer
	status     StatusStore
	log        *slog.Logger
	middleware huma.Middlewares
	now        func() time.Time
}

func NewHandler(notes note.Servicer, status StatusStore, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		notes:      notes,
		status:     status,
		log:        log,
		middleware: mws,
		now:        time.Now,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.pullOp(), h.pull)
	huma.Register(api, h.statusOp(), h.syncStatus)
}

// pull возвращает полный снимок заметок владельца. Тело запроса принимается
// ради совместимости формата, но сервер его не применяет: источником
// изменений служат только CRUD-эндпоинты.
func (h *Handler) pull(ctx context.Context, input *pullInput) (*output, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return unauthorized(), nil
	}

	h.log.Debug("sync pull", "owner_id", userID, "client_notes", len(input.Body.Notes))

	notes, err := h.notes.List(ctx, userID)
	if err != nil {
		h.log.Error("sync pull failed", "error", err)
		return internalError(), nil
	}
	if notes == nil {
		notes = []note.Note{}
	}

	if err := h.status.Touch(ctx, userID, h.now()); err != nil {
		h.log.Warn("sync status not updated", "owner_id", userID, "error", err)
	}

	return &output{
		Status: http.StatusOK,
		Body: envelope.OK(sync.PullData{
			Notes:     notes,
			Conflicts: []json.RawMessage{},
		}),
	}, nil
}

func (h *Handler) syncStatus(ctx context.Context, _ *struct{}) (*output, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return unauthorized(), nil
	}

	lastSync, err := h.status.LastSync(ctx, userID)
	if err != nil {
		h.log.Error("sync status failed", "error", err)
		return internalError(), nil
	}

	return &output{
		Status: http.StatusOK,
		Body: envelope.OK(sync.StatusData{
			LastSync:       lastSync,
			PendingChanges: 0,
		}),
	}, nil
}

func unauthorized() *output {
	return &output{
		Status: http.StatusUnauthorized,
		Body:   envelope.Fail("Unauthorized"),
	}
}

func internalError() *output {
	return &output{
		Status: http.StatusInternalServerError,
		Body:   envelope.Fail("internal error"),
	}
}
