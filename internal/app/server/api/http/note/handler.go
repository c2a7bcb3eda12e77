package note

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"notekeeper/internal/app/server/api/http/envelope"
	"notekeeper/internal/app/server/api/http/middleware/auth"
	"notekeeper/internal/domain/note"
)

type Handler struct {
	service    note.Servicer
	uploadsDir string
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service note.Servicer, uploadsDir string, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		uploadsDir: uploadsDir,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.updateOp(), h.update)
	huma.Register(api, h.deleteOp(), h.delete)
	huma.Register(api, h.uploadAudioOp(), h.uploadAudio)
}

func (h *Handler) list(ctx context.Context, _ *struct{}) (*output, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return unauthorized(), nil
	}

	notes, err := h.service.List(ctx, userID)
	if err != nil {
		return h.fail(err), nil
	}
	if notes == nil {
		notes = []note.Note{}
	}

	return ok200(map[string]interface{}{"notes": notes}), nil
}

func (h *Handler) create(ctx context.Context, input *createInput) (*output, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return unauthorized(), nil
	}

	n, err := h.service.Create(ctx, userID, input.Body)
	if err != nil {
		return h.fail(err), nil
	}

	return &output{
		Status: http.StatusCreated,
		Body:   envelope.OK(n),
	}, nil
}

func (h *Handler) find(ctx context.Context, input *findInput) (*output, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return unauthorized(), nil
	}

	n, err := h.service.Find(ctx, userID, input.ID)
	if err != nil {
		return h.fail(err), nil
	}

	return ok200(n), nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*output, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return unauthorized(), nil
	}

	n, err := h.service.Update(ctx, userID, input.ID, input.Body)
	if err != nil {
		return h.fail(err), nil
	}

	return ok200(n), nil
}

func (h *Handler) delete(ctx context.Context, input *deleteInput) (*output, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return unauthorized(), nil
	}

	if err := h.service.Delete(ctx, userID, input.ID); err != nil {
		return h.fail(err), nil
	}

	return ok200(map[string]interface{}{"deleted": input.ID}), nil
}

func (h *Handler) uploadAudio(ctx context.Context, input *uploadAudioInput) (*output, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return unauthorized(), nil
	}

	if _, err := h.service.Find(ctx, userID, input.ID); err != nil {
		return h.fail(err), nil
	}

	file := input.RawBody.Data().Audio
	if !file.IsSet {
		return &output{
			Status: http.StatusBadRequest,
			Body:   envelope.Fail("audio part is required"),
		}, nil
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".bin"
	}
	name := input.ID + ext

	dst, err := os.Create(filepath.Join(h.uploadsDir, name))
	if err != nil {
		h.log.Error("create upload file", "error", err)
		return h.fail(err), nil
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		h.log.Error("write upload file", "error", err)
		return h.fail(fmt.Errorf("сохранение файла: %w", err)), nil
	}

	url := "/uploads/" + name
	voice := note.TypeVoice
	if _, err := h.service.Update(ctx, userID, input.ID, note.UpdateRequest{
		AudioURL: &url,
		NoteType: &voice,
	}); err != nil {
		return h.fail(err), nil
	}

	return ok200(audioResponse{URL: url}), nil
}

func ok200(data interface{}) *output {
	return &output{
		Status: http.StatusOK,
		Body:   envelope.OK(data),
	}
}

func unauthorized() *output {
	return &output{
		Status: http.StatusUnauthorized,
		Body:   envelope.Fail("Unauthorized"),
	}
}

// fail переводит доменные ошибки в HTTP-статусы внутри единого конверта
func (h *Handler) fail(err error) *output {
	switch {
	case errors.Is(err, note.ErrNotFound):
		return &output{
			Status: http.StatusNotFound,
			Body:   envelope.Fail("note not found"),
		}
	case errors.Is(err, note.ErrInvalidInput):
		return &output{
			Status: http.StatusBadRequest,
			Body:   envelope.Fail(err.Error()),
		}
	default:
		h.log.Error("note handler error", "error", err)
		return &output{
			Status: http.StatusInternalServerError,
			Body:   envelope.Fail("internal error"),
		}
	}
}
