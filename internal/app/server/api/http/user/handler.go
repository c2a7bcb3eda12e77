package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"notekeeper/internal/app/server/api/http/envelope"
	"notekeeper/internal/domain/session"
	"notekeeper/internal/domain/user"
)

type Handler struct {
	users      user.Servicer
	sessions   session.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(users user.Servicer, sessions session.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		users:      users,
		sessions:   sessions,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.signUpOp(), h.signUp)
	huma.Register(api, h.signInOp(), h.signIn)
}

func (h *Handler) signUp(ctx context.Context, input *authInput) (*output, error) {
	u, err := h.users.Register(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		return h.fail(err), nil
	}

	return h.respondWithToken(ctx, u, http.StatusCreated)
}

func (h *Handler) signIn(ctx context.Context, input *authInput) (*output, error) {
	u, err := h.users.Authenticate(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		return h.fail(err), nil
	}

	return h.respondWithToken(ctx, u, http.StatusOK)
}

// respondWithToken выдает сессионный токен. Id пользователя в ответе -
// канонический серверный id, клиент обязан перейти на него.
func (h *Handler) respondWithToken(ctx context.Context, u user.User, status int) (*output, error) {
	token, err := h.sessions.Create(ctx, u.ID)
	if err != nil {
		h.log.Error("session creation failed", "user_id", u.ID, "error", err)
		return &output{
			Status: http.StatusInternalServerError,
			Body:   envelope.Fail("internal error"),
		}, nil
	}

	return &output{
		Status: status,
		Body: envelope.OK(user.Identity{
			ID:      u.ID,
			Email:   u.Email,
			IsAdmin: u.IsAdmin,
			Token:   token,
		}),
	}, nil
}

func (h *Handler) fail(err error) *output {
	switch {
	case errors.Is(err, user.ErrInvalidAuth), errors.Is(err, user.ErrNotFound):
		return &output{
			Status: http.StatusUnauthorized,
			Body:   envelope.Fail("invalid email or password"),
		}
	case errors.Is(err, user.ErrEmailTaken):
		return &output{
			Status: http.StatusBadRequest,
			Body:   envelope.Fail("email already taken"),
		}
	case errors.Is(err, user.ErrInvalidInput):
		return &output{
			Status: http.StatusBadRequest,
			Body:   envelope.Fail(err.Error()),
		}
	default:
		h.log.Error("auth handler error", "error", err)
		return &output{
			Status: http.StatusInternalServerError,
			Body:   envelope.Fail("internal error"),
		}
	}
}
