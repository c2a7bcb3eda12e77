package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"notekeeper/internal/domain/session"
)

type Auth struct {
	session session.Servicer
	log     *slog.Logger
}

func New(session session.Servicer, log *slog.Logger) *Auth {
	return &Auth{
		session: session,
		log:     log.With("component", "auth middleware"),
	}
}

type contextKey string

const UserIDKey contextKey = "userID"

// Middleware валидирует bearer-токен и кладет id пользователя в контекст.
// Если клиент прислал X-User-Id, он обязан совпадать с владельцем токена:
// расхождение означает, что клиент переживает смену id и его сессия
// больше не его.
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token := ctx.Header("Authorization")

		if len(token) < 7 || token[:7] != "Bearer " {
			a.log.Debug("missing or malformed bearer token")
			a.unauthorized(ctx)
			return
		}

		userID, err := a.session.Validate(ctx.Context(), token[7:])
		if err != nil {
			a.log.Debug("token validation failed", "error", err)
			a.unauthorized(ctx)
			return
		}

		if claimed := ctx.Header("X-User-Id"); claimed != "" && claimed != userID {
			a.log.Warn("X-User-Id does not match token owner",
				"claimed", claimed, "actual", userID)
			a.unauthorized(ctx)
			return
		}

		newCtx := context.WithValue(ctx.Context(), UserIDKey, userID)
		next(huma.WithContext(ctx, newCtx))
	}
}

func (a *Auth) unauthorized(ctx huma.Context) {
	ctx.SetStatus(http.StatusUnauthorized)
	ctx.SetHeader("Content-Type", "application/json")

	if err := json.NewEncoder(ctx.BodyWriter()).Encode(map[string]interface{}{
		"success": false,
		"error":   "Unauthorized",
	}); err != nil {
		a.log.Error("encode unauthorized response", "error", err)
	}
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}
