// POST /api/auth/signup      # Регистрация (публичный)
// POST /api/auth/signin      # Вход (публичный)
// GET  /health               # Проверка живости (публичный)
// POST /api/notes            # Создать заметку (auth)
// GET  /api/notes            # Список заметок (auth)
// GET  /api/notes/{id}       # Получить заметку (auth)
// PATCH /api/notes/{id}      # Частично обновить заметку (auth)
// DELETE /api/notes/{id}     # Удалить заметку (auth)
// POST /api/notes/{id}/audio # Загрузить аудиофайл (auth)
// POST /api/sync             # Канонический снимок заметок (auth)
// GET  /api/sync/status      # Статус синхронизации (auth)

package api

import (
	"net/http"

	healthAPI "notekeeper/internal/app/server/api/http/health"
	"notekeeper/internal/app/server/api/http/middleware"
	"notekeeper/internal/app/server/api/http/middleware/auth"
	"notekeeper/internal/app/server/api/http/middleware/logger"
	noteAPI "notekeeper/internal/app/server/api/http/note"
	syncAPI "notekeeper/internal/app/server/api/http/sync"
	userAPI "notekeeper/internal/app/server/api/http/user"
	"notekeeper/internal/app/server/config"
	"notekeeper/internal/domain/note"
	"notekeeper/internal/domain/session"
	"notekeeper/internal/domain/user"
	"notekeeper/internal/infrastructure/storage/postgres"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

type Handlers struct {
	Health *healthAPI.Handler
	User   *userAPI.Handler
	Note   *noteAPI.Handler
	Sync   *syncAPI.Handler
}

// New создает *chi.Mux со всеми операциями через huma.Register
func New(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	humaConfig := huma.DefaultConfig("NoteKeeper API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaConfig)

	h := handlers(storage, cfg, log)
	h.Health.SetupRoutes(API)
	h.User.SetupRoutes(API)
	h.Note.SetupRoutes(API)
	h.Sync.SetupRoutes(API)

	// Загруженные аудиофайлы отдаются как статика
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Uploads.Dir)))
	mux.Get("/uploads/*", fs.ServeHTTP)

	return mux
}

func handlers(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *Handlers {
	sessionRepo := postgres.NewSessionRepository(storage, log)
	sessionService := session.NewService(sessionRepo, log)
	authMW := auth.New(sessionService, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(log, middlewares.GetAllAndClear())

	userRepo := postgres.NewUserRepository(storage, log)
	userService := user.NewService(userRepo, user.NewValidator(), log)
	middlewares.Add(loggerMW.Middleware())
	userHandler := userAPI.NewHandler(userService, sessionService, log, middlewares.GetAllAndClear())

	noteRepo := postgres.NewNoteRepository(storage, log)
	noteService := note.NewService(noteRepo, log)
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	noteHandler := noteAPI.NewHandler(noteService, cfg.Uploads.Dir, log, middlewares.GetAllAndClear())

	syncRepo := postgres.NewSyncRepository(storage, log)
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	syncHandler := syncAPI.NewHandler(noteService, syncRepo, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		User:   userHandler,
		Note:   noteHandler,
		Sync:   syncHandler,
	}
}
