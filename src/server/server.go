package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"hbrelay/src/auth"
	"hbrelay/src/handler"
	"hbrelay/src/maintenance"
	"hbrelay/src/notices"
	"hbrelay/src/repository"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"
)

// NewRouter builds the relay routes. failures backs the admin failure list.
func NewRouter(rl *handler.Relay, failures handler.FailureLister, cfg *Config) http.Handler {
	r := chi.NewRouter()
	// === Global Middleware ===
	r.Use(handler.ReportPanics(rl))

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error(" \"/health error")
		}
	})

	// Site shim routes. Identity headers are only trusted behind the token.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRelayToken(cfg.IngestTokenHash))
		r.Use(auth.IdentityMiddleware)
		r.Post("/v1/requests", handler.IngestHandler(rl))
		r.Get("/browser-config.js", handler.BrowserConfigHandler(rl.Store))
	})

	// Admin routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.MarkAdmin(cfg.AdminTokenHash))
		r.With(auth.MarkAdminFromQuery(cfg.AdminTokenHash), auth.RequireAdmin).
			Get("/notices/ws", handler.StreamNoticesHandler(rl.Board))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/settings", handler.GetSettingsHandler(rl.Store))
			r.Put("/settings", handler.UpdateSettingsHandler(rl.Store))
			r.Get("/notices", handler.ListNoticesHandler(rl.Board))
			r.Delete("/notices/{seq}", handler.DismissNoticeHandler(rl.Board))
			r.Get("/failures", handler.ListFailuresHandler(failures))
		})
	})

	return r
}

func StartServer(cfg *Config) {
	if cfg.AdminTokenHash == "" {
		logger.Warn("ADMIN_TOKEN_HASH is not set, admin routes will reject every request")
	}
	if cfg.IngestTokenHash == "" {
		logger.Warn("INGEST_TOKEN_HASH is not set, ingest and browser config will reject every request")
	}

	failures := repository.NewExceptionRepository()
	rl := &handler.Relay{
		Store:    repository.NewSettingRepository(),
		Failures: failures,
		Board:    notices.NewBoard(cfg.NoticeCapacity),
	}

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go func() {
		if err := maintenance.NewLoop(rl, failures).StartLoop(loopCtx); err != nil {
			logger.WithError(err).Error("Maintenance loop failed")
		}
	}()

	// Graceful server
	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: NewRouter(rl, failures, cfg),
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	stopLoop()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
