package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BuildAppolis/env-manager-sub001/internal/config"
	"github.com/BuildAppolis/env-manager-sub001/internal/draft"
	"github.com/BuildAppolis/env-manager-sub001/internal/server/handlers"
	"github.com/BuildAppolis/env-manager-sub001/internal/server/middleware"
	"github.com/BuildAppolis/env-manager-sub001/internal/store"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
	rateLimitWindow   = time.Minute
)

// Server is the local HTTP API in front of a single project database.
type Server struct {
	logger  *slog.Logger
	httpSrv *http.Server
	limiter *middleware.RateLimiter
}

// New assembles the router and middleware chain. The returned server
// does not listen until Run is called.
func New(cfg *config.Config, logger *slog.Logger, db *store.EnvDatabase, drafts *draft.Manager, version string) *Server {
	jwtCfg := handlers.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		TokenTTL: cfg.TokenTTL,
	}

	authHandler := handlers.NewAuthHandler(logger, db, jwtCfg)
	varsHandler := handlers.NewVariablesHandler(logger, db)
	snapsHandler := handlers.NewSnapshotsHandler(logger, db)
	branchesHandler := handlers.NewBranchesHandler(logger, db)
	draftHandler := handlers.NewDraftHandler(logger, drafts)
	exportHandler := handlers.NewExportHandler(logger, db, cfg.ProjectDir)
	healthHandler := handlers.NewHealthHandler(logger, db, version)

	authMW := middleware.Auth(logger, db, jwtCfg)

	protected := http.NewServeMux()
	protected.HandleFunc("GET /api/v1/variables", varsHandler.List)
	protected.HandleFunc("POST /api/v1/variables", varsHandler.Set)
	protected.HandleFunc("DELETE /api/v1/variables/{name}", varsHandler.Delete)
	protected.HandleFunc("GET /api/v1/history", varsHandler.History)
	protected.HandleFunc("GET /api/v1/snapshots", snapsHandler.List)
	protected.HandleFunc("POST /api/v1/snapshots", snapsHandler.Create)
	protected.HandleFunc("POST /api/v1/snapshots/{id}/restore", snapsHandler.Restore)
	protected.HandleFunc("DELETE /api/v1/snapshots/{id}", snapsHandler.Delete)
	protected.HandleFunc("GET /api/v1/branches", branchesHandler.List)
	protected.HandleFunc("POST /api/v1/branches/copy", branchesHandler.Copy)
	protected.HandleFunc("GET /api/v1/draft", draftHandler.Get)
	protected.HandleFunc("POST /api/v1/draft/variables", draftHandler.Stage)
	protected.HandleFunc("POST /api/v1/draft/publish", draftHandler.Publish)
	protected.HandleFunc("DELETE /api/v1/draft", draftHandler.Discard)
	protected.HandleFunc("GET /api/v1/versions", draftHandler.Versions)
	protected.HandleFunc("POST /api/v1/versions/{id}/restore", draftHandler.RestoreVersion)
	protected.HandleFunc("POST /api/v1/export", exportHandler.Export)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)
	mux.HandleFunc("GET /api/v1/auth/status", authHandler.Status)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.Handle("/api/v1/", authMW(protected))

	limiter := middleware.NewRateLimiter(cfg.RateLimit, rateLimitWindow, logger)

	var handler http.Handler = mux
	handler = middleware.RateLimit(limiter)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return &Server{
		logger: logger,
		httpSrv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		limiter: limiter,
	}
}

// Handler exposes the assembled middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		s.limiter.Stop()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpSrv.Shutdown(shutdownCtx)
	s.limiter.Stop()
	if err != nil {
		return err
	}
	return <-errCh
}
