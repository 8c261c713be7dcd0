package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gridScope/internal/dashboard"
	"gridScope/internal/model"
	"gridScope/internal/settings"
)

const shutdownTimeout = 5 * time.Second

// Dashboard is the read side served over HTTP. dashboard.Service satisfies it.
type Dashboard interface {
	Refresh(ctx context.Context) (model.Snapshot, error)
	State() *dashboard.State
}

// Settings is the write side served over HTTP. settings.Writer satisfies it.
type Settings interface {
	Submit(ctx context.Context, form settings.Form) settings.Outcome
	Withdraw(ctx context.Context) settings.Outcome
}

// Config controls the HTTP surface.
type Config struct {
	Listen      string
	CORSOrigins []string
	// APIToken, when set, is required as a bearer token on write routes.
	APIToken string
	// RefreshAfterWrite decides whether a write is followed by a dashboard refresh.
	// Nil refreshes after successful writes only.
	RefreshAfterWrite func(ok bool) bool
}

// Server exposes the dashboard and settings over JSON.
type Server struct {
	cfg       Config
	dashboard Dashboard
	settings  Settings
	logger    *zap.Logger
	engine    *gin.Engine
}

func NewServer(cfg Config, dash Dashboard, set Settings, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RefreshAfterWrite == nil {
		cfg.RefreshAfterWrite = func(ok bool) bool { return ok }
	}
	s := &Server{cfg: cfg, dashboard: dash, settings: set, logger: logger}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.logger), Cors(s.cfg.CORSOrigins))

	r.GET("/health", s.health)

	api := r.Group("/api")
	api.GET("/dashboard", s.getDashboard)
	api.POST("/dashboard/refresh", s.refreshDashboard)
	if s.settings != nil {
		write := api.Group("", WriteGuard(s.cfg.CORSOrigins, s.cfg.APIToken))
		write.POST("/settings", s.submitSettings)
		write.POST("/withdraw", s.withdraw)
	}
	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("listen", s.cfg.Listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
