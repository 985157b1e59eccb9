package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/case-story-service/internal/domain"
)

// StoryService answers region listings and story selections.
type StoryService interface {
	Regions() ([]string, error)
	Select(region string, segments int) (domain.Story, error)
}

// Server exposes the story API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer      *http.Server
	stories         StoryService
	defaultSegments int
	logger          *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /regions and /stories/{region} routes. defaultSegments applies when a
// request does not pass ?segments.
func NewServer(addr string, stories StoryService, ready sharedobs.ReadinessChecker, defaultSegments int, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		stories:         stories,
		defaultSegments: defaultSegments,
		logger:          logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /regions", s.handleRegions)
	mux.HandleFunc("GET /stories/{region}", s.handleStory)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
