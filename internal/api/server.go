package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/dgallion1/quotecheck/internal/config"
	"github.com/dgallion1/quotecheck/internal/pipeline"
	"github.com/dgallion1/quotecheck/internal/quote"
	"github.com/dgallion1/quotecheck/internal/stats"
)

// Server is the HTTP API server for quotecheck.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	validator    *quote.Validator
	latency      *stats.Latency
	logger       *zap.Logger
	cfg          config.ServerConfig
}

// NewServer creates and configures the HTTP server. validator supplies the
// default tuning and scorer for the synchronous endpoints.
func NewServer(orch *pipeline.Orchestrator, validator *quote.Validator, latency *stats.Latency, logger *zap.Logger, cfg config.ServerConfig) *Server {
	s := &Server{
		orchestrator: orch,
		validator:    validator,
		latency:      latency,
		logger:       logger,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.logger))
		r.Use(RateLimit(s.cfg.RateLimit, s.cfg.RateBurst))

		r.Post("/api/validate", s.handleValidate)
		r.Post("/api/similarity", s.handleSimilarity)
		r.Post("/api/best-match", s.handleBestMatch)
		r.Post("/api/confidence", s.handleConfidence)

		r.Post("/api/jobs", s.handleSubmitJob)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)

		r.Get("/api/stats/latency", s.handleLatencyStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"degraded":    s.validator.Scorer().Degraded(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
