package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/infra/buildinfo"
	"github.com/yndnr/worldsave-go/internal/telemetry/logger"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Metrics serves /metrics. Nil disables the endpoint.
	Metrics http.Handler

	// Ready reports whether the server accepts entry calls.
	Ready func() bool

	// LastSave returns the most recent save summary.
	LastSave func() (*domain.SaveSummary, bool)

	Logger logger.Logger

	// RateLimit is the global request rate per second. Zero disables it.
	RateLimit float64
	// EnableAccessLog logs every request.
	EnableAccessLog bool
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		RateLimit:       100,
		EnableAccessLog: true,
	}
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("component", "httpserver")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "healthy",
			"time":    time.Now().UTC().Format(time.RFC3339),
			"version": buildinfo.Get().Version,
		})
	})
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ready != nil && !cfg.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "initializing"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		if cfg.LastSave == nil {
			writeError(w, http.StatusNotFound, domain.ErrInvalidArgument.WithDetails("no save recorded"))
			return
		}
		s, ok := cfg.LastSave()
		if !ok {
			writeError(w, http.StatusNotFound, domain.ErrInvalidArgument.WithDetails("no save recorded"))
			return
		}
		writeJSON(w, http.StatusOK, s)
	})
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	mws := []Middleware{RequestID(), Recover(log)}
	if cfg.RateLimit > 0 {
		mws = append(mws, RateLimit(cfg.RateLimit))
	}
	if cfg.EnableAccessLog {
		mws = append(mws, AccessLog(log))
	}
	return Chain(mux, mws...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err *domain.DomainError) {
	w.Header().Set("X-Error-Code", err.Code)
	writeJSON(w, status, map[string]string{
		"code":    err.Code,
		"message": err.Error(),
	})
}
