// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/mjharlow/reglens/internal/catalog"
	"github.com/mjharlow/reglens/internal/common"
	"github.com/mjharlow/reglens/internal/llm"
	"github.com/mjharlow/reglens/internal/search"
)

type Server struct {
	router   chi.Router
	provider llm.Provider
	search   search.Client
	catalog  *catalog.Store
	access   AccessResolver
	cfg      Config
}

// Config controls per-run pipeline tuning.
type Config struct {
	MaxConcurrency    int
	DocumentLimit     int
	GenerationTimeout time.Duration
}

// DefaultConfig returns the standard configuration, overridable through the
// environment.
func DefaultConfig() Config {
	cfg := Config{
		MaxConcurrency:    4,
		DocumentLimit:     1,
		GenerationTimeout: 120 * time.Second,
	}
	if env := strings.TrimSpace(os.Getenv("REGLENS_MAX_CONCURRENCY")); env != "" {
		if parsed, err := strconv.Atoi(env); err == nil && parsed > 0 {
			cfg.MaxConcurrency = parsed
		}
	}
	if env := strings.TrimSpace(os.Getenv("REGLENS_DOC_LIMIT")); env != "" {
		if parsed, err := strconv.Atoi(env); err == nil && parsed > 0 {
			cfg.DocumentLimit = parsed
		}
	}
	if env := strings.TrimSpace(os.Getenv("REGLENS_GEN_TIMEOUT")); env != "" {
		if parsed, err := time.ParseDuration(env); err == nil && parsed > 0 {
			cfg.GenerationTimeout = parsed
		}
	}
	return cfg
}

// AccessResolver produces the access filters applied to document searches on
// behalf of the requesting identity.
type AccessResolver interface {
	Filters(r *http.Request) search.AccessFilters
}

// HeaderResolver derives access filters from the X-Reglens-User header. Every
// caller sees public documents; identified callers additionally see documents
// shared with their address.
type HeaderResolver struct{}

func (HeaderResolver) Filters(r *http.Request) search.AccessFilters {
	acl := []string{"PUBLIC"}
	if user := strings.TrimSpace(r.Header.Get("X-Reglens-User")); user != "" {
		acl = append(acl, "user_email:"+user)
	}
	return search.AccessFilters{AccessControlList: acl}
}

func NewServer(provider llm.Provider, searchClient search.Client, store *catalog.Store, cfg *Config) *Server {
	logger := common.Logger()
	configuration := DefaultConfig()
	if cfg != nil {
		configuration = *cfg
	}
	providerName := "none"
	if provider != nil {
		providerName = provider.Name()
	}
	logger.Info(
		"api: building server",
		"provider", providerName,
		"search_available", searchClient != nil,
		"catalog_available", store != nil,
		"max_concurrency", configuration.MaxConcurrency,
	)
	srv := &Server{
		router:   chi.NewRouter(),
		provider: provider,
		search:   searchClient,
		catalog:  store,
		access:   HeaderResolver{},
		cfg:      configuration,
	}
	srv.routes()
	logger.Info("api: server ready")
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Options("/regulation-analysis/analyze", s.handlePreflight)
	s.router.Post("/regulation-analysis/analyze", s.handleAnalyze)
	s.router.Get("/v1/runs", s.handleRuns)
	s.router.Get("/v1/logs", s.handleLogs)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
