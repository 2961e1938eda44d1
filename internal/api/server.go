package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/ipo-sim/internal/content"
	"github.com/sells-group/ipo-sim/internal/resolver"
	"github.com/sells-group/ipo-sim/internal/session"
	"github.com/sells-group/ipo-sim/pkg/geocode"
)

// Deps are the services the API serves.
type Deps struct {
	Content  *content.Store
	Session  *session.Session
	Resolver *resolver.Resolver
	Cache    *geocode.Cache
	Searcher *geocode.Searcher
}

// Server is the HTTP data API consumed by the map client.
type Server struct {
	content  *content.Store
	session  *session.Session
	resolver *resolver.Resolver
	cache    *geocode.Cache
	searcher *geocode.Searcher

	origins []string
	mux     *chi.Mux
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed CORS origins. Defaults to "*".
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// New builds a Server and its routes.
func New(deps Deps, opts ...Option) *Server {
	s := &Server{
		content:  deps.Content,
		session:  deps.Session,
		resolver: deps.Resolver,
		cache:    deps.Cache,
		searcher: deps.Searcher,
		origins:  []string{"*"},
		mux:      chi.NewRouter(),
	}
	if s.session == nil {
		s.session = session.New()
	}
	for _, o := range opts {
		o(s)
	}
	s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/firms", s.handleFirms)
		r.Get("/economy", s.handleEconomy)
		r.Get("/source", s.handleGetSource)
		r.Put("/source", s.handleSetSource)

		r.Get("/filter", s.handleGetFilter)
		r.Put("/filter", s.handleSetFilter)
		r.Post("/filter/{category}/toggle", s.handleToggleFilter)

		r.Get("/selection", s.handleGetSelection)
		r.Put("/selection", s.handleSetSelection)
		r.Delete("/selection", s.handleClearSelection)

		r.Get("/overrides", s.handleOverrides)
		r.Delete("/overrides", s.handleClearOverrides)

		r.Post("/firms/{id}/geocode", s.handleGeocodeFirm)
		r.Post("/geocode/resolve", s.handleResolveMissing)
		r.Delete("/geocode/cache", s.handleClearCache)
		r.Get("/search", s.handleSearch)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
