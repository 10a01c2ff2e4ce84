// HTTP server wiring for the blog backend.
// Responsibilities:
//   - Router + middleware (request IDs, panic recovery, timeouts, JSON,
//     CORS allow-list, access logging).
//   - Public endpoints: /health, POST /users/register, POST /users/login,
//     GET /posts, GET /posts/{id}.
//   - Gated endpoints (require auth): the remaining /users and /posts routes.

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/anvers-dev/blogapi/internal/auth"
	"github.com/anvers-dev/blogapi/internal/config"
	"github.com/anvers-dev/blogapi/internal/store"
)

// Server bundles router, store, token service, and config.
type Server struct {
	r     *chi.Mux
	store store.Store
	auth  *auth.Service
	cfg   config.Config
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, authSvc *auth.Service, cfg config.Config) *Server {
	s := &Server{r: chi.NewRouter(), store: st, auth: authSvc, cfg: cfg}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(accessLog)
	s.r.Use(jsonContentType)
	s.r.Use(corsAllowList(cfg.AllowedOrigins))

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Route("/users", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth())
			r.Get("/{id}", s.handleGetUser)
			r.Put("/{id}", s.handleUpdateUser)
			r.Delete("/{id}", s.handleDeleteUser)
			r.Patch("/{id}/password", s.handleUpdatePassword)
		})
	})

	s.r.Route("/posts", func(r chi.Router) {
		r.Get("/", s.handleListPosts)
		r.Get("/{id}", s.handleGetPost)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth())
			r.Post("/", s.handleCreatePost)
			r.Put("/{id}", s.handleUpdatePost)
			r.Patch("/{id}/featured", s.handleUpdateFeatured)
			r.Delete("/{id}", s.handleDeletePost)
		})
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsAllowList answers CORS for an explicit allow-list of origins.
// Requests from other origins get no CORS headers; preflights get 204.
func corsAllowList(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			if origin := r.Header.Get("Origin"); origin != "" && allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog logs one line per request with status and duration.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// ------------------------------ responses ----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeServerError logs err and replies 500, echoing the underlying message.
func writeServerError(w http.ResponseWriter, msg string, err error) {
	log.Error().Err(err).Msg(msg)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"message": msg, "error": err.Error()})
}
