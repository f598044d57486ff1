// Package server exposes plans, hexagon sets, filtered media points and
// optimizer analyses over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/colmeia-ooh/colmeia/internal/auth"
	"github.com/colmeia-ooh/colmeia/internal/store"
)

// Options configures the HTTP server.
type Options struct {
	Port        int
	CORSOrigins []string
	// Verifier guards /api routes. Nil disables authentication.
	Verifier *auth.Verifier
}

// Server represents the HTTP server.
type Server struct {
	server *http.Server
	router *chi.Mux
}

// New builds the router and HTTP server around st.
func New(st store.Store, opts Options) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "X-Export-ID"},
		MaxAge:         300,
	}))

	h := newHandler(st)

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/api", func(r chi.Router) {
		r.Use(opts.Verifier.Middleware)

		r.Route("/roteiros", func(r chi.Router) {
			r.Get("/", h.listRoteiros)
			r.Get("/{pk}", h.getRoteiro)
		})
		r.Get("/hexagonos", h.listHexagons)
		r.Get("/pontos-midia", h.listMediaPoints)
		r.Route("/otimizacao", func(r chi.Router) {
			r.Get("/", h.getAnalysis)
			r.Post("/aplicar", h.applySuggestions)
		})
		r.Route("/export", func(r chi.Router) {
			r.Get("/hexagonos.xlsx", h.exportAnalysis)
			r.Get("/pontos.xlsx", h.exportPoints)
		})
	})

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		router: router,
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			zap.L().Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
