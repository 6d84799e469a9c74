// Package http serves the reporting dashboard: a server-rendered page with
// htmx partial swaps, a read-only JSON API, and the chat endpoint.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"lorryboard/internal/middleware/ratelimit"
	"lorryboard/internal/middleware/security"
	"lorryboard/internal/middleware/trace"
	"lorryboard/internal/services"
	appweb "lorryboard/web"
)

// Answerer resolves a free-form question into an HTML fragment. Satisfied by
// both the rule-based router and the Gemini assistant.
type Answerer interface {
	Answer(ctx context.Context, question string) string
}

type Server struct {
	http.Server
	templates *template.Template
	reports   *services.ReportService
	answerer  Answerer

	limiter      *ratelimit.Limiter
	detector     *security.Detector
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, reports *services.ReportService, answerer Answerer) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		reports:  reports,
		answerer: answerer,
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector: security.NewDetector(),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.handleDashboard)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	// UI partials
	mux.HandleFunc("/ui/aggregated", s.handleAggregatedPartial)

	// Chat is the only endpoint that can reach an external model, so it is
	// the only rate-limited one.
	chatLimit := s.limiter.Middleware(s.detector.ExtractClientIP, nil)
	mux.Handle("/chat", chatLimit(http.HandlerFunc(s.handleChat)))

	// Read-only JSON API
	mux.HandleFunc("/api/aggregated", s.handleAPIAggregated)
	mux.HandleFunc("/api/totals", s.handleAPITotals)
	mux.HandleFunc("/api/deliveries", s.handleAPIDeliveries)
	mux.HandleFunc("/api/lorries", s.handleAPILorries)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)
	s.Server.Handler = tracer.Middleware(headers.Middleware(mux))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.reports.Collections(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
