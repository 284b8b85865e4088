// Package http serves the web UI: authentication, transactions, categories,
// monthly goals, dashboard and the admin listings. All pages render
// server-side from embedded templates.
package http

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"financas/internal/events"
	"financas/internal/storage"
	appweb "financas/web"
)

const sessionCookieName = "session"

// Options carries the tunables NewServer needs beyond its dependencies.
type Options struct {
	Addr         string
	SecureCookie bool
	SessionTTL   time.Duration
}

type Server struct {
	http.Server
	templates    *template.Template
	repo         *storage.SQLiteRepository
	publisher    events.Publisher
	rateLimiter  *rateLimiter
	secureCookie bool
	sessionTTL   time.Duration

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(repo *storage.SQLiteRepository, pub events.Publisher, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		repo:         repo,
		publisher:    pub,
		rateLimiter:  newRateLimiter(),
		secureCookie: opts.SecureCookie,
		sessionTTL:   opts.SessionTTL,
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = 7 * 24 * time.Hour
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("GET /login", s.withSecurityHeaders(s.handleLoginForm))
	mux.HandleFunc("POST /login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("GET /register", s.withSecurityHeaders(s.handleRegisterForm))
	mux.HandleFunc("POST /register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("POST /logout", s.withSecurityHeaders(s.requireAuth(s.handleLogout)))

	mux.HandleFunc("GET /{$}", s.withSecurityHeaders(s.requireAuth(s.handleDashboard)))

	mux.HandleFunc("GET /transactions", s.withSecurityHeaders(s.requireAuth(s.handleTransactionList)))
	mux.HandleFunc("GET /transactions/new", s.withSecurityHeaders(s.requireAuth(s.handleTransactionNewForm)))
	mux.HandleFunc("POST /transactions/new", s.withSecurityHeaders(s.requireAuth(s.handleTransactionCreate)))
	mux.HandleFunc("GET /transactions/{id}/edit", s.withSecurityHeaders(s.requireAuth(s.handleTransactionEditForm)))
	mux.HandleFunc("POST /transactions/{id}/edit", s.withSecurityHeaders(s.requireAuth(s.handleTransactionUpdate)))
	mux.HandleFunc("GET /transactions/{id}/delete", s.withSecurityHeaders(s.requireAuth(s.handleTransactionDeleteForm)))
	mux.HandleFunc("POST /transactions/{id}/delete", s.withSecurityHeaders(s.requireAuth(s.handleTransactionDelete)))

	mux.HandleFunc("GET /categories", s.withSecurityHeaders(s.requireAuth(s.handleCategoryList)))
	mux.HandleFunc("GET /categories/new", s.withSecurityHeaders(s.requireAuth(s.handleCategoryNewForm)))
	mux.HandleFunc("POST /categories/new", s.withSecurityHeaders(s.requireAuth(s.handleCategoryCreate)))
	mux.HandleFunc("GET /categories/{id}/edit", s.withSecurityHeaders(s.requireAuth(s.handleCategoryEditForm)))
	mux.HandleFunc("POST /categories/{id}/edit", s.withSecurityHeaders(s.requireAuth(s.handleCategoryUpdate)))
	mux.HandleFunc("GET /categories/{id}/delete", s.withSecurityHeaders(s.requireAuth(s.handleCategoryDeleteForm)))
	mux.HandleFunc("POST /categories/{id}/delete", s.withSecurityHeaders(s.requireAuth(s.handleCategoryDelete)))

	mux.HandleFunc("GET /goals", s.withSecurityHeaders(s.requireAuth(s.handleGoalList)))
	mux.HandleFunc("GET /goals/new", s.withSecurityHeaders(s.requireAuth(s.handleGoalNewForm)))
	mux.HandleFunc("POST /goals/new", s.withSecurityHeaders(s.requireAuth(s.handleGoalCreate)))
	mux.HandleFunc("GET /goals/{id}/edit", s.withSecurityHeaders(s.requireAuth(s.handleGoalEditForm)))
	mux.HandleFunc("POST /goals/{id}/edit", s.withSecurityHeaders(s.requireAuth(s.handleGoalUpdate)))
	mux.HandleFunc("GET /goals/{id}/delete", s.withSecurityHeaders(s.requireAuth(s.handleGoalDeleteForm)))
	mux.HandleFunc("POST /goals/{id}/delete", s.withSecurityHeaders(s.requireAuth(s.handleGoalDelete)))

	mux.HandleFunc("GET /profile", s.withSecurityHeaders(s.requireAuth(s.handleProfileForm)))
	mux.HandleFunc("POST /profile", s.withSecurityHeaders(s.requireAuth(s.handleProfileUpdate)))

	mux.HandleFunc("GET /admin", s.withSecurityHeaders(s.requireAuth(s.requireAdmin(s.handleAdminUsers))))
	mux.HandleFunc("GET /admin/transactions", s.withSecurityHeaders(s.requireAuth(s.requireAdmin(s.handleAdminTransactions))))
	mux.HandleFunc("GET /admin/categories", s.withSecurityHeaders(s.requireAuth(s.requireAdmin(s.handleAdminCategories))))
	mux.HandleFunc("GET /admin/goals", s.withSecurityHeaders(s.requireAuth(s.requireAdmin(s.handleAdminGoals))))

	return s
}

// Shutdown stops the HTTP server and the rate limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
