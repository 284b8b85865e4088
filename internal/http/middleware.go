package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"financas/internal/core"
	"financas/internal/storage"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// authedHandler is a handler that runs on behalf of an authenticated user.
// The caller's identity arrives as an explicit argument, never out of band.
type authedHandler func(w http.ResponseWriter, r *http.Request, user *core.User)

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := clientIP(r)
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit writes only; reads stay cheap.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// requireAuth resolves the session cookie to a user and hands the user to the
// wrapped handler. Sessions past the midpoint of their lifetime are renewed,
// so active users stay logged in while idle sessions expire.
func (s *Server) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		sess, err := s.repo.GetSession(r.Context(), cookie.Value)
		if err != nil || time.Now().After(sess.ExpiresAt) {
			s.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		user, err := s.repo.GetUserByID(r.Context(), sess.UserID)
		if err != nil {
			s.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		if time.Until(sess.ExpiresAt) < s.sessionTTL/2 {
			newExpiry := time.Now().Add(s.sessionTTL)
			if err := s.repo.RenewSession(r.Context(), cookie.Value, newExpiry); err == nil {
				s.setSessionCookie(w, cookie.Value)
			}
			// A failed renewal is not fatal, the current session still holds.
		}

		next(w, r, user)
	}
}

// requireAdmin hides the admin surface from regular users. Non-admins get a
// plain 404 so the routes are not discoverable.
func (s *Server) requireAdmin(next authedHandler) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, user *core.User) {
		if !user.IsAdmin {
			http.NotFound(w, r)
			return
		}
		next(w, r, user)
	}
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// deleteSessionIgnoreMissing removes the session row; an already-gone
// session is not an error during logout.
func (s *Server) deleteSessionIgnoreMissing(ctx context.Context, token string) {
	if err := s.repo.DeleteSession(ctx, token); err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.ErrorContext(ctx, "Delete session failed", "error", err)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
