package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"financas/internal/auth"
	"financas/internal/core"
	"financas/internal/forms"
	"financas/internal/storage"
)

type loginPage struct {
	Error    string
	Notice   string
	Username string
}

type registerPage struct {
	Errors forms.Errors
	Form   *forms.RegisterForm
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	// Already logged in? Straight to the dashboard.
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if sess, err := s.repo.GetSession(r.Context(), cookie.Value); err == nil && time.Now().Before(sess.ExpiresAt) {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
	}
	page := loginPage{}
	if r.URL.Query().Get("registered") != "" {
		page.Notice = "Account created. Please log in."
	}
	s.render(w, r, "login.html", page)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, "login.html", loginPage{Error: "Invalid form submission."})
		return
	}

	username := sanitizeInput(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		s.render(w, r, "login.html", loginPage{Error: "Username and password are required.", Username: username})
		return
	}

	user, err := s.repo.GetUserByUsername(r.Context(), username)
	// The same message for a missing user and a wrong password, so the form
	// never confirms which usernames exist.
	if err != nil || !auth.CheckPassword(password, user.PasswordHash) {
		slog.InfoContext(r.Context(), "Login rejected", "username", username)
		s.render(w, r, "login.html", loginPage{Error: "Invalid username or password.", Username: username})
		return
	}

	if err := s.startSession(w, r, user); err != nil {
		s.render(w, r, "login.html", loginPage{Error: "An error occurred. Please try again.", Username: username})
		return
	}

	slog.InfoContext(r.Context(), "User logged in", "user_id", user.ID, "username", user.Username)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "register.html", registerPage{Form: &forms.RegisterForm{}})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := forms.ParseRegisterForm(r.Form)
	errs := form.Validate()
	if !errs.Valid() {
		s.render(w, r, "register.html", registerPage{Errors: errs, Form: form})
		return
	}

	hash, err := auth.HashPassword(form.Password1)
	if err != nil {
		slog.ErrorContext(r.Context(), "Hash password failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	user, err := s.repo.CreateUser(r.Context(), core.User{
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: hash,
	})
	if errors.Is(err, storage.ErrDuplicateUsername) {
		errs.Add("username", "This username is already taken.")
		s.render(w, r, "register.html", registerPage{Errors: errs, Form: form})
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Create user failed", "error", err, "username", form.Username)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "User registered", "user_id", user.ID, "username", user.Username)
	http.Redirect(w, r, "/login?registered=1", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, user *core.User) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		s.deleteSessionIgnoreMissing(r.Context(), cookie.Value)
	}
	s.clearSessionCookie(w)
	slog.InfoContext(r.Context(), "User logged out", "user_id", user.ID)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user *core.User) error {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		slog.ErrorContext(r.Context(), "Generate session token failed", "error", err)
		return err
	}
	if err := s.repo.CreateSession(r.Context(), token, user.ID, time.Now().Add(s.sessionTTL)); err != nil {
		slog.ErrorContext(r.Context(), "Create session failed", "error", err, "user_id", user.ID)
		return err
	}
	s.setSessionCookie(w, token)
	return nil
}
