package http

import (
	"log/slog"
	"net/http"

	"financas/internal/core"
	"financas/internal/forms"
)

type profilePage struct {
	User   *core.User
	Form   *forms.ProfileForm
	Errors forms.Errors
	Saved  bool
}

func (s *Server) handleProfileForm(w http.ResponseWriter, r *http.Request, user *core.User) {
	s.render(w, r, "profile.html", profilePage{
		User: user,
		Form: &forms.ProfileForm{
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
		},
	})
}

// handleProfileUpdate edits name and email. The username is immutable.
func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request, user *core.User) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := forms.ParseProfileForm(r.Form)
	errs := form.Validate()
	if !errs.Valid() {
		s.render(w, r, "profile.html", profilePage{User: user, Form: form, Errors: errs})
		return
	}

	err := s.repo.UpdateUserProfile(r.Context(), user.ID,
		sanitizeInput(form.FirstName), sanitizeInput(form.LastName), form.Email)
	if err != nil {
		slog.ErrorContext(r.Context(), "Update profile failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	user.FirstName = form.FirstName
	user.LastName = form.LastName
	user.Email = form.Email
	s.render(w, r, "profile.html", profilePage{User: user, Form: form, Saved: true})
}
