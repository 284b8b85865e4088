package http

import (
	"errors"
	"log/slog"
	"net/http"

	"financas/internal/core"
	"financas/internal/forms"
	"financas/internal/storage"
)

type categoryListPage struct {
	User       *core.User
	Categories []core.Category
	Errors     forms.Errors
	Form       *forms.CategoryForm
	// Warning explains a refused delete.
	Warning string
}

type categoryEditPage struct {
	User     *core.User
	Category *core.Category
	Form     *forms.CategoryForm
	Errors   forms.Errors
}

type categoryDeletePage struct {
	User     *core.User
	Category *core.Category
	// InUse counts transactions still pointing at the category; the delete
	// itself will be refused while it is non-zero.
	InUse int64
}

func (s *Server) handleCategoryList(w http.ResponseWriter, r *http.Request, user *core.User) {
	s.renderCategoryList(w, r, user, nil, &forms.CategoryForm{}, "")
}

func (s *Server) handleCategoryCreate(w http.ResponseWriter, r *http.Request, user *core.User) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := forms.ParseCategoryForm(r.Form)
	errs := form.Validate()
	if !errs.Valid() {
		s.renderCategoryList(w, r, user, errs, form, "")
		return
	}

	_, err := s.repo.CreateCategory(r.Context(), user.ID, sanitizeInput(form.Name))
	if errors.Is(err, storage.ErrDuplicateCategory) {
		errs.Add("name", "You already have a category with this name.")
		s.renderCategoryList(w, r, user, errs, form, "")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Create category failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/categories", http.StatusFound)
}

func (s *Server) handleCategoryNewForm(w http.ResponseWriter, r *http.Request, user *core.User) {
	s.render(w, r, "category_form.html", categoryEditPage{User: user, Form: &forms.CategoryForm{}})
}

func (s *Server) handleCategoryEditForm(w http.ResponseWriter, r *http.Request, user *core.User) {
	cat, ok := s.loadCategory(w, r, user)
	if !ok {
		return
	}
	s.render(w, r, "category_form.html", categoryEditPage{
		User:     user,
		Category: cat,
		Form:     &forms.CategoryForm{Name: cat.Name},
	})
}

func (s *Server) handleCategoryUpdate(w http.ResponseWriter, r *http.Request, user *core.User) {
	cat, ok := s.loadCategory(w, r, user)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := forms.ParseCategoryForm(r.Form)
	errs := form.Validate()
	if !errs.Valid() {
		s.render(w, r, "category_form.html", categoryEditPage{User: user, Category: cat, Form: form, Errors: errs})
		return
	}

	err := s.repo.UpdateCategory(r.Context(), user.ID, cat.ID, sanitizeInput(form.Name))
	if errors.Is(err, storage.ErrDuplicateCategory) {
		errs.Add("name", "You already have a category with this name.")
		s.render(w, r, "category_form.html", categoryEditPage{User: user, Category: cat, Form: form, Errors: errs})
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Update category failed", "error", err, "user_id", user.ID, "category_id", cat.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/categories", http.StatusFound)
}

func (s *Server) handleCategoryDeleteForm(w http.ResponseWriter, r *http.Request, user *core.User) {
	cat, ok := s.loadCategory(w, r, user)
	if !ok {
		return
	}
	count, err := s.repo.CountTransactionsByCategory(r.Context(), user.ID, cat.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Count category transactions failed", "error", err, "user_id", user.ID, "category_id", cat.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "category_confirm_delete.html", categoryDeletePage{User: user, Category: cat, InUse: count})
}

// handleCategoryDelete removes a category unless transactions still refer to
// it, in which case the listing re-renders with an explanation.
func (s *Server) handleCategoryDelete(w http.ResponseWriter, r *http.Request, user *core.User) {
	cat, ok := s.loadCategory(w, r, user)
	if !ok {
		return
	}

	err := s.repo.DeleteCategory(r.Context(), user.ID, cat.ID)
	if errors.Is(err, storage.ErrCategoryInUse) {
		slog.InfoContext(r.Context(), "Category delete refused", "user_id", user.ID, "category_id", cat.ID)
		s.renderCategoryList(w, r, user, nil, &forms.CategoryForm{},
			"Cannot delete \""+cat.Name+"\": it still has transactions. Reassign them first.")
		return
	}
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete category failed", "error", err, "user_id", user.ID, "category_id", cat.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/categories", http.StatusFound)
}

func (s *Server) loadCategory(w http.ResponseWriter, r *http.Request, user *core.User) (*core.Category, bool) {
	id, err := parsePathID(r)
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	cat, err := s.repo.GetCategory(r.Context(), user.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get category failed", "error", err, "user_id", user.ID, "category_id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return cat, true
}

func (s *Server) renderCategoryList(w http.ResponseWriter, r *http.Request, user *core.User, errs forms.Errors, form *forms.CategoryForm, warning string) {
	categories, err := s.repo.ListCategories(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "categories.html", categoryListPage{
		User:       user,
		Categories: categories,
		Errors:     errs,
		Form:       form,
		Warning:    warning,
	})
}
