package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"financas/internal/core"
	"financas/internal/storage"
)

// The admin surface is read-only: listings with search and filters across
// all users, no mutations.

type adminUsersPage struct {
	User   *core.User
	Rows   []storage.AdminUserRow
	Search string
}

type adminTransactionsPage struct {
	User       *core.User
	Rows       []storage.AdminTransactionRow
	Search     string
	FilterType string
}

type adminCategoriesPage struct {
	User   *core.User
	Rows   []storage.AdminCategoryRow
	Search string
}

type adminGoalsPage struct {
	User       *core.User
	Rows       []storage.AdminGoalRow
	Search     string
	FilterYear string
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request, user *core.User) {
	search := sanitizeInput(r.URL.Query().Get("q"))
	rows, err := s.repo.AdminListUsers(r.Context(), search)
	if err != nil {
		slog.ErrorContext(r.Context(), "Admin list users failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "admin_users.html", adminUsersPage{User: user, Rows: rows, Search: search})
}

func (s *Server) handleAdminTransactions(w http.ResponseWriter, r *http.Request, user *core.User) {
	q := r.URL.Query()
	search := sanitizeInput(q.Get("q"))
	filterType := strings.TrimSpace(q.Get("type"))

	filter := storage.AdminFilter{Search: search}
	if t := core.TransactionType(filterType); t.Valid() {
		filter.Type = t
	}

	rows, err := s.repo.AdminListTransactions(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Admin list transactions failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "admin_transactions.html", adminTransactionsPage{
		User: user, Rows: rows, Search: search, FilterType: filterType,
	})
}

func (s *Server) handleAdminCategories(w http.ResponseWriter, r *http.Request, user *core.User) {
	search := sanitizeInput(r.URL.Query().Get("q"))
	rows, err := s.repo.AdminListCategories(r.Context(), search)
	if err != nil {
		slog.ErrorContext(r.Context(), "Admin list categories failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "admin_categories.html", adminCategoriesPage{User: user, Rows: rows, Search: search})
}

func (s *Server) handleAdminGoals(w http.ResponseWriter, r *http.Request, user *core.User) {
	q := r.URL.Query()
	search := sanitizeInput(q.Get("q"))
	filterYear := strings.TrimSpace(q.Get("year"))

	filter := storage.AdminFilter{Search: search}
	if y, err := strconv.Atoi(filterYear); err == nil && y > 0 {
		filter.Year = y
	}

	rows, err := s.repo.AdminListGoals(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Admin list goals failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "admin_goals.html", adminGoalsPage{
		User: user, Rows: rows, Search: search, FilterYear: filterYear,
	})
}
