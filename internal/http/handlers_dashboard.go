package http

import (
	"errors"
	"log/slog"
	"net/http"

	"financas/internal/core"
	"financas/internal/storage"
)

type dashboardPage struct {
	User    *core.User
	Summary core.MonthSummary
	HasGoal bool
}

// handleDashboard renders the monthly overview: totals, balance, goal
// progress, expenses by category and the latest transactions. Everything is
// recomputed from storage on each request.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, user *core.User) {
	year, month := parseYearMonth(r)

	transactions, err := s.repo.ListMonthTransactions(r.Context(), user.ID, year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "List month transactions failed", "error", err, "user_id", user.ID, "year", year, "month", month)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	goal, err := s.repo.GetGoalByMonth(r.Context(), user.ID, year, month)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.ErrorContext(r.Context(), "Get goal failed", "error", err, "user_id", user.ID, "year", year, "month", month)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	summary := core.Summarize(year, month, transactions, goal)

	s.render(w, r, "dashboard.html", dashboardPage{
		User:    user,
		Summary: summary,
		HasGoal: goal != nil,
	})
}
