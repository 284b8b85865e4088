package http

import (
	"errors"
	"log/slog"
	"net/http"

	"financas/internal/core"
	"financas/internal/forms"
	"financas/internal/storage"
)

// goalRow is a goal with its month's spending computed at read time.
type goalRow struct {
	Goal       core.Goal
	Spent      string
	SpentRatio float64
}

type goalListPage struct {
	User  *core.User
	Goals []goalRow
}

type goalFormPage struct {
	User    *core.User
	Form    *forms.GoalForm
	Errors  forms.Errors
	Editing bool
	ID      int64
}

func (s *Server) handleGoalList(w http.ResponseWriter, r *http.Request, user *core.User) {
	goals, err := s.repo.ListGoals(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List goals failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	rows := make([]goalRow, 0, len(goals))
	for _, g := range goals {
		spent, err := s.repo.SumExpenses(r.Context(), user.ID, g.Year, g.Month)
		if err != nil {
			slog.ErrorContext(r.Context(), "Sum expenses failed", "error", err, "user_id", user.ID, "year", g.Year, "month", g.Month)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		rows = append(rows, goalRow{
			Goal:       g,
			Spent:      core.FormatAmount(spent),
			SpentRatio: core.SpentRatio(spent, &g),
		})
	}

	s.render(w, r, "goals.html", goalListPage{User: user, Goals: rows})
}

func (s *Server) handleGoalNewForm(w http.ResponseWriter, r *http.Request, user *core.User) {
	year, month := parseYearMonth(r)
	s.render(w, r, "goal_form.html", goalFormPage{
		User: user,
		Form: forms.PrefillGoalForm(month, year),
	})
}

func (s *Server) handleGoalCreate(w http.ResponseWriter, r *http.Request, user *core.User) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := forms.ParseGoalForm(r.Form)
	errs := form.Validate()
	if !errs.Valid() {
		s.render(w, r, "goal_form.html", goalFormPage{User: user, Form: form, Errors: errs})
		return
	}

	_, err := s.repo.CreateGoal(r.Context(), core.Goal{
		UserID: user.ID,
		Month:  form.Month,
		Year:   form.Year,
		Target: form.Target,
	})
	if errors.Is(err, storage.ErrDuplicateGoal) {
		errs.Add("month", "You already have a goal for this month.")
		s.render(w, r, "goal_form.html", goalFormPage{User: user, Form: form, Errors: errs})
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Create goal failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/goals", http.StatusFound)
}

func (s *Server) handleGoalEditForm(w http.ResponseWriter, r *http.Request, user *core.User) {
	goal, ok := s.loadGoal(w, r, user)
	if !ok {
		return
	}
	form := forms.PrefillGoalForm(goal.Month, goal.Year)
	form.RawTarget = core.FormatAmount(goal.Target)
	s.render(w, r, "goal_form.html", goalFormPage{User: user, Form: form, Editing: true, ID: goal.ID})
}

func (s *Server) handleGoalUpdate(w http.ResponseWriter, r *http.Request, user *core.User) {
	goal, ok := s.loadGoal(w, r, user)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := forms.ParseGoalForm(r.Form)
	errs := form.Validate()
	if !errs.Valid() {
		s.render(w, r, "goal_form.html", goalFormPage{User: user, Form: form, Errors: errs, Editing: true, ID: goal.ID})
		return
	}

	goal.Month = form.Month
	goal.Year = form.Year
	goal.Target = form.Target

	err := s.repo.UpdateGoal(r.Context(), *goal)
	if errors.Is(err, storage.ErrDuplicateGoal) {
		errs.Add("month", "You already have a goal for this month.")
		s.render(w, r, "goal_form.html", goalFormPage{User: user, Form: form, Errors: errs, Editing: true, ID: goal.ID})
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Update goal failed", "error", err, "user_id", user.ID, "goal_id", goal.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/goals", http.StatusFound)
}

type goalDeletePage struct {
	User *core.User
	Goal *core.Goal
}

func (s *Server) handleGoalDeleteForm(w http.ResponseWriter, r *http.Request, user *core.User) {
	goal, ok := s.loadGoal(w, r, user)
	if !ok {
		return
	}
	s.render(w, r, "goal_confirm_delete.html", goalDeletePage{User: user, Goal: goal})
}

func (s *Server) handleGoalDelete(w http.ResponseWriter, r *http.Request, user *core.User) {
	id, err := parsePathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	err = s.repo.DeleteGoal(r.Context(), user.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete goal failed", "error", err, "user_id", user.ID, "goal_id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/goals", http.StatusFound)
}

func (s *Server) loadGoal(w http.ResponseWriter, r *http.Request, user *core.User) (*core.Goal, bool) {
	id, err := parsePathID(r)
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	goal, err := s.repo.GetGoal(r.Context(), user.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get goal failed", "error", err, "user_id", user.ID, "goal_id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return goal, true
}
