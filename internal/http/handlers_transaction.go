package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"financas/internal/core"
	"financas/internal/events"
	"financas/internal/forms"
	"financas/internal/storage"
)

type transactionListPage struct {
	User         *core.User
	Transactions []core.Transaction
	Categories   []core.Category
	// Echoed filter values so the form keeps its state.
	FilterType     string
	FilterCategory string
	FilterFrom     string
	FilterTo       string
}

type transactionFormPage struct {
	User       *core.User
	Categories []core.Category
	Form       *forms.TransactionForm
	Errors     forms.Errors
	Editing    bool
	ID         int64
}

type transactionDeletePage struct {
	User        *core.User
	Transaction *core.Transaction
}

func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request, user *core.User) {
	q := r.URL.Query()
	page := transactionListPage{
		User:           user,
		FilterType:     strings.TrimSpace(q.Get("type")),
		FilterCategory: strings.TrimSpace(q.Get("category")),
		FilterFrom:     strings.TrimSpace(q.Get("date_from")),
		FilterTo:       strings.TrimSpace(q.Get("date_to")),
	}

	// Unknown filter values are ignored rather than rejected.
	var filter storage.TransactionFilter
	if t := core.TransactionType(page.FilterType); t.Valid() {
		filter.Type = t
	}
	if id, err := strconv.ParseInt(page.FilterCategory, 10, 64); err == nil && id > 0 {
		filter.CategoryID = id
	}
	if d, err := time.Parse(forms.DateLayout, page.FilterFrom); err == nil {
		filter.DateFrom = d
	}
	if d, err := time.Parse(forms.DateLayout, page.FilterTo); err == nil {
		filter.DateTo = d
	}

	transactions, err := s.repo.ListTransactions(r.Context(), user.ID, filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	categories, err := s.repo.ListCategories(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page.Transactions = transactions
	page.Categories = categories
	s.render(w, r, "transactions.html", page)
}

func (s *Server) handleTransactionNewForm(w http.ResponseWriter, r *http.Request, user *core.User) {
	categories, err := s.repo.ListCategories(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "transaction_form.html", transactionFormPage{
		User:       user,
		Categories: categories,
		Form:       &forms.TransactionForm{RawDate: time.Now().Format(forms.DateLayout)},
	})
}

func (s *Server) handleTransactionCreate(w http.ResponseWriter, r *http.Request, user *core.User) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := forms.ParseTransactionForm(r.Form)
	errs := form.Validate()
	if !errs.Valid() {
		s.renderTransactionForm(w, r, user, form, errs, false, 0)
		return
	}

	created, err := s.repo.CreateTransaction(r.Context(), core.Transaction{
		UserID:      user.ID,
		CategoryID:  &form.CategoryID,
		Type:        form.Type,
		Value:       form.Value,
		Date:        form.Date,
		Description: sanitizeInput(form.RawDescription),
		Recurring:   form.Recurring,
	})
	if errors.Is(err, storage.ErrNotFound) {
		errs.Add("category", "Select a valid category.")
		s.renderTransactionForm(w, r, user, form, errs, false, 0)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Create transaction failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if created.Type == core.Expense {
		s.maybePublishGoalAlert(r, user.ID, created.Date.Year(), int(created.Date.Month()))
	}
	http.Redirect(w, r, "/transactions", http.StatusFound)
}

func (s *Server) handleTransactionEditForm(w http.ResponseWriter, r *http.Request, user *core.User) {
	tx, ok := s.loadTransaction(w, r, user)
	if !ok {
		return
	}

	form := &forms.TransactionForm{
		RawType:        string(tx.Type),
		RawValue:       core.FormatAmount(tx.Value),
		RawDate:        tx.Date.Format(forms.DateLayout),
		RawDescription: tx.Description,
	}
	if tx.CategoryID != nil {
		form.RawCategory = strconv.FormatInt(*tx.CategoryID, 10)
	}
	if tx.Recurring {
		form.RawRecurring = "on"
	}
	s.renderTransactionForm(w, r, user, form, nil, true, tx.ID)
}

func (s *Server) handleTransactionUpdate(w http.ResponseWriter, r *http.Request, user *core.User) {
	tx, ok := s.loadTransaction(w, r, user)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := forms.ParseTransactionForm(r.Form)
	errs := form.Validate()
	if !errs.Valid() {
		s.renderTransactionForm(w, r, user, form, errs, true, tx.ID)
		return
	}

	tx.CategoryID = &form.CategoryID
	tx.Type = form.Type
	tx.Value = form.Value
	tx.Date = form.Date
	tx.Description = sanitizeInput(form.RawDescription)
	tx.Recurring = form.Recurring

	err := s.repo.UpdateTransaction(r.Context(), *tx)
	if errors.Is(err, storage.ErrNotFound) {
		errs.Add("category", "Select a valid category.")
		s.renderTransactionForm(w, r, user, form, errs, true, tx.ID)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Update transaction failed", "error", err, "user_id", user.ID, "transaction_id", tx.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if tx.Type == core.Expense {
		s.maybePublishGoalAlert(r, user.ID, tx.Date.Year(), int(tx.Date.Month()))
	}
	http.Redirect(w, r, "/transactions", http.StatusFound)
}

func (s *Server) handleTransactionDeleteForm(w http.ResponseWriter, r *http.Request, user *core.User) {
	tx, ok := s.loadTransaction(w, r, user)
	if !ok {
		return
	}
	s.render(w, r, "transaction_confirm_delete.html", transactionDeletePage{User: user, Transaction: tx})
}

func (s *Server) handleTransactionDelete(w http.ResponseWriter, r *http.Request, user *core.User) {
	id, err := parsePathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	err = s.repo.DeleteTransaction(r.Context(), user.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete transaction failed", "error", err, "user_id", user.ID, "transaction_id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/transactions", http.StatusFound)
}

// loadTransaction resolves {id} to one of the user's transactions, answering
// 404 for anything else, including other users' rows.
func (s *Server) loadTransaction(w http.ResponseWriter, r *http.Request, user *core.User) (*core.Transaction, bool) {
	id, err := parsePathID(r)
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	tx, err := s.repo.GetTransaction(r.Context(), user.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get transaction failed", "error", err, "user_id", user.ID, "transaction_id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return tx, true
}

func (s *Server) renderTransactionForm(w http.ResponseWriter, r *http.Request, user *core.User, form *forms.TransactionForm, errs forms.Errors, editing bool, id int64) {
	categories, err := s.repo.ListCategories(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "transaction_form.html", transactionFormPage{
		User:       user,
		Categories: categories,
		Form:       form,
		Errors:     errs,
		Editing:    editing,
		ID:         id,
	})
}

// maybePublishGoalAlert checks the month's spending against its goal after an
// expense write and publishes an alert when a threshold is crossed. Publish
// failures are logged, never surfaced to the user.
func (s *Server) maybePublishGoalAlert(r *http.Request, userID int64, year, month int) {
	ctx := r.Context()

	goal, err := s.repo.GetGoalByMonth(ctx, userID, year, month)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "Get goal for alert failed", "error", err, "user_id", userID, "year", year, "month", month)
		return
	}

	spent, err := s.repo.SumExpenses(ctx, userID, year, month)
	if err != nil {
		slog.ErrorContext(ctx, "Sum expenses for alert failed", "error", err, "user_id", userID, "year", year, "month", month)
		return
	}

	level := events.AlertLevel(spent, goal.Target)
	if level == "" {
		return
	}

	alert := events.NewGoalAlert(userID, month, year, core.FormatAmount(spent), core.FormatAmount(goal.Target), level)
	if err := s.publisher.PublishGoalAlert(ctx, alert); err != nil {
		slog.ErrorContext(ctx, "Publish goal alert failed", "error", err, "user_id", userID, "level", level)
	}
}
