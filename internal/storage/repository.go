// Package storage provides the SQLite persistence layer. All reads and
// writes for user-owned records take the owner's user ID and never return
// another user's rows.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrCategoryInUse     = errors.New("category has transactions")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrDuplicateGoal     = errors.New("goal already exists for this month")
	ErrDuplicateUsername = errors.New("username already taken")
)

const dateLayout = "2006-01-02"

// Session is a server-side login session keyed by an opaque token.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// TransactionFilter narrows ListTransactions. Zero values mean "any".
type TransactionFilter struct {
	Type       core.TransactionType
	CategoryID int64
	DateFrom   time.Time
	DateTo     time.Time
}

// AdminFilter narrows the admin listings across all users.
type AdminFilter struct {
	Search string // matches description/name and owner username
	Type   core.TransactionType
	Year   int
	Month  int
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- Users ---

// CreateUser inserts the user and seeds the default categories in one
// transaction, so a new account never exists without them.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (*core.User, error) {
	exists, err := r.UsernameExists(ctx, u.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateUsername
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, first_name, last_name, is_admin, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, now)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}

	for _, name := range core.DefaultCategories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (user_id, name, created_at) VALUES (?, ?, ?)`,
			id, name, now); err != nil {
			return nil, fmt.Errorf("seed category %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit user: %w", err)
	}

	slog.InfoContext(ctx, "User registered",
		"component", "storage",
		"user_id", id,
		"username", u.Username)

	u.ID = id
	u.CreatedAt = now
	return &u, nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (*core.User, error) {
	return r.getUser(ctx, `SELECT id, username, email, password_hash, first_name, last_name, is_admin, created_at
		FROM users WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	return r.getUser(ctx, `SELECT id, username, email, password_hash, first_name, last_name, is_admin, created_at
		FROM users WHERE username = ?`, username)
}

func (r *SQLiteRepository) getUser(ctx context.Context, query string, arg any) (*core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (r *SQLiteRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count username: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) UpdateUserProfile(ctx context.Context, id int64, firstName, lastName, email string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, email = ? WHERE id = ?`,
		firstName, lastName, email, id)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) SetAdmin(ctx context.Context, username string, isAdmin bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_admin = ? WHERE username = ?`, isAdmin, username)
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	return requireRow(res)
}

// --- Sessions ---

func (r *SQLiteRepository) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		token, userID, expiresAt.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSession(ctx context.Context, token string) (*Session, error) {
	var s Session
	err := r.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = ?`, token).
		Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return &s, nil
}

func (r *SQLiteRepository) RenewSession(ctx context.Context, token string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET expires_at = ? WHERE token = ?`, expiresAt.UTC(), token)
	if err != nil {
		return fmt.Errorf("renew session: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// --- Categories ---

func (r *SQLiteRepository) CreateCategory(ctx context.Context, userID int64, name string) (*core.Category, error) {
	if err := (core.Category{Name: name}).Validate(); err != nil {
		return nil, err
	}
	dup, err := r.categoryNameExists(ctx, userID, name, 0)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateCategory
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, created_at) VALUES (?, ?, ?)`,
		userID, name, now)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("category id: %w", err)
	}
	return &core.Category{ID: id, UserID: userID, Name: name, CreatedAt: now}, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id int64) (*core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM categories WHERE id = ? AND user_id = ?`,
		id, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query category: %w", err)
	}
	return &c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, userID, id int64, name string) error {
	if err := (core.Category{Name: name}).Validate(); err != nil {
		return err
	}
	dup, err := r.categoryNameExists(ctx, userID, name, id)
	if err != nil {
		return err
	}
	if dup {
		return ErrDuplicateCategory
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ? WHERE id = ? AND user_id = ?`, name, id, userID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res)
}

// DeleteCategory refuses to delete a category that still has transactions.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id int64) error {
	if _, err := r.GetCategory(ctx, userID, id); err != nil {
		return err
	}
	n, err := r.CountTransactionsByCategory(ctx, userID, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryInUse
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) CountTransactionsByCategory(ctx context.Context, userID, categoryID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = ? AND category_id = ?`,
		userID, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count category transactions: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) categoryNameExists(ctx context.Context, userID int64, name string, excludeID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE user_id = ? AND name = ? AND id != ?`,
		userID, name, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count category name: %w", err)
	}
	return n > 0, nil
}

// --- Transactions ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (*core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.CategoryID != nil {
		if _, err := r.GetCategory(ctx, t.UserID, *t.CategoryID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, category_id, type, value, date, description, recurring, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.CategoryID, string(t.Type), t.Value.StringFixed(2),
		t.Date.Format(dateLayout), t.Description, t.Recurring, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"component", "storage",
		"transaction_id", id,
		"user_id", t.UserID,
		"type", string(t.Type),
		"value", t.Value.StringFixed(2))

	return r.GetTransaction(ctx, t.UserID, id)
}

const transactionColumns = `t.id, t.user_id, t.category_id, COALESCE(c.name, ''), t.type, t.value,
	t.date, t.description, t.recurring, t.created_at, t.updated_at`

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions t LEFT JOIN categories c ON c.id = t.category_id
		 WHERE t.id = ? AND t.user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.CategoryID != nil {
		if _, err := r.GetCategory(ctx, t.UserID, *t.CategoryID); err != nil {
			return err
		}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET category_id = ?, type = ?, value = ?, date = ?, description = ?, recurring = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		t.CategoryID, string(t.Type), t.Value.StringFixed(2), t.Date.Format(dateLayout),
		t.Description, t.Recurring, time.Now().UTC(), t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

// ListTransactions returns the user's transactions newest first, narrowed by
// the filter.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions t LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ?`
	args := []any{userID}

	if f.Type != "" {
		query += ` AND t.type = ?`
		args = append(args, string(f.Type))
	}
	if f.CategoryID != 0 {
		query += ` AND t.category_id = ?`
		args = append(args, f.CategoryID)
	}
	if !f.DateFrom.IsZero() {
		query += ` AND t.date >= ?`
		args = append(args, f.DateFrom.Format(dateLayout))
	}
	if !f.DateTo.IsZero() {
		query += ` AND t.date <= ?`
		args = append(args, f.DateTo.Format(dateLayout))
	}
	query += ` ORDER BY t.date DESC, t.id DESC`

	return r.queryTransactions(ctx, query, args...)
}

// ListMonthTransactions returns all of the user's transactions for one
// calendar month, newest first.
func (r *SQLiteRepository) ListMonthTransactions(ctx context.Context, userID int64, year, month int) ([]core.Transaction, error) {
	from, to := core.MonthBounds(year, month)
	return r.ListTransactions(ctx, userID, TransactionFilter{DateFrom: from, DateTo: to})
}

// SumExpenses totals the user's expense transactions for one month. The sum
// is computed in Go over exact decimal values.
func (r *SQLiteRepository) SumExpenses(ctx context.Context, userID int64, year, month int) (decimal.Decimal, error) {
	from, to := core.MonthBounds(year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT value FROM transactions
		 WHERE user_id = ? AND type = 'expense' AND date >= ? AND date <= ?`,
		userID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scan expense value: %w", err)
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse expense value %q: %w", raw, err)
		}
		total = total.Add(v)
	}
	return total, rows.Err()
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*core.Transaction, error) {
	var (
		t       core.Transaction
		typ     string
		rawVal  string
		rawDate string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Category, &typ, &rawVal,
		&rawDate, &t.Description, &t.Recurring, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Type = core.TransactionType(typ)
	if t.Value, err = decimal.NewFromString(rawVal); err != nil {
		return nil, fmt.Errorf("parse value %q: %w", rawVal, err)
	}
	if t.Date, err = time.Parse(dateLayout, rawDate); err != nil {
		return nil, fmt.Errorf("parse date %q: %w", rawDate, err)
	}
	return &t, nil
}

// --- Goals ---

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (*core.Goal, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	dup, err := r.GoalExists(ctx, g.UserID, g.Month, g.Year, 0)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateGoal
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, month, year, target, created_at) VALUES (?, ?, ?, ?, ?)`,
		g.UserID, g.Month, g.Year, g.Target.StringFixed(2), now)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("goal id: %w", err)
	}
	g.ID = id
	g.CreatedAt = now
	return &g, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id int64) (*core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, month, year, target, created_at FROM goals
		 WHERE id = ? AND user_id = ?`, id, userID)
	return scanGoal(row)
}

// GetGoalByMonth returns the user's goal for the month, or ErrNotFound.
func (r *SQLiteRepository) GetGoalByMonth(ctx context.Context, userID int64, year, month int) (*core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, month, year, target, created_at FROM goals
		 WHERE user_id = ? AND year = ? AND month = ?`, userID, year, month)
	return scanGoal(row)
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	dup, err := r.GoalExists(ctx, g.UserID, g.Month, g.Year, g.ID)
	if err != nil {
		return err
	}
	if dup {
		return ErrDuplicateGoal
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET month = ?, year = ?, target = ? WHERE id = ? AND user_id = ?`,
		g.Month, g.Year, g.Target.StringFixed(2), g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, month, year, target, created_at FROM goals
		 WHERE user_id = ? ORDER BY year DESC, month DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoalRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

// GoalExists reports whether another goal occupies the same month.
// excludeID skips the goal being edited.
func (r *SQLiteRepository) GoalExists(ctx context.Context, userID int64, month, year int, excludeID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM goals WHERE user_id = ? AND month = ? AND year = ? AND id != ?`,
		userID, month, year, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count goals: %w", err)
	}
	return n > 0, nil
}

func scanGoal(row *sql.Row) (*core.Goal, error) {
	g, err := scanGoalRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

func scanGoalRow(row rowScanner) (*core.Goal, error) {
	var (
		g   core.Goal
		raw string
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Month, &g.Year, &raw, &g.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if g.Target, err = decimal.NewFromString(raw); err != nil {
		return nil, fmt.Errorf("parse target %q: %w", raw, err)
	}
	return &g, nil
}

// --- Admin listings ---

// AdminUserRow is one row of the cross-user account listing.
type AdminUserRow struct {
	User             core.User
	TransactionCount int64
}

// AdminTransactionRow pairs a transaction with its owner's username.
type AdminTransactionRow struct {
	Transaction core.Transaction
	Username    string
}

// AdminCategoryRow pairs a category with its owner's username.
type AdminCategoryRow struct {
	Category core.Category
	Username string
}

// AdminGoalRow pairs a goal with its owner's username.
type AdminGoalRow struct {
	Goal     core.Goal
	Username string
}

func (r *SQLiteRepository) AdminListUsers(ctx context.Context, search string) ([]AdminUserRow, error) {
	query := `SELECT u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name, u.is_admin, u.created_at,
			(SELECT COUNT(*) FROM transactions t WHERE t.user_id = u.id)
		FROM users u`
	var args []any
	if search != "" {
		query += ` WHERE u.username LIKE ? OR u.email LIKE ?`
		like := "%" + search + "%"
		args = append(args, like, like)
	}
	query += ` ORDER BY u.username`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("admin list users: %w", err)
	}
	defer rows.Close()

	var out []AdminUserRow
	for rows.Next() {
		var row AdminUserRow
		u := &row.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
			&u.FirstName, &u.LastName, &u.IsAdmin, &u.CreatedAt, &row.TransactionCount); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AdminListTransactions(ctx context.Context, f AdminFilter) ([]AdminTransactionRow, error) {
	query := `SELECT ` + transactionColumns + `, u.username
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		JOIN users u ON u.id = t.user_id
		WHERE 1=1`
	var args []any
	if f.Search != "" {
		query += ` AND (t.description LIKE ? OR u.username LIKE ?)`
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}
	if f.Type != "" {
		query += ` AND t.type = ?`
		args = append(args, string(f.Type))
	}
	if f.Year != 0 && f.Month != 0 {
		from, to := core.MonthBounds(f.Year, f.Month)
		query += ` AND t.date >= ? AND t.date <= ?`
		args = append(args, from.Format(dateLayout), to.Format(dateLayout))
	}
	query += ` ORDER BY t.date DESC, t.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("admin list transactions: %w", err)
	}
	defer rows.Close()

	var out []AdminTransactionRow
	for rows.Next() {
		var (
			t        core.Transaction
			typ      string
			rawVal   string
			rawDate  string
			username string
		)
		err := rows.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Category, &typ, &rawVal,
			&rawDate, &t.Description, &t.Recurring, &t.CreatedAt, &t.UpdatedAt, &username)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		t.Type = core.TransactionType(typ)
		if t.Value, err = decimal.NewFromString(rawVal); err != nil {
			return nil, fmt.Errorf("parse value %q: %w", rawVal, err)
		}
		if t.Date, err = time.Parse(dateLayout, rawDate); err != nil {
			return nil, fmt.Errorf("parse date %q: %w", rawDate, err)
		}
		out = append(out, AdminTransactionRow{Transaction: t, Username: username})
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AdminListCategories(ctx context.Context, search string) ([]AdminCategoryRow, error) {
	query := `SELECT c.id, c.user_id, c.name, c.created_at, u.username
		FROM categories c JOIN users u ON u.id = c.user_id`
	var args []any
	if search != "" {
		query += ` WHERE c.name LIKE ? OR u.username LIKE ?`
		like := "%" + search + "%"
		args = append(args, like, like)
	}
	query += ` ORDER BY u.username, c.name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("admin list categories: %w", err)
	}
	defer rows.Close()

	var out []AdminCategoryRow
	for rows.Next() {
		var row AdminCategoryRow
		c := &row.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt, &row.Username); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AdminListGoals(ctx context.Context, f AdminFilter) ([]AdminGoalRow, error) {
	query := `SELECT g.id, g.user_id, g.month, g.year, g.target, g.created_at, u.username
		FROM goals g JOIN users u ON u.id = g.user_id WHERE 1=1`
	var args []any
	if f.Search != "" {
		query += ` AND u.username LIKE ?`
		args = append(args, "%"+f.Search+"%")
	}
	if f.Year != 0 {
		query += ` AND g.year = ?`
		args = append(args, f.Year)
	}
	if f.Month != 0 {
		query += ` AND g.month = ?`
		args = append(args, f.Month)
	}
	query += ` ORDER BY g.year DESC, g.month DESC, u.username`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("admin list goals: %w", err)
	}
	defer rows.Close()

	var out []AdminGoalRow
	for rows.Next() {
		var (
			row AdminGoalRow
			raw string
		)
		g := &row.Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Month, &g.Year, &raw, &g.CreatedAt, &row.Username); err != nil {
			return nil, fmt.Errorf("scan goal row: %w", err)
		}
		var err error
		if g.Target, err = decimal.NewFromString(raw); err != nil {
			return nil, fmt.Errorf("parse target %q: %w", raw, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
