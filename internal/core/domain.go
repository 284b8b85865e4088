package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	User struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
		FirstName    string
		LastName     string
		IsAdmin      bool
		CreatedAt    time.Time
	}

	Category struct {
		ID        int64
		UserID    int64
		Name      string
		CreatedAt time.Time
	}

	Transaction struct {
		ID          int64
		UserID      int64
		CategoryID  *int64
		Category    string // joined category name, empty when uncategorized
		Type        TransactionType
		Value       decimal.Decimal
		Date        time.Time // calendar date, midnight UTC
		Description string
		Recurring   bool
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Goal struct {
		ID        int64
		UserID    int64
		Month     int // 1-12
		Year      int
		Target    decimal.Decimal
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidYear   = errors.New("invalid year")
	ErrZeroDate      = errors.New("date is required")
	ErrEmptyName     = errors.New("empty category name")
)

// DefaultCategories are seeded for every new user at registration.
var DefaultCategories = []string{
	"Food", "Transport", "Education", "Housing", "Leisure", "Health", "Income", "Other",
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Value.LessThan(MinAmount) {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

func (g Goal) Validate() error {
	if g.Month < 1 || g.Month > 12 {
		return ErrInvalidMonth
	}
	if g.Year < 2000 || g.Year > 2100 {
		return ErrInvalidYear
	}
	if g.Target.LessThan(MinAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// NewDate builds a calendar date with no time component.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// MonthBounds returns the first and last day of a month, both inclusive.
func MonthBounds(year, month int) (from, to time.Time) {
	from = NewDate(year, month, 1)
	to = from.AddDate(0, 1, -1)
	return from, to
}
