// Package forms implements schema-driven parsing and validation of the
// HTML form input for every record type. Each form carries the raw submitted
// strings, a Validate method that coerces them into typed values, and a map
// of field-level error messages for re-rendering.
package forms

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/auth"
	"financas/internal/core"
)

// DateLayout is the calendar-date wire format used by all date fields.
const DateLayout = "2006-01-02"

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9@.+_-]{3,150}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Errors maps field names to a single user-visible message each.
type Errors map[string]string

func (e Errors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

// Valid reports whether no field failed validation.
func (e Errors) Valid() bool { return len(e) == 0 }

// FieldSpec describes one input field: its coercion kind and constraints.
// The field sets below are static configuration; rendering technology never
// reaches into this package.
type FieldSpec struct {
	Name     string
	Kind     string // text, email, password, decimal, date, select, int, checkbox
	Required bool
	MaxLen   int
}

var (
	RegisterFields = []FieldSpec{
		{Name: "username", Kind: "text", Required: true, MaxLen: 150},
		{Name: "email", Kind: "email", Required: true, MaxLen: 254},
		{Name: "password1", Kind: "password", Required: true},
		{Name: "password2", Kind: "password", Required: true},
	}
	ProfileFields = []FieldSpec{
		{Name: "first_name", Kind: "text", MaxLen: 150},
		{Name: "last_name", Kind: "text", MaxLen: 150},
		{Name: "email", Kind: "email", Required: true, MaxLen: 254},
	}
	CategoryFields = []FieldSpec{
		{Name: "name", Kind: "text", Required: true, MaxLen: 100},
	}
	TransactionFields = []FieldSpec{
		{Name: "type", Kind: "select", Required: true},
		{Name: "value", Kind: "decimal", Required: true},
		{Name: "category", Kind: "select", Required: true},
		{Name: "date", Kind: "date", Required: true},
		{Name: "description", Kind: "text", MaxLen: 500},
		{Name: "recurring", Kind: "checkbox"},
	}
	GoalFields = []FieldSpec{
		{Name: "month", Kind: "int", Required: true},
		{Name: "year", Kind: "int", Required: true},
		{Name: "target", Kind: "decimal", Required: true},
	}
)

// checkRequired applies the Required/MaxLen constraints of a field spec set
// to the raw values and records failures.
func checkRequired(specs []FieldSpec, raw map[string]string, errs Errors) {
	for _, spec := range specs {
		v := raw[spec.Name]
		if spec.Required && strings.TrimSpace(v) == "" {
			errs.Add(spec.Name, "This field is required.")
			continue
		}
		if spec.MaxLen > 0 && len(v) > spec.MaxLen {
			errs.Add(spec.Name, "Value is too long.")
		}
	}
}

// RegisterForm carries the signup input.
type RegisterForm struct {
	Username  string
	Email     string
	Password1 string
	Password2 string
}

func ParseRegisterForm(values url.Values) *RegisterForm {
	return &RegisterForm{
		Username:  strings.TrimSpace(values.Get("username")),
		Email:     strings.TrimSpace(values.Get("email")),
		Password1: values.Get("password1"),
		Password2: values.Get("password2"),
	}
}

func (f *RegisterForm) Validate() Errors {
	errs := Errors{}
	checkRequired(RegisterFields, map[string]string{
		"username": f.Username, "email": f.Email,
		"password1": f.Password1, "password2": f.Password2,
	}, errs)

	if f.Username != "" && !usernameRe.MatchString(f.Username) {
		errs.Add("username", "Enter a valid username: 3-150 letters, digits and @.+-_ only.")
	}
	if f.Email != "" && !emailRe.MatchString(f.Email) {
		errs.Add("email", "Enter a valid email address.")
	}
	if f.Password1 != "" && f.Password2 != "" && f.Password1 != f.Password2 {
		errs.Add("password2", "The two password fields didn't match.")
	}
	if f.Password1 != "" {
		switch auth.ValidatePassword(f.Password1) {
		case auth.ErrPasswordTooShort:
			errs.Add("password1", "Password must contain at least 8 characters.")
		case auth.ErrPasswordNumeric:
			errs.Add("password1", "Password can't be entirely numeric.")
		}
	}
	return errs
}

// ProfileForm carries the editable profile fields.
type ProfileForm struct {
	FirstName string
	LastName  string
	Email     string
}

func ParseProfileForm(values url.Values) *ProfileForm {
	return &ProfileForm{
		FirstName: strings.TrimSpace(values.Get("first_name")),
		LastName:  strings.TrimSpace(values.Get("last_name")),
		Email:     strings.TrimSpace(values.Get("email")),
	}
}

func (f *ProfileForm) Validate() Errors {
	errs := Errors{}
	checkRequired(ProfileFields, map[string]string{
		"first_name": f.FirstName, "last_name": f.LastName, "email": f.Email,
	}, errs)
	if f.Email != "" && !emailRe.MatchString(f.Email) {
		errs.Add("email", "Enter a valid email address.")
	}
	return errs
}

// CategoryForm carries category input; only the name is user-editable.
type CategoryForm struct {
	Name string
}

func ParseCategoryForm(values url.Values) *CategoryForm {
	return &CategoryForm{Name: strings.TrimSpace(values.Get("name"))}
}

func (f *CategoryForm) Validate() Errors {
	errs := Errors{}
	checkRequired(CategoryFields, map[string]string{"name": f.Name}, errs)
	return errs
}

// TransactionForm carries transaction input. The typed fields are populated
// by Validate and are meaningful only when it returns no errors.
type TransactionForm struct {
	RawType        string
	RawValue       string
	RawCategory    string
	RawDate        string
	RawDescription string
	RawRecurring   string

	Type       core.TransactionType
	Value      decimal.Decimal
	CategoryID int64
	Date       time.Time
	Recurring  bool
}

func ParseTransactionForm(values url.Values) *TransactionForm {
	return &TransactionForm{
		RawType:        strings.TrimSpace(values.Get("type")),
		RawValue:       strings.TrimSpace(values.Get("value")),
		RawCategory:    strings.TrimSpace(values.Get("category")),
		RawDate:        strings.TrimSpace(values.Get("date")),
		RawDescription: strings.TrimSpace(values.Get("description")),
		RawRecurring:   values.Get("recurring"),
	}
}

func (f *TransactionForm) Validate() Errors {
	errs := Errors{}
	checkRequired(TransactionFields, map[string]string{
		"type": f.RawType, "value": f.RawValue, "category": f.RawCategory,
		"date": f.RawDate, "description": f.RawDescription,
	}, errs)

	f.Type = core.TransactionType(f.RawType)
	if f.RawType != "" && !f.Type.Valid() {
		errs.Add("type", "Select a valid transaction type.")
	}

	if f.RawValue != "" {
		v, err := core.ParseAmount(f.RawValue)
		if err != nil {
			errs.Add("value", "Enter a positive amount of at least 0.01.")
		} else {
			f.Value = v
		}
	}

	if f.RawCategory != "" {
		id, err := strconv.ParseInt(f.RawCategory, 10, 64)
		if err != nil || id < 1 {
			errs.Add("category", "Select a valid category.")
		} else {
			f.CategoryID = id
		}
	}

	if f.RawDate != "" {
		d, err := time.Parse(DateLayout, f.RawDate)
		if err != nil {
			errs.Add("date", "Enter a valid date (YYYY-MM-DD).")
		} else {
			f.Date = d
		}
	}

	f.Recurring = f.RawRecurring == "on" || f.RawRecurring == "true" || f.RawRecurring == "1"

	return errs
}

// GoalForm carries monthly goal input.
type GoalForm struct {
	RawMonth  string
	RawYear   string
	RawTarget string

	Month  int
	Year   int
	Target decimal.Decimal
}

// PrefillGoalForm builds a goal form with the month fields already set,
// used when rendering a blank or edit form.
func PrefillGoalForm(month, year int) *GoalForm {
	return &GoalForm{
		RawMonth: strconv.Itoa(month),
		RawYear:  strconv.Itoa(year),
		Month:    month,
		Year:     year,
	}
}

func ParseGoalForm(values url.Values) *GoalForm {
	return &GoalForm{
		RawMonth:  strings.TrimSpace(values.Get("month")),
		RawYear:   strings.TrimSpace(values.Get("year")),
		RawTarget: strings.TrimSpace(values.Get("target")),
	}
}

func (f *GoalForm) Validate() Errors {
	errs := Errors{}
	checkRequired(GoalFields, map[string]string{
		"month": f.RawMonth, "year": f.RawYear, "target": f.RawTarget,
	}, errs)

	if f.RawMonth != "" {
		m, err := strconv.Atoi(f.RawMonth)
		if err != nil || m < 1 || m > 12 {
			errs.Add("month", "Month must be between 1 and 12.")
		} else {
			f.Month = m
		}
	}
	if f.RawYear != "" {
		y, err := strconv.Atoi(f.RawYear)
		if err != nil || y < 2000 || y > 2100 {
			errs.Add("year", "Enter a year between 2000 and 2100.")
		} else {
			f.Year = y
		}
	}
	if f.RawTarget != "" {
		v, err := core.ParseAmount(f.RawTarget)
		if err != nil {
			errs.Add("target", "Enter a positive amount of at least 0.01.")
		} else {
			f.Target = v
		}
	}
	return errs
}
