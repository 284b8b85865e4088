package forms

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterFormValidate(t *testing.T) {
	tests := []struct {
		name    string
		values  url.Values
		wantErr []string
	}{
		{
			name: "valid",
			values: url.Values{
				"username": {"maria"}, "email": {"maria@example.com"},
				"password1": {"s3cretpass"}, "password2": {"s3cretpass"},
			},
		},
		{
			name:    "all missing",
			values:  url.Values{},
			wantErr: []string{"username", "email", "password1", "password2"},
		},
		{
			name: "password mismatch",
			values: url.Values{
				"username": {"maria"}, "email": {"maria@example.com"},
				"password1": {"s3cretpass"}, "password2": {"other"},
			},
			wantErr: []string{"password2"},
		},
		{
			name: "short password",
			values: url.Values{
				"username": {"maria"}, "email": {"maria@example.com"},
				"password1": {"abc"}, "password2": {"abc"},
			},
			wantErr: []string{"password1"},
		},
		{
			name: "numeric password",
			values: url.Values{
				"username": {"maria"}, "email": {"maria@example.com"},
				"password1": {"12345678"}, "password2": {"12345678"},
			},
			wantErr: []string{"password1"},
		},
		{
			name: "bad email",
			values: url.Values{
				"username": {"maria"}, "email": {"not-an-email"},
				"password1": {"s3cretpass"}, "password2": {"s3cretpass"},
			},
			wantErr: []string{"email"},
		},
		{
			name: "bad username",
			values: url.Values{
				"username": {"a b"}, "email": {"maria@example.com"},
				"password1": {"s3cretpass"}, "password2": {"s3cretpass"},
			},
			wantErr: []string{"username"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ParseRegisterForm(tt.values).Validate()
			if len(tt.wantErr) == 0 {
				assert.True(t, errs.Valid(), "unexpected errors: %v", errs)
				return
			}
			for _, field := range tt.wantErr {
				assert.Contains(t, errs, field)
			}
		})
	}
}

func TestTransactionFormValidate(t *testing.T) {
	valid := url.Values{
		"type": {"expense"}, "value": {"49.90"}, "category": {"3"},
		"date": {"2024-03-15"}, "description": {"groceries"}, "recurring": {"on"},
	}

	t.Run("valid coerces types", func(t *testing.T) {
		f := ParseTransactionForm(valid)
		errs := f.Validate()
		assert.True(t, errs.Valid(), "unexpected errors: %v", errs)
		assert.Equal(t, "expense", string(f.Type))
		assert.Equal(t, "49.90", f.Value.StringFixed(2))
		assert.Equal(t, int64(3), f.CategoryID)
		assert.Equal(t, "2024-03-15", f.Date.Format(DateLayout))
		assert.True(t, f.Recurring)
	})

	t.Run("comma decimal accepted", func(t *testing.T) {
		v := cloneValues(valid)
		v.Set("value", "49,90")
		f := ParseTransactionForm(v)
		assert.True(t, f.Validate().Valid())
		assert.Equal(t, "49.90", f.Value.StringFixed(2))
	})

	t.Run("minimum amount boundary", func(t *testing.T) {
		v := cloneValues(valid)
		v.Set("value", "0.01")
		assert.True(t, ParseTransactionForm(v).Validate().Valid())

		v.Set("value", "0.00")
		errs := ParseTransactionForm(v).Validate()
		assert.Contains(t, errs, "value")
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		v := cloneValues(valid)
		v.Set("value", "-10")
		assert.Contains(t, ParseTransactionForm(v).Validate(), "value")
	})

	t.Run("invalid type", func(t *testing.T) {
		v := cloneValues(valid)
		v.Set("type", "transfer")
		assert.Contains(t, ParseTransactionForm(v).Validate(), "type")
	})

	t.Run("invalid date", func(t *testing.T) {
		v := cloneValues(valid)
		v.Set("date", "15/03/2024")
		assert.Contains(t, ParseTransactionForm(v).Validate(), "date")
	})

	t.Run("required fields", func(t *testing.T) {
		errs := ParseTransactionForm(url.Values{}).Validate()
		for _, field := range []string{"type", "value", "category", "date"} {
			assert.Contains(t, errs, field)
		}
		assert.NotContains(t, errs, "description")
	})
}

func TestGoalFormValidate(t *testing.T) {
	tests := []struct {
		name    string
		month   string
		year    string
		target  string
		wantErr string
	}{
		{name: "valid", month: "3", year: "2024", target: "1500"},
		{name: "month zero", month: "0", year: "2024", target: "1500", wantErr: "month"},
		{name: "month thirteen", month: "13", year: "2024", target: "1500", wantErr: "month"},
		{name: "year out of range", month: "3", year: "1999", target: "1500", wantErr: "year"},
		{name: "zero target", month: "3", year: "2024", target: "0", wantErr: "target"},
		{name: "garbage month", month: "abc", year: "2024", target: "1500", wantErr: "month"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ParseGoalForm(url.Values{
				"month": {tt.month}, "year": {tt.year}, "target": {tt.target},
			})
			errs := f.Validate()
			if tt.wantErr == "" {
				assert.True(t, errs.Valid(), "unexpected errors: %v", errs)
				assert.Equal(t, 3, f.Month)
				assert.Equal(t, 2024, f.Year)
				return
			}
			assert.Contains(t, errs, tt.wantErr)
		})
	}
}

func TestProfileFormValidate(t *testing.T) {
	f := ParseProfileForm(url.Values{
		"first_name": {"Maria"}, "last_name": {"Silva"}, "email": {"maria@example.com"},
	})
	assert.True(t, f.Validate().Valid())

	f = ParseProfileForm(url.Values{"email": {""}})
	assert.Contains(t, f.Validate(), "email")
}

func TestCategoryFormValidate(t *testing.T) {
	assert.True(t, ParseCategoryForm(url.Values{"name": {"Food"}}).Validate().Valid())
	assert.Contains(t, ParseCategoryForm(url.Values{"name": {"  "}}).Validate(), "name")
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
