package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func catID(id int64) *int64 { return &id }

func januaryFixture(t *testing.T) []Transaction {
	t.Helper()
	// Date-descending, as storage returns them.
	return []Transaction{
		{ID: 3, Type: Expense, Value: mustAmount(t, "200"), Category: "Food", CategoryID: catID(1), Date: NewDate(2025, 1, 20)},
		{ID: 4, Type: Expense, Value: mustAmount(t, "150"), Category: "Transport", CategoryID: catID(2), Date: NewDate(2025, 1, 15)},
		{ID: 2, Type: Expense, Value: mustAmount(t, "300"), Category: "Food", CategoryID: catID(1), Date: NewDate(2025, 1, 10)},
		{ID: 1, Type: Income, Value: mustAmount(t, "1000"), Date: NewDate(2025, 1, 5)},
	}
}

func TestSummarize(t *testing.T) {
	goal := &Goal{Month: 1, Year: 2025, Target: decimal.NewFromInt(1000)}
	s := Summarize(2025, 1, januaryFixture(t), goal)

	if got := FormatAmount(s.TotalIncome); got != "1000.00" {
		t.Errorf("TotalIncome = %s, want 1000.00", got)
	}
	if got := FormatAmount(s.TotalExpense); got != "650.00" {
		t.Errorf("TotalExpense = %s, want 650.00", got)
	}
	if got := FormatAmount(s.Balance); got != "350.00" {
		t.Errorf("Balance = %s, want 350.00", got)
	}
	if s.SpentRatio != 65 {
		t.Errorf("SpentRatio = %v, want 65", s.SpentRatio)
	}
	if s.Count != 4 {
		t.Errorf("Count = %d, want 4", s.Count)
	}

	if len(s.ByCategory) != 2 {
		t.Fatalf("ByCategory = %v, want two buckets", s.ByCategory)
	}
	if s.ByCategory[0].Name != "Food" || FormatAmount(s.ByCategory[0].Amount) != "500.00" {
		t.Errorf("first bucket = %s %s, want Food 500.00", s.ByCategory[0].Name, FormatAmount(s.ByCategory[0].Amount))
	}
	if s.ByCategory[1].Name != "Transport" || FormatAmount(s.ByCategory[1].Amount) != "150.00" {
		t.Errorf("second bucket = %s %s, want Transport 150.00", s.ByCategory[1].Name, FormatAmount(s.ByCategory[1].Amount))
	}

	if len(s.Recent) != 4 || s.Recent[0].ID != 3 {
		t.Errorf("Recent = %v, want all four starting with the newest", s.Recent)
	}
}

func TestSummarizeWithoutGoal(t *testing.T) {
	s := Summarize(2025, 1, januaryFixture(t), nil)
	if s.Goal != nil {
		t.Error("Goal should stay nil")
	}
	if s.SpentRatio != 0 {
		t.Errorf("SpentRatio = %v, want 0 without a goal", s.SpentRatio)
	}
}

func TestSummarizeEmptyMonth(t *testing.T) {
	s := Summarize(2025, 6, nil, nil)
	if !s.TotalIncome.IsZero() || !s.TotalExpense.IsZero() || !s.Balance.IsZero() {
		t.Errorf("empty month should sum to zero, got %+v", s)
	}
	if s.Count != 0 || len(s.ByCategory) != 0 || len(s.Recent) != 0 {
		t.Errorf("empty month should carry no rows, got %+v", s)
	}
}

func TestSummarizeUncategorizedBucket(t *testing.T) {
	txs := []Transaction{
		{Type: Expense, Value: mustAmount(t, "40"), Date: NewDate(2025, 3, 2)},
		{Type: Expense, Value: mustAmount(t, "10"), Category: "Food", CategoryID: catID(1), Date: NewDate(2025, 3, 1)},
	}
	s := Summarize(2025, 3, txs, nil)
	if len(s.ByCategory) != 2 || s.ByCategory[0].Name != Uncategorized {
		t.Fatalf("ByCategory = %v, want Uncategorized bucket first", s.ByCategory)
	}
	if got := FormatAmount(s.ByCategory[0].Amount); got != "40.00" {
		t.Errorf("Uncategorized amount = %s, want 40.00", got)
	}
}

func TestSummarizeRecentCapped(t *testing.T) {
	var txs []Transaction
	for day := 28; day >= 1; day-- {
		txs = append(txs, Transaction{
			Type:  Expense,
			Value: mustAmount(t, "1.00"),
			Date:  NewDate(2025, 2, day),
		})
	}
	s := Summarize(2025, 2, txs, nil)
	if len(s.Recent) != RecentLimit {
		t.Errorf("Recent length = %d, want %d", len(s.Recent), RecentLimit)
	}
	if s.Count != 28 {
		t.Errorf("Count = %d, want 28", s.Count)
	}
}

func TestSpentRatioZeroTarget(t *testing.T) {
	goal := &Goal{Month: 1, Year: 2025, Target: decimal.Zero}
	if got := SpentRatio(decimal.NewFromInt(100), goal); got != 0 {
		t.Errorf("zero target ratio = %v, want 0", got)
	}
}
