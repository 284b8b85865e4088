package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Uncategorized is the bucket label for expenses whose category was deleted.
const Uncategorized = "Uncategorized"

// RecentLimit caps the recent-transactions list on the dashboard.
const RecentLimit = 5

// CategoryAmount is an expense total aggregated under one category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// MonthSummary is the dashboard aggregate for one user and calendar month.
type MonthSummary struct {
	Year         int
	Month        int // 1-12
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Balance      decimal.Decimal
	Goal         *Goal   // nil when no goal is set for the month
	SpentRatio   float64 // percent of the goal target spent, 0 without a goal
	ByCategory   []CategoryAmount
	Recent       []Transaction
	Count        int
}

// Summarize aggregates one month of transactions into a dashboard summary.
//
// transactions must already be scoped to the caller and the target month and
// ordered date-descending (the storage default); goal may be nil. The
// function is pure: it never touches storage.
func Summarize(year, month int, transactions []Transaction, goal *Goal) MonthSummary {
	s := MonthSummary{
		Year:         year,
		Month:        month,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		Goal:         goal,
		Count:        len(transactions),
	}

	buckets := make(map[string]decimal.Decimal)
	for _, t := range transactions {
		switch t.Type {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(t.Value)
		case Expense:
			s.TotalExpense = s.TotalExpense.Add(t.Value)
			name := t.Category
			if name == "" {
				name = Uncategorized
			}
			buckets[name] = buckets[name].Add(t.Value)
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	s.SpentRatio = SpentRatio(s.TotalExpense, goal)

	s.ByCategory = make([]CategoryAmount, 0, len(buckets))
	for name, amount := range buckets {
		s.ByCategory = append(s.ByCategory, CategoryAmount{Name: name, Amount: amount})
	}
	// Largest bucket first, name breaks ties to keep output stable
	sort.Slice(s.ByCategory, func(i, j int) bool {
		if !s.ByCategory[i].Amount.Equal(s.ByCategory[j].Amount) {
			return s.ByCategory[i].Amount.GreaterThan(s.ByCategory[j].Amount)
		}
		return s.ByCategory[i].Name < s.ByCategory[j].Name
	})

	recent := transactions
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	s.Recent = recent

	return s
}

// SpentRatio computes the percentage of a goal target that spent covers.
// A nil goal or a non-positive target yields 0.
func SpentRatio(spent decimal.Decimal, goal *Goal) float64 {
	if goal == nil || !goal.Target.IsPositive() {
		return 0
	}
	ratio, _ := spent.Div(goal.Target).Mul(decimal.NewFromInt(100)).Float64()
	return ratio
}
