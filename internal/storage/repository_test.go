package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"financas/internal/core"
)

type RepositorySuite struct {
	suite.Suite
	repo *SQLiteRepository
	ctx  context.Context
}

func (s *RepositorySuite) SetupTest() {
	// Migrations open their own connection to the path, so the database
	// must live on disk rather than in memory.
	dbPath := filepath.Join(s.T().TempDir(), "test.db")
	repo, err := NewSQLiteRepository(dbPath)
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RepositorySuite) TearDownTest() {
	s.Require().NoError(s.repo.Close())
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) createUser(username string) *core.User {
	u, err := s.repo.CreateUser(s.ctx, core.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	})
	s.Require().NoError(err)
	return u
}

func (s *RepositorySuite) categoryID(userID int64, name string) int64 {
	cats, err := s.repo.ListCategories(s.ctx, userID)
	s.Require().NoError(err)
	for _, c := range cats {
		if c.Name == name {
			return c.ID
		}
	}
	s.Require().FailNowf("category not found", "name=%s", name)
	return 0
}

func amount(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	require.NoError(t, err)
	return d
}

func (s *RepositorySuite) TestCreateUserSeedsDefaultCategories() {
	u := s.createUser("maria")

	cats, err := s.repo.ListCategories(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Len(cats, len(core.DefaultCategories))

	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	for _, want := range core.DefaultCategories {
		s.Contains(names, want)
	}
}

func (s *RepositorySuite) TestCreateUserDuplicateUsername() {
	s.createUser("maria")
	_, err := s.repo.CreateUser(s.ctx, core.User{Username: "maria", Email: "other@example.com", PasswordHash: "x"})
	s.ErrorIs(err, ErrDuplicateUsername)
}

func (s *RepositorySuite) TestUpdateUserProfile() {
	u := s.createUser("maria")
	s.Require().NoError(s.repo.UpdateUserProfile(s.ctx, u.ID, "Maria", "Silva", "new@example.com"))

	got, err := s.repo.GetUserByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("Maria", got.FirstName)
	s.Equal("Silva", got.LastName)
	s.Equal("new@example.com", got.Email)
	s.Equal("maria", got.Username)
}

func (s *RepositorySuite) TestSetAdmin() {
	u := s.createUser("maria")
	s.False(u.IsAdmin)

	s.Require().NoError(s.repo.SetAdmin(s.ctx, "maria", true))
	got, err := s.repo.GetUserByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.True(got.IsAdmin)

	s.ErrorIs(s.repo.SetAdmin(s.ctx, "ghost", true), ErrNotFound)
}

func (s *RepositorySuite) TestSessions() {
	u := s.createUser("maria")
	expiry := time.Now().Add(time.Hour).UTC()

	s.Require().NoError(s.repo.CreateSession(s.ctx, "tok1", u.ID, expiry))

	sess, err := s.repo.GetSession(s.ctx, "tok1")
	s.Require().NoError(err)
	s.Equal(u.ID, sess.UserID)
	s.WithinDuration(expiry, sess.ExpiresAt, time.Second)

	newExpiry := time.Now().Add(2 * time.Hour).UTC()
	s.Require().NoError(s.repo.RenewSession(s.ctx, "tok1", newExpiry))
	sess, err = s.repo.GetSession(s.ctx, "tok1")
	s.Require().NoError(err)
	s.WithinDuration(newExpiry, sess.ExpiresAt, time.Second)

	s.Require().NoError(s.repo.DeleteSession(s.ctx, "tok1"))
	_, err = s.repo.GetSession(s.ctx, "tok1")
	s.ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestDeleteExpiredSessions() {
	u := s.createUser("maria")
	s.Require().NoError(s.repo.CreateSession(s.ctx, "old", u.ID, time.Now().Add(-time.Hour)))
	s.Require().NoError(s.repo.CreateSession(s.ctx, "live", u.ID, time.Now().Add(time.Hour)))

	n, err := s.repo.DeleteExpiredSessions(s.ctx, time.Now())
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	_, err = s.repo.GetSession(s.ctx, "old")
	s.ErrorIs(err, ErrNotFound)
	_, err = s.repo.GetSession(s.ctx, "live")
	s.NoError(err)
}

func (s *RepositorySuite) TestCategoryDuplicateName() {
	u := s.createUser("maria")

	_, err := s.repo.CreateCategory(s.ctx, u.ID, "Food")
	s.ErrorIs(err, ErrDuplicateCategory)

	// Same name under a different user is fine.
	other := s.createUser("joao")
	foodID := s.categoryID(other.ID, "Food")
	s.Positive(foodID)
}

func (s *RepositorySuite) TestUpdateCategory() {
	u := s.createUser("maria")
	c, err := s.repo.CreateCategory(s.ctx, u.ID, "Pets")
	s.Require().NoError(err)

	s.Require().NoError(s.repo.UpdateCategory(s.ctx, u.ID, c.ID, "Animals"))
	got, err := s.repo.GetCategory(s.ctx, u.ID, c.ID)
	s.Require().NoError(err)
	s.Equal("Animals", got.Name)

	// Renaming onto an existing name is refused, keeping the old name is not.
	s.ErrorIs(s.repo.UpdateCategory(s.ctx, u.ID, c.ID, "Food"), ErrDuplicateCategory)
	s.NoError(s.repo.UpdateCategory(s.ctx, u.ID, c.ID, "Animals"))
}

func (s *RepositorySuite) TestDeleteCategoryInUse() {
	u := s.createUser("maria")
	foodID := s.categoryID(u.ID, "Food")

	_, err := s.repo.CreateTransaction(s.ctx, core.Transaction{
		UserID:     u.ID,
		CategoryID: &foodID,
		Type:       core.Expense,
		Value:      amount(s.T(), "10.00"),
		Date:       core.NewDate(2024, 3, 1),
	})
	s.Require().NoError(err)

	s.ErrorIs(s.repo.DeleteCategory(s.ctx, u.ID, foodID), ErrCategoryInUse)

	// An unused category deletes cleanly.
	otherID := s.categoryID(u.ID, "Leisure")
	s.NoError(s.repo.DeleteCategory(s.ctx, u.ID, otherID))
}

func (s *RepositorySuite) TestTransactionRoundtrip() {
	u := s.createUser("maria")
	foodID := s.categoryID(u.ID, "Food")

	created, err := s.repo.CreateTransaction(s.ctx, core.Transaction{
		UserID:      u.ID,
		CategoryID:  &foodID,
		Type:        core.Expense,
		Value:       amount(s.T(), "49.90"),
		Date:        core.NewDate(2024, 3, 15),
		Description: "groceries",
		Recurring:   true,
	})
	s.Require().NoError(err)
	s.Equal("Food", created.Category)
	s.Equal("49.90", created.Value.StringFixed(2))

	got, err := s.repo.GetTransaction(s.ctx, u.ID, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)
	s.True(got.Recurring)
	s.Equal(core.NewDate(2024, 3, 15), got.Date)

	got.Description = "market"
	got.Value = amount(s.T(), "55.00")
	s.Require().NoError(s.repo.UpdateTransaction(s.ctx, *got))

	updated, err := s.repo.GetTransaction(s.ctx, u.ID, created.ID)
	s.Require().NoError(err)
	s.Equal("market", updated.Description)
	s.Equal("55.00", updated.Value.StringFixed(2))

	s.Require().NoError(s.repo.DeleteTransaction(s.ctx, u.ID, created.ID))
	_, err = s.repo.GetTransaction(s.ctx, u.ID, created.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestTransactionOwnership() {
	owner := s.createUser("maria")
	intruder := s.createUser("joao")

	created, err := s.repo.CreateTransaction(s.ctx, core.Transaction{
		UserID: owner.ID,
		Type:   core.Income,
		Value:  amount(s.T(), "100.00"),
		Date:   core.NewDate(2024, 3, 1),
	})
	s.Require().NoError(err)

	_, err = s.repo.GetTransaction(s.ctx, intruder.ID, created.ID)
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(s.repo.DeleteTransaction(s.ctx, intruder.ID, created.ID), ErrNotFound)

	// Writing under a foreign category is refused too.
	foreignFood := s.categoryID(owner.ID, "Food")
	_, err = s.repo.CreateTransaction(s.ctx, core.Transaction{
		UserID:     intruder.ID,
		CategoryID: &foreignFood,
		Type:       core.Expense,
		Value:      amount(s.T(), "10.00"),
		Date:       core.NewDate(2024, 3, 1),
	})
	s.ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestListTransactionsFilters() {
	u := s.createUser("maria")
	foodID := s.categoryID(u.ID, "Food")
	transportID := s.categoryID(u.ID, "Transport")

	seed := []struct {
		typ   core.TransactionType
		cat   *int64
		value string
		date  time.Time
	}{
		{core.Income, nil, "1000.00", core.NewDate(2024, 3, 1)},
		{core.Expense, &foodID, "300.00", core.NewDate(2024, 3, 10)},
		{core.Expense, &foodID, "200.00", core.NewDate(2024, 3, 20)},
		{core.Expense, &transportID, "150.00", core.NewDate(2024, 4, 2)},
	}
	for _, row := range seed {
		_, err := s.repo.CreateTransaction(s.ctx, core.Transaction{
			UserID:     u.ID,
			CategoryID: row.cat,
			Type:       row.typ,
			Value:      amount(s.T(), row.value),
			Date:       row.date,
		})
		s.Require().NoError(err)
	}

	all, err := s.repo.ListTransactions(s.ctx, u.ID, TransactionFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 4)
	// Newest first.
	s.Equal(core.NewDate(2024, 4, 2), all[0].Date)
	s.Equal(core.NewDate(2024, 3, 1), all[3].Date)

	expenses, err := s.repo.ListTransactions(s.ctx, u.ID, TransactionFilter{Type: core.Expense})
	s.Require().NoError(err)
	s.Len(expenses, 3)

	food, err := s.repo.ListTransactions(s.ctx, u.ID, TransactionFilter{CategoryID: foodID})
	s.Require().NoError(err)
	s.Len(food, 2)

	march, err := s.repo.ListMonthTransactions(s.ctx, u.ID, 2024, 3)
	s.Require().NoError(err)
	s.Len(march, 3)

	ranged, err := s.repo.ListTransactions(s.ctx, u.ID, TransactionFilter{
		DateFrom: core.NewDate(2024, 3, 10),
		DateTo:   core.NewDate(2024, 3, 31),
	})
	s.Require().NoError(err)
	s.Len(ranged, 2)

	sum, err := s.repo.SumExpenses(s.ctx, u.ID, 2024, 3)
	s.Require().NoError(err)
	s.Equal("500.00", sum.StringFixed(2))
}

func (s *RepositorySuite) TestDeleteCategoryKeepsTransactionUncategorized() {
	u := s.createUser("maria")
	c, err := s.repo.CreateCategory(s.ctx, u.ID, "Temp")
	s.Require().NoError(err)

	created, err := s.repo.CreateTransaction(s.ctx, core.Transaction{
		UserID:     u.ID,
		CategoryID: &c.ID,
		Type:       core.Expense,
		Value:      amount(s.T(), "10.00"),
		Date:       core.NewDate(2024, 3, 1),
	})
	s.Require().NoError(err)

	// In-use guard blocks the delete; detach first, then delete.
	s.ErrorIs(s.repo.DeleteCategory(s.ctx, u.ID, c.ID), ErrCategoryInUse)

	created.CategoryID = nil
	s.Require().NoError(s.repo.UpdateTransaction(s.ctx, *created))
	s.Require().NoError(s.repo.DeleteCategory(s.ctx, u.ID, c.ID))

	got, err := s.repo.GetTransaction(s.ctx, u.ID, created.ID)
	s.Require().NoError(err)
	s.Nil(got.CategoryID)
	s.Equal("", got.Category)
}

func (s *RepositorySuite) TestGoalUniquePerMonth() {
	u := s.createUser("maria")

	g, err := s.repo.CreateGoal(s.ctx, core.Goal{
		UserID: u.ID, Month: 3, Year: 2024, Target: amount(s.T(), "1500.00"),
	})
	s.Require().NoError(err)

	_, err = s.repo.CreateGoal(s.ctx, core.Goal{
		UserID: u.ID, Month: 3, Year: 2024, Target: amount(s.T(), "2000.00"),
	})
	s.ErrorIs(err, ErrDuplicateGoal)

	// Edits that keep the same month are not "duplicates" of the record itself.
	g.Target = amount(s.T(), "1800.00")
	s.NoError(s.repo.UpdateGoal(s.ctx, *g))

	// Moving onto another occupied month is refused.
	second, err := s.repo.CreateGoal(s.ctx, core.Goal{
		UserID: u.ID, Month: 4, Year: 2024, Target: amount(s.T(), "1000.00"),
	})
	s.Require().NoError(err)
	second.Month = 3
	s.ErrorIs(s.repo.UpdateGoal(s.ctx, *second), ErrDuplicateGoal)

	// Another user may target the same month.
	other := s.createUser("joao")
	_, err = s.repo.CreateGoal(s.ctx, core.Goal{
		UserID: other.ID, Month: 3, Year: 2024, Target: amount(s.T(), "900.00"),
	})
	s.NoError(err)
}

func (s *RepositorySuite) TestGetGoalByMonth() {
	u := s.createUser("maria")
	_, err := s.repo.GetGoalByMonth(s.ctx, u.ID, 2024, 3)
	s.ErrorIs(err, ErrNotFound)

	_, err = s.repo.CreateGoal(s.ctx, core.Goal{
		UserID: u.ID, Month: 3, Year: 2024, Target: amount(s.T(), "1500.00"),
	})
	s.Require().NoError(err)

	g, err := s.repo.GetGoalByMonth(s.ctx, u.ID, 2024, 3)
	s.Require().NoError(err)
	s.Equal("1500.00", g.Target.StringFixed(2))
}

func (s *RepositorySuite) TestAdminListings() {
	maria := s.createUser("maria")
	joao := s.createUser("joao")

	foodID := s.categoryID(maria.ID, "Food")
	_, err := s.repo.CreateTransaction(s.ctx, core.Transaction{
		UserID: maria.ID, CategoryID: &foodID, Type: core.Expense,
		Value: amount(s.T(), "50.00"), Date: core.NewDate(2024, 3, 5),
		Description: "groceries",
	})
	s.Require().NoError(err)
	_, err = s.repo.CreateTransaction(s.ctx, core.Transaction{
		UserID: joao.ID, Type: core.Income,
		Value: amount(s.T(), "2000.00"), Date: core.NewDate(2024, 3, 1),
	})
	s.Require().NoError(err)
	_, err = s.repo.CreateGoal(s.ctx, core.Goal{
		UserID: maria.ID, Month: 3, Year: 2024, Target: amount(s.T(), "1500.00"),
	})
	s.Require().NoError(err)

	users, err := s.repo.AdminListUsers(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.Equal("joao", users[0].User.Username)
	s.Equal(int64(1), users[0].TransactionCount)

	filtered, err := s.repo.AdminListUsers(s.ctx, "mar")
	s.Require().NoError(err)
	s.Require().Len(filtered, 1)
	s.Equal("maria", filtered[0].User.Username)

	txs, err := s.repo.AdminListTransactions(s.ctx, AdminFilter{Search: "groceries"})
	s.Require().NoError(err)
	s.Require().Len(txs, 1)
	s.Equal("maria", txs[0].Username)
	s.Equal("Food", txs[0].Transaction.Category)

	incomes, err := s.repo.AdminListTransactions(s.ctx, AdminFilter{Type: core.Income})
	s.Require().NoError(err)
	s.Require().Len(incomes, 1)
	s.Equal("joao", incomes[0].Username)

	cats, err := s.repo.AdminListCategories(s.ctx, "Food")
	s.Require().NoError(err)
	s.Len(cats, 2) // both users carry the seeded Food category

	goals, err := s.repo.AdminListGoals(s.ctx, AdminFilter{Year: 2024, Month: 3})
	s.Require().NoError(err)
	s.Require().Len(goals, 1)
	s.Equal("maria", goals[0].Username)
}
