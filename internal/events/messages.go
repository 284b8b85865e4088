package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Alert levels for goal notifications.
const (
	LevelApproaching = "approaching" // spending reached 80% of the target
	LevelExceeded    = "exceeded"    // spending reached or passed the target
)

// GoalAlert notifies downstream consumers that a user's monthly spending
// crossed a threshold of their goal. Amounts travel as fixed-point strings.
type GoalAlert struct {
	UserID    int64     `json:"user_id"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	Spent     string    `json:"spent"`
	Target    string    `json:"target"`
	Level     string    `json:"level"`
	Timestamp time.Time `json:"timestamp"`
}

// approachingRatio is the share of the target at which the first alert fires.
var approachingRatio = decimal.NewFromFloat(0.8)

// AlertLevel decides which alert, if any, the month's spending warrants.
// Returns the empty string when spending is below every threshold or the
// target is not positive.
func AlertLevel(spent, target decimal.Decimal) string {
	if !target.IsPositive() {
		return ""
	}
	if spent.GreaterThanOrEqual(target) {
		return LevelExceeded
	}
	if spent.GreaterThanOrEqual(target.Mul(approachingRatio)) {
		return LevelApproaching
	}
	return ""
}

func NewGoalAlert(userID int64, month, year int, spent, target, level string) *GoalAlert {
	return &GoalAlert{
		UserID:    userID,
		Month:     month,
		Year:      year,
		Spent:     spent,
		Target:    target,
		Level:     level,
		Timestamp: time.Now(),
	}
}

func (m *GoalAlert) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func GoalAlertFromJSON(data []byte) (*GoalAlert, error) {
	var msg GoalAlert
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
