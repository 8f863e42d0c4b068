// This file implements the Strategy Pattern for recurring template dueness.
// The ledger ships a single day-of-month strategy, resolved by cadence name.

package services

import (
	"fmt"
	"time"

	"tbudget/internal/core"
)

// Cadence names a dueness strategy.
type Cadence string

const Monthly Cadence = "monthly"

// DuenessChecker is the strategy interface for deciding whether a template
// produces a record on a given day.
type DuenessChecker interface {
	IsDue(t core.Template, today time.Time) bool
}

// DayOfMonthChecker fires when today's day-of-month equals the template day.
// Days 29-31 never fire in months lacking them; there is no rollover to the
// last day of the month.
type DayOfMonthChecker struct{}

func (DayOfMonthChecker) IsDue(t core.Template, today time.Time) bool {
	return t.DayOfMonth == today.Day()
}

var duenessStrategies = map[Cadence]DuenessChecker{
	Monthly: DayOfMonthChecker{},
}

// GetDuenessChecker returns the checker registered for a cadence.
func GetDuenessChecker(cadence Cadence) (DuenessChecker, error) {
	checker, ok := duenessStrategies[cadence]
	if !ok {
		return nil, fmt.Errorf("unknown cadence: %s", cadence)
	}
	return checker, nil
}
