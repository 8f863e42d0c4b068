package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	ByMonth    BucketBy = "month"
	ByCategory BucketBy = "category"

	AlertExceeded AlertLevel = "exceeded"
	AlertNear     AlertLevel = "near"

	ScopeMonthly  AlertScope = "monthly"
	ScopeCategory AlertScope = "category"
)

type (
	// BucketBy selects the aggregation key for bar charts.
	BucketBy string

	AlertLevel string
	AlertScope string

	// GroupTotal is one line of the (kind, category) summary.
	GroupTotal struct {
		Kind     Kind
		Category string
		Total    decimal.Decimal
	}

	// Bucket is one bar of an aggregate chart.
	Bucket struct {
		Label string
		Total decimal.Decimal
	}

	// Totals is the income/expense balance over a filter.
	Totals struct {
		Income  decimal.Decimal
		Expense decimal.Decimal
	}

	// Alert is a budget threshold crossed by a prospective expense.
	Alert struct {
		Scope     AlertScope
		Level     AlertLevel
		Category  string // set for category scope
		Limit     decimal.Decimal
		Projected decimal.Decimal
	}

	// BudgetConfig holds the spending ceilings. Monthly is nil when unset.
	BudgetConfig struct {
		Monthly    *decimal.Decimal
		Categories map[string]decimal.Decimal
	}
)

// ParseBucketBy accepts "month" or "category".
func ParseBucketBy(s string) (BucketBy, error) {
	switch b := BucketBy(s); b {
	case ByMonth, ByCategory:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBucketBy, s)
	}
}

// Balance is income minus expense.
func (t Totals) Balance() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

func (a Alert) String() string {
	subject := "monthly budget"
	if a.Scope == ScopeCategory {
		subject = fmt.Sprintf("budget for %q", a.Category)
	}
	switch a.Level {
	case AlertExceeded:
		return fmt.Sprintf("%s exceeded: %s of %s", subject, a.Projected.StringFixed(2), a.Limit.StringFixed(2))
	default:
		return fmt.Sprintf("near %s: %s of %s", subject, a.Projected.StringFixed(2), a.Limit.StringFixed(2))
	}
}

// CategoryLimit returns the configured ceiling for a category, if any.
func (c BudgetConfig) CategoryLimit(category string) (decimal.Decimal, bool) {
	if c.Categories == nil {
		return decimal.Decimal{}, false
	}
	limit, ok := c.Categories[category]
	return limit, ok
}
