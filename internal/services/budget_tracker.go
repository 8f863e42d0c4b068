package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tbudget/internal/core"
	"tbudget/internal/log"
	"tbudget/internal/ports"
)

// nearRatio is the share of a limit past which a "near" alert fires.
var nearRatio = decimal.RequireFromString("0.9")

// BudgetTracker evaluates prospective expenses against the configured limits.
type BudgetTracker struct {
	records ports.RecordStore
	budgets ports.BudgetRepository
}

func NewBudgetTracker(records ports.RecordStore, budgets ports.BudgetRepository) *BudgetTracker {
	return &BudgetTracker{records: records, budgets: budgets}
}

// Evaluate returns the alerts that appending an expense of amount in
// category would raise for asOf's calendar month. The configuration is
// reloaded on every call and nothing is written. Income never alerts.
func (t *BudgetTracker) Evaluate(ctx context.Context, kind core.Kind, amount core.Amount, category string, asOf time.Time) ([]core.Alert, error) {
	if kind != core.Expense {
		return nil, nil
	}

	cfg, err := t.budgets.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	categoryLimit, hasCategoryLimit := cfg.CategoryLimit(category)
	if cfg.Monthly == nil && !hasCategoryLimit {
		return nil, nil
	}

	monthlyTotal, categoryTotal := decimal.Zero, decimal.Zero
	err = eachRecord(ctx, t.records, func(e core.Entry) {
		r := e.Record
		if r.Kind != core.Expense || !core.SameMonth(r.Timestamp, asOf) {
			return
		}
		monthlyTotal = monthlyTotal.Add(r.Amount.Decimal())
		if r.Category == category {
			categoryTotal = categoryTotal.Add(r.Amount.Decimal())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}

	var alerts []core.Alert
	if cfg.Monthly != nil {
		if a, ok := checkLimit(core.ScopeMonthly, "", *cfg.Monthly, monthlyTotal.Add(amount.Decimal())); ok {
			alerts = append(alerts, a)
		}
	}
	if hasCategoryLimit {
		if a, ok := checkLimit(core.ScopeCategory, category, categoryLimit, categoryTotal.Add(amount.Decimal())); ok {
			alerts = append(alerts, a)
		}
	}

	for _, a := range alerts {
		budgetLogger(ctx).InfoContext(ctx, "Budget threshold crossed",
			"scope", a.Scope,
			"level", a.Level,
			log.FieldCategory, a.Category,
			"limit", a.Limit.String(),
			"projected", a.Projected.String())
	}
	return alerts, nil
}

// checkLimit applies the two-tier rule: over the limit is exceeded,
// otherwise over 90% of it is near.
func checkLimit(scope core.AlertScope, category string, limit, projected decimal.Decimal) (core.Alert, bool) {
	alert := core.Alert{Scope: scope, Category: category, Limit: limit, Projected: projected}
	switch {
	case projected.GreaterThan(limit):
		alert.Level = core.AlertExceeded
	case projected.GreaterThan(limit.Mul(nearRatio)):
		alert.Level = core.AlertNear
	default:
		return core.Alert{}, false
	}
	return alert, true
}

// SetMonthly stores the global monthly limit, leaving category limits alone.
func (t *BudgetTracker) SetMonthly(ctx context.Context, limit decimal.Decimal) error {
	if !limit.IsPositive() {
		return core.ErrInvalidLimit
	}
	err := t.budgets.Update(ctx, func(cfg *core.BudgetConfig) {
		cfg.Monthly = &limit
	})
	if err != nil {
		return fmt.Errorf("set monthly budget: %w", err)
	}
	budgetLogger(ctx).InfoContext(ctx, "Monthly budget set", "limit", limit.String())
	return nil
}

// SetCategory stores one category limit, leaving every other limit alone.
func (t *BudgetTracker) SetCategory(ctx context.Context, category string, limit decimal.Decimal) error {
	if strings.TrimSpace(category) == "" {
		return core.ErrEmptyCategory
	}
	if !limit.IsPositive() {
		return core.ErrInvalidLimit
	}
	err := t.budgets.Update(ctx, func(cfg *core.BudgetConfig) {
		if cfg.Categories == nil {
			cfg.Categories = make(map[string]decimal.Decimal)
		}
		cfg.Categories[category] = limit
	})
	if err != nil {
		return fmt.Errorf("set category budget: %w", err)
	}
	budgetLogger(ctx).InfoContext(ctx, "Category budget set", log.FieldCategory, category, "limit", limit.String())
	return nil
}

// Budgets returns the current configuration.
func (t *BudgetTracker) Budgets(ctx context.Context) (core.BudgetConfig, error) {
	return t.budgets.Load(ctx)
}

func budgetLogger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentLedger)
}
