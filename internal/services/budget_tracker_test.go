package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tbudget/internal/core"
	"tbudget/internal/storage/memory"
)

func TestBudgetTrackerMonthlyThresholds(t *testing.T) {
	ctx := context.Background()
	asOf := day(2024, 3, 20)

	tests := []struct {
		name     string
		existing string
		amount   string
		want     []core.AlertLevel
	}{
		{name: "exceeded", existing: "95", amount: "10", want: []core.AlertLevel{core.AlertExceeded}},
		{name: "near", existing: "80", amount: "15", want: []core.AlertLevel{core.AlertNear}},
		{name: "exactly at limit is near", existing: "90", amount: "10", want: []core.AlertLevel{core.AlertNear}},
		{name: "exactly ninety percent is quiet", existing: "80", amount: "10"},
		{name: "well under", existing: "10", amount: "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := memory.New(record(t, day(2024, 3, 2), core.Expense, tt.existing, "food", ""))
			tracker := NewBudgetTracker(records, memory.NewBudgets(monthly("100")))

			alerts, err := tracker.Evaluate(ctx, core.Expense, amount(t, tt.amount), "food", asOf)
			require.NoError(t, err)

			var levels []core.AlertLevel
			for _, a := range alerts {
				assert.Equal(t, core.ScopeMonthly, a.Scope)
				levels = append(levels, a.Level)
			}
			assert.Equal(t, tt.want, levels)
			assert.Equal(t, 1, records.Len(), "evaluate must not write")
		})
	}
}

func TestBudgetTrackerOnlyCountsCurrentMonthExpenses(t *testing.T) {
	ctx := context.Background()
	records := memory.New(
		record(t, day(2024, 2, 28), core.Expense, "500", "food", "last month"),
		record(t, day(2024, 3, 1), core.Income, "500", "salary", ""),
		record(t, day(2024, 3, 5), core.Expense, "50", "food", ""),
	)
	tracker := NewBudgetTracker(records, memory.NewBudgets(monthly("100")))

	alerts, err := tracker.Evaluate(ctx, core.Expense, amount(t, "10"), "food", day(2024, 3, 20))
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestBudgetTrackerCategoryAndMonthly(t *testing.T) {
	ctx := context.Background()
	cfg := monthly("1000")
	cfg.Categories = map[string]decimal.Decimal{"fuel": dec("50")}
	records := memory.New(
		record(t, day(2024, 3, 1), core.Expense, "45", "fuel", ""),
		record(t, day(2024, 3, 2), core.Expense, "940", "rent", ""),
	)
	tracker := NewBudgetTracker(records, memory.NewBudgets(cfg))

	alerts, err := tracker.Evaluate(ctx, core.Expense, amount(t, "10"), "fuel", day(2024, 3, 3))
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	assert.Equal(t, core.ScopeMonthly, alerts[0].Scope)
	assert.Equal(t, core.AlertNear, alerts[0].Level)
	assert.True(t, alerts[0].Projected.Equal(dec("995")))

	assert.Equal(t, core.ScopeCategory, alerts[1].Scope)
	assert.Equal(t, core.AlertExceeded, alerts[1].Level)
	assert.Equal(t, "fuel", alerts[1].Category)
	assert.True(t, alerts[1].Projected.Equal(dec("55")))
}

func TestBudgetTrackerIgnoresIncomeAndUnconfigured(t *testing.T) {
	ctx := context.Background()
	records := memory.New(record(t, day(2024, 3, 1), core.Expense, "99", "food", ""))

	alerts, err := NewBudgetTracker(records, memory.NewBudgets(monthly("100"))).
		Evaluate(ctx, core.Income, amount(t, "1000"), "salary", day(2024, 3, 2))
	require.NoError(t, err)
	assert.Empty(t, alerts)

	alerts, err = NewBudgetTracker(records, memory.NewBudgets(core.BudgetConfig{})).
		Evaluate(ctx, core.Expense, amount(t, "1000"), "food", day(2024, 3, 2))
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestBudgetTrackerSkipsMalformedRows(t *testing.T) {
	ctx := context.Background()
	records := memory.NewFromRows(
		[core.FieldCount]string{"2024-03-01T10:00:00", "expense", "abc", "food", ""},
		[core.FieldCount]string{"yesterday", "expense", "90", "food", ""},
		[core.FieldCount]string{"2024-03-01T10:00:00", "expense", "20", "food", ""},
	)
	tracker := NewBudgetTracker(records, memory.NewBudgets(monthly("100")))

	alerts, err := tracker.Evaluate(ctx, core.Expense, amount(t, "10"), "food", day(2024, 3, 2))
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestBudgetTrackerIgnoresForeignKinds(t *testing.T) {
	ctx := context.Background()
	records := memory.NewFromRows(
		[core.FieldCount]string{"2024-03-01T10:00:00", "refund", "95", "food", ""},
	)
	tracker := NewBudgetTracker(records, memory.NewBudgets(monthly("100")))

	alerts, err := tracker.Evaluate(ctx, core.Expense, amount(t, "10"), "food", day(2024, 3, 2))
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestBudgetTrackerSetLimitsMerge(t *testing.T) {
	ctx := context.Background()
	budgets := memory.NewBudgets(core.BudgetConfig{})
	tracker := NewBudgetTracker(memory.New(), budgets)

	require.NoError(t, tracker.SetCategory(ctx, "food", dec("200")))
	require.NoError(t, tracker.SetMonthly(ctx, dec("1500")))
	require.NoError(t, tracker.SetCategory(ctx, "fuel", dec("80")))

	cfg, err := tracker.Budgets(ctx)
	require.NoError(t, err)
	require.NotNil(t, cfg.Monthly)
	assert.True(t, cfg.Monthly.Equal(dec("1500")))
	assert.True(t, cfg.Categories["food"].Equal(dec("200")))
	assert.True(t, cfg.Categories["fuel"].Equal(dec("80")))

	require.NoError(t, tracker.SetMonthly(ctx, dec("900")))
	cfg, err = tracker.Budgets(ctx)
	require.NoError(t, err)
	assert.True(t, cfg.Monthly.Equal(dec("900")))
	assert.Len(t, cfg.Categories, 2)
}

func TestBudgetTrackerRejectsBadLimits(t *testing.T) {
	ctx := context.Background()
	tracker := NewBudgetTracker(memory.New(), memory.NewBudgets(core.BudgetConfig{}))

	assert.ErrorIs(t, tracker.SetMonthly(ctx, dec("0")), core.ErrInvalidLimit)
	assert.ErrorIs(t, tracker.SetCategory(ctx, "food", dec("-5")), core.ErrInvalidLimit)
	assert.ErrorIs(t, tracker.SetCategory(ctx, "  ", dec("5")), core.ErrEmptyCategory)
}
