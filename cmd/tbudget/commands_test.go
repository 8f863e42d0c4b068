package main

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tcli "tbudget/internal/cli"
	"tbudget/internal/config"
	"tbudget/internal/log"
)

func newTestGlobals(t *testing.T) (*globals, *bytes.Buffer) {
	t.Helper()
	cfg := config.Defaults()
	cfg.DataBackend = config.BackendMemory
	cfg.ChartWidth = 10

	session, err := tcli.Open(context.Background(), &cfg, log.New(log.Config{Output: io.Discard}))
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	var out bytes.Buffer
	return &globals{session: session, out: &out}, &out
}

func TestParseCommands(t *testing.T) {
	grammar := cli
	parser, err := kong.New(&grammar, kong.Name("tbudget"))
	require.NoError(t, err)

	tests := map[string][]string{
		"add-expense":   {"add-expense", "12.50", "food", "--note", "lunch"},
		"add-income":    {"add-income", "1000", "salary"},
		"summary":       {"summary", "--type", "expense", "--from", "2024-01-01"},
		"list":          {"list", "--category", "food", "--min", "1", "--max", "10"},
		"search":        {"search", "lunch"},
		"chart":         {"chart", "--by", "category", "--width", "20"},
		"edit":          {"edit", "2", "amount", "9.99"},
		"delete":        {"delete", "2"},
		"set-budget":    {"set-budget", "--monthly", "500", "--category", "fuel", "--limit", "50"},
		"budgets":       {"budgets"},
		"add-recurring": {"add-recurring", "expense", "800", "rent", "1", "--note", "flat"},
		"recurring":     {"recurring"},
		"reset":         {"reset", "--yes"},
		"export-sheets": {"export-sheets", "--to", "2024-12-31"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			kctx, err := parser.Parse(append([]string{"--backend", "memory"}, args...))
			require.NoError(t, err)
			assert.Equal(t, name, kctx.Command()[:len(name)])
		})
	}

	_, err = parser.Parse([]string{"chart", "--by", "week"})
	assert.Error(t, err)
	_, err = parser.Parse([]string{"edit", "1", "colour", "red"})
	assert.Error(t, err)
}

func TestAddAndQuery(t *testing.T) {
	ctx := context.Background()
	g, out := newTestGlobals(t)

	require.NoError(t, (&setBudgetCmd{Monthly: "100"}).Run(ctx, g))
	require.NoError(t, (&addExpenseCmd{Entry: entryArgs{Amount: "95", Category: "food"}}).Run(ctx, g))
	out.Reset()

	require.NoError(t, (&addExpenseCmd{Entry: entryArgs{Amount: "10", Category: "fuel", Note: "car"}}).Run(ctx, g))
	assert.Contains(t, out.String(), "recorded expense 10 in fuel")
	assert.Contains(t, out.String(), "warning: monthly budget exceeded: 105.00 of 100.00")

	out.Reset()
	require.NoError(t, (&chartCmd{By: "category"}).Run(ctx, g))
	assert.Contains(t, out.String(), "food  ##########  95.00")
	assert.Contains(t, out.String(), "fuel  #           10.00")

	out.Reset()
	require.NoError(t, (&searchCmd{Keyword: "CAR"}).Run(ctx, g))
	assert.Contains(t, out.String(), "fuel")
	assert.NotContains(t, out.String(), "food")
}

func TestEditAndDeleteMissingRecord(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGlobals(t)

	err := (&editCmd{Ordinal: 4, Field: "note", Value: "x"}).Run(ctx, g)
	assert.EqualError(t, err, "no record #4")
	err = (&deleteCmd{Ordinal: 1}).Run(ctx, g)
	assert.EqualError(t, err, "no record #1")
}

func TestEditAndDelete(t *testing.T) {
	ctx := context.Background()
	g, out := newTestGlobals(t)
	require.NoError(t, (&addIncomeCmd{Entry: entryArgs{Amount: "1000", Category: "salary"}}).Run(ctx, g))

	require.NoError(t, (&editCmd{Ordinal: 1, Field: "category", Value: "bonus"}).Run(ctx, g))
	out.Reset()
	require.NoError(t, (&listCmd{}).Run(ctx, g))
	assert.Contains(t, out.String(), "bonus")

	require.NoError(t, (&deleteCmd{Ordinal: 1}).Run(ctx, g))
	out.Reset()
	require.NoError(t, (&listCmd{}).Run(ctx, g))
	assert.Equal(t, nothingToDisplay+"\n", out.String())
}

func TestSetBudgetFlags(t *testing.T) {
	ctx := context.Background()
	g, out := newTestGlobals(t)

	assert.Error(t, (&setBudgetCmd{}).Run(ctx, g))
	assert.Error(t, (&setBudgetCmd{Category: "fuel"}).Run(ctx, g))
	assert.Error(t, (&setBudgetCmd{Monthly: "-5"}).Run(ctx, g))

	require.NoError(t, (&setBudgetCmd{Category: "fuel", Limit: "50"}).Run(ctx, g))
	out.Reset()
	require.NoError(t, (&budgetsCmd{}).Run(ctx, g))
	assert.Regexp(t, `fuel\s+50\.00`, out.String())
}

func TestSetBudgetRejectsBeforeSaving(t *testing.T) {
	ctx := context.Background()
	g, out := newTestGlobals(t)

	err := (&setBudgetCmd{Monthly: "100", Category: "food", Limit: "lots"}).Run(ctx, g)
	require.Error(t, err)
	assert.Empty(t, out.String())

	require.NoError(t, (&budgetsCmd{}).Run(ctx, g))
	assert.Equal(t, "no budgets set\n", out.String())
}

func TestRecurringCommands(t *testing.T) {
	ctx := context.Background()
	g, out := newTestGlobals(t)

	assert.Error(t, (&addRecurringCmd{Kind: "expense", Amount: "800", Category: "rent", Day: 32}).Run(ctx, g))
	require.NoError(t, (&addRecurringCmd{Kind: "expense", Amount: "800", Category: "rent", Day: 1}).Run(ctx, g))

	out.Reset()
	require.NoError(t, (&recurringCmd{}).Run(ctx, g))
	assert.Contains(t, out.String(), "rent")
}

func TestResetRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	g, out := newTestGlobals(t)
	require.NoError(t, (&addExpenseCmd{Entry: entryArgs{Amount: "5", Category: "fuel"}}).Run(ctx, g))

	assert.Error(t, (&resetCmd{}).Run(ctx, g))
	require.NoError(t, (&resetCmd{Yes: true}).Run(ctx, g))

	out.Reset()
	require.NoError(t, (&summaryCmd{}).Run(ctx, g))
	assert.Equal(t, nothingToDisplay+"\n", out.String())
}

func TestExportSheetsNotConfigured(t *testing.T) {
	g, _ := newTestGlobals(t)
	err := (&exportSheetsCmd{}).Run(context.Background(), g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
