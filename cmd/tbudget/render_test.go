package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tbudget/internal/core"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBarLength(t *testing.T) {
	tests := []struct {
		name  string
		total string
		max   string
		width int
		want  int
	}{
		{"largest spans width", "20", "20", 40, 40},
		{"proportional", "15", "20", 40, 30},
		{"rounds half up", "1", "8", 4, 1},
		{"rounds down", "1", "3", 4, 1},
		{"zero total", "0", "20", 40, 0},
		{"zero max", "0", "0", 40, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, barLength(dec(tt.total), dec(tt.max), tt.width))
		})
	}
}

func TestRenderChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderChart(&buf, []core.Bucket{
		{Label: "2024-01", Total: dec("15")},
		{Label: "2024-02", Total: dec("20")},
	}, 4))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2024-01  ###   15.00", lines[0])
	assert.Equal(t, "2024-02  ####  20.00", lines[1])
}

func TestRenderEmptyResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderChart(&buf, nil, 40))
	require.NoError(t, renderEntries(&buf, nil))
	require.NoError(t, renderRows(&buf, nil))
	require.NoError(t, renderSummary(&buf, nil, core.Totals{}))
	assert.Equal(t, strings.Repeat(nothingToDisplay+"\n", 4), buf.String())
}

func TestRenderEntries(t *testing.T) {
	amount, err := core.ParseAmount("12.50")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, renderEntries(&buf, []core.Entry{{
		Ordinal: 3,
		Record: core.Record{
			Timestamp: time.Date(2024, 1, 5, 12, 0, 0, 0, time.Local),
			Kind:      core.Expense,
			Amount:    amount,
			Category:  "food",
			Note:      "lunch",
		},
	}}))

	out := buf.String()
	assert.Contains(t, out, "TIMESTAMP")
	assert.Contains(t, out, "3  2024-01-05T12:00:00  expense  12.50   food      lunch")
}

func TestRenderRowsKeepsRawFields(t *testing.T) {
	var buf bytes.Buffer
	row := core.Row{Ordinal: 2, Fields: [core.FieldCount]string{"garbage", "expense", "abc", "food", ""}}
	require.NoError(t, renderRows(&buf, []core.Row{row}))

	assert.Contains(t, buf.String(), "garbage")
	assert.Contains(t, buf.String(), "abc")
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderSummary(&buf,
		[]core.GroupTotal{{Kind: core.Expense, Category: "food", Total: dec("30")}},
		core.Totals{Income: dec("100"), Expense: dec("30")}))

	out := buf.String()
	assert.Contains(t, out, "food")
	assert.Contains(t, out, "30.00")
	assert.Regexp(t, `balance\s+70\.00`, out)
}

func TestRenderBudgets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderBudgets(&buf, core.BudgetConfig{}))
	assert.Equal(t, "no budgets set\n", buf.String())

	buf.Reset()
	monthly := dec("500")
	require.NoError(t, renderBudgets(&buf, core.BudgetConfig{
		Monthly:    &monthly,
		Categories: map[string]decimal.Decimal{"fuel": dec("50"), "food": dec("200")},
	}))
	out := buf.String()
	assert.Regexp(t, `monthly\s+500\.00`, out)
	assert.Less(t, strings.Index(out, "food"), strings.Index(out, "fuel"))
}

func TestRenderAlerts(t *testing.T) {
	var buf bytes.Buffer
	renderAlerts(&buf, []core.Alert{{
		Scope:     core.ScopeMonthly,
		Level:     core.AlertExceeded,
		Limit:     dec("100"),
		Projected: dec("105"),
	}})
	assert.Equal(t, "warning: monthly budget exceeded: 105.00 of 100.00\n", buf.String())
}
