package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tbudget/internal/core"
	"tbudget/internal/storage/memory"
)

func sampleLedger(t *testing.T) *memory.Store {
	return memory.New(
		record(t, day(2024, 1, 10), core.Expense, "10", "food", "Lunch with Ana"),
		record(t, day(2024, 1, 12), core.Expense, "5", "fuel", ""),
		record(t, day(2024, 2, 3), core.Expense, "20", "food", "groceries"),
		record(t, day(2024, 2, 5), core.Income, "1000", "salary", "February pay"),
	)
}

func TestQueryEngineSummarize(t *testing.T) {
	q := NewQueryEngine(sampleLedger(t))

	got, err := q.Summarize(context.Background(), core.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, core.Expense, got[0].Kind)
	assert.Equal(t, "food", got[0].Category)
	assert.True(t, got[0].Total.Equal(dec("30")))
	assert.Equal(t, "fuel", got[1].Category)
	assert.Equal(t, core.Income, got[2].Kind)
	assert.Equal(t, "salary", got[2].Category)
}

func TestQueryEngineSummarizeFiltered(t *testing.T) {
	q := NewQueryEngine(sampleLedger(t))
	income := core.Income

	got, err := q.Summarize(context.Background(), core.Filter{Kind: &income})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Total.Equal(dec("1000")))

	none := "travel"
	got, err = q.Summarize(context.Background(), core.Filter{Category: &none})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQueryEngineListKeepsStoreOrdinals(t *testing.T) {
	q := NewQueryEngine(sampleLedger(t))
	food := "food"

	got, err := q.List(context.Background(), core.Filter{Category: &food})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Ordinal)
	assert.Equal(t, 3, got[1].Ordinal)
	assert.Equal(t, "groceries", got[1].Record.Note)
}

func TestQueryEngineListDateAndAmountRange(t *testing.T) {
	q := NewQueryEngine(sampleLedger(t))
	from := time.Date(2024, 1, 12, 0, 0, 0, 0, time.Local)
	to := core.EndOfDay(time.Date(2024, 2, 3, 0, 0, 0, 0, time.Local))
	minAmount, maxAmount := dec("5"), dec("20")

	got, err := q.List(context.Background(), core.Filter{From: &from, To: &to, Min: &minAmount, Max: &maxAmount})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Ordinal)
	assert.Equal(t, 3, got[1].Ordinal)
}

func TestQueryEngineSearch(t *testing.T) {
	store := sampleLedger(t)
	require.NoError(t, store.Append(context.Background(), record(t, day(2024, 3, 1), core.Expense, "7", "food", "LUNCH again")))
	q := NewQueryEngine(store)

	got, err := q.Search(context.Background(), "lunch")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Ordinal)
	assert.Equal(t, 5, got[1].Ordinal)

	got, err = q.Search(context.Background(), "2024-02")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = q.Search(context.Background(), "nothing like this")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQueryEngineSearchMatchesMalformedRows(t *testing.T) {
	q := NewQueryEngine(memory.NewFromRows(
		[core.FieldCount]string{"someday", "expense", "lots", "food", "lunch"},
	))

	got, err := q.Search(context.Background(), "Lunch")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "lots", got[0].Fields[core.FieldAmount])

	sums, err := q.Summarize(context.Background(), core.Filter{})
	require.NoError(t, err)
	assert.Empty(t, sums)
}

func TestQueryEngineReportsEditedKinds(t *testing.T) {
	ctx := context.Background()
	q := NewQueryEngine(memory.NewFromRows(
		[core.FieldCount]string{"2024-01-10T12:00:00", "expense", "10", "food", ""},
		[core.FieldCount]string{"2024-01-11T12:00:00", "refund", "4", "food", ""},
		[core.FieldCount]string{"2024-01-12T12:00:00", "expense", "-5", "fuel", ""},
	))

	sums, err := q.Summarize(ctx, core.Filter{})
	require.NoError(t, err)
	require.Len(t, sums, 3)
	assert.Equal(t, core.Expense, sums[0].Kind)
	assert.Equal(t, "food", sums[0].Category)
	assert.Equal(t, core.Expense, sums[1].Kind)
	assert.True(t, sums[1].Total.Equal(dec("-5")))
	assert.Equal(t, core.Kind("refund"), sums[2].Kind)
	assert.True(t, sums[2].Total.Equal(dec("4")))

	entries, err := q.List(ctx, core.Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	cats, err := q.Aggregate(ctx, core.Filter{}, core.ByCategory)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.True(t, cats[0].Total.Equal(dec("14")))

	totals, err := q.Totals(ctx, core.Filter{})
	require.NoError(t, err)
	assert.True(t, totals.Expense.Equal(dec("5")))
	assert.True(t, totals.Income.IsZero())
}

func TestQueryEngineAggregate(t *testing.T) {
	q := NewQueryEngine(sampleLedger(t))
	expense := core.Expense
	f := core.Filter{Kind: &expense}

	months, err := q.Aggregate(context.Background(), f, core.ByMonth)
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, "2024-01", months[0].Label)
	assert.True(t, months[0].Total.Equal(dec("15")))
	assert.Equal(t, "2024-02", months[1].Label)
	assert.True(t, months[1].Total.Equal(dec("20")))

	cats, err := q.Aggregate(context.Background(), f, core.ByCategory)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "food", cats[0].Label)
	assert.True(t, cats[0].Total.Equal(dec("30")))
	assert.Equal(t, "fuel", cats[1].Label)
	assert.True(t, cats[1].Total.Equal(dec("5")))
}

func TestQueryEngineAggregateCategoryTiesByLabel(t *testing.T) {
	q := NewQueryEngine(memory.New(
		record(t, day(2024, 1, 1), core.Expense, "5", "zoo", ""),
		record(t, day(2024, 1, 2), core.Expense, "5.0", "art", ""),
	))

	got, err := q.Aggregate(context.Background(), core.Filter{}, core.ByCategory)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "art", got[0].Label)
	assert.Equal(t, "zoo", got[1].Label)
}

func TestQueryEngineAggregateEmptyAndInvalid(t *testing.T) {
	q := NewQueryEngine(memory.New())

	got, err := q.Aggregate(context.Background(), core.Filter{}, core.ByMonth)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = q.Aggregate(context.Background(), core.Filter{}, core.BucketBy("week"))
	assert.ErrorIs(t, err, core.ErrInvalidBucketBy)
}

func TestQueryEngineTotals(t *testing.T) {
	q := NewQueryEngine(sampleLedger(t))

	got, err := q.Totals(context.Background(), core.Filter{})
	require.NoError(t, err)
	assert.True(t, got.Income.Equal(dec("1000")))
	assert.True(t, got.Expense.Equal(dec("35")))
	assert.True(t, got.Balance().Equal(dec("965")))
}
