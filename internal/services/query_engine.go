package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"tbudget/internal/core"
	"tbudget/internal/ports"
)

// QueryEngine answers filtered and aggregated reads over the record store.
type QueryEngine struct {
	records ports.RecordStore
}

func NewQueryEngine(records ports.RecordStore) *QueryEngine {
	return &QueryEngine{records: records}
}

type groupKey struct {
	kind     core.Kind
	category string
}

// Summarize sums matching records per (kind, category), ordered by kind
// then category.
func (q *QueryEngine) Summarize(ctx context.Context, f core.Filter) ([]core.GroupTotal, error) {
	totals := map[groupKey]decimal.Decimal{}
	err := eachRecord(ctx, q.records, func(e core.Entry) {
		if !f.Match(e.Record) {
			return
		}
		k := groupKey{e.Record.Kind, e.Record.Category}
		totals[k] = totals[k].Add(e.Record.Amount.Decimal())
	})
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	out := make([]core.GroupTotal, 0, len(totals))
	for k, total := range totals {
		out = append(out, core.GroupTotal{Kind: k.kind, Category: k.category, Total: total})
	}
	slices.SortFunc(out, func(a, b core.GroupTotal) int {
		return cmp.Or(cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.Category, b.Category))
	})
	return out, nil
}

// List returns matching records in store order with their store ordinals.
func (q *QueryEngine) List(ctx context.Context, f core.Filter) ([]core.Entry, error) {
	var out []core.Entry
	err := eachRecord(ctx, q.records, func(e core.Entry) {
		if f.Match(e.Record) {
			out = append(out, e)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return out, nil
}

// Search returns every row with a field containing keyword, ignoring case.
// Fields are matched as stored, so malformed rows can match too.
func (q *QueryEngine) Search(ctx context.Context, keyword string) ([]core.Row, error) {
	needle := strings.ToLower(keyword)
	var out []core.Row
	for row, err := range q.records.Scan(ctx) {
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		for _, field := range row.Fields {
			if strings.Contains(strings.ToLower(field), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out, nil
}

// Aggregate buckets matching records by month (YYYY-MM, ascending) or by
// category (largest total first). An empty result means nothing to chart.
func (q *QueryEngine) Aggregate(ctx context.Context, f core.Filter, by core.BucketBy) ([]core.Bucket, error) {
	var label func(core.Record) string
	switch by {
	case core.ByMonth:
		label = func(r core.Record) string { return core.MonthLabel(r.Timestamp) }
	case core.ByCategory:
		label = func(r core.Record) string { return r.Category }
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidBucketBy, by)
	}

	totals := map[string]decimal.Decimal{}
	err := eachRecord(ctx, q.records, func(e core.Entry) {
		if !f.Match(e.Record) {
			return
		}
		l := label(e.Record)
		totals[l] = totals[l].Add(e.Record.Amount.Decimal())
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	out := make([]core.Bucket, 0, len(totals))
	for l, total := range totals {
		out = append(out, core.Bucket{Label: l, Total: total})
	}
	if by == core.ByMonth {
		slices.SortFunc(out, func(a, b core.Bucket) int { return cmp.Compare(a.Label, b.Label) })
	} else {
		slices.SortFunc(out, func(a, b core.Bucket) int {
			return cmp.Or(b.Total.Cmp(a.Total), cmp.Compare(a.Label, b.Label))
		})
	}
	return out, nil
}

// Totals returns income and expense sums over the filter.
func (q *QueryEngine) Totals(ctx context.Context, f core.Filter) (core.Totals, error) {
	totals := core.Totals{Income: decimal.Zero, Expense: decimal.Zero}
	err := eachRecord(ctx, q.records, func(e core.Entry) {
		if !f.Match(e.Record) {
			return
		}
		switch e.Record.Kind {
		case core.Income:
			totals.Income = totals.Income.Add(e.Record.Amount.Decimal())
		case core.Expense:
			totals.Expense = totals.Expense.Add(e.Record.Amount.Decimal())
		}
	})
	if err != nil {
		return core.Totals{}, fmt.Errorf("totals: %w", err)
	}
	return totals, nil
}
