package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tbudget/internal/core"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.Local)
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func amount(t *testing.T, s string) core.Amount {
	t.Helper()
	a, err := core.ParseAmount(s)
	require.NoError(t, err)
	return a
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func record(t *testing.T, at time.Time, kind core.Kind, amt, category, note string) core.Record {
	t.Helper()
	return core.Record{Timestamp: at, Kind: kind, Amount: amount(t, amt), Category: category, Note: note}
}

func monthly(limit string) core.BudgetConfig {
	m := dec(limit)
	return core.BudgetConfig{Monthly: &m}
}

type published struct {
	added   []core.Record
	changed []string
	alerts  []core.Alert
	fail    bool
}

func (p *published) PublishRecordAdded(_ context.Context, r core.Record) error {
	p.added = append(p.added, r)
	return p.err()
}

func (p *published) PublishRecordChanged(_ context.Context, op string, _ int) error {
	p.changed = append(p.changed, op)
	return p.err()
}

func (p *published) PublishBudgetAlert(_ context.Context, a core.Alert) error {
	p.alerts = append(p.alerts, a)
	return p.err()
}

func (p *published) err() error {
	if p.fail {
		return errors.New("broker down")
	}
	return nil
}
