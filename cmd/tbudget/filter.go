package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tbudget/internal/core"
)

// filterFlags are the record selection flags shared by the report commands.
type filterFlags struct {
	Type     string `help:"Only expense or income records."`
	Category string `help:"Only records in this category."`
	From     string `help:"Earliest timestamp, YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS."`
	To       string `help:"Latest timestamp. A bare date includes the whole day."`
	Min      string `help:"Smallest amount."`
	Max      string `help:"Largest amount."`
}

func (f filterFlags) filter() (core.Filter, error) {
	var out core.Filter

	if f.Type != "" {
		kind, err := core.ParseKind(f.Type)
		if err != nil {
			return core.Filter{}, err
		}
		out.Kind = &kind
	}
	if f.Category != "" {
		category := strings.TrimSpace(f.Category)
		out.Category = &category
	}

	if f.From != "" {
		from, err := core.ParseTimestamp(f.From)
		if err != nil {
			return core.Filter{}, fmt.Errorf("--from: %w", err)
		}
		out.From = &from
	}
	if f.To != "" {
		to, err := parseUpperBound(f.To)
		if err != nil {
			return core.Filter{}, fmt.Errorf("--to: %w", err)
		}
		out.To = &to
	}
	if out.From != nil && out.To != nil && out.From.After(*out.To) {
		return core.Filter{}, fmt.Errorf("--from %s is after --to %s", f.From, f.To)
	}

	var err error
	if out.Min, err = parseBound("--min", f.Min); err != nil {
		return core.Filter{}, err
	}
	if out.Max, err = parseBound("--max", f.Max); err != nil {
		return core.Filter{}, err
	}
	if out.Min != nil && out.Max != nil && out.Min.GreaterThan(*out.Max) {
		return core.Filter{}, fmt.Errorf("--min %s is greater than --max %s", f.Min, f.Max)
	}
	return out, nil
}

func parseUpperBound(s string) (time.Time, error) {
	t, err := core.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, err
	}
	if !strings.Contains(s, "T") {
		t = core.EndOfDay(t)
	}
	return t, nil
}

func parseBound(flag, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid amount %q", flag, s)
	}
	return &d, nil
}
