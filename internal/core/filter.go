package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Filter selects records. Nil predicates always match; present ones AND
// together. Ranges are inclusive on both ends.
type Filter struct {
	Kind     *Kind
	Category *string
	From     *time.Time
	To       *time.Time
	Min      *decimal.Decimal
	Max      *decimal.Decimal
}

// Match reports whether r satisfies every present predicate.
func (f Filter) Match(r Record) bool {
	if f.Kind != nil && r.Kind != *f.Kind {
		return false
	}
	if f.Category != nil && r.Category != *f.Category {
		return false
	}
	if f.From != nil && r.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && r.Timestamp.After(*f.To) {
		return false
	}
	amount := r.Amount.Decimal()
	if f.Min != nil && amount.LessThan(*f.Min) {
		return false
	}
	if f.Max != nil && amount.GreaterThan(*f.Max) {
		return false
	}
	return true
}

// IsEmpty reports whether no predicate is set.
func (f Filter) IsEmpty() bool {
	return f.Kind == nil && f.Category == nil && f.From == nil && f.To == nil && f.Min == nil && f.Max == nil
}
