// Package core provides the ledger domain types.
//
// This file contains the Amount type: the literal decimal text a user
// entered together with its parsed value. The literal is what gets stored
// so amounts are never reformatted on disk; the decimal is what gets summed.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a positive, currency-agnostic quantity.
type Amount struct {
	literal string
	value   decimal.Decimal
}

// ParseAmount parses a positive decimal such as "12.5" or "1000".
//
// Examples:
//
//	ParseAmount("12.50") -> 12.5 (stored as "12.50")
//	ParseAmount("0")     -> ErrInvalidAmount
//	ParseAmount("-3")    -> ErrInvalidAmount
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	a := Amount{literal: s, value: d}
	if err := a.Validate(); err != nil {
		return Amount{}, err
	}
	return a, nil
}

// ParseStoredAmount parses an amount read back from the store. Any decimal
// is accepted, since edits write values without re-validating them.
func ParseStoredAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Amount{literal: s, value: d}, nil
}

// AmountFromDecimal wraps a computed value, using its canonical text.
func AmountFromDecimal(d decimal.Decimal) Amount {
	return Amount{literal: d.String(), value: d}
}

func (a Amount) Validate() error {
	if !a.value.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the numeric value for arithmetic.
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// String returns the literal as entered.
func (a Amount) String() string {
	if a.literal == "" {
		return a.value.String()
	}
	return a.literal
}

// Equal compares numerically, so "50" equals "50.0".
func (a Amount) Equal(b Amount) bool {
	return a.value.Equal(b.value)
}
