package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Expense Kind = "expense"
	Income  Kind = "income"
)

type (
	// Kind is the direction of a ledger record.
	Kind string

	// Record is one ledger entry as parsed from the store.
	Record struct {
		Timestamp time.Time
		Kind      Kind
		Amount    Amount
		Category  string
		Note      string
	}

	// Row is a stored record in raw form. Ordinal is its 1-based position
	// in the store and the only identity a record has.
	Row struct {
		Ordinal int
		Fields  [FieldCount]string
	}

	// Entry is a well-formed row paired with its ordinal.
	Entry struct {
		Ordinal int
		Record  Record
	}

	// Template generates a record on a given day of every month.
	Template struct {
		Kind       Kind
		Amount     Amount
		Category   string
		Note       string
		DayOfMonth int
	}
)

var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrMalformedRow     = errors.New("malformed row")
	ErrNotFound         = errors.New("record not found")
	ErrConfigMalformed  = errors.New("config document malformed")
	ErrUnknownField     = errors.New("unknown field")

	ErrInvalidKind     = errors.New("invalid kind: must be expense or income")
	ErrInvalidAmount   = errors.New("invalid amount: must be a positive number")
	ErrInvalidDay      = errors.New("invalid day of month: must be between 1 and 31")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidLimit    = errors.New("invalid budget limit: must be a positive number")
	ErrInvalidBucketBy = errors.New("invalid bucket: must be month or category")
)

// ParseKind accepts exactly "expense" or "income".
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.TrimSpace(s)); k {
	case Expense, Income:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

func (k Kind) String() string {
	return string(k)
}

// NewRow builds the raw form of a record for writing.
func NewRow(r Record) Row {
	var row Row
	row.Fields[FieldTimestamp] = FormatTimestamp(r.Timestamp)
	row.Fields[FieldKind] = r.Kind.String()
	row.Fields[FieldAmount] = r.Amount.String()
	row.Fields[FieldCategory] = r.Category
	row.Fields[FieldNote] = r.Note
	return row
}

// Record parses the raw fields. Only rows whose timestamp or amount do not
// parse return ErrMalformedRow. The kind is kept as stored, so an edited
// kind such as "refund" still reports under its own name.
func (r Row) Record() (Record, error) {
	ts, err := ParseTimestamp(r.Fields[FieldTimestamp])
	if err != nil {
		return Record{}, fmt.Errorf("%w: ordinal %d: %v", ErrMalformedRow, r.Ordinal, err)
	}
	amount, err := ParseStoredAmount(r.Fields[FieldAmount])
	if err != nil {
		return Record{}, fmt.Errorf("%w: ordinal %d: %v", ErrMalformedRow, r.Ordinal, err)
	}
	return Record{
		Timestamp: ts,
		Kind:      Kind(strings.TrimSpace(r.Fields[FieldKind])),
		Amount:    amount,
		Category:  r.Fields[FieldCategory],
		Note:      r.Fields[FieldNote],
	}, nil
}

// Validate checks a record is fit to be appended.
func (r Record) Validate() error {
	if r.Timestamp.IsZero() {
		return errors.New("timestamp cannot be zero")
	}
	if _, err := ParseKind(string(r.Kind)); err != nil {
		return err
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (t Template) Validate() error {
	if _, err := ParseKind(string(t.Kind)); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.DayOfMonth < 1 || t.DayOfMonth > 31 {
		return ErrInvalidDay
	}
	return nil
}

// Record materializes the template on the given instant.
func (t Template) Record(at time.Time) Record {
	return Record{
		Timestamp: at,
		Kind:      t.Kind,
		Amount:    t.Amount,
		Category:  t.Category,
		Note:      t.Note,
	}
}
