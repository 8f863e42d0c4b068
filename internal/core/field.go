package core

import (
	"fmt"
	"strings"
)

// Field names one column of a stored record, in on-disk order.
type Field int

const (
	FieldTimestamp Field = iota
	FieldKind
	FieldAmount
	FieldCategory
	FieldNote

	FieldCount = 5
)

var fieldNames = [FieldCount]string{"timestamp", "kind", "amount", "category", "note"}

// Header is the fixed first row of the record store.
func Header() []string {
	return append([]string(nil), fieldNames[:]...)
}

func (f Field) String() string {
	if f < 0 || int(f) >= FieldCount {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldNames[f]
}

// ParseField validates a user-supplied field name. "datetime" and "type"
// are accepted for files written with the older header.
func ParseField(name string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "timestamp", "datetime":
		return FieldTimestamp, nil
	case "kind", "type":
		return FieldKind, nil
	case "amount":
		return FieldAmount, nil
	case "category":
		return FieldCategory, nil
	case "note":
		return FieldNote, nil
	default:
		return 0, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownField, name, strings.Join(fieldNames[:], ", "))
	}
}
