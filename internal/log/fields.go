package log

import "tbudget/internal/core"

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldCommand   = "command"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldOrdinal   = "ordinal"
	FieldKind      = "kind"
	FieldAmount    = "amount"
	FieldCategory  = "category"
	FieldBackend   = "backend"
	FieldPath      = "path"
	FieldCount     = "count"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentCLI       = "cli"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentRecurring = "recurring"
	ComponentAMQP      = "amqp"
	ComponentSheets    = "sheets"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpAppend  = "append"
	OpEdit    = "edit"
	OpDelete  = "delete"
	OpReplay  = "replay"
	OpReset   = "reset"
	OpExport  = "export"
	OpStartup = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRecord adds the identifying fields of a record
func (f LogFields) WithRecord(r core.Record) LogFields {
	f[FieldKind] = r.Kind.String()
	f[FieldAmount] = r.Amount.String()
	f[FieldCategory] = r.Category
	return f
}

// WithOrdinal adds the record position
func (f LogFields) WithOrdinal(ordinal int) LogFields {
	f[FieldOrdinal] = ordinal
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
