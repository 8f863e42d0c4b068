package amqp

import (
	"encoding/json"
	"time"

	"tbudget/internal/core"
)

// Event names carried in every message's "event" field.
const (
	EventRecordAdded   = "record.added"
	EventRecordEdited  = "record.edited"
	EventRecordDeleted = "record.deleted"
	EventBudgetAlert   = "budget.alert"
)

// RecordAddedMessage announces an appended record. Fields carry the stored
// text so consumers see exactly what the ledger wrote.
type RecordAddedMessage struct {
	Event       string    `json:"event"`
	Timestamp   string    `json:"timestamp"`
	Kind        string    `json:"kind"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Note        string    `json:"note"`
	PublishedAt time.Time `json:"published_at"`
}

// RecordChangedMessage announces an edit or delete at an ordinal. Ordinals
// are positional, so a delete shifts every later ordinal down by one.
type RecordChangedMessage struct {
	Event       string    `json:"event"`
	Ordinal     int       `json:"ordinal"`
	PublishedAt time.Time `json:"published_at"`
}

// BudgetAlertMessage announces a crossed budget threshold.
type BudgetAlertMessage struct {
	Event       string    `json:"event"`
	Scope       string    `json:"scope"`
	Level       string    `json:"level"`
	Category    string    `json:"category,omitempty"`
	Limit       string    `json:"limit"`
	Projected   string    `json:"projected"`
	Message     string    `json:"message"`
	PublishedAt time.Time `json:"published_at"`
}

// NewRecordAddedMessage creates a message from a stored record
func NewRecordAddedMessage(r core.Record, now time.Time) *RecordAddedMessage {
	row := core.NewRow(r)
	return &RecordAddedMessage{
		Event:       EventRecordAdded,
		Timestamp:   row.Fields[core.FieldTimestamp],
		Kind:        row.Fields[core.FieldKind],
		Amount:      row.Fields[core.FieldAmount],
		Category:    row.Fields[core.FieldCategory],
		Note:        row.Fields[core.FieldNote],
		PublishedAt: now,
	}
}

// NewRecordChangedMessage maps "edit" and "delete" to their event names.
func NewRecordChangedMessage(op string, ordinal int, now time.Time) *RecordChangedMessage {
	event := EventRecordEdited
	if op == "delete" {
		event = EventRecordDeleted
	}
	return &RecordChangedMessage{Event: event, Ordinal: ordinal, PublishedAt: now}
}

func NewBudgetAlertMessage(a core.Alert, now time.Time) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		Event:       EventBudgetAlert,
		Scope:       string(a.Scope),
		Level:       string(a.Level),
		Category:    a.Category,
		Limit:       a.Limit.String(),
		Projected:   a.Projected.String(),
		Message:     a.String(),
		PublishedAt: now,
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordAddedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ToJSON converts the message to JSON bytes
func (m *RecordChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordAddedMessageFromJSON creates a message from JSON bytes
func RecordAddedMessageFromJSON(data []byte) (*RecordAddedMessage, error) {
	var msg RecordAddedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
