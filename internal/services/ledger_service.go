package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tbudget/internal/core"
	"tbudget/internal/log"
	"tbudget/internal/ports"
)

// LedgerService runs the add-record flow and the other mutations the
// presentation layer drives. Events are published best-effort when a
// publisher is configured.
type LedgerService struct {
	records   ports.RecordStore
	budgets   ports.BudgetRepository
	templates ports.TemplateRepository
	tracker   *BudgetTracker
	publisher ports.EventPublisher
	now       Clock
}

// NewLedgerService creates a ledger service. A nil clock means time.Now.
func NewLedgerService(records ports.RecordStore, budgets ports.BudgetRepository, templates ports.TemplateRepository, now Clock) *LedgerService {
	if now == nil {
		now = time.Now
	}
	return &LedgerService{
		records:   records,
		budgets:   budgets,
		templates: templates,
		tracker:   NewBudgetTracker(records, budgets),
		now:       now,
	}
}

// WithPublisher attaches an event publisher.
func (s *LedgerService) WithPublisher(p ports.EventPublisher) *LedgerService {
	s.publisher = p
	return s
}

// Tracker exposes the budget tracker sharing this service's stores.
func (s *LedgerService) Tracker() *BudgetTracker {
	return s.tracker
}

// AddRecord records a new entry timestamped now and returns the budget
// alerts it raised.
func (s *LedgerService) AddRecord(ctx context.Context, kind core.Kind, amount core.Amount, category, note string) ([]core.Alert, error) {
	return s.Append(ctx, core.Record{
		Timestamp: s.now(),
		Kind:      kind,
		Amount:    amount,
		Category:  strings.TrimSpace(category),
		Note:      note,
	})
}

// Append evaluates r against the budgets for its month, stores it and
// publishes the change. Alerts never block the append.
func (s *LedgerService) Append(ctx context.Context, r core.Record) ([]core.Alert, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	alerts, err := s.tracker.Evaluate(ctx, r.Kind, r.Amount, r.Category, r.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("evaluate budgets: %w", err)
	}

	if err := s.records.Append(ctx, r); err != nil {
		return nil, fmt.Errorf("append record: %w", err)
	}
	logger := ledgerLogger(ctx)
	logger.InfoContext(ctx, "Record added",
		append(log.NewFields().WithOperation(log.OpAppend).WithRecord(r).ToSlice(), "alerts", len(alerts))...)

	if s.publisher != nil {
		if err := s.publisher.PublishRecordAdded(ctx, r); err != nil {
			logger.WarnContext(ctx, "Failed to publish record added",
				log.NewFields().WithOperation(log.OpAppend).WithError(err).ToSlice()...)
		}
		for _, a := range alerts {
			if err := s.publisher.PublishBudgetAlert(ctx, a); err != nil {
				logger.WarnContext(ctx, "Failed to publish budget alert",
					log.NewFields().WithOperation(log.OpAppend).WithError(err).ToSlice()...)
			}
		}
	}
	return alerts, nil
}

// Edit replaces one field of the record at ordinal. The field name is
// checked here; the value is stored as given. Returns ErrNotFound when
// the ordinal is out of range.
func (s *LedgerService) Edit(ctx context.Context, ordinal int, fieldName, value string) error {
	field, err := core.ParseField(fieldName)
	if err != nil {
		return err
	}
	ok, err := s.records.Edit(ctx, ordinal, field, value)
	if err != nil {
		return fmt.Errorf("edit record: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %d", core.ErrNotFound, ordinal)
	}
	ledgerLogger(ctx).InfoContext(ctx, "Record edited",
		append(log.NewFields().WithOperation(log.OpEdit).WithOrdinal(ordinal).ToSlice(), "field", field.String())...)
	s.publishChanged(ctx, log.OpEdit, ordinal)
	return nil
}

// Delete removes the record at ordinal. Returns ErrNotFound when the
// ordinal is out of range.
func (s *LedgerService) Delete(ctx context.Context, ordinal int) error {
	ok, err := s.records.Delete(ctx, ordinal)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %d", core.ErrNotFound, ordinal)
	}
	ledgerLogger(ctx).InfoContext(ctx, "Record deleted",
		log.NewFields().WithOperation(log.OpDelete).WithOrdinal(ordinal).ToSlice()...)
	s.publishChanged(ctx, log.OpDelete, ordinal)
	return nil
}

// Reset purges records, budgets and templates. Every purge is attempted
// and the failures are joined.
func (s *LedgerService) Reset(ctx context.Context) error {
	err := errors.Join(
		s.records.Purge(ctx),
		s.budgets.Purge(ctx),
		s.templates.Purge(ctx),
	)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	ledgerLogger(ctx).InfoContext(ctx, "Ledger reset", log.FieldOperation, log.OpReset)
	return nil
}

func (s *LedgerService) publishChanged(ctx context.Context, op string, ordinal int) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordChanged(ctx, op, ordinal); err != nil {
		ledgerLogger(ctx).WarnContext(ctx, "Failed to publish record change",
			log.NewFields().WithOperation(op).WithOrdinal(ordinal).WithError(err).ToSlice()...)
	}
}

func ledgerLogger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentLedger)
}
