package services

import (
	"context"
	"fmt"
	"time"

	"tbudget/internal/core"
	"tbudget/internal/log"
	"tbudget/internal/ports"
)

// RecordAdder is the add-record pipeline: budget evaluation, append and
// event publishing.
type RecordAdder interface {
	Append(ctx context.Context, r core.Record) ([]core.Alert, error)
}

// RecurringProcessor creates records from recurring templates on their day
type RecurringProcessor struct {
	templates ports.TemplateRepository
	records   ports.RecordStore
	adder     RecordAdder
	checker   DuenessChecker
}

// NewRecurringProcessor creates a processor using the monthly strategy
func NewRecurringProcessor(templates ports.TemplateRepository, records ports.RecordStore, adder RecordAdder) *RecurringProcessor {
	checker, err := GetDuenessChecker(Monthly)
	if err != nil {
		checker = DayOfMonthChecker{}
	}
	return &RecurringProcessor{
		templates: templates,
		records:   records,
		adder:     adder,
		checker:   checker,
	}
}

// AddTemplate validates and appends a template. Duplicates are allowed.
func (p *RecurringProcessor) AddTemplate(ctx context.Context, t core.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := p.templates.Append(ctx, t); err != nil {
		return fmt.Errorf("add template: %w", err)
	}
	recurringLogger(ctx).InfoContext(ctx, "Recurring template added",
		append(log.NewFields().WithRecord(t.Record(time.Time{})).ToSlice(), "day", t.DayOfMonth)...)
	return nil
}

// Templates lists the stored templates.
func (p *RecurringProcessor) Templates(ctx context.Context) ([]core.Template, error) {
	return p.templates.Load(ctx)
}

// replayKey identifies one occurrence of a template. Two templates with the
// same key produce a single record.
type replayKey struct {
	kind     core.Kind
	category string
	amount   core.Amount
	note     string
}

// equal compares amounts numerically, so "50" and "50.0" are one key.
func (k replayKey) equal(o replayKey) bool {
	return k.kind == o.kind && k.category == o.category && k.note == o.note && k.amount.Equal(o.amount)
}

// ReplayDue appends a record for every template due today that has no
// matching record on today's calendar day. Running it twice on the same
// day creates nothing the second time. A template that fails to append is
// logged and skipped.
func (p *RecurringProcessor) ReplayDue(ctx context.Context, today time.Time) (int, error) {
	if p.templates == nil || p.records == nil || p.adder == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.templates.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load templates: %w", err)
	}

	var due []core.Template
	for _, t := range templates {
		if p.checker.IsDue(t, today) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return 0, nil
	}

	var existing []replayKey
	err = eachRecord(ctx, p.records, func(e core.Entry) {
		r := e.Record
		if core.SameDay(r.Timestamp, today) {
			existing = append(existing, replayKey{r.Kind, r.Category, r.Amount, r.Note})
		}
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan records: %w", err)
	}

	logger := recurringLogger(ctx)
	logger.InfoContext(ctx, "Processing recurring templates",
		log.FieldOperation, log.OpReplay,
		"total", len(templates),
		"due", len(due),
		"processing_date", today.Format("2006-01-02"))

	created := 0
	for _, t := range due {
		key := replayKey{t.Kind, t.Category, t.Amount, t.Note}
		if replayed(existing, key) {
			continue
		}

		r := t.Record(today)
		alerts, err := p.adder.Append(ctx, r)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to create record from recurring template",
				log.NewFields().WithOperation(log.OpReplay).WithRecord(r).WithError(err).ToSlice()...)
			continue
		}
		existing = append(existing, key)
		created++

		for _, a := range alerts {
			logger.WarnContext(ctx, "Recurring record crossed a budget", "alert", a.String())
		}
		logger.InfoContext(ctx, "Created record from recurring template",
			append(log.NewFields().WithOperation(log.OpReplay).WithRecord(r).ToSlice(), "day", t.DayOfMonth)...)
	}

	logger.InfoContext(ctx, "Recurring processing complete",
		log.FieldOperation, log.OpReplay,
		log.FieldCount, created,
		"total_checked", len(due))
	return created, nil
}

func recurringLogger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentRecurring)
}

func replayed(existing []replayKey, key replayKey) bool {
	for _, k := range existing {
		if k.equal(key) {
			return true
		}
	}
	return false
}
