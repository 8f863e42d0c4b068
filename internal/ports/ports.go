// Package ports declares the outbound interfaces the ledger services use.
package ports

import (
	"context"
	"iter"

	"tbudget/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordStore is the ordered, positionally-addressed record collection.
	RecordStore interface {
		// Append writes r at the end of the store, creating it if absent.
		Append(ctx context.Context, r core.Record) error
		// Scan yields every stored row in order with 1-based ordinals.
		// Each range over the returned sequence re-reads the store.
		Scan(ctx context.Context) iter.Seq2[core.Row, error]
		// Edit replaces one raw field of the row at ordinal. Ordinals count
		// every data row, malformed ones included, and match those yielded
		// by Scan. The value is stored without validation. Edit reports
		// false when no row has that ordinal.
		Edit(ctx context.Context, ordinal int, field core.Field, value string) (bool, error)
		// Delete removes the row at ordinal, counted the same way as Edit,
		// shifting later ordinals down.
		Delete(ctx context.Context, ordinal int) (bool, error)
		// Purge removes every record.
		Purge(ctx context.Context) error
	}

	BudgetRepository interface {
		Load(ctx context.Context) (core.BudgetConfig, error)
		Update(ctx context.Context, mutate func(*core.BudgetConfig)) error
		Purge(ctx context.Context) error
	}

	TemplateRepository interface {
		Load(ctx context.Context) ([]core.Template, error)
		Append(ctx context.Context, t core.Template) error
		Purge(ctx context.Context) error
	}

	// EventPublisher announces ledger changes to an external consumer.
	EventPublisher interface {
		PublishRecordAdded(ctx context.Context, r core.Record) error
		PublishRecordChanged(ctx context.Context, op string, ordinal int) error
		PublishBudgetAlert(ctx context.Context, a core.Alert) error
	}
)
