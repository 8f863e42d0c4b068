// Package services provides the ledger's business logic: budget
// evaluation, recurring replay, queries and the add-record flow.
package services

import (
	"context"
	"time"

	"tbudget/internal/core"
	"tbudget/internal/log"
	"tbudget/internal/ports"
)

// Clock returns the current local time.
type Clock func() time.Time

// eachRecord calls fn for every well-formed record in store order. Rows
// that fail to parse are skipped so partial data never aborts a scan.
func eachRecord(ctx context.Context, store ports.RecordStore, fn func(core.Entry)) error {
	logger := log.FromContext(ctx).WithComponent(log.ComponentLedger)
	skipped := 0
	for row, err := range store.Scan(ctx) {
		if err != nil {
			return err
		}
		rec, err := row.Record()
		if err != nil {
			skipped++
			logger.DebugContext(ctx, "Skipping malformed row",
				log.NewFields().WithOrdinal(row.Ordinal).WithError(err).ToSlice()...)
			continue
		}
		fn(core.Entry{Ordinal: row.Ordinal, Record: rec})
	}
	if skipped > 0 {
		logger.DebugContext(ctx, "Scan finished with malformed rows", log.FieldCount, skipped)
	}
	return nil
}
