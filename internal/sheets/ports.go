// Package sheets declares the spreadsheet export port.
package sheets

import (
	"context"

	"tbudget/internal/core"
)

// Ports for outbound adapters.
type (
	// Exporter mirrors ledger data into a spreadsheet. Each export replaces
	// what the previous export wrote.
	Exporter interface {
		// ExportEntries writes every entry, one row each, under a header.
		ExportEntries(ctx context.Context, entries []core.Entry) (rows int, err error)
		// ExportSummary writes the grouped totals and the balance.
		ExportSummary(ctx context.Context, groups []core.GroupTotal, totals core.Totals) error
	}
)
