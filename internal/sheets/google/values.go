package google

import (
	"fmt"
	"strings"

	"tbudget/internal/core"
)

var entriesHeader = []any{"#", "timestamp", "kind", "amount", "category", "note"}

// entryValues lays out entries as sheet rows. Amounts keep their literal
// text and ordinals are the store positions at export time.
func entryValues(entries []core.Entry) [][]any {
	values := make([][]any, 0, len(entries)+1)
	values = append(values, entriesHeader)
	for _, e := range entries {
		row := core.NewRow(e.Record)
		values = append(values, []any{
			e.Ordinal,
			row.Fields[core.FieldTimestamp],
			row.Fields[core.FieldKind],
			row.Fields[core.FieldAmount],
			row.Fields[core.FieldCategory],
			row.Fields[core.FieldNote],
		})
	}
	return values
}

// summaryValues lays out grouped totals followed by a blank row and the
// balance lines.
func summaryValues(groups []core.GroupTotal, totals core.Totals) [][]any {
	values := make([][]any, 0, len(groups)+5)
	values = append(values, []any{"kind", "category", "total"})
	for _, g := range groups {
		values = append(values, []any{g.Kind.String(), g.Category, g.Total.StringFixed(2)})
	}
	values = append(values,
		[]any{},
		[]any{"income", "", totals.Income.StringFixed(2)},
		[]any{"expense", "", totals.Expense.StringFixed(2)},
		[]any{"balance", "", totals.Balance().StringFixed(2)},
	)
	return values
}

// sheetRange builds an A1 range, quoting sheet names that need it.
func sheetRange(sheet, cells string) string {
	if strings.ContainsAny(sheet, " '!") {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return fmt.Sprintf("%s!%s", sheet, cells)
}
