package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"tbudget/internal/core"
)

const nothingToDisplay = "nothing to display"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func renderAlerts(w io.Writer, alerts []core.Alert) {
	for _, a := range alerts {
		fmt.Fprintf(w, "warning: %s\n", a)
	}
}

func renderEntries(w io.Writer, entries []core.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, nothingToDisplay)
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tTIMESTAMP\tKIND\tAMOUNT\tCATEGORY\tNOTE")
	for _, e := range entries {
		r := e.Record
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.Ordinal, core.FormatTimestamp(r.Timestamp), r.Kind, r.Amount, r.Category, r.Note)
	}
	return tw.Flush()
}

// renderRows prints stored rows as written, including ones that do not parse.
func renderRows(w io.Writer, rows []core.Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, nothingToDisplay)
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "#\t"+strings.ToUpper(strings.Join(core.Header(), "\t")))
	for _, row := range rows {
		fmt.Fprintf(tw, "%d\t%s\n", row.Ordinal, strings.Join(row.Fields[:], "\t"))
	}
	return tw.Flush()
}

func renderSummary(w io.Writer, groups []core.GroupTotal, totals core.Totals) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, nothingToDisplay)
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "KIND\tCATEGORY\tTOTAL")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", g.Kind, g.Category, g.Total.StringFixed(2))
	}
	fmt.Fprintln(tw, "\t\t")
	fmt.Fprintf(tw, "income\t\t%s\n", totals.Income.StringFixed(2))
	fmt.Fprintf(tw, "expense\t\t%s\n", totals.Expense.StringFixed(2))
	fmt.Fprintf(tw, "balance\t\t%s\n", totals.Balance().StringFixed(2))
	return tw.Flush()
}

// renderChart draws one bar per bucket, scaled so the largest total spans
// width characters.
func renderChart(w io.Writer, buckets []core.Bucket, width int) error {
	if len(buckets) == 0 {
		_, err := fmt.Fprintln(w, nothingToDisplay)
		return err
	}
	tw := newTable(w)
	maxTotal := maxBucket(buckets)
	for _, b := range buckets {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Label, strings.Repeat("#", barLength(b.Total, maxTotal, width)), b.Total.StringFixed(2))
	}
	return tw.Flush()
}

func maxBucket(buckets []core.Bucket) decimal.Decimal {
	maxTotal := decimal.Zero
	for _, b := range buckets {
		if b.Total.GreaterThan(maxTotal) {
			maxTotal = b.Total
		}
	}
	return maxTotal
}

// barLength is round(total / max * width), zero when max is not positive.
func barLength(total, maxTotal decimal.Decimal, width int) int {
	if !maxTotal.IsPositive() || !total.IsPositive() {
		return 0
	}
	return int(total.Mul(decimal.NewFromInt(int64(width))).Div(maxTotal).Round(0).IntPart())
}

func renderBudgets(w io.Writer, cfg core.BudgetConfig) error {
	if cfg.Monthly == nil && len(cfg.Categories) == 0 {
		_, err := fmt.Fprintln(w, "no budgets set")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SCOPE\tLIMIT")
	if cfg.Monthly != nil {
		fmt.Fprintf(tw, "monthly\t%s\n", cfg.Monthly.StringFixed(2))
	}
	categories := make([]string, 0, len(cfg.Categories))
	for c := range cfg.Categories {
		categories = append(categories, c)
	}
	slices.Sort(categories)
	for _, c := range categories {
		fmt.Fprintf(tw, "%s\t%s\n", c, cfg.Categories[c].StringFixed(2))
	}
	return tw.Flush()
}

func renderTemplates(w io.Writer, templates []core.Template) error {
	if len(templates) == 0 {
		_, err := fmt.Fprintln(w, "no recurring records")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DAY\tKIND\tAMOUNT\tCATEGORY\tNOTE")
	for _, t := range templates {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.DayOfMonth, t.Kind, t.Amount, t.Category, t.Note)
	}
	return tw.Flush()
}
