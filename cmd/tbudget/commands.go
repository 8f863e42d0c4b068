package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tbudget/internal/core"
)

type entryArgs struct {
	Amount   string `arg:"" help:"Positive amount, e.g. 12.50."`
	Category string `arg:"" help:"Category name."`
	Note     string `help:"Free text note."`
}

func (a entryArgs) add(ctx context.Context, g *globals, kind core.Kind) error {
	amount, err := core.ParseAmount(a.Amount)
	if err != nil {
		return err
	}
	alerts, err := g.session.Ledger.AddRecord(ctx, kind, amount, a.Category, a.Note)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.out, "recorded %s %s in %s\n", kind, amount, strings.TrimSpace(a.Category))
	renderAlerts(g.out, alerts)
	return nil
}

type addExpenseCmd struct {
	Entry entryArgs `embed:""`
}

func (c *addExpenseCmd) Run(ctx context.Context, g *globals) error {
	return c.Entry.add(ctx, g, core.Expense)
}

type addIncomeCmd struct {
	Entry entryArgs `embed:""`
}

func (c *addIncomeCmd) Run(ctx context.Context, g *globals) error {
	return c.Entry.add(ctx, g, core.Income)
}

type summaryCmd struct {
	Filter filterFlags `embed:""`
}

func (c *summaryCmd) Run(ctx context.Context, g *globals) error {
	f, err := c.Filter.filter()
	if err != nil {
		return err
	}
	groups, err := g.session.Query.Summarize(ctx, f)
	if err != nil {
		return err
	}
	totals, err := g.session.Query.Totals(ctx, f)
	if err != nil {
		return err
	}
	return renderSummary(g.out, groups, totals)
}

type listCmd struct {
	Filter filterFlags `embed:""`
}

func (c *listCmd) Run(ctx context.Context, g *globals) error {
	f, err := c.Filter.filter()
	if err != nil {
		return err
	}
	entries, err := g.session.Query.List(ctx, f)
	if err != nil {
		return err
	}
	return renderEntries(g.out, entries)
}

type searchCmd struct {
	Keyword string `arg:"" help:"Case-insensitive text to look for in any field."`
}

func (c *searchCmd) Run(ctx context.Context, g *globals) error {
	rows, err := g.session.Query.Search(ctx, c.Keyword)
	if err != nil {
		return err
	}
	return renderRows(g.out, rows)
}

type chartCmd struct {
	Filter filterFlags `embed:""`
	By     string      `default:"month" enum:"month,category" help:"Bucket by month or category."`
	Width  int         `help:"Longest bar in characters (defaults to TBUDGET_CHART_WIDTH)."`
}

func (c *chartCmd) Run(ctx context.Context, g *globals) error {
	f, err := c.Filter.filter()
	if err != nil {
		return err
	}
	by, err := core.ParseBucketBy(c.By)
	if err != nil {
		return err
	}
	buckets, err := g.session.Query.Aggregate(ctx, f, by)
	if err != nil {
		return err
	}
	width := c.Width
	if width <= 0 {
		width = g.session.Config.ChartWidth
	}
	return renderChart(g.out, buckets, width)
}

type editCmd struct {
	Ordinal int    `arg:"" help:"Record number as shown by list."`
	Field   string `arg:"" enum:"timestamp,datetime,kind,type,amount,category,note" help:"Field to change."`
	Value   string `arg:"" help:"New value."`
}

func (c *editCmd) Run(ctx context.Context, g *globals) error {
	if err := g.session.Ledger.Edit(ctx, c.Ordinal, c.Field, c.Value); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("no record #%d", c.Ordinal)
		}
		return err
	}
	fmt.Fprintf(g.out, "updated #%d %s\n", c.Ordinal, c.Field)
	return nil
}

type deleteCmd struct {
	Ordinal int `arg:"" help:"Record number as shown by list."`
}

func (c *deleteCmd) Run(ctx context.Context, g *globals) error {
	if err := g.session.Ledger.Delete(ctx, c.Ordinal); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("no record #%d", c.Ordinal)
		}
		return err
	}
	fmt.Fprintf(g.out, "deleted #%d\n", c.Ordinal)
	return nil
}

type setBudgetCmd struct {
	Monthly  string `help:"Ceiling for all expenses in a calendar month."`
	Category string `help:"Category to set a ceiling for."`
	Limit    string `help:"Ceiling for --category."`
}

func (c *setBudgetCmd) Run(ctx context.Context, g *globals) error {
	if c.Monthly == "" && c.Category == "" {
		return errors.New("nothing to set: pass --monthly or --category with --limit")
	}
	if (c.Category == "") != (c.Limit == "") {
		return errors.New("--category and --limit must be given together")
	}

	var monthly, category *decimal.Decimal
	if c.Monthly != "" {
		limit, err := parseLimit(c.Monthly)
		if err != nil {
			return err
		}
		monthly = &limit
	}
	if c.Category != "" {
		limit, err := parseLimit(c.Limit)
		if err != nil {
			return err
		}
		category = &limit
	}

	tracker := g.session.Ledger.Tracker()
	if monthly != nil {
		if err := tracker.SetMonthly(ctx, *monthly); err != nil {
			return err
		}
		fmt.Fprintf(g.out, "monthly budget set to %s\n", monthly.StringFixed(2))
	}
	if category != nil {
		if err := tracker.SetCategory(ctx, c.Category, *category); err != nil {
			return err
		}
		fmt.Fprintf(g.out, "budget for %s set to %s\n", strings.TrimSpace(c.Category), category.StringFixed(2))
	}
	return nil
}

func parseLimit(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", core.ErrInvalidLimit, s)
	}
	return d, nil
}

type budgetsCmd struct{}

func (c *budgetsCmd) Run(ctx context.Context, g *globals) error {
	cfg, err := g.session.Ledger.Tracker().Budgets(ctx)
	if err != nil {
		return err
	}
	return renderBudgets(g.out, cfg)
}

type addRecurringCmd struct {
	Kind     string `arg:"" enum:"expense,income" help:"expense or income."`
	Amount   string `arg:"" help:"Positive amount."`
	Category string `arg:"" help:"Category name."`
	Day      int    `arg:"" help:"Day of the month to record on, 1 to 31."`
	Note     string `help:"Free text note."`
}

func (c *addRecurringCmd) Run(ctx context.Context, g *globals) error {
	kind, err := core.ParseKind(c.Kind)
	if err != nil {
		return err
	}
	amount, err := core.ParseAmount(c.Amount)
	if err != nil {
		return err
	}
	t := core.Template{
		Kind:       kind,
		Amount:     amount,
		Category:   strings.TrimSpace(c.Category),
		Note:       c.Note,
		DayOfMonth: c.Day,
	}
	if err := g.session.Recurring.AddTemplate(ctx, t); err != nil {
		return err
	}
	fmt.Fprintf(g.out, "recurring %s %s in %s on day %d\n", kind, amount, t.Category, t.DayOfMonth)
	return nil
}

type recurringCmd struct{}

func (c *recurringCmd) Run(ctx context.Context, g *globals) error {
	templates, err := g.session.Recurring.Templates(ctx)
	if err != nil {
		return err
	}
	return renderTemplates(g.out, templates)
}

type resetCmd struct {
	Yes bool `help:"Confirm deleting everything."`
}

func (c *resetCmd) Run(ctx context.Context, g *globals) error {
	if !c.Yes {
		return errors.New("reset deletes every record, budget and template: pass --yes to confirm")
	}
	if err := g.session.Ledger.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintln(g.out, "ledger reset")
	return nil
}

type exportSheetsCmd struct {
	Filter filterFlags `embed:""`
}

func (c *exportSheetsCmd) Run(ctx context.Context, g *globals) error {
	f, err := c.Filter.filter()
	if err != nil {
		return err
	}
	exporter, err := g.session.Exporter(ctx)
	if err != nil {
		return err
	}

	entries, err := g.session.Query.List(ctx, f)
	if err != nil {
		return err
	}
	groups, err := g.session.Query.Summarize(ctx, f)
	if err != nil {
		return err
	}
	totals, err := g.session.Query.Totals(ctx, f)
	if err != nil {
		return err
	}

	n, err := exporter.ExportEntries(ctx, entries)
	if err != nil {
		return err
	}
	if err := exporter.ExportSummary(ctx, groups, totals); err != nil {
		return err
	}
	fmt.Fprintf(g.out, "exported %d records\n", n)
	return nil
}
