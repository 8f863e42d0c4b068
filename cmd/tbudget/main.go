// Command tbudget is a personal ledger: it records expenses and income,
// checks spending budgets, replays recurring entries and reports over the
// stored records.
package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"

	tcli "tbudget/internal/cli"
	"tbudget/internal/config"
	"tbudget/internal/log"
)

// globals holds the global options and the session every command runs
// against.
type globals struct {
	DataDir string `name:"data-dir" help:"Directory holding the ledger files (overrides TBUDGET_DATA_DIR)."`
	Backend string `help:"Record backend: csv, sqlite or memory (overrides TBUDGET_DATA_BACKEND)."`

	session *tcli.Session
	out     io.Writer
}

var cli struct {
	Globals globals `embed:""`

	AddExpense   addExpenseCmd   `cmd:"" help:"Record an expense and report budget alerts."`
	AddIncome    addIncomeCmd    `cmd:"" help:"Record an income."`
	Summary      summaryCmd      `cmd:"" help:"Show totals grouped by kind and category."`
	List         listCmd         `cmd:"" help:"List records oldest first."`
	Search       searchCmd       `cmd:"" help:"Find records containing a keyword."`
	Chart        chartCmd        `cmd:"" help:"Draw a bar chart of totals by month or category."`
	Edit         editCmd         `cmd:"" help:"Change one field of a record."`
	Delete       deleteCmd       `cmd:"" help:"Delete a record."`
	SetBudget    setBudgetCmd    `cmd:"" help:"Set the monthly or a category budget."`
	Budgets      budgetsCmd      `cmd:"" help:"Show the configured budgets."`
	AddRecurring addRecurringCmd `cmd:"" help:"Add a monthly recurring record."`
	Recurring    recurringCmd    `cmd:"" help:"List recurring templates."`
	Reset        resetCmd        `cmd:"" help:"Delete every record, budget and template."`
	ExportSheets exportSheetsCmd `cmd:"" help:"Export records and the summary to Google Sheets."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("tbudget"),
		kong.Description("Personal ledger with budgets and recurring records."),
		kong.UsageOnError())

	ctx, cancel := tcli.SignalContext()
	defer cancel()

	cfg, err := tcli.LoadAndValidateConfig(cli.Globals.apply)
	kctx.FatalIfErrorf(err)

	logger, err := tcli.SetupLogger(cfg)
	kctx.FatalIfErrorf(err)
	logger = logger.With(log.FieldCommand, kctx.Command())
	ctx = log.WithContext(ctx, logger)
	logger.DebugContext(ctx, "Starting")

	session, err := tcli.Open(ctx, cfg, logger)
	kctx.FatalIfErrorf(err)
	defer session.Close()

	session.Replay(ctx, time.Now())

	cli.Globals.session = session
	cli.Globals.out = os.Stdout
	kctx.BindTo(ctx, (*context.Context)(nil))
	if err := kctx.Run(&cli.Globals); err != nil {
		session.Close()
		kctx.FatalIfErrorf(err)
	}
}

// apply copies the global flags over the loaded configuration.
func (g *globals) apply(cfg *config.Config) {
	if g.DataDir != "" {
		cfg.DataDir = g.DataDir
	}
	if g.Backend != "" {
		cfg.DataBackend = g.Backend
	}
}
