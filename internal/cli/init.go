// Package cli provides the startup sequence shared by tbudget commands:
// configuration, logging, backend wiring and the recurring replay.
package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"tbudget/internal/backend"
	"tbudget/internal/config"
	"tbudget/internal/log"
	"tbudget/internal/services"
	"tbudget/internal/sheets"
	"tbudget/internal/sheets/google"
)

// Session is an opened ledger ready to serve one command.
type Session struct {
	Config    *config.Config
	Logger    *log.Logger
	Ledger    *services.LedgerService
	Query     *services.QueryEngine
	Recurring *services.RecurringProcessor

	backend *backend.BackendResult
}

// SetupLogger builds the process logger from the configured level and format
// and installs it as the slog default.
func SetupLogger(cfg *config.Config) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logCfg := log.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.LogFormat
	logCfg.Component = log.ComponentCLI
	logger := log.New(logCfg)
	log.SetDefault(logger)
	return logger, nil
}

// LoadAndValidateConfig loads the .env file and environment, applies the
// command-line overrides, then validates.
func LoadAndValidateConfig(overrides ...func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Open wires the stores and services for cfg. The caller must Close the
// session.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Session, error) {
	return OpenWithFactory(ctx, cfg, logger, backend.NewFactory(logger))
}

// OpenWithFactory is Open with an explicit backend factory.
func OpenWithFactory(ctx context.Context, cfg *config.Config, logger *log.Logger, factory backend.Factory) (*Session, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", backendCfg.Type, err)
	}
	logger.DebugContext(ctx, "Ledger opened",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, backendCfg.Type,
		log.FieldPath, cfg.DataDir)

	ledger := services.NewLedgerService(result.Records, result.Budgets, result.Templates, time.Now)
	if result.Publisher != nil {
		ledger.WithPublisher(result.Publisher)
	}

	return &Session{
		Config:    cfg,
		Logger:    logger,
		Ledger:    ledger,
		Query:     services.NewQueryEngine(result.Records),
		Recurring: services.NewRecurringProcessor(result.Templates, result.Records, ledger),
		backend:   result,
	}, nil
}

// Replay materializes the templates due today. Failures are logged and do
// not stop the command that follows.
func (s *Session) Replay(ctx context.Context, today time.Time) int {
	n, err := s.Recurring.ReplayDue(ctx, today)
	if err != nil {
		s.Logger.WarnContext(ctx, "Recurring replay failed",
			log.FieldOperation, log.OpReplay,
			log.FieldError, err)
		return 0
	}
	if n > 0 {
		s.Logger.InfoContext(ctx, "Recurring records created",
			log.FieldOperation, log.OpReplay,
			log.FieldCount, n)
	}
	return n
}

// Exporter returns the spreadsheet exporter for the configured sheet.
func (s *Session) Exporter(ctx context.Context) (sheets.Exporter, error) {
	if !s.Config.SheetsEnabled() {
		return nil, fmt.Errorf("spreadsheet export is not configured: set %sGOOGLE_SPREADSHEET_ID", config.EnvPrefix)
	}
	client, err := google.New(ctx, google.Config{
		SpreadsheetID:   s.Config.GoogleSpreadsheetID,
		SheetName:       s.Config.GoogleSheetName,
		CredentialsFile: s.Config.GoogleServiceAccountFile,
		CredentialsJSON: s.Config.GoogleServiceAccountJSON,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Close releases the backend resources.
func (s *Session) Close() error {
	return s.backend.Close()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
