package backend

import (
	"context"
	"errors"
	"fmt"

	"tbudget/internal/amqp"
	"tbudget/internal/core"
	"tbudget/internal/log"
	"tbudget/internal/storage"
	"tbudget/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	dial   amqp.DialOptions
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		dial:   amqp.DefaultDialOptions(),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case CSVBackend:
		result = f.createCSVBackend(ctx, config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		result = f.createMemoryBackend(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachPublisher(ctx, config, result)
	return result, nil
}

func (f *DefaultFactory) createCSVBackend(ctx context.Context, config Config) *BackendResult {
	f.logger.DebugContext(ctx, "Initialized CSV backend",
		log.FieldBackend, CSVBackend,
		log.FieldPath, config.RecordsPath,
		"budgets", config.BudgetsPath,
		"recurring", config.RecurringPath)

	return &BackendResult{
		Records:   storage.NewCSVStore(config.RecordsPath),
		Budgets:   storage.NewBudgetFile(config.BudgetsPath),
		Templates: storage.NewTemplateFile(config.RecurringPath),
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.DebugContext(ctx, "Initialized SQLite backend",
		log.FieldBackend, SQLiteBackend,
		log.FieldPath, config.SQLiteDBPath)

	return &BackendResult{
		Records:   sqliteRepo,
		Budgets:   storage.NewBudgetFile(config.BudgetsPath),
		Templates: storage.NewTemplateFile(config.RecurringPath),
		Cleanup:   sqliteRepo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context) *BackendResult {
	f.logger.DebugContext(ctx, "Initialized memory backend", log.FieldBackend, MemoryBackend)

	return &BackendResult{
		Records:   memory.New(),
		Budgets:   memory.NewBudgets(core.BudgetConfig{}),
		Templates: memory.NewTemplates(),
	}
}

// attachPublisher connects to the broker when configured. A broker that
// cannot be reached disables events rather than failing the command.
func (f *DefaultFactory) attachPublisher(ctx context.Context, config Config, result *BackendResult) {
	if config.AMQPURL == "" {
		return
	}
	client, err := amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.dial)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return
	}
	f.logger.DebugContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	result.Publisher = client
	storeCleanup := result.Cleanup
	result.Cleanup = func() error {
		var storeErr error
		if storeCleanup != nil {
			storeErr = storeCleanup()
		}
		return errors.Join(storeErr, client.Close())
	}
}
