package storage

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"tbudget/internal/core"
	"tbudget/internal/log"
	"tbudget/internal/ports"

	_ "modernc.org/sqlite"
)

var _ ports.RecordStore = (*SQLiteRepository)(nil)

// columns maps each record field to its column. Edit only ever interpolates
// names from this table.
var columns = [core.FieldCount]string{"timestamp", "kind", "amount", "category", "note"}

// SQLiteRepository stores records in SQLite. Every row carries a monotonic
// id assigned at insert; ordinals are the 1-based position in id order, so
// callers see the same positional contract as the CSV store.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	version, dirty, err := SchemaVersion(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		db.Close()
		return nil, fmt.Errorf("schema version %d is dirty: a previous migration failed", version)
	}
	ctx := context.Background()
	storageLogger(ctx).DebugContext(ctx, "SQLite schema ready",
		log.FieldPath, dbPath,
		"schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: NewQueries(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements ports.RecordStore
func (r *SQLiteRepository) Append(ctx context.Context, rec core.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	row := core.NewRow(rec)
	id, err := r.queries.InsertRecord(ctx, row.Fields)
	if err != nil {
		return fmt.Errorf("%w: insert record: %w", core.ErrStoreUnavailable, err)
	}

	storageLogger(ctx).DebugContext(ctx, "Record saved to SQLite",
		append(log.NewFields().WithOperation(log.OpAppend).WithRecord(rec).ToSlice(), "id", id)...)
	return nil
}

// Scan implements ports.RecordStore
func (r *SQLiteRepository) Scan(ctx context.Context) iter.Seq2[core.Row, error] {
	return func(yield func(core.Row, error) bool) {
		rows, err := r.queries.ListRecords(ctx)
		if err != nil {
			yield(core.Row{}, fmt.Errorf("%w: list records: %w", core.ErrStoreUnavailable, err))
			return
		}
		defer rows.Close()

		ordinal := 0
		for rows.Next() {
			var (
				id  int64
				row core.Row
				f   = &row.Fields
			)
			if err := rows.Scan(&id, &f[0], &f[1], &f[2], &f[3], &f[4]); err != nil {
				yield(core.Row{}, fmt.Errorf("%w: scan record: %w", core.ErrStoreUnavailable, err))
				return
			}
			ordinal++
			row.Ordinal = ordinal
			if !yield(row, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(core.Row{}, fmt.Errorf("%w: iterate records: %w", core.ErrStoreUnavailable, err))
		}
	}
}

// Edit implements ports.RecordStore
func (r *SQLiteRepository) Edit(ctx context.Context, ordinal int, field core.Field, value string) (bool, error) {
	if field < 0 || int(field) >= core.FieldCount {
		return false, fmt.Errorf("%w: %s", core.ErrUnknownField, field)
	}
	if ordinal < 1 {
		return false, nil
	}
	n, err := r.queries.UpdateRecordField(ctx, columns[field], ordinal, value)
	if err != nil {
		return false, fmt.Errorf("%w: update record: %w", core.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// Delete implements ports.RecordStore
func (r *SQLiteRepository) Delete(ctx context.Context, ordinal int) (bool, error) {
	if ordinal < 1 {
		return false, nil
	}
	n, err := r.queries.DeleteRecord(ctx, ordinal)
	if err != nil {
		return false, fmt.Errorf("%w: delete record: %w", core.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// Purge implements ports.RecordStore
func (r *SQLiteRepository) Purge(ctx context.Context) error {
	if err := r.queries.DeleteAllRecords(ctx); err != nil {
		return fmt.Errorf("%w: purge records: %w", core.ErrStoreUnavailable, err)
	}
	storageLogger(ctx).InfoContext(ctx, "SQLite records purged", log.FieldOperation, log.OpReset)
	return nil
}
