package storage

import (
	"context"
	"database/sql"
	"fmt"

	"tbudget/internal/core"
)

const (
	insertRecord = `INSERT INTO records (timestamp, kind, amount, category, note) VALUES (?, ?, ?, ?, ?)`
	listRecords  = `SELECT id, timestamp, kind, amount, category, note FROM records ORDER BY id`
	// byOrdinal resolves a 1-based ordinal to its id.
	byOrdinal         = `(SELECT id FROM records ORDER BY id LIMIT 1 OFFSET ?)`
	deleteRecord      = `DELETE FROM records WHERE id = ` + byOrdinal
	deleteAllRecords  = `DELETE FROM records`
	updateFieldFormat = `UPDATE records SET %s = ? WHERE id = ` + byOrdinal
)

// Queries holds the SQL statements used by SQLiteRepository.
type Queries struct {
	db *sql.DB
}

func NewQueries(db *sql.DB) *Queries {
	return &Queries{db: db}
}

func (q *Queries) InsertRecord(ctx context.Context, f [core.FieldCount]string) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertRecord, f[0], f[1], f[2], f[3], f[4])
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) ListRecords(ctx context.Context) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, listRecords)
}

// UpdateRecordField sets column on the row at ordinal. column must come
// from the fixed columns table.
func (q *Queries) UpdateRecordField(ctx context.Context, column string, ordinal int, value string) (int64, error) {
	res, err := q.db.ExecContext(ctx, fmt.Sprintf(updateFieldFormat, column), value, ordinal-1)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteRecord(ctx context.Context, ordinal int) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteRecord, ordinal-1)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteAllRecords(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllRecords)
	return err
}
