package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"

	"tbudget/internal/core"
	"tbudget/internal/log"
	"tbudget/internal/ports"
)

var _ ports.RecordStore = (*CSVStore)(nil)

// CSVStore keeps records in a header-first CSV file, one row per record.
// Appends open the file for append and write a single line; Edit and
// Delete rematerialize the whole file and atomically replace it.
type CSVStore struct {
	path string
}

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the backing file location.
func (s *CSVStore) Path() string {
	return s.path
}

func (s *CSVStore) Append(ctx context.Context, r core.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	unlock, err := lockFile(s.path)
	if err != nil {
		return unavailable("lock", s.path, err)
	}
	defer unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return unavailable("open", s.path, err)
	}

	if err := appendRow(f, core.NewRow(r)); err != nil {
		f.Close()
		return unavailable("append", s.path, err)
	}
	if err := f.Close(); err != nil {
		return unavailable("close", s.path, err)
	}

	storageLogger(ctx).DebugContext(ctx, "Record appended",
		append(log.NewFields().WithOperation(log.OpAppend).WithRecord(r).ToSlice(), log.FieldPath, s.path)...)
	return nil
}

func appendRow(f *os.File, row core.Row) error {
	stat, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if stat.Size() == 0 {
		if err := w.Write(core.Header()); err != nil {
			return err
		}
	} else if !endsWithNewline(f, stat.Size()) {
		// A hand-edited file may lack the final newline.
		if _, err := f.Write([]byte("\n")); err != nil {
			return err
		}
	}
	if err := w.Write(row.Fields[:]); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

func endsWithNewline(f *os.File, size int64) bool {
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return true
	}
	return last[0] == '\n'
}

func (s *CSVStore) Scan(ctx context.Context) iter.Seq2[core.Row, error] {
	return func(yield func(core.Row, error) bool) {
		f, err := os.Open(s.path)
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		if err != nil {
			yield(core.Row{}, unavailable("open", s.path, err))
			return
		}
		defer f.Close()

		r := newReader(f)
		if _, err := r.Read(); err != nil {
			if err != io.EOF {
				yield(core.Row{}, unavailable("read header", s.path, err))
			}
			return
		}

		ordinal := 0
		for {
			if err := ctx.Err(); err != nil {
				yield(core.Row{}, err)
				return
			}
			fields, err := r.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(core.Row{}, unavailable("read", s.path, err))
				return
			}
			ordinal++
			if !yield(toRow(ordinal, fields), nil) {
				return
			}
		}
	}
}

func (s *CSVStore) Edit(ctx context.Context, ordinal int, field core.Field, value string) (bool, error) {
	if field < 0 || int(field) >= core.FieldCount {
		return false, fmt.Errorf("%w: %s", core.ErrUnknownField, field)
	}
	return s.rewrite(ctx, ordinal, func(rows [][]string, i int) [][]string {
		rows[i] = padFields(rows[i])
		rows[i][field] = value
		return rows
	})
}

func (s *CSVStore) Delete(ctx context.Context, ordinal int) (bool, error) {
	return s.rewrite(ctx, ordinal, func(rows [][]string, i int) [][]string {
		return append(rows[:i], rows[i+1:]...)
	})
}

func (s *CSVStore) Purge(ctx context.Context) error {
	unlock, err := lockFile(s.path)
	if err != nil {
		return unavailable("lock", s.path, err)
	}
	defer unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return unavailable("remove", s.path, err)
	}
	storageLogger(ctx).InfoContext(ctx, "Record store purged",
		log.FieldOperation, log.OpReset,
		log.FieldPath, s.path)
	return nil
}

// rewrite loads every row under the lock, applies mutate to the row at
// ordinal and replaces the file. It reports false when ordinal is absent.
func (s *CSVStore) rewrite(ctx context.Context, ordinal int, mutate func(rows [][]string, i int) [][]string) (bool, error) {
	unlock, err := lockFile(s.path)
	if err != nil {
		return false, unavailable("lock", s.path, err)
	}
	defer unlock()

	header, rows, err := s.readAll()
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("read", s.path, err)
	}
	if ordinal < 1 || ordinal > len(rows) {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	rows = mutate(rows, ordinal-1)

	err = writeFileAtomic(s.path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.WriteAll(rows); err != nil {
			return err
		}
		return cw.Error()
	})
	if err != nil {
		return false, unavailable("rewrite", s.path, err)
	}
	return true, nil
}

func (s *CSVStore) readAll() ([]string, [][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	all, err := newReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return core.Header(), nil, nil
	}
	return all[0], all[1:], nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

func toRow(ordinal int, fields []string) core.Row {
	row := core.Row{Ordinal: ordinal}
	copy(row.Fields[:], fields)
	return row
}

func padFields(fields []string) []string {
	for len(fields) < core.FieldCount {
		fields = append(fields, "")
	}
	return fields
}

func unavailable(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", core.ErrStoreUnavailable, op, path, err)
}

func storageLogger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentStorage)
}
