package memory

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"sync"

	"tbudget/internal/core"
	"tbudget/internal/ports"
)

var (
	_ ports.RecordStore        = (*Store)(nil)
	_ ports.BudgetRepository   = (*Budgets)(nil)
	_ ports.TemplateRepository = (*Templates)(nil)
)

// Store is an in-process record store. Rows are kept in raw form so it
// behaves like the file store, malformed edits included.
type Store struct {
	mu   sync.Mutex
	rows [][core.FieldCount]string
}

func New(records ...core.Record) *Store {
	s := &Store{}
	for _, r := range records {
		s.rows = append(s.rows, core.NewRow(r).Fields)
	}
	return s
}

// NewFromRows seeds the store with raw rows, which need not parse.
func NewFromRows(rows ...[core.FieldCount]string) *Store {
	return &Store{rows: append([][core.FieldCount]string(nil), rows...)}
}

// Append stores the record at the end.
func (s *Store) Append(_ context.Context, r core.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, core.NewRow(r).Fields)
	return nil
}

// Scan iterates over a snapshot taken when ranging starts.
func (s *Store) Scan(ctx context.Context) iter.Seq2[core.Row, error] {
	return func(yield func(core.Row, error) bool) {
		s.mu.Lock()
		snapshot := append([][core.FieldCount]string(nil), s.rows...)
		s.mu.Unlock()

		for i, fields := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(core.Row{}, err)
				return
			}
			if !yield(core.Row{Ordinal: i + 1, Fields: fields}, nil) {
				return
			}
		}
	}
}

func (s *Store) Edit(_ context.Context, ordinal int, field core.Field, value string) (bool, error) {
	if field < 0 || int(field) >= core.FieldCount {
		return false, fmt.Errorf("%w: %s", core.ErrUnknownField, field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ordinal < 1 || ordinal > len(s.rows) {
		return false, nil
	}
	s.rows[ordinal-1][field] = value
	return true, nil
}

func (s *Store) Delete(_ context.Context, ordinal int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ordinal < 1 || ordinal > len(s.rows) {
		return false, nil
	}
	s.rows = append(s.rows[:ordinal-1], s.rows[ordinal:]...)
	return true, nil
}

func (s *Store) Purge(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	return nil
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Budgets is an in-process budget repository.
type Budgets struct {
	mu  sync.Mutex
	cfg core.BudgetConfig
}

func NewBudgets(cfg core.BudgetConfig) *Budgets {
	return &Budgets{cfg: cloneConfig(cfg)}
}

func (b *Budgets) Load(_ context.Context) (core.BudgetConfig, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneConfig(b.cfg), nil
}

func (b *Budgets) Update(_ context.Context, mutate func(*core.BudgetConfig)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cfg := cloneConfig(b.cfg)
	mutate(&cfg)
	b.cfg = cfg
	return nil
}

func (b *Budgets) Purge(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg = core.BudgetConfig{}
	return nil
}

func cloneConfig(cfg core.BudgetConfig) core.BudgetConfig {
	out := core.BudgetConfig{}
	if cfg.Monthly != nil {
		m := *cfg.Monthly
		out.Monthly = &m
	}
	if cfg.Categories != nil {
		out.Categories = maps.Clone(cfg.Categories)
	}
	return out
}

// Templates is an in-process recurring template list.
type Templates struct {
	mu    sync.Mutex
	items []core.Template
}

func NewTemplates(items ...core.Template) *Templates {
	return &Templates{items: append([]core.Template(nil), items...)}
}

func (t *Templates) Load(_ context.Context) ([]core.Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]core.Template(nil), t.items...), nil
}

func (t *Templates) Append(_ context.Context, tmpl core.Template) error {
	if err := tmpl.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, tmpl)
	return nil
}

func (t *Templates) Purge(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = nil
	return nil
}
