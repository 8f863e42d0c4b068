package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/shopspring/decimal"

	"tbudget/internal/core"
	"tbudget/internal/log"
	"tbudget/internal/ports"
)

var (
	_ ports.BudgetRepository   = (*BudgetFile)(nil)
	_ ports.TemplateRepository = (*TemplateFile)(nil)
)

type (
	budgetDocument struct {
		Monthly    *json.Number           `json:"monthly,omitempty"`
		Categories map[string]json.Number `json:"categories,omitempty"`
	}

	templateDocument struct {
		Type     string      `json:"type"`
		Amount   json.Number `json:"amount"`
		Category string      `json:"category"`
		Note     string      `json:"note"`
		Day      int         `json:"day"`
	}
)

// BudgetFile persists the budget configuration as one JSON document.
type BudgetFile struct {
	path string
}

func NewBudgetFile(path string) *BudgetFile {
	return &BudgetFile{path: path}
}

// Load reads the current configuration. A missing or malformed document
// yields an empty configuration so the tool stays usable.
func (b *BudgetFile) Load(ctx context.Context) (core.BudgetConfig, error) {
	var doc budgetDocument
	if err := readDocument(ctx, b.path, &doc); err != nil {
		return core.BudgetConfig{}, err
	}
	cfg, err := doc.config()
	if err != nil {
		storageLogger(ctx).WarnContext(ctx, "Ignoring malformed budget document", log.FieldPath, b.path, log.FieldError, err)
		return core.BudgetConfig{}, nil
	}
	return cfg, nil
}

// Update applies mutate to the stored configuration as a single locked
// read-modify-write and replaces the whole document.
func (b *BudgetFile) Update(ctx context.Context, mutate func(*core.BudgetConfig)) error {
	unlock, err := lockFile(b.path)
	if err != nil {
		return unavailable("lock", b.path, err)
	}
	defer unlock()

	cfg, err := b.Load(ctx)
	if err != nil {
		return err
	}
	mutate(&cfg)
	return writeDocument(b.path, newBudgetDocument(cfg))
}

func (b *BudgetFile) Purge(ctx context.Context) error {
	return removeDocument(ctx, b.path)
}

func (d budgetDocument) config() (core.BudgetConfig, error) {
	var cfg core.BudgetConfig
	if d.Monthly != nil {
		m, err := decimal.NewFromString(d.Monthly.String())
		if err != nil {
			return core.BudgetConfig{}, fmt.Errorf("%w: monthly: %v", core.ErrConfigMalformed, err)
		}
		cfg.Monthly = &m
	}
	if len(d.Categories) > 0 {
		cfg.Categories = make(map[string]decimal.Decimal, len(d.Categories))
		for name, n := range d.Categories {
			limit, err := decimal.NewFromString(n.String())
			if err != nil {
				return core.BudgetConfig{}, fmt.Errorf("%w: category %q: %v", core.ErrConfigMalformed, name, err)
			}
			cfg.Categories[name] = limit
		}
	}
	return cfg, nil
}

func newBudgetDocument(cfg core.BudgetConfig) budgetDocument {
	var doc budgetDocument
	if cfg.Monthly != nil {
		n := json.Number(cfg.Monthly.String())
		doc.Monthly = &n
	}
	if len(cfg.Categories) > 0 {
		doc.Categories = make(map[string]json.Number, len(cfg.Categories))
		for name, limit := range cfg.Categories {
			doc.Categories[name] = json.Number(limit.String())
		}
	}
	return doc
}

// TemplateFile persists recurring templates as a JSON array.
type TemplateFile struct {
	path string
}

func NewTemplateFile(path string) *TemplateFile {
	return &TemplateFile{path: path}
}

// Load returns the valid templates in stored order. Entries that fail
// validation are skipped; a malformed document loads as empty.
func (t *TemplateFile) Load(ctx context.Context) ([]core.Template, error) {
	docs, err := t.loadDocuments(ctx)
	if err != nil {
		return nil, err
	}
	templates := make([]core.Template, 0, len(docs))
	for i, d := range docs {
		tmpl, err := d.template()
		if err != nil {
			storageLogger(ctx).WarnContext(ctx, "Skipping invalid recurring template", "index", i, log.FieldError, err)
			continue
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// Append adds tmpl to the end of the list. No uniqueness is enforced.
func (t *TemplateFile) Append(ctx context.Context, tmpl core.Template) error {
	if err := tmpl.Validate(); err != nil {
		return err
	}

	unlock, err := lockFile(t.path)
	if err != nil {
		return unavailable("lock", t.path, err)
	}
	defer unlock()

	docs, err := t.loadDocuments(ctx)
	if err != nil {
		return err
	}
	docs = append(docs, templateDocument{
		Type:     tmpl.Kind.String(),
		Amount:   json.Number(tmpl.Amount.String()),
		Category: tmpl.Category,
		Note:     tmpl.Note,
		Day:      tmpl.DayOfMonth,
	})
	return writeDocument(t.path, docs)
}

func (t *TemplateFile) Purge(ctx context.Context) error {
	return removeDocument(ctx, t.path)
}

func (t *TemplateFile) loadDocuments(ctx context.Context) ([]templateDocument, error) {
	var docs []templateDocument
	if err := readDocument(ctx, t.path, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (d templateDocument) template() (core.Template, error) {
	kind, err := core.ParseKind(d.Type)
	if err != nil {
		return core.Template{}, err
	}
	amount, err := core.ParseAmount(d.Amount.String())
	if err != nil {
		return core.Template{}, err
	}
	tmpl := core.Template{
		Kind:       kind,
		Amount:     amount,
		Category:   d.Category,
		Note:       d.Note,
		DayOfMonth: d.Day,
	}
	return tmpl, tmpl.Validate()
}

// readDocument decodes the JSON at path into v. A missing file leaves v
// untouched; undecodable content is logged, v is reset and nil returned.
func readDocument[T any](ctx context.Context, path string, v *T) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return unavailable("read", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		storageLogger(ctx).WarnContext(ctx, "Ignoring malformed document",
			log.FieldPath, path,
			log.FieldError, fmt.Errorf("%w: %v", core.ErrConfigMalformed, err))
		var zero T
		*v = zero
	}
	return nil
}

func writeDocument(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	err = writeFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(append(data, '\n'))
		return err
	})
	if err != nil {
		return unavailable("write", path, err)
	}
	return nil
}

func removeDocument(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return unavailable("remove", path, err)
	}
	storageLogger(ctx).InfoContext(ctx, "Document removed", log.FieldPath, path)
	return nil
}
