package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tbudget/internal/core"
	"tbudget/internal/log"
	ports "tbudget/internal/sheets"
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	entriesSheet  string
	summarySheet  string
	retryDelay    time.Duration
}

// Ensure interface conformance
var _ ports.Exporter = (*Client)(nil)

// New creates a Sheets client authenticated with service account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, cfg), nil
}

// NewWithOptions creates a client from explicit API options, such as a
// custom endpoint and HTTP client.
func NewWithOptions(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newClient(svc, cfg), nil
}

func newClient(svc *gsheet.Service, cfg Config) *Client {
	name := strings.TrimSpace(cfg.SheetName)
	if name == "" {
		name = "Ledger"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		entriesSheet:  name,
		summarySheet:  name + " Summary",
		retryDelay:    30 * time.Second,
	}
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials from inline JSON, a file, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		sheetsLogger(ctx).DebugContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		sheetsLogger(ctx).DebugContext(ctx, "Reading credentials from file", log.FieldPath, serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ExportEntries replaces the entries tab with one row per entry.
func (c *Client) ExportEntries(ctx context.Context, entries []core.Entry) (int, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}
	if err := c.replaceSheet(ctx, c.entriesSheet, entryValues(entries)); err != nil {
		return 0, err
	}
	sheetsLogger(ctx).InfoContext(ctx, "Exported entries to spreadsheet",
		log.FieldOperation, log.OpExport,
		"sheet", c.entriesSheet,
		"rows", len(entries))
	return len(entries), nil
}

// ExportSummary replaces the summary tab with grouped totals and the balance.
func (c *Client) ExportSummary(ctx context.Context, groups []core.GroupTotal, totals core.Totals) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.replaceSheet(ctx, c.summarySheet, summaryValues(groups, totals)); err != nil {
		return err
	}
	sheetsLogger(ctx).InfoContext(ctx, "Exported summary to spreadsheet",
		log.FieldOperation, log.OpExport,
		"sheet", c.summarySheet,
		"groups", len(groups))
	return nil
}

func (c *Client) replaceSheet(ctx context.Context, sheet string, values [][]any) error {
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return err
	}

	all := sheetRange(sheet, "A:Z")
	err := c.withRetry(ctx, func() error {
		_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, all, &gsheet.ClearValuesRequest{}).
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("clear %s: %w", all, err)
	}

	start := sheetRange(sheet, "A1")
	err = c.withRetry(ctx, func() error {
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, start, &gsheet.ValueRange{Values: values}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", start, err)
	}
	return nil
}

// ensureSheet adds the tab when the spreadsheet lacks it.
func (c *Client) ensureSheet(ctx context.Context, sheet string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet %s: %w", c.spreadsheetID, err)
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	if slices.Contains(titles, sheet) {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: sheet}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", sheet, err)
	}
	sheetsLogger(ctx).InfoContext(ctx, "Created spreadsheet tab", "sheet", sheet)
	return nil
}

// withRetry retries calls rejected for rate limiting.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
				sheetsLogger(ctx).WarnContext(ctx, "Rate limited, will retry", log.FieldError, err)
				return true
			}
			return false
		}),
		retry.Attempts(3),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
	)
}

func sheetsLogger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentSheets)
}
