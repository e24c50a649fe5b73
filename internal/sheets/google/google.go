package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tally/internal/core"
	applog "tally/internal/log"
	ports "tally/internal/sheets"
)

// Columns A:F of the mirror sheet.
var header = []any{"Date", "Description", "Category", "Amount", "ID", "User"}

const idColumn = 4

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *applog.Logger

	// Row index cache: expense ID -> 1-based row, plus the used row count.
	mu                 sync.Mutex
	rowIndex           map[string]int
	cachedRowCount     int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

var _ ports.RowMirror = (*Client)(nil)

// New creates a Sheets client authenticated with a service account. Extra
// options are passed to the Sheets service.
func New(ctx context.Context, cfg Config, logger *applog.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Expenses"
	}

	if len(opts) == 0 {
		creds, err := credentialsJSON(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:                svc,
		spreadsheetID:      cfg.SpreadsheetID,
		sheetName:          sheetName,
		logger:             logger.WithComponent(applog.ComponentSheets),
		cacheValidDuration: 5 * time.Minute,
	}, nil
}

func credentialsJSON(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// UpsertRow writes e to the row holding its ID, appending one if needed.
func (c *Client) UpsertRow(ctx context.Context, userID string, e core.Expense) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.refreshIndexLocked(ctx); err != nil {
		return err
	}

	row, ok := c.rowIndex[e.ID]
	if !ok {
		if c.cachedRowCount == 0 {
			if err := c.writeRowLocked(ctx, 1, header); err != nil {
				return err
			}
			c.cachedRowCount = 1
		}
		row = c.cachedRowCount + 1
	}

	if err := c.writeRowLocked(ctx, row, rowValues(userID, e)); err != nil {
		return err
	}
	c.rowIndex[e.ID] = row
	if row > c.cachedRowCount {
		c.cachedRowCount = row
	}

	c.logger.DebugContext(ctx, "Expense row mirrored", applog.FieldExpenseID, e.ID, "row", row)
	return nil
}

// DeleteRow clears the row holding expenseID.
func (c *Client) DeleteRow(ctx context.Context, userID, expenseID string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.refreshIndexLocked(ctx); err != nil {
		return err
	}
	row, ok := c.rowIndex[expenseID]
	if !ok {
		c.logger.DebugContext(ctx, "Expense row not found, nothing to clear", applog.FieldExpenseID, expenseID)
		return nil
	}

	rng := c.rowRange(row)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		c.invalidateLocked()
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	delete(c.rowIndex, expenseID)
	return nil
}

// InvalidateRowCache forces the next operation to re-read the sheet.
func (c *Client) InvalidateRowCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
}

func (c *Client) invalidateLocked() {
	c.cacheExpiresAt = time.Time{}
}

// refreshIndexLocked re-reads the ID column when the cache has expired.
func (c *Client) refreshIndexLocked(ctx context.Context) error {
	if c.rowIndex != nil && time.Now().Before(c.cacheExpiresAt) {
		return nil
	}
	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	c.rowIndex = indexRows(resp.Values)
	c.cachedRowCount = len(resp.Values)
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	return nil
}

func (c *Client) writeRowLocked(ctx context.Context, row int, values []any) error {
	rng := c.rowRange(row)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		c.invalidateLocked()
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:F%d", c.sheetName, row, row)
}

func rowValues(userID string, e core.Expense) []any {
	return []any{e.Day(), e.Description, core.FormatCategory(e.Category), e.Amount, e.ID, userID}
}

// indexRows maps expense IDs in column E to their 1-based row numbers.
func indexRows(values [][]any) map[string]int {
	idx := make(map[string]int, len(values))
	for i, row := range values {
		if len(row) <= idColumn {
			continue
		}
		id := strings.TrimSpace(fmt.Sprint(row[idColumn]))
		if id == "" || i == 0 && id == header[idColumn] {
			continue
		}
		idx[id] = i + 1
	}
	return idx
}
