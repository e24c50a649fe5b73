package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"

	"tally/internal/core"
	applog "tally/internal/log"
)

// fakeSheet serves the subset of the Sheets values API the client uses.
type fakeSheet struct {
	mu   sync.Mutex
	rows [][]any
	gets int
	fail bool

	inputOptions []string
}

var rowRangeRe = regexp.MustCompile(`!A(\d+):F(\d+)$`)

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, rng, ok := strings.Cut(r.URL.Path, "/values/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if f.fail {
		http.Error(w, `{"error":{"code":500,"message":"backend error"}}`, http.StatusInternalServerError)
		return
	}

	switch {
	case r.Method == http.MethodGet:
		f.gets++
		json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": f.rows})
	case r.Method == http.MethodPut:
		f.inputOptions = append(f.inputOptions, r.URL.Query().Get("valueInputOption"))
		var body struct {
			Values [][]any `json:"values"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		row := f.rowNumber(rng)
		for len(f.rows) < row {
			f.rows = append(f.rows, []any{})
		}
		f.rows[row-1] = body.Values[0]
		json.NewEncoder(w).Encode(map[string]any{"updatedRange": rng})
	case r.Method == http.MethodPost && strings.HasSuffix(rng, ":clear"):
		row := f.rowNumber(strings.TrimSuffix(rng, ":clear"))
		f.rows[row-1] = []any{}
		json.NewEncoder(w).Encode(map[string]any{"clearedRange": rng})
	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
	}
}

func (f *fakeSheet) snapshot() ([][]any, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]any(nil), f.rows...), f.gets
}

func (f *fakeSheet) setFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

func (f *fakeSheet) rowNumber(rng string) int {
	m := rowRangeRe.FindStringSubmatch(rng)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func newTestClient(t *testing.T, fake *fakeSheet) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1", SheetName: "Expenses"},
		applog.New(applog.DefaultConfig()),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func expense(id string, amount float64) core.Expense {
	return core.Expense{ID: id, Amount: amount, Category: core.Food, Description: "Lunch " + id, Date: "2024-01-05T23:30:00-02:00"}
}

func TestClient_UpsertAppendsThenUpdates(t *testing.T) {
	fake := &fakeSheet{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	if err := c.UpsertRow(ctx, "u1", expense("a", 12.5)); err != nil {
		t.Fatalf("UpsertRow(a): %v", err)
	}
	if err := c.UpsertRow(ctx, "u1", expense("b", 3)); err != nil {
		t.Fatalf("UpsertRow(b): %v", err)
	}
	if err := c.UpsertRow(ctx, "u1", expense("a", 99)); err != nil {
		t.Fatalf("UpsertRow(a again): %v", err)
	}

	rows, gets := fake.snapshot()
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %v", rows)
	}
	if rows[0][0] != "Date" {
		t.Fatalf("expected header row, got %v", rows[0])
	}
	got := rows[1]
	if got[0] != "2024-01-06" || got[2] != "Food" || got[3] != 99.0 || got[4] != "a" || got[5] != "u1" {
		t.Fatalf("unexpected row for a: %v", got)
	}
	if gets != 1 {
		t.Fatalf("expected a single read thanks to the row cache, got %d", gets)
	}
}

func TestClient_DeleteClearsRow(t *testing.T) {
	fake := &fakeSheet{rows: [][]any{
		header,
		{"2024-01-01", "x", "Food", 1.0, "a", "u1"},
		{"2024-01-02", "y", "Food", 2.0, "b", "u1"},
	}}
	c := newTestClient(t, fake)
	ctx := context.Background()

	if err := c.DeleteRow(ctx, "u1", "a"); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	if rows, _ := fake.snapshot(); len(rows[1]) != 0 {
		t.Fatalf("row 2 should be cleared, got %v", rows[1])
	}
	if err := c.DeleteRow(ctx, "u1", "missing"); err != nil {
		t.Fatalf("DeleteRow on unknown id should be a no-op: %v", err)
	}

	if err := c.UpsertRow(ctx, "u1", expense("c", 5)); err != nil {
		t.Fatalf("UpsertRow: %v", err)
	}
	if rows, _ := fake.snapshot(); len(rows) != 4 || rows[3][4] != "c" {
		t.Fatalf("new rows append after the last used row, got %v", rows)
	}
}

func TestClient_ErrorInvalidatesCache(t *testing.T) {
	fake := &fakeSheet{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	if err := c.UpsertRow(ctx, "u1", expense("a", 1)); err != nil {
		t.Fatalf("UpsertRow: %v", err)
	}
	fake.setFail(true)
	if err := c.UpsertRow(ctx, "u1", expense("b", 1)); err == nil {
		t.Fatal("expected error from failing backend")
	}
	fake.setFail(false)
	if err := c.UpsertRow(ctx, "u1", expense("b", 1)); err != nil {
		t.Fatalf("UpsertRow after recovery: %v", err)
	}
	if _, gets := fake.snapshot(); gets != 2 {
		t.Fatalf("expected the index to be re-read after a failure, got %d reads", gets)
	}
}

func TestClient_RejectsInvalidExpense(t *testing.T) {
	c := &Client{svc: nil}
	if err := c.UpsertRow(context.Background(), "u1", expense("a", 1)); err == nil {
		t.Fatal("expected error without service")
	}

	c = newTestClient(t, &fakeSheet{})
	bad := expense("a", 0)
	if err := c.UpsertRow(context.Background(), "u1", bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestRowCacheExpiration(t *testing.T) {
	c := &Client{cacheValidDuration: 10 * time.Minute, rowIndex: map[string]int{}}
	c.mu.Lock()
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	c.mu.Unlock()

	c.InvalidateRowCache()

	c.mu.Lock()
	valid := time.Now().Before(c.cacheExpiresAt)
	c.mu.Unlock()
	if valid {
		t.Error("cache should be expired after invalidation")
	}
}

func TestIndexRows(t *testing.T) {
	idx := indexRows([][]any{
		header,
		{"2024-01-01", "x", "Food", 1.0, "a", "u1"},
		{},
		{"2024-01-03", "short"},
		{"2024-01-04", "y", "Food", 2.0, " b ", "u1"},
	})
	if len(idx) != 2 || idx["a"] != 2 || idx["b"] != 5 {
		t.Fatalf("unexpected index: %v", idx)
	}
}

func TestNew_Validation(t *testing.T) {
	logger := applog.New(applog.DefaultConfig())
	if _, err := New(context.Background(), Config{}, logger); err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := New(context.Background(), Config{SpreadsheetID: "x"}, logger)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = New(context.Background(), Config{SpreadsheetID: "x", CredentialsFile: "/does/not/exist.json"}, logger)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_WritesValuesRaw(t *testing.T) {
	fake := &fakeSheet{}
	c := newTestClient(t, fake)

	e := expense("a", 10)
	e.Description = "=HYPERLINK(\"http://example.com\")"
	if err := c.UpsertRow(context.Background(), "u1", e); err != nil {
		t.Fatalf("UpsertRow: %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.inputOptions) == 0 {
		t.Fatal("no values were written")
	}
	for _, opt := range fake.inputOptions {
		if opt != "RAW" {
			t.Fatalf("valueInputOption = %q, want RAW", opt)
		}
	}
	if got := fake.rows[1][1]; got != e.Description {
		t.Fatalf("description cell = %v, want %q", got, e.Description)
	}
}
