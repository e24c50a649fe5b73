// Package export renders a set of expenses and their summary as CSV, JSON
// or a plain-text report.
//
// Rendering is pure: the only input besides the expenses and options is the
// generation clock, which can be replaced with WithClock.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tally/internal/core"
)

type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatSummary Format = "summary"
)

// ErrUnsupportedFormat is returned for any format outside the three above.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Options selects the output encoding.
type Options struct {
	Format Format
	// IncludeHeaders controls the CSV comment and category blocks; nil means
	// true.
	IncludeHeaders *bool
}

func (o Options) headers() bool {
	return o.IncludeHeaders == nil || *o.IncludeHeaders
}

// Bool returns a pointer to b, for Options.IncludeHeaders.
func Bool(b bool) *bool {
	return &b
}

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatSummary}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatCSV, FormatJSON, FormatSummary:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Exporter renders expenses. The zero value is not usable; use New.
type Exporter struct {
	now func() time.Time
}

type Option func(*Exporter)

// WithClock replaces the clock used for the generated-at timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.now = now
	}
}

func New(opts ...Option) *Exporter {
	e := &Exporter{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExporter = New()

// Export renders expenses with the default clock.
func Export(expenses []core.Expense, opts Options) (string, error) {
	return defaultExporter.Export(expenses, opts)
}

// Report is a rendered export and the download name for it, both stamped
// with the same generation time.
type Report struct {
	Body        string
	FileName    string
	GeneratedAt time.Time
}

// Export validates every record, summarizes them once and renders the
// requested format.
func (x *Exporter) Export(expenses []core.Expense, opts Options) (string, error) {
	return x.render(expenses, opts, x.now().UTC())
}

// Render is Export plus the file name, taken at a single UTC instant.
func (x *Exporter) Render(expenses []core.Expense, opts Options) (Report, error) {
	at := x.now().UTC()
	body, err := x.render(expenses, opts, at)
	if err != nil {
		return Report{}, err
	}
	return Report{Body: body, FileName: FileName(opts.Format, at), GeneratedAt: at}, nil
}

func (x *Exporter) render(expenses []core.Expense, opts Options, generatedAt time.Time) (string, error) {
	switch opts.Format {
	case FormatCSV, FormatJSON, FormatSummary:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}
	for i, e := range expenses {
		if err := e.Validate(); err != nil {
			ref := e.ID
			if ref == "" {
				ref = fmt.Sprintf("#%d", i)
			}
			return "", fmt.Errorf("export: expense %s: %w", ref, err)
		}
	}

	summary := core.Summarize(expenses)

	switch opts.Format {
	case FormatCSV:
		return renderCSV(summary, generatedAt, opts.headers()), nil
	case FormatJSON:
		return renderJSON(summary, generatedAt)
	default:
		return renderSummary(summary, generatedAt), nil
	}
}

// FileName returns the download name for an export generated at the given
// time, e.g. expense-report-2024-01-05.csv. The date is the UTC day.
func FileName(format Format, at time.Time) string {
	ext := string(format)
	if format == FormatSummary {
		ext = "txt"
	}
	return fmt.Sprintf("expense-report-%s.%s", at.UTC().Format(core.CalendarLayout), ext)
}

// MimeType returns the content type of an export.
func MimeType(format Format) string {
	switch format {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain"
	}
}
