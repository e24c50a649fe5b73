// Package http provides the JSON API server and its handlers.
//
// This file implements parsing of query filters, export options and JSON
// request bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tally/internal/core"
	"tally/internal/export"
)

const maxBodyBytes = 64 << 10

// ErrInvalidRequest marks malformed query parameters or bodies.
var ErrInvalidRequest = errors.New("invalid request")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// ParseFilter reads the filter query parameters. Absent parameters leave
// the dimension unconstrained; dates are normalized to YYYY-MM-DD.
func ParseFilter(query url.Values) (core.FilterOptions, error) {
	var opts core.FilterOptions

	if v := strings.TrimSpace(query.Get("category")); v != "" {
		c, err := core.ParseCategory(v)
		if err != nil {
			return opts, invalid("category %q", v)
		}
		opts.Category = c
	}

	for _, p := range []struct {
		key string
		dst *string
	}{{"startDate", &opts.StartDate}, {"endDate", &opts.EndDate}} {
		v := strings.TrimSpace(query.Get(p.key))
		if v == "" {
			continue
		}
		d, err := core.CalendarDate(v)
		if err != nil {
			return opts, invalid("%s %q", p.key, v)
		}
		*p.dst = d
	}

	for _, p := range []struct {
		key string
		dst *float64
	}{{"minAmount", &opts.MinAmount}, {"maxAmount", &opts.MaxAmount}} {
		v := strings.TrimSpace(query.Get(p.key))
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return opts, invalid("%s %q", p.key, v)
		}
		*p.dst = f
	}

	opts.Search = sanitizeInput(query.Get("search"))
	return opts, nil
}

// ParseExportOptions reads format (default csv) and includeHeaders.
func ParseExportOptions(query url.Values) (export.Options, error) {
	opts := export.Options{Format: export.FormatCSV}

	if v := strings.TrimSpace(query.Get("format")); v != "" {
		f, err := export.ParseFormat(v)
		if err != nil {
			return opts, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		opts.Format = f
	}
	if v := strings.TrimSpace(query.Get("includeHeaders")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, invalid("includeHeaders %q", v)
		}
		opts.IncludeHeaders = export.Bool(b)
	}
	return opts, nil
}

// decodeJSON decodes a single JSON object from the request body into v.
// Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return invalid("body larger than %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return invalid("empty body")
		default:
			return invalid("malformed JSON: %v", err)
		}
	}
	if dec.More() {
		return invalid("body must contain a single JSON object")
	}
	return nil
}
