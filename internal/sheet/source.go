// Package sheet reads clinic rows from a published spreadsheet CSV export.
//
// Each data row is wrapped in the same {"id", "fields"} envelope Airtable
// uses, so the relay and the normalizer treat both sources alike. Empty cells
// are left out of fields, matching how Airtable omits empty columns.
package sheet

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const maxBodyBytes = 16 << 20

var (
	// ErrEmptySheet is returned when the export has no header row.
	ErrEmptySheet = errors.New("sheet: export has no header row")

	// ErrMalformedExport wraps CSV syntax errors.
	ErrMalformedExport = errors.New("failed to parse sheet export")
)

// StatusError is returned for a non-success export response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sheet: upstream status %d", e.StatusCode)
}

// Source fetches and parses one CSV export URL.
type Source struct {
	url        string
	httpClient *http.Client
}

// NewSource builds a Source. A nil httpClient gets one with the given timeout.
func NewSource(exportURL string, timeout time.Duration, httpClient *http.Client) *Source {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Source{url: exportURL, httpClient: httpClient}
}

// Name identifies the source in logs and metrics.
func (s *Source) Name() string { return "sheet" }

// FetchAll downloads the export and returns one raw row per data line.
func (s *Source) FetchAll(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("sheet: build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheet: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	return Parse(io.LimitReader(resp.Body, maxBodyBytes))
}

// Parse reads CSV with a header row and returns raw rows. Quoted cells may
// contain commas. Blank lines and rows with no non-empty cell are skipped.
// Invalid UTF-8 bytes become '?'.
func Parse(r io.Reader) ([]json.RawMessage, error) {
	cr := csv.NewReader(newUTF8Sanitizer(skipBOM(r)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptySheet
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedExport, err)
	}
	for i := range header {
		header[i] = cleanCell(header[i])
	}

	rows := []json.RawMessage{}
	line := 1
	for {
		values, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
		}
		line++

		fields := make(map[string]any, len(header))
		for i, name := range header {
			if name == "" || i >= len(values) {
				continue
			}
			if v := cleanCell(values[i]); v != "" {
				fields[name] = v
			}
		}
		if len(fields) == 0 {
			continue
		}

		raw, err := json.Marshal(struct {
			ID     string         `json:"id"`
			Fields map[string]any `json:"fields"`
		}{ID: "row-" + strconv.Itoa(line), Fields: fields})
		if err != nil {
			return nil, fmt.Errorf("sheet: encode row %d: %w", line, err)
		}
		rows = append(rows, raw)
	}

	return rows, nil
}

// skipBOM drops a leading UTF-8 byte order mark, which spreadsheet exports
// sometimes prepend.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	return br
}
