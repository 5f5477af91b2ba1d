// Package airtable reads every row of one Airtable view by following the list
// endpoint's offset cursor.
//
// Pages are fetched strictly one after another: the cursor for page N+1 only
// exists once page N has been decoded. Any failed page fails the whole
// retrieval and no partial rows are returned.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/ohan/internal/config"
	"github.com/JonMunkholm/ohan/internal/metrics"
)

// maxBodyBytes caps a single page body. Airtable pages hold at most 100 rows.
const maxBodyBytes = 16 << 20

// ErrMalformedResponse reports an upstream body that is not the expected JSON.
var ErrMalformedResponse = errors.New("failed to parse Airtable response")

// StatusError is returned when Airtable answers with a non-success status and
// a JSON body. Body holds that body verbatim.
type StatusError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("airtable: upstream status %d", e.StatusCode)
}

// TransportError wraps failures that happened before a response arrived
// (DNS, connect, TLS, timeout).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "airtable: request failed: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Page is one decoded page of the list endpoint.
type Page struct {
	// Records are the upstream rows, untouched.
	Records []json.RawMessage `json:"records"`

	// Offset is the continuation cursor; empty on the last page.
	Offset string `json:"offset,omitempty"`
}

// Client fetches rows from one base/table/view.
type Client struct {
	apiURL     string
	apiKey     string
	baseID     string
	table      string
	view       string
	pageSize   int
	httpClient *http.Client
}

// NewClient builds a Client. A nil httpClient gets one with cfg.Timeout.
// TLS verification is left at the standard library defaults.
func NewClient(cfg config.AirtableConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		apiKey:     cfg.APIKey,
		baseID:     cfg.BaseID,
		table:      cfg.TableName,
		view:       cfg.ViewName,
		pageSize:   cfg.PageSize,
		httpClient: httpClient,
	}
}

// Name identifies the source in logs and metrics.
func (c *Client) Name() string { return "airtable" }

// pageURL builds the list URL for one page. The table name may contain spaces
// and is path-escaped; the cursor is passed through as an opaque value.
func (c *Client) pageURL(offset string) string {
	q := url.Values{}
	q.Set("view", c.view)
	if c.pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(c.pageSize))
	}
	if offset != "" {
		q.Set("offset", offset)
	}
	return fmt.Sprintf("%s/v0/%s/%s?%s", c.apiURL, url.PathEscape(c.baseID), url.PathEscape(c.table), q.Encode())
}

// ListPage fetches a single page starting at offset ("" for the first page).
func (c *Client) ListPage(ctx context.Context, offset string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(offset), nil)
	if err != nil {
		return Page{}, fmt.Errorf("airtable: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, &TransportError{Err: scrubURL(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Page{}, &TransportError{Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if !json.Valid(body) {
			return Page{}, fmt.Errorf("upstream status %d: %w", resp.StatusCode, ErrMalformedResponse)
		}
		return Page{}, &StatusError{StatusCode: resp.StatusCode, Body: json.RawMessage(bytes.Clone(body))}
	}

	return decodePage(body)
}

func decodePage(body []byte) (Page, error) {
	var raw struct {
		Records *[]json.RawMessage `json:"records"`
		Offset  string             `json:"offset"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw.Records == nil {
		return Page{}, fmt.Errorf("%w: missing records", ErrMalformedResponse)
	}
	return Page{Records: *raw.Records, Offset: raw.Offset}, nil
}

// Pages yields pages lazily in upstream order. Iteration stops after the last
// page or after the first error, which is yielded with a zero Page.
func (c *Client) Pages(ctx context.Context) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		offset := ""
		for {
			page, err := c.ListPage(ctx, offset)
			if err != nil {
				yield(Page{}, err)
				return
			}
			metrics.UpstreamPages.WithLabelValues(c.Name()).Inc()
			if !yield(page, nil) {
				return
			}
			if page.Offset == "" {
				return
			}
			offset = page.Offset
		}
	}
}

// ListAll concatenates every page. On failure it returns nil rows.
func (c *Client) ListAll(ctx context.Context) ([]json.RawMessage, error) {
	var all []json.RawMessage
	for page, err := range c.Pages(ctx) {
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
	}
	if all == nil {
		all = []json.RawMessage{}
	}
	return all, nil
}

// FetchAll satisfies relay.Source.
func (c *Client) FetchAll(ctx context.Context) ([]json.RawMessage, error) {
	return c.ListAll(ctx)
}

// scrubURL drops the request URL from *url.Error so error text carries the
// operation and cause only.
func scrubURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", strings.ToLower(uerr.Op), uerr.Err)
	}
	return err
}
