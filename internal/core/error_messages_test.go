package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/ohan/internal/airtable"
	"github.com/JonMunkholm/ohan/internal/sheet"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "malformed airtable body",
			err:      fmt.Errorf("load directory: %w", airtable.ErrMalformedResponse),
			wantCode: "SRC001",
		},
		{
			name:     "non-JSON error page is a parse failure, not a status",
			err:      fmt.Errorf("upstream status 502: %w", airtable.ErrMalformedResponse),
			wantCode: "SRC001",
		},
		{
			name:     "malformed sheet",
			err:      fmt.Errorf("%w: bare quote", sheet.ErrMalformedExport),
			wantCode: "SRC002",
		},
		{
			name:     "empty sheet",
			err:      sheet.ErrEmptySheet,
			wantCode: "SRC002",
		},
		{
			name:     "unauthorized",
			err:      &airtable.StatusError{StatusCode: 401},
			wantCode: "SRC003",
		},
		{
			name:     "forbidden",
			err:      &airtable.StatusError{StatusCode: 403},
			wantCode: "SRC003",
		},
		{
			name:     "table not found",
			err:      fmt.Errorf("load directory: %w", &airtable.StatusError{StatusCode: 404}),
			wantCode: "SRC004",
		},
		{
			name:     "throttled",
			err:      &airtable.StatusError{StatusCode: 429},
			wantCode: "SRC005",
		},
		{
			name:     "sheet server error",
			err:      &sheet.StatusError{StatusCode: 500},
			wantCode: "SRC006",
		},
		{
			name:     "client timeout",
			err:      &airtable.TransportError{Err: errors.New("get: context deadline exceeded (Client.Timeout exceeded while awaiting headers)")},
			wantCode: "RLY001",
		},
		{
			name:     "fetch slots exhausted",
			err:      fmt.Errorf("load directory: %w", errors.New("too many concurrent upstream fetches")),
			wantCode: "RLY006",
		},
		{
			name:     "cancelled",
			err:      errors.New("get: context canceled"),
			wantCode: "RLY002",
		},
		{
			name:     "dns failure",
			err:      &airtable.TransportError{Err: errors.New("get: dial tcp: lookup api.airtable.com: no such host")},
			wantCode: "RLY003",
		},
		{
			name:     "tls failure",
			err:      &airtable.TransportError{Err: errors.New("get: tls: failed to verify certificate")},
			wantCode: "RLY004",
		},
		{
			name:     "other transport failure",
			err:      &airtable.TransportError{Err: errors.New("get: EOF")},
			wantCode: "RLY005",
		},
		{
			name:     "invalid radius",
			err:      errors.New(`invalid radius "-1"`),
			wantCode: "REQ002",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("FAILED TO PARSE AIRTABLE RESPONSE"),
			wantCode: "SRC001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(&airtable.StatusError{StatusCode: 404})

	expected := "The clinic table could not be found (Code: SRC004). Please let the site owner know"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "known error is user facing", err: airtable.ErrMalformedResponse, want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorPatternsHaveCodes(t *testing.T) {
	for _, ep := range errorPatterns {
		if ep.msg.Code == "" || ep.msg.Message == "" || ep.msg.Action == "" {
			t.Errorf("pattern %q has an incomplete message: %+v", ep.pattern, ep.msg)
		}
	}
}
