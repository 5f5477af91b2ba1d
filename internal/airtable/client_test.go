package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ohan/internal/config"
)

const testKey = "patTESTKEY.secret"

// pagedServer serves pages[i] when offset is "cursor-i" (or no offset for i=0).
// Every page but the last carries the next cursor.
func pagedServer(t *testing.T, pages [][]string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if got := r.Header.Get("Authorization"); got != "Bearer "+testKey {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"type":"AUTHENTICATION_REQUIRED"}}`)
			return
		}

		idx := 0
		if off := r.URL.Query().Get("offset"); off != "" {
			if _, err := fmt.Sscanf(off, "cursor-%d", &idx); err != nil {
				w.WriteHeader(http.StatusUnprocessableEntity)
				fmt.Fprint(w, `{"error":"LIST_RECORDS_ITERATOR_NOT_AVAILABLE"}`)
				return
			}
		}

		resp := map[string]any{}
		records := make([]map[string]any, 0, len(pages[idx]))
		for _, id := range pages[idx] {
			records = append(records, map[string]any{
				"id":     id,
				"fields": map[string]any{"Clinic Name": "Clinic " + id},
			})
		}
		resp["records"] = records
		if idx < len(pages)-1 {
			resp["offset"] = fmt.Sprintf("cursor-%d", idx+1)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(config.AirtableConfig{
		APIURL:    srv.URL,
		APIKey:    testKey,
		BaseID:    "appBASE",
		TableName: "Dental Clinics",
		ViewName:  "Grid view",
		Timeout:   2 * time.Second,
	}, srv.Client())
}

func recordIDs(t *testing.T, raws []json.RawMessage) []string {
	t.Helper()
	ids := make([]string, 0, len(raws))
	for _, raw := range raws {
		rec, err := DecodeRecord(raw)
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}
	return ids
}

func TestListAll_ConcatenatesPagesInOrder(t *testing.T) {
	var hits atomic.Int32
	pages := [][]string{{"r1", "r2"}, {"r3"}, {"r4", "r5", "r6"}}
	srv := pagedServer(t, pages, &hits)
	defer srv.Close()

	records, err := newTestClient(srv).ListAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2", "r3", "r4", "r5", "r6"}, recordIDs(t, records))
	assert.Equal(t, int32(3), hits.Load(), "one request per page")
}

func TestListAll_SinglePage(t *testing.T) {
	var hits atomic.Int32
	srv := pagedServer(t, [][]string{{"only"}}, &hits)
	defer srv.Close()

	records, err := newTestClient(srv).ListAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, recordIDs(t, records))
	assert.Equal(t, int32(1), hits.Load())
}

func TestListAll_EmptyTable(t *testing.T) {
	var hits atomic.Int32
	srv := pagedServer(t, [][]string{{}}, &hits)
	defer srv.Close()

	records, err := newTestClient(srv).ListAll(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestListAll_FailingPageReturnsNoRecords(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch n {
		case 1:
			fmt.Fprint(w, `{"records":[{"id":"a","fields":{}}],"offset":"next"}`)
		default:
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"errors":[{"error":"RATE_LIMIT_REACHED"}]}`)
		}
	}))
	defer srv.Close()

	records, err := newTestClient(srv).ListAll(context.Background())

	require.Error(t, err)
	assert.Nil(t, records)
	assert.Equal(t, int32(2), hits.Load(), "no retry after a failed page")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.JSONEq(t, `{"errors":[{"error":"RATE_LIMIT_REACHED"}]}`, string(statusErr.Body))
}

func TestListPage_SendsBearerAndView(t *testing.T) {
	var gotPath, gotView, gotAuth, gotPageSize string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotView = r.URL.Query().Get("view")
		gotPageSize = r.URL.Query().Get("pageSize")
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"records":[]}`)
	}))
	defer srv.Close()

	c := NewClient(config.AirtableConfig{
		APIURL:    srv.URL + "/",
		APIKey:    testKey,
		BaseID:    "appBASE",
		TableName: "Dental Clinics",
		ViewName:  "Grid view",
		PageSize:  50,
		Timeout:   time.Second,
	}, srv.Client())

	page, err := c.ListPage(context.Background(), "")

	require.NoError(t, err)
	assert.Empty(t, page.Offset)
	assert.Equal(t, "/v0/appBASE/Dental%20Clinics", gotPath)
	assert.Equal(t, "Grid view", gotView)
	assert.Equal(t, "50", gotPageSize)
	assert.Equal(t, "Bearer "+testKey, gotAuth)
}

func TestListPage_UnauthorizedKeepsUpstreamBody(t *testing.T) {
	var hits atomic.Int32
	srv := pagedServer(t, [][]string{{"x"}}, &hits)
	defer srv.Close()

	c := newTestClient(srv)
	c.apiKey = "wrong"

	_, err := c.ListPage(context.Background(), "")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, string(statusErr.Body), "AUTHENTICATION_REQUIRED")
	assert.NotContains(t, err.Error(), "wrong")
}

func TestListPage_MalformedBodies(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"html on success", http.StatusOK, "<html>gateway</html>"},
		{"html on error", http.StatusBadGateway, "<html>bad gateway</html>"},
		{"success without records", http.StatusOK, `{"offset":"abc"}`},
		{"truncated json", http.StatusOK, `{"records":[{"id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestClient(srv).ListPage(context.Background(), "")

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestListPage_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(srv)
	srv.Close()

	_, err := c.ListPage(context.Background(), "")

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.NotContains(t, err.Error(), testKey)
	assert.NotContains(t, err.Error(), "appBASE", "request URL is scrubbed from the message")
}

func TestListPage_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewClient(config.AirtableConfig{APIURL: srv.URL, APIKey: testKey}, &http.Client{Timeout: 50 * time.Millisecond})

	_, err := c.ListPage(context.Background(), "")

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestPages_StopsWhenConsumerBreaks(t *testing.T) {
	var hits atomic.Int32
	srv := pagedServer(t, [][]string{{"a"}, {"b"}, {"c"}}, &hits)
	defer srv.Close()

	var seen int
	for page, err := range newTestClient(srv).Pages(context.Background()) {
		require.NoError(t, err)
		seen += len(page.Records)
		break
	}

	assert.Equal(t, 1, seen)
	assert.Equal(t, int32(1), hits.Load(), "pages are fetched lazily")
}

func TestPages_CancelledContext(t *testing.T) {
	var hits atomic.Int32
	srv := pagedServer(t, [][]string{{"a"}, {"b"}}, &hits)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv).ListAll(ctx)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDecodeRecord_KeepsNumbersExact(t *testing.T) {
	rec, err := DecodeRecord(json.RawMessage(`{"id":"rec1","fields":{"Zip Code":78701,"Name":"A"}}`))

	require.NoError(t, err)
	assert.Equal(t, "rec1", rec.ID)
	assert.Equal(t, json.Number("78701"), rec.Fields["Zip Code"])
}

func TestDecodeRecord_MissingFields(t *testing.T) {
	rec, err := DecodeRecord(json.RawMessage(`{"id":"rec2"}`))

	require.NoError(t, err)
	assert.NotNil(t, rec.Fields)

	_, err = DecodeRecord(json.RawMessage(`not json`))
	assert.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "decode record"))
}
