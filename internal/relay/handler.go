package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/ohan/internal/airtable"
	"github.com/JonMunkholm/ohan/internal/sheet"
)

// Client-facing error text.
const (
	msgParseFailed = "Failed to parse Airtable response"
	msgSheetParse  = "Failed to parse clinic sheet"
	msgFetchFailed = "Failed to fetch clinic data"
	msgBusy        = "Clinic data is busy, try again shortly"
)

// Response is the success body of GET /api/clinics.
type Response struct {
	Records []json.RawMessage `json:"records"`
}

// ServeHTTP answers GET /api/clinics. The body is written only after the
// last upstream page arrived; nothing is streamed.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	records, err := r.Records(req.Context())
	if err != nil {
		if req.Context().Err() != nil {
			// Client went away or the timeout middleware answers for us.
			return
		}
		r.logger.Error("relay request failed",
			"request_id", middleware.GetReqID(req.Context()),
			"reason", FailureReason(err),
		)
		WriteError(w, err)
		return
	}

	if records == nil {
		records = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, Response{Records: records})
}

// WriteError maps a retrieval error onto the relay's response contract.
// An upstream JSON error is passed through with its status and a malformed
// upstream body is a 500 with a fixed message. Anything else is a 500 with a
// generic message.
func WriteError(w http.ResponseWriter, err error) {
	var atStatus *airtable.StatusError
	var shStatus *sheet.StatusError

	switch {
	case errors.As(err, &atStatus):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(atStatus.StatusCode)
		_, _ = w.Write(atStatus.Body)
	case errors.As(err, &shStatus):
		writeJSON(w, shStatus.StatusCode, errorBody{
			Error: fmt.Sprintf("Clinic sheet returned status %d", shStatus.StatusCode),
		})
	case errors.Is(err, ErrTooManyFetches):
		w.Header().Set("Retry-After", "5")
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: msgBusy})
	case errors.Is(err, airtable.ErrMalformedResponse):
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgParseFailed})
	case errors.Is(err, sheet.ErrMalformedExport), errors.Is(err, sheet.ErrEmptySheet):
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgSheetParse})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgFetchFailed})
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
