package airtable

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is the envelope Airtable wraps around each row.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      map[string]any `json:"fields"`
}

// DecodeRecord parses one raw row. Numbers stay json.Number so zip codes keep
// their exact digits.
func DecodeRecord(raw json.RawMessage) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	if rec.Fields == nil {
		rec.Fields = map[string]any{}
	}
	return rec, nil
}
