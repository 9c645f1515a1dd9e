package shape

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

const (
	KeyTicket   = "ticket"
	KeyQueue    = "queue"
	KeyState    = "state"
	KeyItemID   = "itemId"
	KeyETA      = "expectedTurnTimeUnixTimestamp"
	KeyMetadata = "customMetadata"
)

var errTrailingData = errors.New("unexpected data after top-level JSON value")

// Decode parses data into an untyped value, keeping numbers as json.Number so
// identities and timestamps survive without float rounding.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	return value, nil
}

// Candidates returns the array view of value: slices are returned as-is and
// any other value becomes a one-element slice.
func Candidates(value any) []any {
	if list, ok := value.([]any); ok {
		return list
	}
	return []any{value}
}

// LooksLikeQueuePayload reports whether at least one element of value is a
// JSON object carrying the ticket, queue, and state keys. A bare object is
// treated as a one-element array.
func LooksLikeQueuePayload(value any) bool {
	for _, entry := range Candidates(value) {
		obj, ok := entry.(map[string]any)
		if !ok || obj == nil {
			continue
		}
		if hasKeys(obj, KeyTicket, KeyQueue, KeyState) {
			return true
		}
	}
	return false
}

func hasKeys(obj map[string]any, keys ...string) bool {
	for _, key := range keys {
		if _, ok := obj[key]; !ok {
			return false
		}
	}
	return true
}

// truthy follows JSON-in-the-browser truthiness: null, false, 0 and the empty
// string are false; everything else, including empty objects, is true.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return v.String() != ""
		}
		return f != 0
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return true
	}
}
