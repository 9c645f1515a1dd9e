package testsupport

import (
	"encoding/json"
	"testing"
	"time"

	"queuewatch/internal/queue"
	"queuewatch/internal/shape"
)

// Ticket describes one queue ticket for building fixtures.
type Ticket struct {
	ItemID     string
	Ticket     string
	State      string
	Likelihood string
	Name       string
	Price      string
	ETA        time.Time
}

// Map renders the ticket in the wire shape observed on queue endpoints.
func (tk Ticket) Map() map[string]any {
	state := tk.State
	if state == "" {
		state = "valid"
	}
	entry := map[string]any{
		"itemId": tk.ItemID,
		"ticket": tk.Ticket,
		"queue":  map[string]any{"id": "q-" + tk.ItemID},
		"state":  state,
	}
	if !tk.ETA.IsZero() {
		entry["expectedTurnTimeUnixTimestamp"] = tk.ETA.UnixMilli()
	}
	meta := map[string]any{}
	if tk.Likelihood != "" {
		meta["admissionLikelihood"] = tk.Likelihood
	}
	if tk.Name != "" || tk.Price != "" {
		meta["item"] = map[string]any{"name": tk.Name, "currentPrice": tk.Price}
	}
	if len(meta) > 0 {
		entry["customMetadata"] = meta
	}
	return entry
}

// TicketsJSON encodes tickets as a top-level JSON array.
func TicketsJSON(t testing.TB, tickets ...Ticket) []byte {
	t.Helper()

	entries := make([]map[string]any, 0, len(tickets))
	for _, tk := range tickets {
		entries = append(entries, tk.Map())
	}
	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("marshal tickets: %v", err)
	}
	return data
}

// MustIngest feeds tickets into store and fails the test when nothing is
// accepted.
func MustIngest(t testing.TB, store *queue.Store, tickets ...Ticket) queue.IngestResult {
	t.Helper()

	value, err := shape.Decode(TicketsJSON(t, tickets...))
	if err != nil {
		t.Fatalf("decode tickets: %v", err)
	}
	res := store.Ingest(shape.Candidates(value))
	if !res.DidUpdate {
		t.Fatalf("expected tickets to be accepted: %+v", res)
	}
	return res
}
