package capture_test

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"queuewatch/internal/capture"
	"queuewatch/internal/intercept"
	"queuewatch/internal/queue"
	"queuewatch/internal/testsupport"
)

const sampleHAR = `{
  // exported from devtools, trimmed by hand
  "log": {
    "version": "1.2",
    "creator": {"name": "devtools", "version": "1"},
    "entries": [
      {
        "request": {"method": "GET", "url": "https://shop.example/q-api/checkTicket", "headers": [{"name": ":authority", "value": "shop.example"}]},
        "response": {
          "status": 200,
          "statusText": "OK",
          "headers": [{"name": "content-type", "value": "application/json"}, {"name": "content-encoding", "value": "gzip"}],
          "content": {"size": 0, "mimeType": "application/json", "text": %q},
        },
      },
      {
        "request": {"method": "GET", "url": "https://shop.example/assets/app.css", "headers": []},
        "response": {"status": 200, "statusText": "OK", "headers": [], "content": {"size": 3, "mimeType": "text/css", "text": "a{}"}},
      },
      {
        "request": {"method": "POST", "url": "https://shop.example/api/cart", "headers": [], "postData": {"mimeType": "application/json", "text": "{}"}},
        "response": {"status": 200, "statusText": "OK", "headers": [], "content": {"size": 0, "mimeType": "application/json", "text": %q, "encoding": "base64"}},
      },
    ],
  },
}`

func buildHAR(t *testing.T, eta time.Time) []byte {
	t.Helper()
	first := testsupport.TicketsJSON(t, testsupport.Ticket{ItemID: "A", Ticket: "7", Likelihood: "likely", ETA: eta})
	second := testsupport.TicketsJSON(t, testsupport.Ticket{ItemID: "B", Ticket: "9"})
	doc := strings.Replace(sampleHAR, "%q", quote(string(first)), 1)
	doc = strings.Replace(doc, "%q", quote(base64.StdEncoding.EncodeToString(second)), 1)
	return []byte(doc)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func TestParseToleratesJSONC(t *testing.T) {
	archive, err := capture.Parse(buildHAR(t, time.Now()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(archive.Log.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(archive.Log.Entries))
	}
}

func TestParseRejectsNonHAR(t *testing.T) {
	if _, err := capture.Parse([]byte(`{"foo": 1}`)); err == nil {
		t.Fatal("expected error for document without log.entries")
	}
	if _, err := capture.Parse([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestContentBodyBase64(t *testing.T) {
	c := capture.Content{Text: base64.StdEncoding.EncodeToString([]byte("hi")), Encoding: "base64"}
	body, err := c.Body()
	if err != nil || string(body) != "hi" {
		t.Fatalf("Body() = %q, %v", body, err)
	}
	if _, err := (capture.Content{Text: "!!", Encoding: "base64"}).Body(); err == nil {
		t.Fatal("expected base64 error")
	}
}

func TestReplayIngestsRecordedQueueResponses(t *testing.T) {
	eta := time.Now().Add(5 * time.Minute)
	path := filepath.Join(t.TempDir(), "session.har")
	testsupport.WriteFile(t, path, buildHAR(t, eta))

	archive, err := capture.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	store := queue.NewStore()
	result, err := capture.Replay(context.Background(), archive, store, intercept.Options{DecodeContentEncoding: true})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if result.Entries != 3 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Stats.Updates != 2 || result.Stats.Skipped != 1 {
		t.Fatalf("unexpected stats: %+v", result.Stats)
	}

	snap := store.Snapshot()
	if len(snap) != 2 || snap[0].ItemID != "A" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap[0].Source != queue.SourceReplay {
		t.Fatalf("source = %q, want replay", snap[0].Source)
	}
	if snap[0].ExpectedTurnTime.UnixMilli() != eta.UnixMilli() {
		t.Fatalf("eta = %v, want %v", snap[0].ExpectedTurnTime, eta)
	}
}

func TestReplayHonoursCancellation(t *testing.T) {
	archive, err := capture.Parse(buildHAR(t, time.Now()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := capture.Replay(ctx, archive, queue.NewStore(), intercept.Options{}); err == nil {
		t.Fatal("expected cancelled replay to fail")
	}
}
