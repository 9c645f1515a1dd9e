package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"queuewatch/internal/api"
	"queuewatch/internal/intercept"
	"queuewatch/internal/logging"
	"queuewatch/internal/queue"
	"queuewatch/internal/testsupport"
)

func newTestRouter(t *testing.T, opts ...testsupport.ConfigOption) (http.Handler, *Daemon) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := queue.NewStore()
	hub := logging.NewStreamHub(16)
	d, err := New(cfg, Deps{
		Store:       store,
		Interceptor: intercept.New(store, intercept.Options{}),
		Stream:      hub,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return newAPIRouter(d, logging.NewNop()), d
}

func serve(handler http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHandleRecords(t *testing.T) {
	router, d := newTestRouter(t)
	testsupport.MustIngest(t, d.store, testsupport.Ticket{
		ItemID: "A", Ticket: "7", Name: "Widget", Price: "$5", ETA: time.Now().Add(30 * time.Second),
	})

	w := serve(router, http.MethodGet, "/api/records", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.RecordsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Summary != "1 item" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	view := resp.Items[0].View
	if view.Name != "Widget" || view.Ticket != "#7" || !view.Urgent {
		t.Fatalf("unexpected view: %+v", view)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected a request id header")
	}
}

func TestHandleRecordByID(t *testing.T) {
	router, d := newTestRouter(t)
	testsupport.MustIngest(t, d.store, testsupport.Ticket{ItemID: "A", Ticket: "7"})

	w := serve(router, http.MethodGet, "/api/records/A", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var item api.RecordItem
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.ItemID != "A" || item.View.Countdown != "--:--" {
		t.Fatalf("unexpected item: %+v", item)
	}

	w = serve(router, http.MethodGet, "/api/records/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	router, _ := newTestRouter(t)
	w := serve(router, http.MethodGet, "/api/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var status api.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Running {
		t.Fatal("daemon was never started")
	}
	if status.PID == 0 || status.LockFilePath == "" {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestMethodNotAllowedIsJSON(t *testing.T) {
	router, _ := newTestRouter(t)
	w := serve(router, http.MethodPost, "/api/records", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
	var resp api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Error == "" {
		t.Fatalf("expected json error body, got %q", w.Body.String())
	}
}

func TestAuthRequiredWhenTokenConfigured(t *testing.T) {
	router, _ := newTestRouter(t, testsupport.WithAPIToken("s3cret"))

	if w := serve(router, http.MethodGet, "/api/status", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	bad := http.Header{"Authorization": {"Bearer nope"}}
	if w := serve(router, http.MethodGet, "/api/status", bad); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	good := http.Header{"Authorization": {"Bearer s3cret"}}
	if w := serve(router, http.MethodGet, "/api/status", good); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	router, _ := newTestRouter(t)
	w := serve(router, http.MethodGet, "/api/status", http.Header{requestIDHeader: {"abc-123"}})
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}
}

func TestHandleLogsTail(t *testing.T) {
	router, d := newTestRouter(t)
	hub := d.LogStream()
	base, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{filepath.Join(t.TempDir(), "test.log")},
		Stream:      hub,
	})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	logger := logging.NewComponentLogger(base, "watcher")
	logger.Info("first", logging.String(logging.FieldItemID, "A"))
	logger.Info("second", logging.String(logging.FieldItemID, "B"))

	w := serve(router, http.MethodGet, "/api/logs?tail=1&item=B", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp api.LogStreamResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].Message != "second" {
		t.Fatalf("unexpected events: %+v", resp.Events)
	}
	if resp.Next == 0 {
		t.Fatal("expected a cursor")
	}
}

func TestTestNotificationWithoutTopic(t *testing.T) {
	router, d := newTestRouter(t)
	sent, message, err := d.TestNotification(context.Background())
	if err != nil || sent || message != "ntfy topic not configured" {
		t.Fatalf("unexpected result: %v %q %v", sent, message, err)
	}

	w := serve(router, http.MethodPost, "/api/notifications/test", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp api.TestNotificationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Sent {
		t.Fatal("nothing should have been sent")
	}
}
