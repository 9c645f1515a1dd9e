package main

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"queuewatch/internal/api"
	"queuewatch/internal/presentation"
	"queuewatch/internal/queue"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestDaemonLines(t *testing.T) {
	lines := daemonLines(api.StatusResponse{
		Running:      true,
		PID:          42,
		Upstream:     "https://shop.example",
		AttachListen: "127.0.0.1:7489",
		Interception: api.InterceptionStats{Updates: 3, RecordsAccepted: 4, ParseFailures: 1},
	}, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "running (pid 42)") {
		t.Fatalf("unexpected daemon line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "https://shop.example via 127.0.0.1:7489") {
		t.Fatalf("unexpected upstream line: %q", lines[1])
	}
	if !strings.Contains(lines[2], "[WARN]") || !strings.Contains(lines[2], "3 updates") {
		t.Fatalf("unexpected interception line: %q", lines[2])
	}

	lines = daemonLines(api.StatusResponse{}, false)
	if !strings.Contains(lines[1], "not configured") {
		t.Fatalf("expected missing upstream warning, got %q", lines[1])
	}
}

func TestDashboardRowsUseLabels(t *testing.T) {
	now := time.Now()
	eta := now.Add(90 * time.Second)
	rec := queue.Record{
		ItemID:           "A",
		Ticket:           "5",
		State:            "valid",
		ExpectedTurnTime: &eta,
		Metadata:         queue.Metadata{AdmissionLikelihood: queue.LikelihoodLikely},
	}
	rows := dashboardRows([]presentation.ViewState{presentation.DeriveView(rec, now)}, false)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	want := []string{"Item A", "?", "#5", "Valid", "Likely", "1m 30s"}
	for i, cell := range want {
		if rows[0][i] != cell {
			t.Fatalf("cell %d = %q, want %q", i, rows[0][i], cell)
		}
	}
}

func TestRenderDashboardEmpty(t *testing.T) {
	if got := renderDashboard(nil, false); got != emptyDashboard {
		t.Fatalf("renderDashboard(nil) = %q", got)
	}
}

func TestParseOutputFormat(t *testing.T) {
	cases := map[string]outputFormat{"": outputTable, "TABLE": outputTable, "json": outputJSON, "yml": outputYAML}
	for input, want := range cases {
		got, err := parseOutputFormat(input)
		if err != nil || got != want {
			t.Fatalf("parseOutputFormat(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := parseOutputFormat("csv"); err == nil {
		t.Fatal("expected error for csv")
	}
}
