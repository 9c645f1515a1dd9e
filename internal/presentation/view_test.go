package presentation_test

import (
	"strings"
	"testing"
	"time"

	"queuewatch/internal/presentation"
	"queuewatch/internal/queue"
	"queuewatch/internal/shape"
)

var base = time.UnixMilli(1_700_000_000_000)

func recordWithETA(offset time.Duration) queue.Record {
	eta := base.Add(offset)
	return queue.Record{
		ItemID:           "x1",
		Ticket:           "7",
		State:            "valid",
		ExpectedTurnTime: &eta,
		Metadata:         queue.Metadata{AdmissionLikelihood: queue.LikelihoodLikely},
	}
}

func TestDeriveViewTurnReached(t *testing.T) {
	rec := recordWithETA(5 * time.Second)
	view := presentation.DeriveView(rec, base.Add(6*time.Second))
	if view.Countdown != presentation.CountdownTurnReached {
		t.Fatalf("countdown = %q", view.Countdown)
	}
	if !view.Urgent || view.Phase != presentation.PhaseTurnReached {
		t.Fatalf("expected urgent turn-reached view, got %+v", view)
	}
}

func TestCountdownSecondsAndHours(t *testing.T) {
	rec := recordWithETA(45 * time.Second)
	view := presentation.DeriveView(rec, base)
	if view.Countdown != "45s" || !view.Urgent {
		t.Fatalf("45s view = %q urgent=%v", view.Countdown, view.Urgent)
	}

	rec = recordWithETA(3_700_000 * time.Millisecond)
	view = presentation.DeriveView(rec, base)
	if view.Countdown != "1h 1m 40s" || view.Urgent {
		t.Fatalf("3700s view = %q urgent=%v", view.Countdown, view.Urgent)
	}
}

func TestCountdownBoundaries(t *testing.T) {
	tests := []struct {
		remaining time.Duration
		want      string
		phase     presentation.Phase
	}{
		{-time.Hour, presentation.CountdownTurnReached, presentation.PhaseTurnReached},
		{0, presentation.CountdownTurnReached, presentation.PhaseTurnReached},
		{500 * time.Millisecond, "0s", presentation.PhaseImminent},
		{time.Second, "1s", presentation.PhaseImminent},
		{60 * time.Second, "60s", presentation.PhaseImminent},
		{60*time.Second + time.Millisecond, "1m 0s", presentation.PhaseWaiting},
		{61 * time.Second, "1m 1s", presentation.PhaseWaiting},
		{59*time.Minute + 59*time.Second, "59m 59s", presentation.PhaseWaiting},
		{time.Hour, "60m 0s", presentation.PhaseWaiting},
		{time.Hour + time.Second, "1h 0m 1s", presentation.PhaseWaiting},
		{26*time.Hour + 3*time.Minute + 4*time.Second, "26h 3m 4s", presentation.PhaseWaiting},
	}
	for _, tt := range tests {
		got, phase := presentation.Countdown(tt.remaining)
		if got != tt.want || phase != tt.phase {
			t.Errorf("Countdown(%v) = %q/%s, want %q/%s", tt.remaining, got, phase, tt.want, tt.phase)
		}
	}
}

func TestDeriveViewWithoutETA(t *testing.T) {
	rec := queue.Record{ItemID: "42", Ticket: "3", State: "valid"}
	view := presentation.DeriveView(rec, base)
	if view.Countdown != presentation.CountdownUnknown || view.Urgent || view.HasETA {
		t.Fatalf("unexpected view without ETA: %+v", view)
	}
	if view.Name != "Item 42" {
		t.Fatalf("name = %q", view.Name)
	}
	if view.Price != "?" {
		t.Fatalf("price = %q", view.Price)
	}
	if view.Ticket != "#3" {
		t.Fatalf("ticket = %q", view.Ticket)
	}
	if view.Likelihood != queue.LikelihoodUnknown {
		t.Fatalf("likelihood = %q", view.Likelihood)
	}
}

func TestDeriveViewIsPure(t *testing.T) {
	rec := recordWithETA(90 * time.Minute)
	first := presentation.DeriveView(rec, base)
	second := presentation.DeriveView(rec, base)
	if first != second {
		t.Fatalf("views differ: %+v vs %+v", first, second)
	}
}

func TestDeriveViewMonotonic(t *testing.T) {
	rec := recordWithETA(2 * time.Hour)
	prev := presentation.DeriveView(rec, base).Remaining
	reached := false
	for step := time.Duration(0); step <= 3*time.Hour; step += 7 * time.Minute {
		view := presentation.DeriveView(rec, base.Add(step))
		if view.Remaining > prev {
			t.Fatalf("remaining increased at %v: %v > %v", step, view.Remaining, prev)
		}
		prev = view.Remaining
		if view.Phase == presentation.PhaseTurnReached {
			reached = true
		} else if reached {
			t.Fatalf("left turn-reached phase at %v", step)
		}
	}
	if !reached {
		t.Fatal("expected turn to be reached")
	}
}

func TestDeriveViewTruncatesLongNames(t *testing.T) {
	rec := recordWithETA(time.Hour)
	rec.Metadata.Item = &queue.ItemInfo{Name: strings.Repeat("é", 60), CurrentPrice: "$10"}
	view := presentation.DeriveView(rec, base)
	if got := []rune(view.Name); len(got) != 51 || got[50] != '…' {
		t.Fatalf("unexpected truncated name %q", view.Name)
	}
	if view.Price != "$10" {
		t.Fatalf("price = %q", view.Price)
	}

	view = presentation.DeriveViewWith(rec, base, presentation.Options{NameMaxRunes: 5})
	if view.Name != "ééééé…" {
		t.Fatalf("name = %q", view.Name)
	}
}

func TestSummaryAndLabel(t *testing.T) {
	if presentation.Summary(1) != "1 item" || presentation.Summary(0) != "0 items" || presentation.Summary(3) != "3 items" {
		t.Fatal("unexpected summary text")
	}
	if got := presentation.Label("turn_reached"); got != "Turn Reached" {
		t.Fatalf("Label = %q", got)
	}
	if got := presentation.Label("likely"); got != "Likely" {
		t.Fatalf("Label = %q", got)
	}
}

func TestDeriveAllKeepsOrder(t *testing.T) {
	a := recordWithETA(time.Minute)
	a.ItemID = "a"
	b := queue.Record{ItemID: "b"}
	views := presentation.DeriveAll([]queue.Record{a, b}, base, presentation.Options{})
	if len(views) != 2 || views[0].ItemID != "a" || views[1].ItemID != "b" {
		t.Fatalf("unexpected views %+v", views)
	}
}

func TestDeriveViewNullTicket(t *testing.T) {
	value, err := shape.Decode([]byte(`{"itemId":"x1","ticket":null,"queue":1,"state":"valid"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cand, err := shape.Validate(value)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	rec := queue.FromCandidate(cand)
	if view := presentation.DeriveView(rec, base); view.Ticket != "#null" {
		t.Fatalf("ticket = %q, want #null", view.Ticket)
	}
}
