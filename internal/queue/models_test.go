package queue_test

import (
	"testing"

	"queuewatch/internal/queue"
	"queuewatch/internal/shape"
)

func TestFromCandidateNormalizesFields(t *testing.T) {
	value := decode(t, `{
		"itemId": 12345678901234567,
		"ticket": "A-17",
		"queue": {"id": "q1"},
		"state": "weird",
		"expectedTurnTimeUnixTimestamp": "1700000005000",
		"customMetadata": {
			"admissionLikelihood": "maybe",
			"item": {"name": "Handheld", "currentPrice": 399.99}
		}
	}`)
	cand, err := shape.Validate(value)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	rec := queue.FromCandidate(cand)

	if rec.ItemID != "12345678901234567" {
		t.Fatalf("item id = %q", rec.ItemID)
	}
	if rec.Ticket != "A-17" {
		t.Fatalf("ticket = %q", rec.Ticket)
	}
	if rec.TicketState() != queue.TicketOther {
		t.Fatalf("state = %q", rec.TicketState())
	}
	if rec.Metadata.AdmissionLikelihood != queue.LikelihoodUnknown {
		t.Fatalf("likelihood = %q", rec.Metadata.AdmissionLikelihood)
	}
	if rec.Metadata.Item == nil || rec.Metadata.Item.Name != "Handheld" || rec.Metadata.Item.CurrentPrice != "399.99" {
		t.Fatalf("item = %+v", rec.Metadata.Item)
	}
	if !rec.HasETA() || rec.ExpectedTurnTime.UnixMilli() != 1700000005000 {
		t.Fatalf("eta = %v", rec.ExpectedTurnTime)
	}
	if string(rec.QueueMarker) != `{"id":"q1"}` {
		t.Fatalf("queue marker = %s", rec.QueueMarker)
	}
	if len(rec.Raw) == 0 {
		t.Fatal("expected raw payload")
	}
}

func TestFromCandidateTreatsZeroETAAsUnknown(t *testing.T) {
	for _, raw := range []string{
		`{"itemId":"a","ticket":1,"queue":1,"state":"valid","expectedTurnTimeUnixTimestamp":0}`,
		`{"itemId":"a","ticket":1,"queue":1,"state":"valid","expectedTurnTimeUnixTimestamp":null}`,
		`{"itemId":"a","ticket":1,"queue":1,"state":"valid","expectedTurnTimeUnixTimestamp":"soon"}`,
		`{"itemId":"a","ticket":1,"queue":1,"state":"valid"}`,
	} {
		cand, err := shape.Validate(decode(t, raw))
		if err != nil {
			t.Fatalf("validate %s: %v", raw, err)
		}
		if rec := queue.FromCandidate(cand); rec.HasETA() {
			t.Fatalf("expected no ETA for %s, got %v", raw, rec.ExpectedTurnTime)
		}
	}
}

func TestParseLikelihood(t *testing.T) {
	tests := map[string]queue.Likelihood{
		"likely":   queue.LikelihoodLikely,
		"unlikely": queue.LikelihoodUnlikely,
		"unknown":  queue.LikelihoodUnknown,
		"":         queue.LikelihoodUnknown,
		"LIKELY":   queue.LikelihoodUnknown,
	}
	for in, want := range tests {
		if got := queue.ParseLikelihood(in); got != want {
			t.Errorf("ParseLikelihood(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFromCandidateNullTicket(t *testing.T) {
	cand, err := shape.Validate(decode(t, `{"itemId":"a","ticket":null,"queue":1,"state":"valid"}`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if rec := queue.FromCandidate(cand); rec.Ticket != "null" {
		t.Fatalf("ticket = %q, want null", rec.Ticket)
	}
}

func TestIngestNumericAndStringItemIDShareIdentity(t *testing.T) {
	store := queue.NewStore()
	store.Ingest([]any{decode(t, `{"itemId":1,"ticket":"T1","queue":1,"state":"valid"}`)})
	store.Ingest([]any{decode(t, `{"itemId":"1","ticket":"T2","queue":1,"state":"valid"}`)})

	if store.Len() != 1 {
		t.Fatalf("expected one record, got %d", store.Len())
	}
	rec, ok := store.Get("1")
	if !ok || rec.Ticket != "T2" {
		t.Fatalf("expected the later ticket to win, got %+v ok=%v", rec, ok)
	}
}
