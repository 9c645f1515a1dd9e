package api

import (
	"encoding/json"
	"testing"
	"time"

	"queuewatch/internal/intercept"
	"queuewatch/internal/presentation"
	"queuewatch/internal/queue"
)

func TestFromRecordCarriesView(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	eta := now.Add(90 * time.Second)
	rec := queue.Record{
		ItemID:           "A",
		Ticket:           "T1",
		State:            "valid",
		ExpectedTurnTime: &eta,
		Metadata: queue.Metadata{
			AdmissionLikelihood: queue.LikelihoodLikely,
			Item:                &queue.ItemInfo{Name: "Widget", CurrentPrice: "$5"},
		},
		Raw:        json.RawMessage(`{"itemId":"A"}`),
		ObservedAt: now,
		Source:     queue.SourceTransport,
	}

	dto := FromRecord(rec, now, presentation.Options{})

	if dto.View.Countdown != "1m 30s" || dto.View.RemainingSeconds != 90 || dto.View.Urgent {
		t.Fatalf("unexpected view %+v", dto.View)
	}
	if dto.View.Ticket != "#T1" || dto.View.Name != "Widget" || dto.View.Price != "$5" {
		t.Fatalf("unexpected display fields %+v", dto.View)
	}
	if dto.Likelihood != "likely" || dto.Source != "transport" {
		t.Fatalf("unexpected dto %+v", dto)
	}
	if dto.ExpectedTurnTime != "2023-11-14T22:14:50.000Z" {
		t.Fatalf("unexpected eta %q", dto.ExpectedTurnTime)
	}
}

func TestToRecordRebuildsViewInputs(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	eta := now.Add(time.Hour + 2*time.Second)
	rec := queue.Record{
		ItemID:           "A",
		Ticket:           "T1",
		State:            "expired",
		ExpectedTurnTime: &eta,
		Metadata:         queue.Metadata{AdmissionLikelihood: queue.LikelihoodUnlikely},
	}

	data, err := json.Marshal(FromRecord(rec, now, presentation.Options{}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded RecordItem
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	later := now.Add(10 * time.Second)
	got := presentation.DeriveView(ToRecord(decoded), later)
	want := presentation.DeriveView(rec, later)
	if got != want {
		t.Fatalf("rebuilt view differs\n got: %+v\nwant: %+v", got, want)
	}
}

func TestToRecordWithoutETA(t *testing.T) {
	rec := ToRecord(RecordItem{ItemID: "B", Ticket: "T2", State: "valid", Likelihood: "bogus"})
	if rec.HasETA() {
		t.Fatal("expected no eta")
	}
	if rec.Metadata.Item != nil {
		t.Fatal("expected nil item info when name and price are empty")
	}
	if rec.Metadata.AdmissionLikelihood != queue.LikelihoodUnknown {
		t.Fatalf("unexpected likelihood %q", rec.Metadata.AdmissionLikelihood)
	}
}

func TestFromRecordsSummary(t *testing.T) {
	now := time.Now()
	resp := FromRecords([]queue.Record{{ItemID: "A"}, {ItemID: "B"}}, now, presentation.Options{})
	if resp.Summary != "2 items" || len(resp.Items) != 2 || resp.Items[0].ItemID != "A" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(ToRecords(resp)) != 2 {
		t.Fatal("expected two records back")
	}
	empty := FromRecords(nil, now, presentation.Options{})
	if empty.Items == nil || empty.Summary != "0 items" {
		t.Fatalf("empty snapshot should encode as an empty list, got %+v", empty)
	}
}

func TestFromStats(t *testing.T) {
	got := FromStats(intercept.Stats{Updates: 3, RecordsAccepted: 5, ParseFailures: 1})
	if got.Updates != 3 || got.RecordsAccepted != 5 || got.ParseFailures != 1 {
		t.Fatalf("unexpected stats %+v", got)
	}
}
