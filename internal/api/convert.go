package api

import (
	"time"

	"queuewatch/internal/intercept"
	"queuewatch/internal/presentation"
	"queuewatch/internal/queue"
)

// FromRecord converts a record and its view at now to the API representation.
func FromRecord(rec queue.Record, now time.Time, opts presentation.Options) RecordItem {
	view := presentation.DeriveViewWith(rec, now, opts)
	dto := RecordItem{
		ItemID:     rec.ItemID,
		Ticket:     rec.Ticket,
		State:      rec.State,
		Likelihood: string(view.Likelihood),
		Source:     string(rec.Source),
		Raw:        rec.Raw,
		View: RecordView{
			Name:             view.Name,
			Price:            view.Price,
			Ticket:           view.Ticket,
			Validity:         string(view.Validity),
			Countdown:        view.Countdown,
			RemainingSeconds: int64(view.Remaining / time.Second),
			Phase:            string(view.Phase),
			Urgent:           view.Urgent,
		},
	}
	if item := rec.Metadata.Item; item != nil {
		dto.ItemName = item.Name
		dto.ItemPrice = item.CurrentPrice
	}
	if rec.ExpectedTurnTime != nil {
		dto.ExpectedTurnTime = rec.ExpectedTurnTime.UTC().Format(dateTimeFormat)
	}
	if !rec.ObservedAt.IsZero() {
		dto.ObservedAt = rec.ObservedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromRecords converts an ordered snapshot, keeping its order.
func FromRecords(records []queue.Record, now time.Time, opts presentation.Options) RecordsResponse {
	items := make([]RecordItem, 0, len(records))
	for _, rec := range records {
		items = append(items, FromRecord(rec, now, opts))
	}
	return RecordsResponse{
		Items:       items,
		Summary:     presentation.Summary(len(items)),
		GeneratedAt: now.UTC().Format(dateTimeFormat),
	}
}

// ToRecord rebuilds the fields of a record that views depend on.
func ToRecord(item RecordItem) queue.Record {
	rec := queue.Record{
		ItemID: item.ItemID,
		Ticket: item.Ticket,
		State:  item.State,
		Raw:    item.Raw,
		Source: queue.Source(item.Source),
		Metadata: queue.Metadata{
			AdmissionLikelihood: queue.ParseLikelihood(item.Likelihood),
		},
	}
	if item.ItemName != "" || item.ItemPrice != "" {
		rec.Metadata.Item = &queue.ItemInfo{Name: item.ItemName, CurrentPrice: item.ItemPrice}
	}
	if eta := ParseTime(item.ExpectedTurnTime); !eta.IsZero() {
		rec.ExpectedTurnTime = &eta
	}
	rec.ObservedAt = ParseTime(item.ObservedAt)
	return rec
}

// ToRecords rebuilds every record in a response, keeping its order.
func ToRecords(resp RecordsResponse) []queue.Record {
	records := make([]queue.Record, 0, len(resp.Items))
	for _, item := range resp.Items {
		records = append(records, ToRecord(item))
	}
	return records
}

// FromStats converts interceptor counters.
func FromStats(stats intercept.Stats) InterceptionStats {
	return InterceptionStats{
		Skipped:              stats.Skipped,
		TooLarge:             stats.TooLarge,
		ParseFailures:        stats.ParseFailures,
		ShapeMismatches:      stats.ShapeMismatches,
		NoRecords:            stats.NoRecords,
		InterceptionFailures: stats.InterceptionFailures,
		Updates:              stats.Updates,
		RecordsAccepted:      stats.RecordsAccepted,
	}
}

// ParseTime parses API timestamps, returning the zero time for empty or
// malformed values.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}
