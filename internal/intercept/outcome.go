package intercept

import (
	"fmt"
	"sync/atomic"
)

type outcomeKind string

const (
	outcomeSkipped             outcomeKind = "skipped"
	outcomeTooLarge            outcomeKind = "too_large"
	outcomeParseFailure        outcomeKind = "parse_failure"
	outcomeShapeMismatch       outcomeKind = "shape_mismatch"
	outcomeNoRecords           outcomeKind = "no_records"
	outcomeInterceptionFailure outcomeKind = "interception_failure"
	outcomeUpdated             outcomeKind = "updated"
)

type outcome struct {
	kind       outcomeKind
	err        error
	candidates int
	accepted   int
}

func failure(kind outcomeKind, err error) outcome {
	return outcome{kind: kind, err: err}
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("inspection panic: %w", err)
	}
	return fmt.Errorf("inspection panic: %v", r)
}

// Stats counts inspection outcomes since the Interceptor was built.
type Stats struct {
	Skipped              int64 `json:"skipped"`
	TooLarge             int64 `json:"too_large"`
	ParseFailures        int64 `json:"parse_failures"`
	ShapeMismatches      int64 `json:"shape_mismatches"`
	NoRecords            int64 `json:"no_records"`
	InterceptionFailures int64 `json:"interception_failures"`
	Updates              int64 `json:"updates"`
	RecordsAccepted      int64 `json:"records_accepted"`
}

// Inspected is the number of bodies that reached the parser or failed on
// the way there.
func (s Stats) Inspected() int64 {
	return s.TooLarge + s.ParseFailures + s.ShapeMismatches + s.NoRecords + s.InterceptionFailures + s.Updates
}

type counters struct {
	skipped              atomic.Int64
	tooLarge             atomic.Int64
	parseFailures        atomic.Int64
	shapeMismatches      atomic.Int64
	noRecords            atomic.Int64
	interceptionFailures atomic.Int64
	updates              atomic.Int64
	recordsAccepted      atomic.Int64
}

func (c *counters) record(out outcome) {
	switch out.kind {
	case outcomeSkipped:
		c.skipped.Add(1)
	case outcomeTooLarge:
		c.tooLarge.Add(1)
	case outcomeParseFailure:
		c.parseFailures.Add(1)
	case outcomeShapeMismatch:
		c.shapeMismatches.Add(1)
	case outcomeNoRecords:
		c.noRecords.Add(1)
	case outcomeInterceptionFailure:
		c.interceptionFailures.Add(1)
	case outcomeUpdated:
		c.updates.Add(1)
		c.recordsAccepted.Add(int64(out.accepted))
	}
}

func (c *counters) snapshot() Stats {
	return Stats{
		Skipped:              c.skipped.Load(),
		TooLarge:             c.tooLarge.Load(),
		ParseFailures:        c.parseFailures.Load(),
		ShapeMismatches:      c.shapeMismatches.Load(),
		NoRecords:            c.noRecords.Load(),
		InterceptionFailures: c.interceptionFailures.Load(),
		Updates:              c.updates.Load(),
		RecordsAccepted:      c.recordsAccepted.Load(),
	}
}
