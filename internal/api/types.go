package api

import (
	"encoding/json"

	"queuewatch/internal/logging"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// RecordItem describes a queue ticket in a transport-friendly format.
type RecordItem struct {
	ItemID           string          `json:"itemId"`
	Ticket           string          `json:"ticket"`
	State            string          `json:"state"`
	Likelihood       string          `json:"likelihood"`
	ItemName         string          `json:"itemName,omitempty"`
	ItemPrice        string          `json:"itemPrice,omitempty"`
	ExpectedTurnTime string          `json:"expectedTurnTime,omitempty"`
	ObservedAt       string          `json:"observedAt,omitempty"`
	Source           string          `json:"source,omitempty"`
	View             RecordView      `json:"view"`
	Raw              json.RawMessage `json:"raw,omitempty"`
}

// RecordView is the presentation state at the time the response was built.
type RecordView struct {
	Name             string `json:"name"`
	Price            string `json:"price"`
	Ticket           string `json:"ticket"`
	Validity         string `json:"validity"`
	Countdown        string `json:"countdown"`
	RemainingSeconds int64  `json:"remainingSeconds"`
	Phase            string `json:"phase"`
	Urgent           bool   `json:"urgent"`
}

// RecordsResponse wraps the ordered snapshot.
type RecordsResponse struct {
	Items       []RecordItem `json:"items"`
	Summary     string       `json:"summary"`
	GeneratedAt string       `json:"generatedAt"`
}

// InterceptionStats mirrors the interceptor's outcome counters.
type InterceptionStats struct {
	Skipped              int64 `json:"skipped"`
	TooLarge             int64 `json:"tooLarge"`
	ParseFailures        int64 `json:"parseFailures"`
	ShapeMismatches      int64 `json:"shapeMismatches"`
	NoRecords            int64 `json:"noRecords"`
	InterceptionFailures int64 `json:"interceptionFailures"`
	Updates              int64 `json:"updates"`
	RecordsAccepted      int64 `json:"recordsAccepted"`
}

// StatusResponse aggregates daemon runtime information for API consumers.
type StatusResponse struct {
	Running      bool              `json:"running"`
	PID          int               `json:"pid"`
	StartedAt    string            `json:"startedAt,omitempty"`
	LockFilePath string            `json:"lockFilePath"`
	LogPath      string            `json:"logPath"`
	APIBind      string            `json:"apiBind"`
	Upstream     string            `json:"upstream,omitempty"`
	AttachListen string            `json:"attachListen,omitempty"`
	RecordCount  int               `json:"recordCount"`
	Interception InterceptionStats `json:"interception"`
}

// LogStreamResponse returns buffered log events after a sequence number.
type LogStreamResponse struct {
	Events []logging.LogEvent `json:"events"`
	Next   uint64             `json:"next"`
}

// TestNotificationResponse reports the outcome of a test notification.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx API reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
