package queue

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"queuewatch/internal/shape"
)

// Likelihood is the source-provided admission hint.
type Likelihood string

const (
	LikelihoodLikely   Likelihood = "likely"
	LikelihoodUnlikely Likelihood = "unlikely"
	LikelihoodUnknown  Likelihood = "unknown"
)

// ParseLikelihood maps free-form source values onto the known set.
func ParseLikelihood(value string) Likelihood {
	switch strings.TrimSpace(value) {
	case string(LikelihoodLikely):
		return LikelihoodLikely
	case string(LikelihoodUnlikely):
		return LikelihoodUnlikely
	default:
		return LikelihoodUnknown
	}
}

// TicketState is the interpreted form of the record's state tag.
type TicketState string

const (
	TicketValid   TicketState = "valid"
	TicketExpired TicketState = "expired"
	TicketOther   TicketState = "other"
)

// Source names the interception entry point that produced a record.
type Source string

const (
	SourceUnknown   Source = ""
	SourceTransport Source = "transport"
	SourceCallback  Source = "callback"
	SourceDecode    Source = "decode"
	SourceReplay    Source = "replay"
)

// ItemInfo is the optional product descriptor attached to a ticket.
type ItemInfo struct {
	Name         string `json:"name,omitempty"`
	CurrentPrice string `json:"currentPrice,omitempty"`
}

// Metadata mirrors customMetadata.
type Metadata struct {
	AdmissionLikelihood Likelihood `json:"admissionLikelihood"`
	Item                *ItemInfo  `json:"item,omitempty"`
}

// Record is the canonical queue ticket keyed by ItemID.
type Record struct {
	ItemID           string
	Ticket           string
	QueueMarker      json.RawMessage
	State            string
	ExpectedTurnTime *time.Time
	Metadata         Metadata
	Raw              json.RawMessage
	ObservedAt       time.Time
	Source           Source
}

// TicketState interprets the free-form state string.
func (r Record) TicketState() TicketState {
	switch strings.TrimSpace(r.State) {
	case string(TicketValid):
		return TicketValid
	case string(TicketExpired):
		return TicketExpired
	default:
		return TicketOther
	}
}

// HasETA reports whether an expected turn time is known.
func (r Record) HasETA() bool {
	return r.ExpectedTurnTime != nil
}

// FromCandidate builds a typed record from a validated candidate.
//
// ItemID is the literal text of itemId, so the number 1 and the string "1"
// name the same record and replace each other. A null ticket keeps the
// text "null".
func FromCandidate(c shape.Candidate) Record {
	rec := Record{
		ItemID: displayString(c.Fields[shape.KeyItemID]),
		Ticket: ticketString(c.Fields[shape.KeyTicket]),
		State:  displayString(c.Fields[shape.KeyState]),
		Metadata: Metadata{
			AdmissionLikelihood: LikelihoodUnknown,
		},
	}
	if marker, err := json.Marshal(c.Fields[shape.KeyQueue]); err == nil {
		rec.QueueMarker = marker
	}
	if raw, err := json.Marshal(c.Fields); err == nil {
		rec.Raw = raw
	}
	if eta, ok := epochMillis(c.Fields[shape.KeyETA]); ok {
		t := time.UnixMilli(eta)
		rec.ExpectedTurnTime = &t
	}
	if meta, ok := c.Fields[shape.KeyMetadata].(map[string]any); ok {
		if likelihood, ok := meta["admissionLikelihood"].(string); ok {
			rec.Metadata.AdmissionLikelihood = ParseLikelihood(likelihood)
		}
		if item, ok := meta["item"].(map[string]any); ok {
			rec.Metadata.Item = &ItemInfo{
				Name:         displayString(item["name"]),
				CurrentPrice: displayString(item["currentPrice"]),
			}
		}
	}
	return rec
}

// displayString renders a decoded JSON value for display. Strings are kept
// verbatim, numbers use their literal form, null becomes "".
func displayString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

func ticketString(value any) string {
	if value == nil {
		return "null"
	}
	return displayString(value)
}

// epochMillis reads an epoch-millisecond instant. Zero, missing, and
// non-numeric values mean no ETA.
func epochMillis(value any) (int64, bool) {
	var text string
	switch v := value.(type) {
	case json.Number:
		text = v.String()
	case float64:
		text = strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		text = strings.TrimSpace(v)
	default:
		return 0, false
	}
	if ms, err := strconv.ParseInt(text, 10, 64); err == nil {
		return ms, ms != 0
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	ms := int64(f)
	return ms, ms != 0
}
