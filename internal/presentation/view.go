package presentation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"queuewatch/internal/queue"
)

const (
	// CountdownUnknown is shown when no ETA is known.
	CountdownUnknown = "--:--"
	// CountdownTurnReached is shown once the ETA has passed.
	CountdownTurnReached = "YOUR TURN!"

	// UrgentThreshold is the largest remaining time that still raises the
	// urgency flag.
	UrgentThreshold = time.Minute

	// DefaultNameMaxRunes bounds display names.
	DefaultNameMaxRunes = 50
)

// Phase classifies the countdown.
type Phase string

const (
	PhaseUnknown     Phase = "unknown"
	PhaseWaiting     Phase = "waiting"
	PhaseImminent    Phase = "imminent"
	PhaseTurnReached Phase = "turn_reached"
)

// ViewState is everything a renderer needs for one record at one instant.
type ViewState struct {
	ItemID     string
	Name       string
	Price      string
	Ticket     string
	State      string
	Validity   queue.TicketState
	Likelihood queue.Likelihood
	Countdown  string
	Remaining  time.Duration
	HasETA     bool
	Phase      Phase
	Urgent     bool
}

// Options tweaks display-only fields.
type Options struct {
	NameMaxRunes int
}

// DeriveView computes the view for rec at now with default options.
func DeriveView(rec queue.Record, now time.Time) ViewState {
	return DeriveViewWith(rec, now, Options{})
}

// DeriveViewWith computes the view for rec at now.
func DeriveViewWith(rec queue.Record, now time.Time, opts Options) ViewState {
	view := ViewState{
		ItemID:     rec.ItemID,
		Name:       displayName(rec, opts.NameMaxRunes),
		Price:      "?",
		Ticket:     "#" + rec.Ticket,
		State:      rec.State,
		Validity:   rec.TicketState(),
		Likelihood: rec.Metadata.AdmissionLikelihood,
	}
	if view.State == "" {
		view.State = "unknown"
	}
	if view.Likelihood == "" {
		view.Likelihood = queue.LikelihoodUnknown
	}
	if item := rec.Metadata.Item; item != nil && item.CurrentPrice != "" {
		view.Price = item.CurrentPrice
	}

	if !rec.HasETA() {
		view.Countdown = CountdownUnknown
		view.Phase = PhaseUnknown
		return view
	}

	view.HasETA = true
	remaining := rec.ExpectedTurnTime.Sub(now)
	view.Remaining = remaining
	view.Countdown, view.Phase = Countdown(remaining)
	view.Urgent = view.Phase == PhaseImminent || view.Phase == PhaseTurnReached
	return view
}

// Countdown renders remaining time. Sub-second remainders are truncated, so
// 59.9s renders as "59s".
func Countdown(remaining time.Duration) (string, Phase) {
	if remaining <= 0 {
		return CountdownTurnReached, PhaseTurnReached
	}
	totalSec := int64(remaining / time.Second)
	hrs := totalSec / 3600
	mins := (totalSec % 3600) / 60
	secs := totalSec % 60

	switch {
	case remaining <= UrgentThreshold:
		return fmt.Sprintf("%ds", totalSec), PhaseImminent
	case remaining <= time.Hour:
		// exactly one hour lands here and reads 60m 0s
		return fmt.Sprintf("%dm %ds", hrs*60+mins, secs), PhaseWaiting
	default:
		return fmt.Sprintf("%dh %dm %ds", hrs, mins, secs), PhaseWaiting
	}
}

// DeriveAll maps a snapshot to views in the same order.
func DeriveAll(records []queue.Record, now time.Time, opts Options) []ViewState {
	views := make([]ViewState, len(records))
	for i, rec := range records {
		views[i] = DeriveViewWith(rec, now, opts)
	}
	return views
}

// Summary renders the item count badge.
func Summary(count int) string {
	if count == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", count)
}

// Label title-cases an enum value for display ("turn_reached" -> "Turn Reached").
func Label(value string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "_", " "))
	if value == "" {
		return ""
	}
	// Casers carry state, so each call gets its own.
	return cases.Title(language.Und).String(value)
}

func displayName(rec queue.Record, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = DefaultNameMaxRunes
	}
	name := ""
	if rec.Metadata.Item != nil {
		name = strings.TrimSpace(rec.Metadata.Item.Name)
	}
	if name == "" {
		name = "Item " + rec.ItemID
	}
	if utf8.RuneCountInString(name) <= maxRunes {
		return name
	}
	runes := []rune(name)
	return string(runes[:maxRunes]) + "…"
}
