package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"queuewatch/internal/config"
	"queuewatch/internal/presentation"
)

const userAgent = "queuewatch/0.1.0"

// Event names a notification kind for toggles and dedup.
type Event string

const (
	EventTicketDetected  Event = "ticket_detected"
	EventAdmissionLikely Event = "admission_likely"
	EventTurnReached     Event = "turn_reached"
)

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifyTicketDetected(ctx context.Context, view presentation.ViewState) error
	NotifyAdmissionLikely(ctx context.Context, view presentation.ViewState) error
	NotifyTurnReached(ctx context.Context, view presentation.ViewState) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventTicketDetected:  cfg.Notifications.Detected,
			EventAdmissionLikely: cfg.Notifications.Likely,
			EventTurnReached:     cfg.Notifications.TurnReached,
		},
		dedup: newDeduper(cfg.DedupWindow(), time.Now),
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
	dedup    *deduper
}

func (n *ntfyService) NotifyTicketDetected(ctx context.Context, view presentation.ViewState) error {
	message := fmt.Sprintf("🎟️ Ticket %s for %s", view.Ticket, view.Name)
	if view.HasETA {
		message = fmt.Sprintf("%s\nTurn in %s", message, view.Countdown)
	}
	return n.publish(ctx, EventTicketDetected, view.ItemID, payload{
		title:   "Queue - Ticket Detected",
		message: message,
		tags:    []string{"queuewatch", "ticket", "detected"},
	})
}

func (n *ntfyService) NotifyAdmissionLikely(ctx context.Context, view presentation.ViewState) error {
	return n.publish(ctx, EventAdmissionLikely, view.ItemID, payload{
		title:   "Queue - Admission Likely",
		message: fmt.Sprintf("👍 Admission likely: %s (%s)", view.Name, view.Price),
		tags:    []string{"queuewatch", "admission", "likely"},
	})
}

func (n *ntfyService) NotifyTurnReached(ctx context.Context, view presentation.ViewState) error {
	return n.publish(ctx, EventTurnReached, view.ItemID, payload{
		title:    "Queue - " + presentation.CountdownTurnReached,
		message:  fmt.Sprintf("🔔 Your turn: %s %s", view.Name, view.Ticket),
		tags:     []string{"queuewatch", "turn", "reached"},
		priority: "urgent",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Queue - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"queuewatch", "test"},
		priority: "low",
	})
}

func (n *ntfyService) publish(ctx context.Context, event Event, itemID string, data payload) error {
	if !n.enabled[event] {
		return nil
	}
	if !n.dedup.allow(event, itemID) {
		return nil
	}
	if err := n.send(ctx, data); err != nil {
		n.dedup.forget(event, itemID)
		return err
	}
	return nil
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// deduper remembers when each (event, item) pair was last sent.
type deduper struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	sent   map[string]time.Time
}

func newDeduper(window time.Duration, now func() time.Time) *deduper {
	return &deduper{window: window, now: now, sent: make(map[string]time.Time)}
}

func (d *deduper) allow(event Event, itemID string) bool {
	if d == nil || d.window <= 0 {
		return true
	}
	key := string(event) + "|" + itemID
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.sent[key]; ok && now.Sub(last) < d.window {
		return false
	}
	d.sent[key] = now
	for k, at := range d.sent {
		if now.Sub(at) >= d.window {
			delete(d.sent, k)
		}
	}
	return true
}

func (d *deduper) forget(event Event, itemID string) {
	if d == nil {
		return
	}
	d.mu.Lock()
	delete(d.sent, string(event)+"|"+itemID)
	d.mu.Unlock()
}

type noopService struct{}

func (noopService) NotifyTicketDetected(context.Context, presentation.ViewState) error  { return nil }
func (noopService) NotifyAdmissionLikely(context.Context, presentation.ViewState) error { return nil }
func (noopService) NotifyTurnReached(context.Context, presentation.ViewState) error     { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
