package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"queuewatch/internal/logging"
	"queuewatch/internal/presentation"
	"queuewatch/internal/queue"
	"queuewatch/internal/testsupport"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	fail   error
}

func (r *recordingNotifier) record(event string, view presentation.ViewState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event+":"+view.ItemID)
	return r.fail
}

func (r *recordingNotifier) NotifyTicketDetected(_ context.Context, view presentation.ViewState) error {
	return r.record("detected", view)
}

func (r *recordingNotifier) NotifyAdmissionLikely(_ context.Context, view presentation.ViewState) error {
	return r.record("likely", view)
}

func (r *recordingNotifier) NotifyTurnReached(_ context.Context, view presentation.ViewState) error {
	return r.record("turn", view)
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

func (r *recordingNotifier) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

func equalEvents(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func newTestWatcher(store *queue.Store, notifier *recordingNotifier, now *time.Time) *watcher {
	w := newWatcher(store, notifier, logging.NewNop(), time.Second, presentation.Options{})
	w.now = func() time.Time { return *now }
	return w
}

func TestWatcherFiresOnEdgesOnly(t *testing.T) {
	now := time.Now()
	store := queue.NewStore()
	notifier := &recordingNotifier{}
	w := newTestWatcher(store, notifier, &now)
	ctx := context.Background()

	testsupport.MustIngest(t, store, testsupport.Ticket{ItemID: "A", Ticket: "1", ETA: now.Add(2 * time.Second)})
	w.evaluate(ctx)
	if got := notifier.take(); !equalEvents(got, []string{"detected:A"}) {
		t.Fatalf("first pass events = %v", got)
	}

	w.evaluate(ctx)
	if got := notifier.take(); len(got) != 0 {
		t.Fatalf("unchanged state should not notify, got %v", got)
	}

	testsupport.MustIngest(t, store, testsupport.Ticket{ItemID: "A", Ticket: "1", Likelihood: "likely", ETA: now.Add(2 * time.Second)})
	w.evaluate(ctx)
	if got := notifier.take(); !equalEvents(got, []string{"likely:A"}) {
		t.Fatalf("likely transition events = %v", got)
	}

	now = now.Add(3 * time.Second)
	w.evaluate(ctx)
	if got := notifier.take(); !equalEvents(got, []string{"turn:A"}) {
		t.Fatalf("turn events = %v", got)
	}

	now = now.Add(time.Second)
	w.evaluate(ctx)
	if got := notifier.take(); len(got) != 0 {
		t.Fatalf("turn reached should fire once, got %v", got)
	}
}

func TestWatcherNewTicketResetsEdges(t *testing.T) {
	now := time.Now()
	store := queue.NewStore()
	notifier := &recordingNotifier{}
	w := newTestWatcher(store, notifier, &now)
	ctx := context.Background()

	testsupport.MustIngest(t, store, testsupport.Ticket{ItemID: "A", Ticket: "1", Likelihood: "likely"})
	w.evaluate(ctx)
	if got := notifier.take(); !equalEvents(got, []string{"detected:A", "likely:A"}) {
		t.Fatalf("events = %v", got)
	}

	testsupport.MustIngest(t, store, testsupport.Ticket{ItemID: "A", Ticket: "2", Likelihood: "likely"})
	w.evaluate(ctx)
	if got := notifier.take(); !equalEvents(got, []string{"detected:A", "likely:A"}) {
		t.Fatalf("reissued ticket events = %v", got)
	}
}

func TestWatcherSkipsTurnForExpiredTicket(t *testing.T) {
	now := time.Now()
	store := queue.NewStore()
	notifier := &recordingNotifier{}
	w := newTestWatcher(store, notifier, &now)

	testsupport.MustIngest(t, store, testsupport.Ticket{ItemID: "A", Ticket: "1", State: "expired", ETA: now.Add(-time.Minute)})
	w.evaluate(context.Background())
	if got := notifier.take(); !equalEvents(got, []string{"detected:A"}) {
		t.Fatalf("events = %v", got)
	}
}

func TestWatcherToleratesNotifierErrors(t *testing.T) {
	now := time.Now()
	store := queue.NewStore()
	notifier := &recordingNotifier{fail: errors.New("ntfy down")}
	w := newTestWatcher(store, notifier, &now)

	testsupport.MustIngest(t, store, testsupport.Ticket{ItemID: "A", Ticket: "1"})
	w.evaluate(context.Background())
	if got := notifier.take(); !equalEvents(got, []string{"detected:A"}) {
		t.Fatalf("events = %v", got)
	}
}

func TestWatcherRunReactsToStoreUpdates(t *testing.T) {
	store := queue.NewStore()
	notifier := &recordingNotifier{}
	w := newWatcher(store, notifier, logging.NewNop(), time.Hour, presentation.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// run subscribes before its first evaluation; retry until the ingest is seen.
	deadline := time.Now().Add(2 * time.Second)
	testsupport.MustIngest(t, store, testsupport.Ticket{ItemID: "A", Ticket: "1"})
	for time.Now().Before(deadline) {
		notifier.mu.Lock()
		n := len(notifier.events)
		notifier.mu.Unlock()
		if n > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("watcher did not react to store update")
}
