package daemon

import (
	"context"
	"log/slog"
	"time"

	"queuewatch/internal/logging"
	"queuewatch/internal/notifications"
	"queuewatch/internal/presentation"
	"queuewatch/internal/queue"
)

// watchedItem is the last notification-relevant state seen for an item.
type watchedItem struct {
	ticket string
	likely bool
	phase  presentation.Phase
}

// watcher turns store updates and countdown ticks into notifications. It
// fires on edges only: a new ticket, a move to likely admission, and the
// countdown reaching zero for a valid ticket.
type watcher struct {
	store    *queue.Store
	notifier notifications.Service
	logger   *slog.Logger
	interval time.Duration
	opts     presentation.Options
	now      func() time.Time

	seen map[string]watchedItem
}

func newWatcher(store *queue.Store, notifier notifications.Service, logger *slog.Logger, interval time.Duration, opts presentation.Options) *watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &watcher{
		store:    store,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "watcher"),
		interval: interval,
		opts:     opts,
		now:      time.Now,
		seen:     make(map[string]watchedItem),
	}
}

func (w *watcher) run(ctx context.Context) {
	updates := make(chan struct{}, 1)
	unsubscribe := w.store.Subscribe(func([]queue.Record) {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.evaluate(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			w.evaluate(ctx)
		case <-ticker.C:
			w.evaluate(ctx)
		}
	}
}

// evaluate compares the current snapshot against the previous one and sends
// notifications for every edge crossed since.
func (w *watcher) evaluate(ctx context.Context) {
	now := w.now()
	for _, rec := range w.store.Snapshot() {
		view := presentation.DeriveViewWith(rec, now, w.opts)
		prev, known := w.seen[rec.ItemID]
		current := watchedItem{
			ticket: rec.Ticket,
			likely: view.Likelihood == queue.LikelihoodLikely,
			phase:  view.Phase,
		}
		w.seen[rec.ItemID] = current

		if !known || prev.ticket != current.ticket {
			w.send(ctx, "ticket detected", view, w.notifier.NotifyTicketDetected)
			prev = watchedItem{}
		}
		if current.likely && !prev.likely {
			w.send(ctx, "admission likely", view, w.notifier.NotifyAdmissionLikely)
		}
		if current.phase == presentation.PhaseTurnReached && prev.phase != presentation.PhaseTurnReached &&
			view.Validity != queue.TicketExpired {
			w.send(ctx, "turn reached", view, w.notifier.NotifyTurnReached)
		}
	}
}

func (w *watcher) send(ctx context.Context, event string, view presentation.ViewState, notify func(context.Context, presentation.ViewState) error) {
	if err := notify(ctx, view); err != nil {
		w.logger.Warn("notification failed",
			logging.String("event", event),
			logging.String(logging.FieldItemID, view.ItemID),
			logging.Error(err),
		)
		return
	}
	w.logger.Debug("notification dispatched",
		logging.String("event", event),
		logging.String(logging.FieldItemID, view.ItemID),
	)
}
