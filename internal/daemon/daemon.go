package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"queuewatch/internal/config"
	"queuewatch/internal/intercept"
	"queuewatch/internal/logging"
	"queuewatch/internal/notifications"
	"queuewatch/internal/preflight"
	"queuewatch/internal/presentation"
	"queuewatch/internal/queue"
)

// Daemon owns the listeners and background watcher and enforces
// single-instance execution.
type Daemon struct {
	cfg         *config.Config
	logger      *slog.Logger
	store       *queue.Store
	interceptor *intercept.Interceptor
	notifier    notifications.Service
	stream      *logging.StreamHub

	lockPath string
	lock     *flock.Flock

	api     *httpService
	attach  *httpService
	watcher *watcher

	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	LockFilePath string
	LogPath      string
	APIBind      string
	Upstream     string
	AttachListen string
	RecordCount  int
	Interception intercept.Stats
}

// Deps groups the collaborators a daemon needs. Notifier and Stream are
// optional.
type Deps struct {
	Store       *queue.Store
	Interceptor *intercept.Interceptor
	Notifier    notifications.Service
	Stream      *logging.StreamHub
	Logger      *slog.Logger
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, deps Deps) (*Daemon, error) {
	if cfg == nil || deps.Store == nil || deps.Interceptor == nil {
		return nil, errors.New("daemon requires config, store, and interceptor")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	d := &Daemon{
		cfg:         cfg,
		logger:      logger,
		store:       deps.Store,
		interceptor: deps.Interceptor,
		notifier:    notifier,
		stream:      deps.Stream,
		lockPath:    cfg.LockPath(),
		lock:        flock.New(cfg.LockPath()),
	}
	d.watcher = newWatcher(deps.Store, notifier, logger, cfg.RefreshInterval(), presentation.Options{
		NameMaxRunes: cfg.Dashboard.NameMaxRunes,
	})
	d.api = newHTTPService("api", cfg.Paths.APIBind, newAPIRouter(d, logger), logger)
	if cfg.Attach.Upstream != "" {
		handler, err := newAttachHandler(cfg.Attach.Upstream, deps.Interceptor.Transport(), logger)
		if err != nil {
			return nil, err
		}
		d.attach = newHTTPService("attach", cfg.Attach.Listen, handler, logger)
	}
	return d, nil
}

// Start acquires the daemon lock and brings up the listeners and watcher.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}
	if check := preflight.CheckDirectoryAccess("log directory", d.cfg.Paths.LogDir); !check.Passed {
		return fmt.Errorf("preflight: %s", check.Detail)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another queuewatch daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	if err := d.attach.start(runCtx); err != nil {
		cancel()
		d.api.stop()
		_ = d.lock.Unlock()
		return err
	}

	d.cancel = cancel
	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		d.watcher.run(runCtx)
	}()

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("queuewatch daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.address()),
		logging.String("attach", d.attach.address()),
	)
	return nil
}

// Stop shuts the listeners down and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.attach.stop()
	d.api.stop()
	if d.done != nil {
		<-d.done
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("queuewatch daemon stopped")
}

// Wait blocks until ctx ends, then stops the daemon.
func (d *Daemon) Wait(ctx context.Context) {
	<-ctx.Done()
	d.Stop()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		LogPath:      d.cfg.LogFilePath(),
		APIBind:      d.cfg.Paths.APIBind,
		Upstream:     d.cfg.Attach.Upstream,
		RecordCount:  d.store.Len(),
		Interception: d.interceptor.Stats(),
	}
	if status.Running {
		status.StartedAt = d.startedAt
		status.APIBind = d.api.address()
		status.AttachListen = d.attach.address()
	}
	return status
}

// LogStream exposes the in-memory log hub, which may be nil.
func (d *Daemon) LogStream() *logging.StreamHub {
	return d.stream
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg.Notifications.NtfyTopic == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
