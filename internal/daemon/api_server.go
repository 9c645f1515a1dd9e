package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"queuewatch/internal/api"
	"queuewatch/internal/logging"
	"queuewatch/internal/presentation"
)

const (
	requestIDHeader = "X-Request-Id"
	defaultLogLimit = 200
)

type apiHandlers struct {
	daemon *Daemon
	logger *slog.Logger
	now    func() time.Time
}

func newAPIRouter(d *Daemon, logger *slog.Logger) http.Handler {
	h := &apiHandlers{
		daemon: d,
		logger: logging.NewComponentLogger(logger, "api"),
		now:    time.Now,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(authMiddleware(d.cfg.Paths.APIToken))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.handleStatus)
		r.Get("/records", h.handleRecords)
		r.Get("/records/{itemID}", h.handleRecord)
		r.Get("/logs", h.handleLogs)
		r.Post("/notifications/test", h.handleTestNotification)
	})
	return r
}

// requestIDMiddleware reuses an inbound request id or mints one, and carries
// it as the correlation id for logging.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logging.WithCorrelationID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *apiHandlers) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.WithContext(r.Context(), h.logger).Error("api handler panic",
					logging.Any("panic", rec),
					logging.String("path", r.URL.Path),
				)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *apiHandlers) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := h.daemon.Status()
	resp := api.StatusResponse{
		Running:      status.Running,
		PID:          status.PID,
		LockFilePath: status.LockFilePath,
		LogPath:      status.LogPath,
		APIBind:      status.APIBind,
		Upstream:     status.Upstream,
		AttachListen: status.AttachListen,
		RecordCount:  status.RecordCount,
		Interception: api.FromStats(status.Interception),
	}
	if !status.StartedAt.IsZero() {
		resp.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *apiHandlers) handleRecords(w http.ResponseWriter, _ *http.Request) {
	records := h.daemon.store.Snapshot()
	writeJSON(w, http.StatusOK, api.FromRecords(records, h.now(), h.viewOptions()))
}

func (h *apiHandlers) handleRecord(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	rec, ok := h.daemon.store.Get(itemID)
	if !ok {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, api.FromRecord(rec, h.now(), h.viewOptions()))
}

func (h *apiHandlers) handleLogs(w http.ResponseWriter, r *http.Request) {
	hub := h.daemon.LogStream()
	if hub == nil {
		writeJSON(w, http.StatusOK, api.LogStreamResponse{})
		return
	}

	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = defaultLogLimit
	}
	follow := queryFlag(query.Get("follow"))
	tail := queryFlag(query.Get("tail"))
	itemID := strings.TrimSpace(query.Get("item"))
	component := strings.TrimSpace(query.Get("component"))
	correlationID := strings.TrimSpace(query.Get("correlation_id"))

	var (
		events []logging.LogEvent
		next   uint64
	)
	if tail && since == 0 && !follow {
		events, next = hub.Tail(limit)
	} else {
		var err error
		events, next, err = hub.Fetch(r.Context(), since, limit, follow)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	filtered := make([]logging.LogEvent, 0, len(events))
	for _, evt := range events {
		if itemID != "" && evt.ItemID != itemID {
			continue
		}
		if component != "" && !strings.EqualFold(component, evt.Component) {
			continue
		}
		if correlationID != "" && evt.CorrelationID != correlationID {
			continue
		}
		filtered = append(filtered, evt)
	}
	writeJSON(w, http.StatusOK, api.LogStreamResponse{Events: filtered, Next: next})
}

func (h *apiHandlers) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	sent, message, err := h.daemon.TestNotification(r.Context())
	if err != nil {
		logging.WithContext(r.Context(), h.logger).Warn("test notification failed", logging.Error(err))
		writeError(w, http.StatusBadGateway, message+": "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, api.TestNotificationResponse{Sent: sent, Message: message})
}

func (h *apiHandlers) viewOptions() presentation.Options {
	return presentation.Options{NameMaxRunes: h.daemon.cfg.Dashboard.NameMaxRunes}
}

func queryFlag(value string) bool {
	return value == "1" || strings.EqualFold(value, "true")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message})
}
