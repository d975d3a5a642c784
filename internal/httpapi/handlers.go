package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/introspection"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"example.com/tempmemo/internal/config"
	"example.com/tempmemo/internal/expiry"
	"example.com/tempmemo/internal/memos"
	"example.com/tempmemo/internal/service"
	"example.com/tempmemo/internal/widget"
)

// MemoService is an abstraction over the memo service.
// It allows unit-testing handlers without a real database.
type MemoService interface {
	Create(ctx context.Context, text string, d time.Duration) (memos.Memo, error)
	Get(ctx context.Context, id int64) (memos.Memo, error)
	List(ctx context.Context) ([]memos.Memo, error)
	Watch(ctx context.Context) (<-chan []memos.Memo, error)
	BeginEdit(ctx context.Context, id int64) (memos.Memo, error)
	SaveEdit(ctx context.Context, id int64, text string, d time.Duration) (memos.Memo, error)
	EndEdit(id int64)
	Delete(ctx context.Context, id int64) error
	Undo(ctx context.Context) (memos.Memo, error)
	Sweep(ctx context.Context) expiry.SweepResult
	Widget(ctx context.Context) (widget.View, error)
	Now() time.Time
}

type SettingsStore interface {
	Current() config.Settings
	Save(config.Settings) (config.Settings, error)
}

// Lifecycle receives the UI's view and foreground transitions.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop()
	Foreground(ctx context.Context)
}

// Observable is a component that can report its state on /debug/state.
type Observable interface {
	introspection.Introspectable
	introspection.Component
}

var (
	_ MemoService   = (*service.Service)(nil)
	_ SettingsStore = (*config.SettingsStore)(nil)
	_ Lifecycle     = (*expiry.Scheduler)(nil)
	_ Observable    = (*expiry.Coordinator)(nil)
	_ Observable    = (*expiry.Scheduler)(nil)
	_ Observable    = (*memos.Repository)(nil)
)

type Handlers struct {
	svc        MemoService
	settings   SettingsStore
	lifecycle  Lifecycle
	components []Observable
	logger     *slog.Logger
}

func NewHandlers(svc MemoService, settings SettingsStore, lc Lifecycle, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{svc: svc, settings: settings, lifecycle: lc, logger: logger}
}

// Observe registers components whose state is served on /debug/state.
func (h *Handlers) Observe(components ...Observable) *Handlers {
	h.components = append(h.components, components...)
	return h
}

func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/memos", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/stream", h.stream)
		r.Post("/undo", h.undo)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Put("/", h.update)
			r.Delete("/", h.delete)
			r.Post("/edit", h.beginEdit)
			r.Delete("/edit", h.endEdit)
		})
	})

	r.Post("/sweep", h.sweep)
	r.Get("/widget", h.widget)

	r.Route("/lifecycle", func(r chi.Router) {
		r.Post("/foreground", h.foreground)
		r.Put("/list-view", h.listViewShown)
		r.Delete("/list-view", h.listViewHidden)
	})

	r.Get("/debug/state", h.debugState)

	r.Get("/settings", h.getSettings)
	r.Put("/settings", h.putSettings)

	return r
}

// duration turns a request's hours into a duration; 0 means the configured default.
func (h *Handlers) duration(hours int) time.Duration {
	if hours == 0 {
		return h.settings.Current().DefaultDuration()
	}
	return time.Duration(hours) * time.Hour
}

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	var req CreateMemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	m, err := h.svc.Create(r.Context(), req.Text, h.duration(req.DurationHours))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newMemoView(m, h.svc.Now()))
}

func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	m, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemoView(m, h.svc.Now()))
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": newMemoViews(items, h.svc.Now())})
}

// stream pushes the memo list as server-sent events until the client goes away.
func (h *Handlers) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	ch, err := h.svc.Watch(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for list := range ch {
		data, err := json.Marshal(newMemoViews(list, h.svc.Now()))
		if err != nil {
			h.logger.Error("encode memo snapshot", "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (h *Handlers) beginEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	m, err := h.svc.BeginEdit(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemoView(m, h.svc.Now()))
}

func (h *Handlers) endEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h.svc.EndEdit(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateMemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	m, err := h.svc.SaveEdit(r.Context(), id, req.Text, h.duration(req.DurationHours))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemoView(m, h.svc.Now()))
}

func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) undo(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Undo(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newMemoView(m, h.svc.Now()))
}

func (h *Handlers) sweep(w http.ResponseWriter, r *http.Request) {
	res := h.svc.Sweep(r.Context())
	if res.Err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"deleted": 0, "error": "sweep failed, will retry"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": res.Deleted})
}

func (h *Handlers) widget(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Widget(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) foreground(w http.ResponseWriter, r *http.Request) {
	h.lifecycle.Foreground(context.WithoutCancel(r.Context()))
	w.WriteHeader(http.StatusAccepted)
}

// listViewShown starts periodic sweeping; the scheduler outlives the request.
func (h *Handlers) listViewShown(w http.ResponseWriter, r *http.Request) {
	err := h.lifecycle.Start(context.WithoutCancel(r.Context()))
	if err != nil && !errors.Is(err, expiry.ErrSchedulerRunning) {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) listViewHidden(w http.ResponseWriter, r *http.Request) {
	h.lifecycle.Stop()
	w.WriteHeader(http.StatusNoContent)
}

// debugState reports each observed component's state keyed by its component type.
func (h *Handlers) debugState(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]any, len(h.components))
	for _, c := range h.components {
		out[c.ComponentType()] = c.State()
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Current())
}

func (h *Handlers) putSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	next := h.settings.Current()
	if req.LockEnabled != nil {
		next.LockEnabled = *req.LockEnabled
	}
	if req.Theme != nil {
		next.Theme = *req.Theme
	}

	saved, err := h.settings.Save(next)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, memos.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, memos.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "memo no longer exists"})
	case errors.Is(err, service.ErrNothingToUndo):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrMemoRemoved):
		writeJSON(w, http.StatusGone, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
