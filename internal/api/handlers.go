package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/LeventeLantos/scheduled-messaging/internal/directory"
	"github.com/LeventeLantos/scheduled-messaging/internal/notify"
	"github.com/LeventeLantos/scheduled-messaging/internal/repo"
	"github.com/LeventeLantos/scheduled-messaging/internal/scheduler"
	"github.com/LeventeLantos/scheduled-messaging/internal/service"
)

type Handler struct {
	sched     *scheduler.Scheduler
	schedules repo.ScheduleRepository
	favorites repo.FavoritesRepository
	batches   *service.BatchScheduler
	directory directory.Lister
	notifier  service.Notifier
}

func NewHandler(
	s *scheduler.Scheduler,
	schedules repo.ScheduleRepository,
	favorites repo.FavoritesRepository,
	batches *service.BatchScheduler,
	dir directory.Lister,
	notifier service.Notifier,
) *Handler {
	return &Handler{
		sched:     s,
		schedules: schedules,
		favorites: favorites,
		batches:   batches,
		directory: dir,
		notifier:  notifier,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) SchedulerStart(w http.ResponseWriter, r *http.Request) {
	h.sched.Start()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) SchedulerStop(w http.ResponseWriter, r *http.Request) {
	h.sched.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

type scheduleBatchRequest struct {
	Destination string    `json:"destination"`
	Messages    []string  `json:"messages"`
	TargetTime  time.Time `json:"targetTime"`
}

func (h *Handler) ScheduleBatch(w http.ResponseWriter, r *http.Request) {
	var req scheduleBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := h.batches.Schedule(r.Context(), req.Destination, req.Messages, req.TargetTime)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) ListPendingMessages(w http.ResponseWriter, r *http.Request) {
	items, err := h.schedules.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) ListSentMessages(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	offset := parseInt(r.URL.Query().Get("offset"), 0)

	items, err := h.schedules.ListSent(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type rescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduledAt"`
}

func (h *Handler) RescheduleMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ScheduledAt.IsZero() {
		http.Error(w, "scheduledAt is required", http.StatusBadRequest)
		return
	}

	if err := h.batches.Reschedule(r.Context(), id, req.ScheduledAt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "scheduledAt": req.ScheduledAt.UTC()})
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.batches.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": 1})
}

func (h *Handler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("batchId")
	if batchID == "" {
		http.Error(w, "batchId is required", http.StatusBadRequest)
		return
	}

	n, err := h.batches.DeleteBatch(r.Context(), batchID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

func (h *Handler) ListTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.directory.ListTargets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": targets})
}

type addFavoriteRequest struct {
	Destination string `json:"destination"`
	DisplayName string `json:"displayName"`
}

func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var req addFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Destination == "" {
		http.Error(w, "destination is required", http.StatusBadRequest)
		return
	}

	if err := h.favorites.Add(r.Context(), req.Destination, req.DisplayName); err != nil {
		writeError(w, err)
		return
	}

	h.broadcastFavorites(r)
	writeJSON(w, http.StatusCreated, map[string]any{"destination": req.Destination})
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	destination := r.PathValue("destination")
	if destination == "" {
		http.Error(w, "destination is required", http.StatusBadRequest)
		return
	}

	if err := h.favorites.Remove(r.Context(), destination); err != nil {
		writeError(w, err)
		return
	}

	h.broadcastFavorites(r)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": 1})
}

func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	items, err := h.favorites.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) broadcastFavorites(r *http.Request) {
	if h.notifier == nil {
		return
	}
	items, err := h.favorites.List(r.Context())
	if err != nil {
		return
	}
	h.notifier.Publish(notify.FavoritesSetChanged, items)
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id: " + raw)
	}
	return id, nil
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service and repo errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Reason, http.StatusBadRequest)
	case errors.Is(err, repo.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
