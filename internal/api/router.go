package api

import "net/http"

func Router(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", h.Health)

	mux.HandleFunc("GET /v1/scheduler/status", h.SchedulerStatus)
	mux.HandleFunc("POST /v1/scheduler/start", h.SchedulerStart)
	mux.HandleFunc("POST /v1/scheduler/stop", h.SchedulerStop)

	mux.HandleFunc("POST /v1/batches", h.ScheduleBatch)
	mux.HandleFunc("DELETE /v1/batches/{batchId}", h.DeleteBatch)

	mux.HandleFunc("GET /v1/messages/pending", h.ListPendingMessages)
	mux.HandleFunc("GET /v1/messages/sent", h.ListSentMessages)
	mux.HandleFunc("PATCH /v1/messages/{id}", h.RescheduleMessage)
	mux.HandleFunc("DELETE /v1/messages/{id}", h.DeleteMessage)

	mux.HandleFunc("GET /v1/targets", h.ListTargets)

	mux.HandleFunc("GET /v1/favorites", h.ListFavorites)
	mux.HandleFunc("POST /v1/favorites", h.AddFavorite)
	mux.HandleFunc("DELETE /v1/favorites/{destination}", h.RemoveFavorite)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("scheduled-messaging"))
	})

	return mux
}
