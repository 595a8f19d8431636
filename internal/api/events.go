package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/marksapp/marks/internal/auth"
	"github.com/marksapp/marks/internal/logger"
	"github.com/marksapp/marks/internal/notify"
)

const heartbeatInterval = 25 * time.Second

// eventsHandler streams the caller's change-notification feed as
// server-sent events. The subscription is scoped to the authenticated
// owner and torn down when the connection drops.
type eventsHandler struct {
	broker notify.Broker
	log    logger.Logger
}

// Stream serves GET /api/v1/events. Each feed event becomes one SSE
// message whose data is the JSON-encoded event; periodic comment lines keep
// intermediaries from closing the idle connection.
func (h *eventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", "INTERNAL_ERROR")
		return
	}

	sub, err := h.broker.Subscribe(r.Context(), user.ID)
	if err != nil {
		h.log.Error("api: event subscribe", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
