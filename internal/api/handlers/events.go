package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"homevisit-dispatch-service/internal/events"
)

const heartbeatInterval = 15 * time.Second

type EventsHandler struct {
	Broker events.Broker
}

// Stream pushes dispatch events to the dashboard over SSE. Heartbeats keep
// intermediaries from closing an idle connection.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Broker.Subscribe("dispatch")
	defer h.Broker.Unsubscribe("dispatch", ch)

	writeHeartbeat(w)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(evt.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-heartbeat.C:
			writeHeartbeat(w)
			flusher.Flush()
		}
	}
}

func writeHeartbeat(w http.ResponseWriter) {
	fmt.Fprintf(w, "event: heartbeat\n")
	fmt.Fprintf(w, "data: {\"ts\":%q}\n\n", time.Now().Format(time.RFC3339))
}
