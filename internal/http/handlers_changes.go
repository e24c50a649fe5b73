package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	applog "tally/internal/log"
)

// handleChanges streams the caller's change events as Server-Sent Events
// until the client goes away or the server shuts down.
func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		ServiceUnavailableError("change stream disabled").Write(w)
		return
	}
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	rc := http.NewResponseController(w)

	sub := s.hub.Subscribe(userID(r))
	defer sub.Close()

	// Streams outlive the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		logger.WarnContext(ctx, "Event stream not supported", applog.FieldError, err)
		return
	}

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to encode change event", applog.FieldError, err)
				continue
			}
			seq++
			if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, ev.Type, data); err != nil {
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
