package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const keepAliveInterval = 25 * time.Second

// handleEvents streams a "refresh" event whenever the guest collection
// changes. Each event carries {"reason":"added|removed","id":"..."}.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// The stream outlives the server's WriteTimeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.logger.Debug("clear write deadline failed", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	sub := s.service.Notifier().Subscribe()
	defer s.service.Notifier().Unsubscribe(sub)

	if _, err := w.Write([]byte(": connected\n\n")); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		s.logger.Error("event stream not flushable", "error", err)
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.closing:
			return
		case <-ticker.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
		case ev, ok := <-sub:
			if !ok {
				return
			}
			payload, err := json.Marshal(map[string]string{"reason": ev.Reason, "id": ev.ID})
			if err != nil {
				s.logger.Error("encode refresh event failed", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: refresh\ndata: %s\n\n", payload); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
