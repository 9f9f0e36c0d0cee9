package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/teamlens/teamlens/internal/apperrors"
	"github.com/teamlens/teamlens/internal/service"
	"github.com/teamlens/teamlens/pkg/logger/sl"
)

// syncCompleteEvent closes a streamed sync: one per stream, after all
// progress events.
type syncCompleteEvent struct {
	Status string                  `json:"status"`
	Errors []apperrors.SourceError `json:"errors,omitempty"`
}

// GetSyncStream runs a full sync and streams per-step progress as
// server-sent events. The stream always ends with a single "complete"
// event whose status is "success" when every source synced and "partial"
// otherwise.
func (s *Server) GetSyncStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// The sync runs on a detached context: a client closing the stream
	// must not abort a half-finished refresh.
	failures := s.syncService.SyncAllWithProgress(context.Background(), func(ev service.ProgressEvent) {
		s.writeEvent(w, flusher, "progress", ev)
	})

	complete := syncCompleteEvent{Status: "success"}
	if len(failures) > 0 {
		complete.Status = "partial"
		complete.Errors = failures
	}

	s.writeEvent(w, flusher, "complete", complete)
}

func (s *Server) writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.log.Error("failed to marshal sse event", sl.Err(err))
		return
	}

	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}
