package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"gymmate-backend/internal/models"
)

// sseWriter writes `data: <json>\n\n` events. Headers go out with the first event so
// a failure before any output can still be answered with a JSON error.
type sseWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
	err     error
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	return &sseWriter{w: w, rc: http.NewResponseController(w)}
}

func (s *sseWriter) Started() bool { return s.started }

// Broken reports whether a write has failed; nothing more is written after that.
func (s *sseWriter) Broken() bool { return s.err != nil }

// Text sends one chunk of reply text.
func (s *sseWriter) Text(chunk string) error {
	return s.Event(models.StreamEvent{Text: chunk})
}

func (s *sseWriter) Event(ev models.StreamEvent) error {
	if s.err != nil {
		return s.err
	}

	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	data, err := json.Marshal(ev)
	if err != nil {
		s.err = err
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		s.err = err
		return err
	}
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.err = err
		return err
	}
	return nil
}
