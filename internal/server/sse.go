package server

import (
	"fmt"
	"net/http"
)

// handleEvents streams a reload event, carrying the new engine
// fingerprint, every time the engine is swapped.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := make(chan string, 1)
	s.clientMu.Lock()
	s.clients[client] = struct{}{}
	s.clientMu.Unlock()

	defer func() {
		s.clientMu.Lock()
		delete(s.clients, client)
		s.clientMu.Unlock()
	}()

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		case fp := <-client:
			_, _ = fmt.Fprintf(w, "event: reload\ndata: %s\n\n", fp)
			flusher.Flush()
		}
	}
}

// broadcastReload notifies every connected client. Slow clients miss
// the event rather than blocking the reload.
func (s *Server) broadcastReload(fingerprint string) {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()
	for client := range s.clients {
		select {
		case client <- fingerprint:
		default:
		}
	}
}

// Clients reports how many event streams are open.
func (s *Server) Clients() int {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()
	return len(s.clients)
}
