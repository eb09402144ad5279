// Package diagserver broadcasts diag.Diagnostic events over a websocket to
// any connected browser client, for a playground-style live view of
// analysis in progress. It wraps a diag.Sink: reporting a diagnostic here
// both forwards it to the wrapped sink (so analysis semantics never
// change) and fans it out, as JSON, to every currently-connected client.
// Grounded on the teacher's internal/network websocket server: an
// Upgrader, a mutex-guarded client set, and a broadcast that drops
// messages to clients that have gone away.
package diagserver

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"sentra-semant/internal/diag"
)

// Server wraps a diag.Sink and broadcasts every reported Diagnostic, as
// JSON, to all connected websocket clients.
type Server struct {
	inner    diag.Sink
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

// New wraps inner, broadcasting every Diagnostic reported through the
// returned Server in addition to forwarding it to inner.
func New(inner diag.Sink) *Server {
	return &Server{
		inner:   inner,
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Report implements diag.Sink.
func (s *Server) Report(d diag.Diagnostic) {
	s.inner.Report(d)

	payload, err := json.Marshal(d)
	if err != nil {
		log.Printf("diagserver: marshal diagnostic: %v", err)
		return
	}

	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.drop(c)
		}
	}
}

// ServeHTTP upgrades the request to a websocket and registers the
// resulting connection as a broadcast recipient until it disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("diagserver: upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	// Drain and discard anything the client sends; the protocol is
	// server-to-client only. The loop's sole purpose is to notice when the
	// connection closes so it can be dropped from the broadcast set.
	go func() {
		defer s.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) drop(c *websocket.Conn) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		c.Close()
	}
	s.mu.Unlock()
}
