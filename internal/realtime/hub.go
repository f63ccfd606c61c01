// Package realtime pushes request change events to websocket subscribers.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"grameen_connect/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	broadcastSize  = 100
	clientSendSize = 16
)

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub manages active websocket connections and fans out published events.
type Hub struct {
	clients   map[*subscriber]bool
	broadcast chan []byte
	mu        sync.Mutex
	upgrader  websocket.Upgrader
}

// NewHub creates a hub that accepts browser connections from the given origins.
// Requests without an Origin header (CLI clients) are always accepted.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{
		clients:   make(map[*subscriber]bool),
		broadcast: make(chan []byte, broadcastSize),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(strings.TrimRight(a, "/"), u.Scheme+"://"+u.Host) {
				return true
			}
		}
		return false
	}
}

// Run delivers broadcast messages until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			h.mu.Lock()
			for s := range h.clients {
				select {
				case s.send <- msg:
				default:
					// Subscriber is not keeping up; drop it.
					logrus.WithField("conn_ptr", fmt.Sprintf("%p", s.conn)).Warn("realtime subscriber too slow, disconnecting")
					h.removeLocked(s)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish encodes event and queues it for delivery without blocking.
func (h *Hub) Publish(event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("could not encode realtime event")
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		logrus.Warn("realtime broadcast channel full, dropping event")
	}
}

// ClientCount reports the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[s] = true
	metrics.SetRealtimeClients(len(h.clients))
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", s.conn)).Info("realtime subscriber connected")
}

func (h *Hub) unregister(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s)
}

func (h *Hub) removeLocked(s *subscriber) {
	if _, ok := h.clients[s]; !ok {
		return
	}
	delete(h.clients, s)
	close(s.send)
	metrics.SetRealtimeClients(len(h.clients))
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", s.conn)).Info("realtime subscriber disconnected")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.clients {
		h.removeLocked(s)
	}
}

// ServeWS upgrades the request and streams events to the new subscriber until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("failed to upgrade realtime connection")
		return
	}
	s := &subscriber{conn: conn, send: make(chan []byte, clientSendSize)}
	h.register(s)

	go h.writePump(s)
	h.readPump(s)
}

// readPump only watches for close frames and pongs; subscribers never send data.
func (h *Hub) readPump(s *subscriber) {
	defer func() {
		h.unregister(s)
		s.conn.Close()
	}()
	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithError(err).Debug("realtime read error")
			}
			return
		}
	}
}

func (h *Hub) writePump(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
