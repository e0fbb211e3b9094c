// Package ws streams mint attempt state transitions to connected
// clients so the UI can follow an attempt live instead of polling.
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"nnm-backend/internal/mint"
)

const (
	// writeWait bounds a single socket write; a peer that cannot accept
	// a frame within it is dropped.
	writeWait = 10 * time.Second

	// sendBuffer is the per-subscriber update backlog. A full buffer
	// means the client has stopped reading and gets disconnected.
	sendBuffer = 16
)

// subscriber owns one socket. All writes go through a buffered channel
// and a single writer goroutine, so a stalled client can never block
// the caller delivering updates.
type subscriber struct {
	conn *websocket.Conn
	send chan mint.Attempt
	done chan struct{}
	once sync.Once
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

// Hub fans attempt updates out to the sockets subscribed to each
// attempt ID.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*subscriber]struct{}),
	}
}

// Subscribe registers a socket for an attempt's updates and starts its
// writer goroutine. The returned func detaches the socket; the hub
// closes the connection when the writer exits.
func (h *Hub) Subscribe(attemptID string, conn *websocket.Conn) func() {
	sub := &subscriber{
		conn: conn,
		send: make(chan mint.Attempt, sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.subscribers[attemptID] == nil {
		h.subscribers[attemptID] = make(map[*subscriber]struct{})
	}
	h.subscribers[attemptID][sub] = struct{}{}
	h.mu.Unlock()

	go h.writePump(attemptID, sub)
	return func() { h.remove(attemptID, sub) }
}

func (h *Hub) remove(attemptID string, sub *subscriber) {
	h.mu.Lock()
	if subs, ok := h.subscribers[attemptID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscribers, attemptID)
		}
	}
	h.mu.Unlock()
	sub.stop()
}

func (h *Hub) writePump(attemptID string, sub *subscriber) {
	defer func() {
		h.remove(attemptID, sub)
		sub.conn.Close()
	}()

	for {
		select {
		case <-sub.done:
			return
		case attempt := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteJSON(attempt); err != nil {
				logrus.WithFields(logrus.Fields{
					"attempt_id": attemptID,
					"error":      err.Error(),
				}).Debug("Dropping dead attempt subscriber")
				return
			}
		}
	}
}

// AttemptUpdated implements mint.StateListener. Delivery is
// best-effort: a subscriber whose buffer is full has stopped reading
// and is disconnected rather than allowed to stall the mint pipeline.
func (h *Hub) AttemptUpdated(attempt mint.Attempt) {
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subscribers[attempt.ID]))
	for sub := range h.subscribers[attempt.ID] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.send <- attempt:
		case <-sub.done:
		default:
			logrus.WithField("attempt_id", attempt.ID).Debug("Disconnecting slow attempt subscriber")
			sub.stop()
		}
	}
}
