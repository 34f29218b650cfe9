// Package ws pushes community events to connected browsers over websockets.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Event types sent to clients.
const (
	EventStoryCreated   = "story_created"
	EventStoryLiked     = "story_liked"
	EventThreadCreated  = "thread_created"
	EventCommentCreated = "comment_created"
)

// Message is the JSON frame clients receive.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub tracks connected clients and fans broadcasts out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	connected  atomic.Int64
	done       chan struct{}
	upgrader   websocket.Upgrader
	log        logrus.FieldLogger
}

// NewHub returns a Hub accepting upgrades from allowedOrigin, the same value
// the gateway uses for CORS. "*" or empty accepts any origin. Run must be
// started before clients connect.
func NewHub(log logrus.FieldLogger, allowedOrigin string) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigin),
		},
		log: log,
	}
}

// originChecker matches the Origin header exactly. Requests without one do
// not come from a browser and are accepted.
func originChecker(allowed string) func(*http.Request) bool {
	if allowed == "" || allowed == "*" {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == allowed
	}
}

// Run serves register, unregister and broadcast requests until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.connected.Store(0)
			return
		case client := <-h.register:
			h.clients[client] = true
			h.connected.Store(int64(len(h.clients)))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.connected.Store(int64(len(h.clients)))
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.connected.Store(int64(len(h.clients)))
		}
	}
}

// Len reports how many clients are connected.
func (h *Hub) Len() int {
	return int(h.connected.Load())
}

// Publish encodes an event and queues it for every client. It never blocks
// the caller: when the queue is full the event is dropped and logged.
func (h *Hub) Publish(eventType string, data interface{}) {
	payload, err := json.Marshal(Message{Type: eventType, Data: data})
	if err != nil {
		h.log.WithError(err).WithField("type", eventType).Error("marshal websocket event")
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.log.WithField("type", eventType).Warn("websocket broadcast queue full, event dropped")
	}
}
