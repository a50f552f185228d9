package market

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type streamMessage struct {
	Type    string `json:"type"`
	EventID string `json:"event_id,omitempty"`
}

var pongPayload = []byte(`{"type":"pong"}`)

// client is one websocket connection with its write lock. Broadcasts and
// pong replies come from different goroutines, and the connection allows
// only a single concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

// Hub fans odds updates out to WebSocket clients. Clients subscribe to
// event ids and receive every OddsQuote published for them.
type Hub struct {
	upgrader websocket.Upgrader

	mu sync.RWMutex
	// event id -> subscribed clients
	subs map[string]map[*client]struct{}
}

func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS runs the subscribe/unsubscribe loop for one connection. On
// disconnect the connection is dropped from every subscription.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	cl := &client{conn: conn}

	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			if _, ok := h.subs[msg.EventID]; !ok {
				h.subs[msg.EventID] = make(map[*client]struct{})
			}
			h.subs[msg.EventID][cl] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			if set, ok := h.subs[msg.EventID]; ok {
				delete(set, cl)
				if len(set) == 0 {
					delete(h.subs, msg.EventID)
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = cl.write(websocket.TextMessage, pongPayload)
		}
	}

	h.mu.Lock()
	for _, set := range h.subs {
		delete(set, cl)
	}
	h.mu.Unlock()
}

// Broadcast sends a quote to every client subscribed to its event. The
// subscriber set is copied under the lock; the read loop mutates the
// live map concurrently.
func (h *Hub) Broadcast(q OddsQuote) {
	h.mu.RLock()
	set := h.subs[q.EventID]
	clients := make([]*client, 0, len(set))
	for c := range set {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		return
	}

	b, _ := json.Marshal(q)
	for _, c := range clients {
		_ = c.write(websocket.TextMessage, b)
	}
}

// StartSubscriber relays quotes from the Redis pub/sub channel to the
// hub until the context is cancelled.
func StartSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	sub := rdb.Subscribe(ctx, PubSubChannel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				var q OddsQuote
				if err := json.Unmarshal([]byte(msg.Payload), &q); err != nil {
					log.Warn().Err(err).Msg("odds subscriber: bad payload")
					continue
				}
				hub.Broadcast(q)
			}
		}
	}()
}
