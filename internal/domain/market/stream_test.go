package market

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestHub(t *testing.T) (*Hub, *websocket.Conn, func()) {
	t.Helper()
	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return hub, conn, func() {
		conn.Close()
		srv.Close()
	}
}

func waitForSubscribers(t *testing.T, hub *Hub, eventID string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		got := len(hub.subs[eventID])
		hub.mu.RUnlock()
		if got == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("event %s never reached %d subscribers", eventID, n)
}

func TestHubDeliversQuoteToSubscriber(t *testing.T) {
	hub, conn, cleanup := dialTestHub(t)
	defer cleanup()

	if err := conn.WriteJSON(streamMessage{Type: "subscribe", EventID: "ev-100"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	waitForSubscribers(t, hub, "ev-100", 1)

	hub.Broadcast(OddsQuote{
		EventID: "ev-100",
		Market:  "match_winner",
		Prices:  map[string]string{"home": "1.85", "away": "2.10"},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got OddsQuote
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read quote: %v", err)
	}
	if got.EventID != "ev-100" || got.Prices["home"] != "1.85" {
		t.Fatalf("unexpected quote: %+v", got)
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub, conn, cleanup := dialTestHub(t)
	defer cleanup()

	if err := conn.WriteJSON(streamMessage{Type: "subscribe", EventID: "ev-101"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	waitForSubscribers(t, hub, "ev-101", 1)
	if err := conn.WriteJSON(streamMessage{Type: "unsubscribe", EventID: "ev-101"}); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	waitForSubscribers(t, hub, "ev-101", 0)

	hub.Broadcast(OddsQuote{EventID: "ev-101", Market: "match_winner", Prices: map[string]string{"home": "1.50"}})

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("received a quote after unsubscribing")
	}
}

// Broadcasts run from the subscriber goroutine while the read loop keeps
// mutating subscriptions and answering pings. Run with -race to check the
// subscriber set copy and the per-connection write lock.
func TestHubBroadcastDuringResubscribe(t *testing.T) {
	hub, conn, cleanup := dialTestHub(t)
	defer cleanup()

	// Drain server pushes so hub writes never block on the socket.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 300; i++ {
			if err := conn.WriteJSON(streamMessage{Type: "subscribe", EventID: "ev-102"}); err != nil {
				return
			}
			if err := conn.WriteJSON(streamMessage{Type: "ping"}); err != nil {
				return
			}
			if err := conn.WriteJSON(streamMessage{Type: "unsubscribe", EventID: "ev-102"}); err != nil {
				return
			}
		}
	}()

	q := OddsQuote{EventID: "ev-102", Market: "match_winner", Prices: map[string]string{"home": "2.05"}}
	for i := 0; i < 1000; i++ {
		hub.Broadcast(q)
	}
	<-done
}
