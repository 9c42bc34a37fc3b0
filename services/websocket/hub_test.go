package websocket

import (
	"sync"
	"testing"
)

// A client with a full send buffer must be dropped from the hub, and
// concurrent per-user broadcasts must not corrupt the client map.
func TestBroadcastToUserDropsSlowConsumer(t *testing.T) {
	hub := NewHub()

	slow := &Client{hub: hub, send: make(chan []byte), userID: 7}
	fast := &Client{hub: hub, send: make(chan []byte, 8), userID: 7}
	hub.clients[slow] = true
	hub.clients[fast] = true

	hub.BroadcastToUser(7, Message{Type: "payment_update", Data: "verified"})

	if got := hub.GetClientCount(); got != 1 {
		t.Fatalf("expected 1 client after dropping slow consumer, got %d", got)
	}
	if _, ok := hub.clients[slow]; ok {
		t.Fatal("slow consumer still registered")
	}
	select {
	case _, ok := <-slow.send:
		if ok {
			t.Fatal("unexpected message on dropped client")
		}
	default:
		t.Fatal("slow consumer send channel not closed")
	}
	select {
	case <-fast.send:
	default:
		t.Fatal("fast consumer did not receive the message")
	}
}

func TestBroadcastToUserConcurrent(t *testing.T) {
	hub := NewHub()
	for i := 0; i < 16; i++ {
		hub.clients[&Client{hub: hub, send: make(chan []byte), userID: uint(i % 4)}] = true
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			hub.BroadcastToUser(userID, Message{Type: "notification", Data: "hello"})
		}(uint(i % 4))
	}
	wg.Wait()

	if got := hub.GetClientCount(); got != 0 {
		t.Fatalf("expected all unbuffered clients dropped, got %d remaining", got)
	}
}
