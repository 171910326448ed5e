package stream

import (
	"context"
	"testing"
	"time"
)

func newTestClient(h *Hub, buffer int) *Client {
	c := &Client{id: "test", hub: h, send: make(chan []byte, buffer)}
	h.register <- c
	return c
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	h := newHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	a := newTestClient(h, sendBuffer)
	b := newTestClient(h, sendBuffer)

	deadline := time.After(time.Second)
	for h.ClientCount() != 2 {
		select {
		case <-deadline:
			t.Fatal("clients never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	frame := []byte{0xFF, 0xD8, 0x01}
	h.Broadcast(frame)

	for _, c := range []*Client{a, b} {
		select {
		case got := <-c.send:
			if len(got) != len(frame) {
				t.Errorf("client %s got %d bytes, want %d", c.id, len(got), len(frame))
			}
		case <-time.After(time.Second):
			t.Fatalf("client %s never received the frame", c.id)
		}
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := newHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	slow := newTestClient(h, 1) // never reads

	deadline := time.After(time.Second)
	for h.ClientCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("client never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// First frame fills the buffer, second must evict the client
	h.Broadcast([]byte{1})
	h.Broadcast([]byte{2})

	deadline = time.After(time.Second)
	for h.ClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("slow client was never dropped")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// Dropped clients get their send channel closed
	if _, ok := <-slow.send; ok {
		// first queued frame is fine; the close must follow
		if _, ok := <-slow.send; ok {
			t.Error("send channel still open after drop")
		}
	}
}
