package events

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
)

func TestMemoryBrokerPublishSubscribe(t *testing.T) {
	b := NewMemoryBroker()
	ch := b.Subscribe("dispatch")

	evt := Event{Type: "new-request", Data: map[string]any{"request_id": "REQ-1"}}
	b.Publish("dispatch", evt)

	select {
	case got := <-ch:
		if got.Type != evt.Type {
			t.Fatalf("got type %q, want %q", got.Type, evt.Type)
		}
		if got.Data["request_id"] != "REQ-1" {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe("dispatch", ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
}

func TestMemoryBrokerDropsWhenSubscriberIsFull(t *testing.T) {
	b := NewMemoryBroker()
	ch := b.Subscribe("dispatch")

	for i := 0; i < 20; i++ {
		b.Publish("dispatch", Event{Type: "new-request"})
	}

	// Publish must never block; the buffered channel holds what it can.
	if got := len(ch); got != cap(ch) {
		t.Fatalf("buffered events = %d, want %d", got, cap(ch))
	}
}

func TestRedisBrokerPublishSubscribe(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer rdb.Close()

	b := NewRedisBroker(rdb)
	ch := b.Subscribe("dispatch")
	defer b.Unsubscribe("dispatch", ch)

	b.Publish("dispatch", Event{Type: "appointment-confirmed", Data: map[string]any{"appointment_id": "APP-1"}})

	select {
	case got := <-ch:
		if got.Type != "appointment-confirmed" {
			t.Fatalf("got type %q, want appointment-confirmed", got.Type)
		}
		if got.Data["appointment_id"] != "APP-1" {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}
