package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisBroker implements Broker over Redis Pub/Sub so events reach dashboards
// connected to any instance behind a load balancer.
type RedisBroker struct {
	rdb *redis.Client

	mu   sync.Mutex
	subs map[chan Event]*redis.PubSub
}

func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{
		rdb:  rdb,
		subs: map[chan Event]*redis.PubSub{},
	}
}

func (b *RedisBroker) Subscribe(topic string) chan Event {
	ch := make(chan Event, 16)

	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.channelName(topic))
	// Wait for the subscription confirmation so a Publish issued right after
	// Subscribe is not lost.
	if _, err := ps.Receive(ctx); err != nil {
		log.Printf("redis broker: subscribe topic=%s err=%v", topic, err)
	}

	b.mu.Lock()
	b.subs[ch] = ps
	b.mu.Unlock()

	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				log.Printf("redis broker: decode event topic=%s err=%v", topic, err)
				continue
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}()

	return ch
}

func (b *RedisBroker) Unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	ps := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()

	if ps != nil {
		// Closing the PubSub ends the reader goroutine, which closes ch.
		_ = ps.Close()
	}
}

func (b *RedisBroker) Publish(topic string, evt Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("redis broker: encode event topic=%s err=%v", topic, err)
		return
	}

	if err := b.rdb.Publish(ctx, b.channelName(topic), data).Err(); err != nil {
		log.Printf("redis broker: publish topic=%s err=%v", topic, err)
	}
}

func (b *RedisBroker) channelName(topic string) string { return "dispatch:" + topic }
