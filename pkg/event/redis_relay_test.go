package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) add(ev Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRedisRelay_CrossNodeDelivery(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newNode := func() (*Hub, *collector) {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		hub := NewHub()
		relay := NewRedisRelay(client, hub)
		go func() { _ = relay.Run(ctx) }()
		c := &collector{}
		hub.Subscribe("s1", c.add)
		return hub, c
	}

	hubA, gotA := newNode()
	_, gotB := newNode()
	waitFor(t, "relay subscriptions", func() bool { return mr.PubSubNumPat() >= 2 })

	hubA.Publish("s1", NewMessageEvent{ID: "m1", SessionID: "s1", Content: "hello"})

	waitFor(t, "delivery on node B", func() bool { return len(gotB.snapshot()) == 1 })
	ev := gotB.snapshot()[0]
	raw, ok := ev.(RawEvent)
	if !ok {
		t.Fatalf("node B event type = %T, want RawEvent", ev)
	}
	if raw.Name != NewMessage || raw.Data["id"] != "m1" || raw.Data["content"] != "hello" {
		t.Fatalf("node B event = %+v", raw)
	}

	// Node A must not receive its own event back from Redis.
	time.Sleep(50 * time.Millisecond)
	if n := len(gotA.snapshot()); n != 1 {
		t.Fatalf("node A deliveries = %d, want 1", n)
	}
}

func TestRedisRelay_IgnoresGarbage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	hub := NewHub()
	relay := NewRedisRelay(client, hub)
	c := &collector{}
	hub.Subscribe("s1", c.add)

	relay.handle(&redis.Message{Channel: relayChannelPrefix + "s1", Payload: "not json"})
	if n := len(c.snapshot()); n != 0 {
		t.Fatalf("deliveries = %d, want 0", n)
	}

	relay.handle(&redis.Message{Channel: relayChannelPrefix + "s1", Payload: `{"origin":"other","event":"typing_stop","data":{"userId":"sam"}}`})
	got := c.snapshot()
	if len(got) != 1 || got[0].EventName() != TypingStop {
		t.Fatalf("deliveries = %v, want one typing_stop", got)
	}
}
