package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const relayChannelPrefix = "talkitout:session:"

type relayEnvelope struct {
	Origin string         `json:"origin"`
	Event  string         `json:"event"`
	Data   map[string]any `json:"data"`
}

// RedisRelay fans session events out across nodes with Redis pub/sub.
type RedisRelay struct {
	client *redis.Client
	hub    *Hub
	nodeID string
	logger *slog.Logger
}

// NewRedisRelay creates a relay and attaches it to hub.
func NewRedisRelay(client *redis.Client, hub *Hub) *RedisRelay {
	r := &RedisRelay{
		client: client,
		hub:    hub,
		nodeID: uuid.New().String(),
		logger: utils.GetLogger(),
	}
	hub.SetRelay(r)
	return r
}

// Forward publishes ev for other nodes. Local delivery is done by the hub.
func (r *RedisRelay) Forward(ctx context.Context, sessionID string, ev Event) error {
	payload, err := json.Marshal(relayEnvelope{
		Origin: r.nodeID,
		Event:  ev.EventName(),
		Data:   eventToData(ev),
	})
	if err != nil {
		return fmt.Errorf("encode relay event: %w", err)
	}
	if err := r.client.Publish(ctx, relayChannelPrefix+sessionID, payload).Err(); err != nil {
		return fmt.Errorf("publish relay event: %w", err)
	}
	return nil
}

// Run delivers events from other nodes until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.PSubscribe(ctx, relayChannelPrefix+"*")
	defer pubsub.Close()

	// Wait for the subscription to be confirmed.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe relay: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(msg)
		}
	}
}

func (r *RedisRelay) handle(msg *redis.Message) {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		r.logger.Warn("Invalid relay payload", "channel", msg.Channel, "error", err)
		return
	}
	if env.Origin == r.nodeID {
		return
	}
	sessionID := strings.TrimPrefix(msg.Channel, relayChannelPrefix)
	r.hub.Deliver(sessionID, RawEvent{Name: env.Event, Data: env.Data})
}
