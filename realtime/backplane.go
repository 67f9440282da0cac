package realtime

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Backplane mirrors published messages to hubs on other instances. The
// in-process registry alone only reaches clients connected to this
// instance; multi-instance deployments need a shared channel.
type Backplane interface {
	Forward(channel string, msg Message) error
}

const backplanePrefix = "realtime:"

type envelope struct {
	Instance string  `json:"instance"`
	Channel  string  `json:"channel"`
	Message  Message `json:"message"`
}

// RedisBackplane relays hub messages over Redis pub/sub. Each instance
// tags envelopes with its own id so it never re-delivers its own publishes.
type RedisBackplane struct {
	rdb        *redis.Client
	instanceID string
}

func NewRedisBackplane(rdb *redis.Client) *RedisBackplane {
	return &RedisBackplane{
		rdb:        rdb,
		instanceID: uuid.NewString(),
	}
}

func (b *RedisBackplane) Forward(channel string, msg Message) error {
	payload, err := json.Marshal(envelope{
		Instance: b.instanceID,
		Channel:  channel,
		Message:  msg,
	})
	if err != nil {
		return err
	}
	return b.rdb.Publish(context.Background(), backplanePrefix+channel, payload).Err()
}

// Attach wires the backplane into the hub and starts relaying remote
// messages into it until ctx is cancelled.
func (b *RedisBackplane) Attach(ctx context.Context, hub *Hub) {
	hub.backplane = b

	pubsub := b.rdb.PSubscribe(ctx, backplanePrefix+"*")
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				var env envelope
				if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
					log.Printf("backplane: bad envelope on %s: %v", m.Channel, err)
					continue
				}
				if env.Instance == b.instanceID {
					continue
				}
				channel := env.Channel
				if channel == "" {
					channel = strings.TrimPrefix(m.Channel, backplanePrefix)
				}
				hub.publishLocal(channel, env.Message)
			}
		}
	}()
}
