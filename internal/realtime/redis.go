package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

const EventsChannel = "bazaar:events"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedis(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisPublisher sends events through Redis pub/sub so every API
// instance can forward them to its own websocket clients.
type RedisPublisher struct {
	RDB *redis.Client
}

func (p *RedisPublisher) Publish(ctx context.Context, ev models.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.RDB.Publish(ctx, EventsChannel, raw).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Forward relays events from Redis to the hub until ctx is done.
func Forward(ctx context.Context, rdb *redis.Client, hub *Hub, log *zap.Logger) {
	sub := rdb.Subscribe(ctx, EventsChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev models.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn("drop malformed event", zap.Error(err))
				continue
			}
			hub.Deliver(ev)
		}
	}
}

// HubPublisher delivers directly when Redis is not configured.
type HubPublisher struct {
	Hub *Hub
}

func (p *HubPublisher) Publish(ctx context.Context, ev models.Event) error {
	p.Hub.Deliver(ev)
	return nil
}
