package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

const (
	keyAnnouncements     = "bazaar:announcements"
	keyRegistrationsPref = "bazaar:registrations:"
)

// Cached serves announcement and registration list reads from Redis and
// falls back to the wrapped Store on a miss or a Redis error. Writes go
// to the wrapped Store first, then drop the affected keys. Snapshot is
// always passed through.
type Cached struct {
	Store
	RDB *redis.Client
	TTL time.Duration
	Log *zap.Logger
}

func NewCached(base Store, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *Cached {
	return &Cached{Store: base, RDB: rdb, TTL: ttl, Log: log}
}

func (c *Cached) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	var out []models.Announcement
	if c.get(ctx, keyAnnouncements, &out) {
		return out, nil
	}
	out, err := c.Store.ListAnnouncements(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, keyAnnouncements, out)
	return out, nil
}

func (c *Cached) SaveAnnouncement(ctx context.Context, a *models.Announcement) error {
	if err := c.Store.SaveAnnouncement(ctx, a); err != nil {
		return err
	}
	c.drop(ctx, keyAnnouncements)
	return nil
}

func (c *Cached) DeleteAnnouncement(ctx context.Context, id string) error {
	if err := c.Store.DeleteAnnouncement(ctx, id); err != nil {
		return err
	}
	c.drop(ctx, keyAnnouncements, keyRegistrationsPref+id)
	return nil
}

func (c *Cached) ListRegistrations(ctx context.Context, announcementID string) ([]models.Registration, error) {
	key := keyRegistrationsPref + announcementID
	var out []models.Registration
	if c.get(ctx, key, &out) {
		return out, nil
	}
	out, err := c.Store.ListRegistrations(ctx, announcementID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, out)
	return out, nil
}

func (c *Cached) SaveRegistration(ctx context.Context, r *models.Registration) error {
	if err := c.Store.SaveRegistration(ctx, r); err != nil {
		return err
	}
	c.drop(ctx, keyRegistrationsPref+r.AnnouncementID)
	return nil
}

func (c *Cached) DeleteRegistration(ctx context.Context, id string) error {
	r, err := c.Store.GetRegistration(ctx, id)
	if err != nil {
		return err
	}
	if err := c.Store.DeleteRegistration(ctx, id); err != nil {
		return err
	}
	c.drop(ctx, keyRegistrationsPref+r.AnnouncementID)
	return nil
}

func (c *Cached) get(ctx context.Context, key string, dst any) bool {
	raw, err := c.RDB.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.Log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.Log.Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cached) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.RDB.Set(ctx, key, raw, c.TTL).Err(); err != nil {
		c.Log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cached) drop(ctx context.Context, keys ...string) {
	if err := c.RDB.Del(ctx, keys...).Err(); err != nil {
		c.Log.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
