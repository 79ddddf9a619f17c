package kvdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lintang-b-s/osmlr-overlay/pkg/overlay"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "osmlr-overlay:"

// RedisSink shares published overlays between server replicas.
type RedisSink struct {
	client *redis.Client
	ttl    time.Duration
}

func OpenRedis(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

// NewRedisSink stores overlays with ttl, zero keeps them until cleared.
func NewRedisSink(client *redis.Client, ttl time.Duration) *RedisSink {
	return &RedisSink{client: client, ttl: ttl}
}

func redisKey(name string) string {
	return redisKeyPrefix + name
}

func (s *RedisSink) Set(ctx context.Context, name string, o overlay.Overlay) error {
	buf, err := encodeOverlay(o, time.Now())
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey(name), buf, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", name, err)
	}
	return nil
}

func (s *RedisSink) Get(ctx context.Context, name string) (overlay.Overlay, bool, error) {
	buf, err := s.client.Get(ctx, redisKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return overlay.Overlay{}, false, nil
	}
	if err != nil {
		return overlay.Overlay{}, false, fmt.Errorf("redis get %s: %w", name, err)
	}
	o, err := decodeOverlay(buf)
	if err != nil {
		return overlay.Overlay{}, false, err
	}
	return o, true, nil
}

func (s *RedisSink) Clear(ctx context.Context, name string) error {
	if err := s.client.Del(ctx, redisKey(name)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", name, err)
	}
	return nil
}
