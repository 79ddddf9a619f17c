package kv_di

import (
	"context"
	"fmt"

	"github.com/lintang-b-s/osmlr-overlay/pkg/di/config"
	"github.com/lintang-b-s/osmlr-overlay/pkg/kvdb"
	"github.com/lintang-b-s/osmlr-overlay/pkg/overlay"
	"go.uber.org/zap"
)

const (
	DriverMemory = "memory"
	DriverBolt   = "bolt"
	DriverRedis  = "redis"
)

// New opens the render sink selected by SINK_DRIVER.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (overlay.RenderSink, func(), error) {
	switch cfg.SinkDriver {
	case DriverMemory, "":
		return overlay.NewMemorySink(), func() {}, nil
	case DriverBolt:
		db, err := kvdb.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("render sink: bolt", zap.String("path", cfg.BoltPath))
		cleanup := func() {
			_ = db.Close()
		}
		return kvdb.NewBoltSink(db), cleanup, nil
	case DriverRedis:
		client := kvdb.OpenRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		log.Info("render sink: redis", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
		cleanup := func() {
			_ = client.Close()
		}
		return kvdb.NewRedisSink(client, cfg.RedisTTL), cleanup, nil
	}
	return nil, nil, fmt.Errorf("unknown sink driver %q", cfg.SinkDriver)
}
