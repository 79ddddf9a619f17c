package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/lintang-b-s/osmlr-overlay/pkg/tilestore"
	"github.com/spf13/viper"
)

type Config struct {
	GeometryTileURL   string
	DataTileURL       string
	DataTileFormat    string
	RouteHost         string
	HTTPClientTimeout time.Duration

	SinkDriver    string
	BoltPath      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	DefaultHour int
	Workers     int
}

// New loads .env and an optional config.yaml from the working directory. Environment
// variables override both.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var typeErr viper.ConfigFileNotFoundError
		if !errors.As(err, &typeErr) {
			return nil, err
		}
	}

	SetDefaults()
	return Load(), nil
}

func SetDefaults() {
	viper.SetDefault("GEOMETRY_TILE_URL", tilestore.DefaultGeometryTileURL)
	viper.SetDefault("DATA_TILE_URL", tilestore.DefaultDataTileURL)
	viper.SetDefault("DATA_TILE_FORMAT", string(tilestore.FormatJSON))
	viper.SetDefault("ROUTE_HOST", "")
	viper.SetDefault("HTTP_CLIENT_TIMEOUT", "0s")
	viper.SetDefault("SINK_DRIVER", "memory")
	viper.SetDefault("BOLT_PATH", "overlay_store.db")
	viper.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_TTL", "0s")
	viper.SetDefault("DEFAULT_HOUR", 0)
	viper.SetDefault("WORKERS", 4)
}

func Load() *Config {
	return &Config{
		GeometryTileURL:   viper.GetString("GEOMETRY_TILE_URL"),
		DataTileURL:       viper.GetString("DATA_TILE_URL"),
		DataTileFormat:    viper.GetString("DATA_TILE_FORMAT"),
		RouteHost:         viper.GetString("ROUTE_HOST"),
		HTTPClientTimeout: viper.GetDuration("HTTP_CLIENT_TIMEOUT"),
		SinkDriver:        viper.GetString("SINK_DRIVER"),
		BoltPath:          viper.GetString("BOLT_PATH"),
		RedisAddr:         viper.GetString("REDIS_ADDR"),
		RedisPassword:     viper.GetString("REDIS_PASSWORD"),
		RedisDB:           viper.GetInt("REDIS_DB"),
		RedisTTL:          viper.GetDuration("REDIS_TTL"),
		DefaultHour:       viper.GetInt("DEFAULT_HOUR"),
		Workers:           viper.GetInt("WORKERS"),
	}
}
