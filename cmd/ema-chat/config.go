package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	voicechat "github.com/koscakluka/ema-chat/core"
	"github.com/koscakluka/ema-chat/core/backend"
	"github.com/koscakluka/ema-chat/core/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	defaultStreamIdleTimeout   = backend.DefaultIdleTimeout
	defaultPlaybackSettleDelay = voicechat.DefaultSettleDelay

	audioBackendMiniaudio = "miniaudio"
	audioBackendPortaudio = "portaudio"
	audioBackendNone      = "none"
)

// Config is the resolved configuration of the client. Every field can be
// set in the config file, through EMA_CHAT_* environment variables or with
// the flag of the same name.
type Config struct {
	Host              string        `json:"host,omitempty" yaml:"host,omitempty" jsonschema:"description=Host the backend runs on; it is reached on port 8000"`
	BackendURL        string        `json:"backend-url,omitempty" yaml:"backend-url,omitempty" jsonschema:"description=Full backend base URL; overrides host,format=uri"`
	StreamIdleTimeout time.Duration `json:"stream-idle-timeout,omitempty" yaml:"-" jsonschema:"type=string,description=Abort a response stream after this long without data; 0 disables,example=60s"`

	Store       string `json:"store,omitempty" yaml:"store,omitempty" jsonschema:"enum=bolt,enum=redis,enum=memory,default=bolt"`
	StorePath   string `json:"store-path,omitempty" yaml:"store-path,omitempty" jsonschema:"description=Bolt database file"`
	RedisAddr   string `json:"redis-addr,omitempty" yaml:"redis-addr,omitempty" jsonschema:"default=localhost:6379"`
	RedisPrefix string `json:"redis-prefix,omitempty" yaml:"redis-prefix,omitempty" jsonschema:"default=ema-chat:"`

	AudioBackend        string        `json:"audio-backend,omitempty" yaml:"audio-backend,omitempty" jsonschema:"enum=miniaudio,enum=portaudio,enum=none,default=miniaudio"`
	PlaybackSettleDelay time.Duration `json:"playback-settle-delay,omitempty" yaml:"-" jsonschema:"type=string,description=Pause between consecutive voice clips,example=100ms"`

	LogLevel   string `json:"log-level,omitempty" yaml:"log-level,omitempty" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error,enum=fatal,default=info"`
	LogFormat  string `json:"log-format,omitempty" yaml:"log-format,omitempty" jsonschema:"enum=text,enum=json,default=text"`
	LogFile    string `json:"log-file,omitempty" yaml:"log-file,omitempty"`
	WithCaller bool   `json:"with-caller,omitempty" yaml:"with-caller,omitempty"`
}

func loadConfig() Config {
	return Config{
		Host:                viper.GetString("host"),
		BackendURL:          viper.GetString("backend-url"),
		StreamIdleTimeout:   viper.GetDuration("stream-idle-timeout"),
		Store:               viper.GetString("store"),
		StorePath:           viper.GetString("store-path"),
		RedisAddr:           viper.GetString("redis-addr"),
		RedisPrefix:         viper.GetString("redis-prefix"),
		AudioBackend:        viper.GetString("audio-backend"),
		PlaybackSettleDelay: viper.GetDuration("playback-settle-delay"),
		LogLevel:            viper.GetString("log-level"),
		LogFormat:           viper.GetString("log-format"),
		LogFile:             viper.GetString("log-file"),
		WithCaller:          viper.GetBool("with-caller"),
	}
}

func (c Config) backendURL() string {
	if c.BackendURL != "" {
		return c.BackendURL
	}
	return backend.AddressForHost(c.Host)
}

func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, ".ema-chat"), nil
}

func openStore(ctx context.Context, config Config) (storage.Store, error) {
	switch storage.StoreType(config.Store) {
	case storage.StoreTypeBolt, "":
		path := config.StorePath
		if path == "" {
			dir, err := dataDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "ema-chat.db")
		}
		return storage.NewStore(storage.StoreTypeBolt, storage.WithBoltPath(path))

	case storage.StoreTypeRedis:
		client := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", config.RedisAddr, err)
		}
		opts := []storage.StoreOption{storage.WithRedisClient(client)}
		if config.RedisPrefix != "" {
			opts = append(opts, storage.WithRedisPrefix(config.RedisPrefix))
		}
		return storage.NewStore(storage.StoreTypeRedis, opts...)

	default:
		return storage.NewStore(storage.StoreType(config.Store))
	}
}

func newBackendClient(config Config) (*backend.Client, error) {
	return backend.NewClient(config.backendURL(), backend.WithIdleTimeout(config.StreamIdleTimeout))
}

// openSession opens the store, connects the backend client and restores the
// saved conversations. The returned close function releases both.
func openSession(ctx context.Context, config Config, opts ...voicechat.SessionOption) (*voicechat.Session, func(), error) {
	client, err := newBackendClient(config)
	if err != nil {
		return nil, nil, err
	}
	slots, err := openStore(ctx, config)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]voicechat.SessionOption{voicechat.WithPlaybackSettleDelay(config.PlaybackSettleDelay)}, opts...)
	session := voicechat.NewSession(client, slots, opts...)
	if err := session.Load(ctx); err != nil {
		_ = slots.Close()
		return nil, nil, fmt.Errorf("failed to load conversations: %w", err)
	}

	return session, func() {
		session.Close()
		if err := slots.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}, nil
}
