// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"time"

	"github.com/caarlos0/env"
)

type Config struct {
	LockTimeoutSecond     int `env:"ENTITY_LOCK_TIMEOUT_SECOND"   envDefault:"0"  envDocs:"time limit in second when waiting for a room/user lock (0 means use default from code)"`
	LockAttemptLimit      int `env:"ENTITY_LOCK_ATTEMPT_LIMIT"    envDefault:"0"  envDocs:"number of lookup/lock attempts before an entity is considered unavailable (0 means use default from code)"`
	UserItemLimit         int `env:"USER_PLAYLIST_ITEM_LIMIT"     envDefault:"3"  envDocs:"maximum number of unplayed playlist items one user may have queued in a room"`
	StageGraceDelaySecond int `env:"STAGE_GRACE_DELAY_SECOND"     envDefault:"0"  envDocs:"delay before a short-circuited stage advances (0 means use default from code)"`

	DatabaseDSN    string `env:"DB_DSN"            envDefault:""                      envDocs:"postgres connection string for room/playlist/statistics persistence"`
	RedisAddr      string `env:"REDIS_ADDR"        envDefault:""                      envDocs:"redis address for the pub/sub notifier (empty disables publishing)"`
	InteropBaseURL string `env:"INTEROP_BASE_URL"  envDefault:"http://localhost:8080" envDocs:"base URL of the room membership web service"`
	ZipkinEndpoint string `env:"ZIPKIN_ENDPOINT"   envDefault:""                      envDocs:"zipkin collector endpoint (empty disables trace export)"`
	MetricsAddr    string `env:"METRICS_ADDR"      envDefault:":9090"                 envDocs:"listen address for the prometheus /metrics endpoint"`

	InteropRetryAttempts  int `env:"INTEROP_RETRY_ATTEMPTS"   envDefault:"3" envDocs:"number of attempts for interop calls failing with 5xx"`
	InteropBackoffSecond  int `env:"INTEROP_BACKOFF_SECOND"   envDefault:"1" envDocs:"fixed backoff in second between interop retries"`
	InteropCacheTTLSecond int `env:"INTEROP_CACHE_TTL_SECOND" envDefault:"30" envDocs:"TTL for cached idempotent interop responses"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LockTimeout returns the configured lock wait bound, or zero when the code
// default should apply.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutSecond) * time.Second
}

func (c *Config) StageGraceDelay() time.Duration {
	return time.Duration(c.StageGraceDelaySecond) * time.Second
}

func (c *Config) InteropBackoff() time.Duration {
	return time.Duration(c.InteropBackoffSecond) * time.Second
}

func (c *Config) InteropCacheTTL() time.Duration {
	return time.Duration(c.InteropCacheTTLSecond) * time.Second
}
