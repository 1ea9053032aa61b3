package config

import "time"

// HTTP server timeouts
const (
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
	ServerRequestSlack    = 10 * time.Second
)

// Portal login is a single round trip and never gets the slow path.
const LoginTimeout = 30 * time.Second

const MinTimeoutSeconds = 5

// Pause before a proactive re-login in batch and console runs.
const (
	RotationPauseMin = 10 * time.Second
	RotationPauseMax = 20 * time.Second
)

// Redis
const (
	RedisPingTimeout = 5 * time.Second
	RedisNamespace   = "creditline"
)

const DefaultRateLimitPerMin = 30
