package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is a go-redis client whose keys live under a single namespace.
type Client struct {
	*redis.Client
	namespace string
}

// NewClient connects to Redis and verifies the connection within pingTimeout.
func NewClient(ctx context.Context, redisURL, namespace string, pingTimeout time.Duration) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := Wrap(redis.NewClient(opts), namespace)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

func Wrap(rdb *redis.Client, namespace string) *Client {
	return &Client{Client: rdb, namespace: strings.TrimSuffix(namespace, ":")}
}

// Key joins parts under the client namespace: Key("session") -> "creditline:session".
func (c *Client) Key(parts ...string) string {
	if c.namespace == "" {
		return strings.Join(parts, ":")
	}
	return c.namespace + ":" + strings.Join(parts, ":")
}
