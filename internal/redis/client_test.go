package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	tests := []struct {
		namespace string
		parts     []string
		want      string
	}{
		{"creditline", []string{"session"}, "creditline:session"},
		{"creditline:", []string{"ratelimit", "10.0.0.1"}, "creditline:ratelimit:10.0.0.1"},
		{"", []string{"session"}, "session"},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			c := Wrap(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), tc.namespace)
			defer c.Close()
			assert.Equal(t, tc.want, c.Key(tc.parts...))
		})
	}
}

func TestNewClient(t *testing.T) {
	t.Run("connects and pings", func(t *testing.T) {
		mr := miniredis.RunT(t)

		c, err := NewClient(context.Background(), "redis://"+mr.Addr(), "creditline", time.Second)
		require.NoError(t, err)
		defer c.Close()

		require.NoError(t, c.Set(context.Background(), c.Key("probe"), "1", 0).Err())
		assert.True(t, mr.Exists("creditline:probe"))
	})

	t.Run("rejects bad url", func(t *testing.T) {
		_, err := NewClient(context.Background(), "not-a-url", "creditline", time.Second)
		assert.ErrorContains(t, err, "parse redis url")
	})

	t.Run("fails when server is gone", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := NewClient(context.Background(), "redis://"+addr, "creditline", 200*time.Millisecond)
		assert.ErrorContains(t, err, "ping redis")
	})
}
