package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Username:             "user",
		Password:             "secret",
		BaseURL:              "https://portal.example.com/",
		LoginPath:            "/api/authenticate",
		LookupPath:           "/api/lineaCredito",
		TimeoutSeconds:       60,
		QuickTimeoutSeconds:  30,
		DelayMinSeconds:      10,
		DelayMaxSeconds:      207,
		MaxQueriesPerSession: 50,
		SessionTTLSeconds:    3600,
		CooldownSeconds:      60,
		Port:                 5000,
	}
}

func TestConfigMethods(t *testing.T) {
	cfg := validConfig()

	t.Run("Addr returns formatted port", func(t *testing.T) {
		assert.Equal(t, ":5000", cfg.Addr())
	})

	t.Run("URLs join base and path without double slash", func(t *testing.T) {
		assert.Equal(t, "https://portal.example.com/api/authenticate", cfg.LoginURL())
		assert.Equal(t, "https://portal.example.com/api/lineaCredito", cfg.LookupURL())
	})

	t.Run("durations convert from seconds", func(t *testing.T) {
		assert.Equal(t, 60*time.Second, cfg.Timeout())
		assert.Equal(t, 30*time.Second, cfg.QuickTimeout())
		assert.Equal(t, time.Hour, cfg.SessionTTL())
		assert.Equal(t, time.Minute, cfg.Cooldown())
		assert.Equal(t, 10*time.Second, cfg.DelayMin())
		assert.Equal(t, 207*time.Second, cfg.DelayMax())
	})

	t.Run("fractional delays keep sub-second precision", func(t *testing.T) {
		c := validConfig()
		c.DelayMinSeconds = 0.5
		assert.Equal(t, 500*time.Millisecond, c.DelayMin())
	})

	t.Run("RequestTimeout covers two logins and two lookups", func(t *testing.T) {
		worst := 2 * (LoginTimeout + cfg.QuickTimeout() + cfg.Timeout())
		assert.Greater(t, cfg.RequestTimeout(), worst)
		assert.Equal(t, worst+ServerRequestSlack, cfg.RequestTimeout())
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid config", func(c *Config) {}, ""},
		{"delay min above max", func(c *Config) { c.DelayMinSeconds = 300 }, "DELAY_MIN cannot be greater than DELAY_MAX"},
		{"timeout too small", func(c *Config) { c.TimeoutSeconds = 4; c.QuickTimeoutSeconds = 2 }, "TIMEOUT must be at least 5 seconds"},
		{"quick timeout above timeout", func(c *Config) { c.QuickTimeoutSeconds = 90 }, "QUICK_TIMEOUT"},
		{"missing password", func(c *Config) { c.Password = "" }, "CALIDDA_PASSWORD is not set"},
		{"bad encryption key", func(c *Config) { c.EncryptionKey = "abc" }, "ENCRYPTION_KEY"},
		{"good encryption key", func(c *Config) {
			c.EncryptionKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
		}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	keys := []string{
		"CALIDDA_USUARIO", "CALIDDA_PASSWORD", "PORT", "TIMEOUT",
		"QUICK_TIMEOUT", "DELAY_MIN", "DELAY_MAX", "LOG_LEVEL",
	}
	originalEnv := make(map[string]string, len(keys))
	for _, k := range keys {
		originalEnv[k] = os.Getenv(k)
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		os.Setenv("CALIDDA_USUARIO", "user")
		os.Setenv("CALIDDA_PASSWORD", "secret")
		for _, k := range keys[2:] {
			os.Unsetenv(k)
		}

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 5000, cfg.Port)
		assert.Equal(t, 60, cfg.TimeoutSeconds)
		assert.Equal(t, 30, cfg.QuickTimeoutSeconds)
		assert.Equal(t, 50, cfg.MaxQueriesPerSession)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "https://appweb.calidda.com.pe/FNB_Services/api/Seguridad/autenticar", cfg.LoginURL())
	})

	t.Run("loads custom values", func(t *testing.T) {
		os.Setenv("CALIDDA_USUARIO", "user")
		os.Setenv("CALIDDA_PASSWORD", "secret")
		os.Setenv("PORT", "8081")
		os.Setenv("DELAY_MIN", "1.5")
		os.Setenv("DELAY_MAX", "3")
		os.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8081, cfg.Port)
		assert.Equal(t, 1500*time.Millisecond, cfg.DelayMin())
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("fails without required credentials", func(t *testing.T) {
		os.Unsetenv("CALIDDA_USUARIO")
		os.Setenv("CALIDDA_PASSWORD", "secret")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("fails when validation fails", func(t *testing.T) {
		os.Setenv("CALIDDA_USUARIO", "user")
		os.Setenv("CALIDDA_PASSWORD", "secret")
		os.Setenv("DELAY_MIN", "50")
		os.Setenv("DELAY_MAX", "10")

		_, err := Load()
		assert.Error(t, err)
	})
}
