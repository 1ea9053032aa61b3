package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Username string `env:"CALIDDA_USUARIO,required"`
	Password string `env:"CALIDDA_PASSWORD,required"`

	BaseURL    string `env:"BASE_URL" envDefault:"https://appweb.calidda.com.pe"`
	LoginPath  string `env:"LOGIN_API" envDefault:"/FNB_Services/api/Seguridad/autenticar"`
	LookupPath string `env:"CONSULTA_API" envDefault:"/FNB_Services/api/financiamiento/lineaCredito"`

	TimeoutSeconds       int     `env:"TIMEOUT" envDefault:"60"`
	QuickTimeoutSeconds  int     `env:"QUICK_TIMEOUT" envDefault:"30"`
	DelayMinSeconds      float64 `env:"DELAY_MIN" envDefault:"10"`
	DelayMaxSeconds      float64 `env:"DELAY_MAX" envDefault:"207"`
	MaxQueriesPerSession int     `env:"MAX_CONSULTAS_POR_SESION" envDefault:"50"`
	SessionTTLSeconds    int     `env:"CALIDDA_SESSION_TTL" envDefault:"3600"`
	CooldownSeconds      int     `env:"RATE_LIMIT_COOLDOWN" envDefault:"60"`
	ShowErrorDetail      bool    `env:"SHOW_ERROR_DETAIL" envDefault:"false"`

	OutputDir string `env:"OUTPUT_DIR" envDefault:"consultas_credito"`
	DNIsFile  string `env:"DNIS_FILE" envDefault:"lista_dnis.txt"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE" envDefault:""`

	Port                 int    `env:"PORT" envDefault:"5000"`
	RedisURL             string `env:"REDIS_URL" envDefault:""`
	EncryptionKey        string `env:"ENCRYPTION_KEY"`
	QueryRateLimitPerMin int    `env:"QUERY_RATE_LIMIT_PER_MIN" envDefault:"30"`
}

func (c *Config) LoginURL() string {
	return strings.TrimRight(c.BaseURL, "/") + c.LoginPath
}

func (c *Config) LookupURL() string {
	return strings.TrimRight(c.BaseURL, "/") + c.LookupPath
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) QuickTimeout() time.Duration {
	return time.Duration(c.QuickTimeoutSeconds) * time.Second
}

func (c *Config) DelayMin() time.Duration {
	return time.Duration(c.DelayMinSeconds * float64(time.Second))
}

func (c *Config) DelayMax() time.Duration {
	return time.Duration(c.DelayMaxSeconds * float64(time.Second))
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// RequestTimeout bounds a whole /query request: a cold login, a quick and a
// full attempt, then one re-login plus both attempts again on expiry.
func (c *Config) RequestTimeout() time.Duration {
	return 2*(LoginTimeout+c.QuickTimeout()+c.Timeout()) + ServerRequestSlack
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate() error {
	var problems []string

	if c.Username == "" {
		problems = append(problems, "CALIDDA_USUARIO is not set")
	}
	if c.Password == "" {
		problems = append(problems, "CALIDDA_PASSWORD is not set")
	}
	if c.DelayMinSeconds < 0 {
		problems = append(problems, "DELAY_MIN cannot be negative")
	}
	if c.DelayMinSeconds > c.DelayMaxSeconds {
		problems = append(problems, "DELAY_MIN cannot be greater than DELAY_MAX")
	}
	if c.TimeoutSeconds < MinTimeoutSeconds {
		problems = append(problems, fmt.Sprintf("TIMEOUT must be at least %d seconds", MinTimeoutSeconds))
	}
	if c.QuickTimeoutSeconds <= 0 || c.QuickTimeoutSeconds > c.TimeoutSeconds {
		problems = append(problems, "QUICK_TIMEOUT must be positive and not greater than TIMEOUT")
	}
	if c.SessionTTLSeconds <= 0 {
		problems = append(problems, "CALIDDA_SESSION_TTL must be positive")
	}
	if c.MaxQueriesPerSession < 0 {
		problems = append(problems, "MAX_CONSULTAS_POR_SESION cannot be negative")
	}
	if c.EncryptionKey != "" {
		if key, err := hex.DecodeString(c.EncryptionKey); err != nil || len(key) != 32 {
			problems = append(problems, "ENCRYPTION_KEY must be 64 hex characters (32 bytes)")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	if c.RedisURL != "" && strings.HasPrefix(c.RedisURL, "redis://") && c.EncryptionKey == "" {
		log.Warn().Msg("REDIS_URL set without ENCRYPTION_KEY: session tokens will be cached in plain text")
	}

	return nil
}

func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	} else {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
