package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string `env:"APP_ENV" env-default:"local"`
	ServiceName string `env:"SERVICE_NAME" env-default:"availability-engine"`
	DatabaseURL string `env:"DATABASE_URL" env-required:"true"`
	// RedisAddr enables the distributed booking lock; empty means in-process.
	RedisAddr string `env:"REDIS_ADDR"`

	HTTPServer HTTPServer
	Auth       Auth
	Google     Google
	Scheduling Scheduling
}

type HTTPServer struct {
	Address         string        `env:"HTTP_ADDR" env-default:":8080"`
	Timeout         time.Duration `env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type Auth struct {
	JWTSecret    string   `env:"JWT_HMAC_SECRET"`
	StaticTokens []string `env:"STATIC_TOKENS" env-separator:","`
}

type Google struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
}

type Scheduling struct {
	// DefaultTimezone applies to resources without a stored zone.
	DefaultTimezone      string        `env:"DEFAULT_TIMEZONE" env-default:"UTC"`
	DedupSlots           bool          `env:"DEDUP_SLOTS" env-default:"false"`
	BookingLockTTL       time.Duration `env:"BOOKING_LOCK_TTL" env-default:"10s"`
	BookingLockWait      time.Duration `env:"BOOKING_LOCK_WAIT" env-default:"2s"`
	ExternalFetchTimeout time.Duration `env:"EXTERNAL_FETCH_TIMEOUT" env-default:"5s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	const op = "config.Load"

	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := time.LoadLocation(cfg.Scheduling.DefaultTimezone); err != nil {
		return nil, fmt.Errorf("%s: DEFAULT_TIMEZONE: %w", op, err)
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
