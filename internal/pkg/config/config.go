package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Port        string        `env:"PORT,         default=8080"`
	Env         string        `env:"ENV,          default=development"`
	LogLevel    string        `env:"LOG_LEVEL,    default=info"`
	JWTSecret   string        `env:"JWT_SECRET"`
	TokenTTL    time.Duration `env:"TOKEN_TTL,    default=24h"`
	StoreDriver string        `env:"STORE_DRIVER, default=mongo"`

	// EventsAdminOnly restricts event announcements to admins.
	EventsAdminOnly   bool    `env:"EVENTS_ADMIN_ONLY,    default=false"`
	AuthRatePerSecond float64 `env:"AUTH_RATE_PER_SECOND, default=5"`
	PaymentWorkers    int     `env:"PAYMENT_WORKERS,      default=4"`

	Admin    AdminConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Dues     DuesConfig
	Paystack PaystackConfig
}

// AdminConfig is the reserved admin account created at startup.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL,    default=admin@loga.com"`
	Password string `env:"ADMIN_PASSWORD, default=admin123"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=loga_alumni"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type DuesConfig struct {
	AmountMinor int64  `env:"DUES_AMOUNT_MINOR, default=1000"`
	Currency    string `env:"DUES_CURRENCY,     default=GHS"`
	PeriodDays  int    `env:"DUES_PERIOD_DAYS,  default=30"`
}

func (d DuesConfig) Period() time.Duration {
	return time.Duration(d.PeriodDays) * 24 * time.Hour
}

type PaystackConfig struct {
	PublicKey string `env:"PAYSTACK_PUBLIC_KEY"`
	SecretKey string `env:"PAYSTACK_SECRET_KEY"`
	BaseURL   string `env:"PAYSTACK_BASE_URL, default=https://api.paystack.co"`
}

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through l, e.g. envconfig.MapLookuper in tests.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load that panics, for process startup.
func MustLoad(ctx context.Context) *Config {
	cfg, err := Load(ctx)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMongo, DriverMemory, c.StoreDriver)
	}
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return errors.New("JWT_SECRET is required outside development")
	}
	if c.Dues.AmountMinor <= 0 || c.Dues.PeriodDays <= 0 {
		return errors.New("dues amount and period must be positive")
	}
	return nil
}
