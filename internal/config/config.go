package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v10"
)

const developmentJWTSecret = "codehut-development-secret"

type Config struct {
	Environment    Environment
	Log            Log
	HTTP           HTTPServer
	BaseURL        string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	DatabaseURL    string `env:"DATABASE_URL"`
	SeedSampleData bool   `env:"SEED_SAMPLE_DATA" envDefault:"true"`
	PingMessage    string `env:"PING_MESSAGE" envDefault:"ping"`

	JWT       JWT
	RateLimit RateLimit
	Razorpay  Razorpay `envPrefix:"RAZORPAY_"`
	SMTP      SMTP     `envPrefix:"SMTP_"`
	Kafka     Kafka    `envPrefix:"KAFKA_"`
}

type Razorpay struct {
	KeyID         string `env:"KEY_ID"`
	Secret        string `env:"SECRET"`
	KeySecret     string `env:"KEY_SECRET"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	Currency      string `env:"CURRENCY" envDefault:"INR"`
}

// APISecret returns the key secret, preferring RAZORPAY_SECRET over RAZORPAY_KEY_SECRET.
func (r Razorpay) APISecret() string {
	if r.Secret != "" {
		return r.Secret
	}
	return r.KeySecret
}

type JWT struct {
	Secret           string        `env:"JWT_SECRET"`
	ExpiresIn        time.Duration `env:"JWT_EXPIRES_IN" envDefault:"15m"`
	RefreshExpiresIn time.Duration `env:"REFRESH_TOKEN_EXPIRES_IN" envDefault:"168h"`
}

type RateLimit struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"1"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"587"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

func (s SMTP) Enabled() bool {
	return s.Host != "" && s.From != ""
}

type Kafka struct {
	BootstrapServers string `env:"BOOTSTRAP_SERVERS"`
	PurchaseTopic    string `env:"PURCHASE_TOPIC" envDefault:"successful_payments"`
}

func (k Kafka) Enabled() bool {
	return k.BootstrapServers != ""
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

func (e Environment) IsProduction() bool {
	return e.Name == "production"
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

// Load parses the process environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PaymentsEnabled reports whether real payment keys are configured. Without them checkout runs in demo mode.
func (c *Config) PaymentsEnabled() bool {
	return c.Razorpay.KeyID != "" && c.Razorpay.APISecret() != ""
}

// DatabaseEnabled reports whether an external database is configured.
func (c *Config) DatabaseEnabled() bool {
	return c.DatabaseURL != ""
}

// Validate fills development defaults and rejects configurations that are unsafe in production.
// It returns the names of defaults it had to apply.
func (c *Config) Validate() ([]string, error) {
	var applied []string

	if c.JWT.Secret == "" {
		if c.Environment.IsProduction() {
			return nil, errors.New("JWT_SECRET is required in production")
		}
		c.JWT.Secret = developmentJWTSecret
		applied = append(applied, "JWT_SECRET")
	}

	if c.JWT.ExpiresIn <= 0 || c.JWT.RefreshExpiresIn <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	if c.JWT.RefreshExpiresIn < c.JWT.ExpiresIn {
		return nil, errors.New("REFRESH_TOKEN_EXPIRES_IN must not be shorter than JWT_EXPIRES_IN")
	}

	return applied, nil
}
