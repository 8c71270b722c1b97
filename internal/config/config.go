// Package config loads the signup-server process settings from the
// environment, an optional .env file and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	goSignup "github.com/MrEthical07/goSignup"
	"github.com/MrEthical07/goSignup/password"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	JWT          JWTConfig          `yaml:"jwt"`
	Verification VerificationConfig `yaml:"verification"`
	SMTP         SMTPConfig         `yaml:"smtp"`
	Password     PasswordConfig     `yaml:"password"`
	Log          LogConfig          `yaml:"log"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:":3001"`
	CORSOrigins     []string      `yaml:"cors_origins" env:"HTTP_CORS_ORIGINS" env-separator:"," env-default:"*"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type DatabaseConfig struct {
	URL     string `yaml:"url" env:"DATABASE_URL" env-required:"true"`
	Migrate bool   `yaml:"migrate" env:"DATABASE_MIGRATE" env-default:"true"`
}

type RedisConfig struct {
	URL string `yaml:"url" env:"REDIS_URL" env-default:"redis://localhost:6379/0"`
}

type JWTConfig struct {
	Secret string        `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	Issuer string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"gosignup"`
	TTL    time.Duration `yaml:"ttl" env:"JWT_TTL" env-default:"1h"`
}

type VerificationConfig struct {
	TTL time.Duration `yaml:"ttl" env:"VERIFICATION_TTL" env-default:"15m"`
}

type SMTPConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
	// RevealCode makes the log notifier, used when Host is empty, print codes.
	RevealCode bool `yaml:"reveal_code" env:"NOTIFY_REVEAL_CODE" env-default:"false"`
}

type PasswordConfig struct {
	Algorithm string `yaml:"algorithm" env:"PASSWORD_ALGORITHM" env-default:"argon2id"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
}

// LoadDotenv loads the first existing file among paths into the process
// environment without overriding variables that are already set. It returns
// the loaded path, or "" when none exists.
func LoadDotenv(paths ...string) (string, error) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return "", fmt.Errorf("load %s: %w", p, err)
		}
		return p, nil
	}
	return "", nil
}

// Load reads path when it is non-empty, then the environment, which wins
// over the file.
func Load(path string) (*Config, error) {
	var cfg Config

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes")
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		return errors.New("SMTP_FROM is required when SMTP_HOST is set")
	}
	return nil
}

// Engine returns the engine configuration derived from c.
func (c *Config) Engine() goSignup.Config {
	cfg := goSignup.DefaultConfig()
	cfg.JWT.PrivateKey = []byte(c.JWT.Secret)
	cfg.JWT.Issuer = c.JWT.Issuer
	cfg.JWT.AccessTTL = c.JWT.TTL
	cfg.Verification.CodeTTL = c.Verification.TTL
	cfg.Password.Algorithm = c.Password.Algorithm
	if cfg.Password.Algorithm == "bcrypt" {
		cfg.Registration.MaxPasswordBytes = password.BcryptMaxPasswordBytes
	}
	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.Enabled
	return cfg
}
