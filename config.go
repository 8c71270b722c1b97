package goSignup

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSignup/password"
)

// Config holds every engine setting. Build it from [DefaultConfig] and
// override fields; [Builder.Build] validates it once and treats it as
// immutable afterwards.
type Config struct {
	JWT          JWTConfig
	Password     PasswordConfig
	Verification VerificationConfig
	Registration RegistrationConfig
	Timeouts     TimeoutConfig
	Metrics      MetricsConfig
}

// JWTConfig configures session tokens.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "hs256" or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
}

// PasswordConfig selects and tunes the password hasher.
type PasswordConfig struct {
	Algorithm   string // "argon2id" or "bcrypt"
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	BcryptCost  int
}

// VerificationConfig configures the verification record store.
type VerificationConfig struct {
	CodeTTL time.Duration
	// RetentionGrace keeps an expired record in Redis long enough for a late
	// check to report Expired rather than NotFound.
	RetentionGrace time.Duration
	RedisPrefix    string
}

// RegistrationConfig bounds the registration inputs.
type RegistrationConfig struct {
	MinPasswordBytes int
	MaxPasswordBytes int
	MaxNameRunes     int
	DefaultRole      Role
}

// TimeoutConfig bounds every call to an external collaborator.
type TimeoutConfig struct {
	Store    time.Duration
	Notifier time.Duration
}

// MetricsConfig toggles the in-process counters and the login latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the reference settings: 15 minute codes, one hour
// HS256 tokens, argon2id hashing. JWT.PrivateKey must still be provided.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     time.Hour,
			SigningMethod: "hs256",
			Leeway:        0,
		},
		Password: PasswordConfig{
			Algorithm:   "argon2id",
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			BcryptCost:  10,
		},
		Verification: VerificationConfig{
			CodeTTL:        15 * time.Minute,
			RetentionGrace: time.Minute,
			RedisPrefix:    "sgv",
		},
		Registration: RegistrationConfig{
			MinPasswordBytes: 6,
			MaxPasswordBytes: 1024,
			MaxNameRunes:     100,
			DefaultRole:      RoleUser,
		},
		Timeouts: TimeoutConfig{
			Store:    3 * time.Second,
			Notifier: 10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// HighSecurityConfig shortens token lifetime and raises hashing cost.
func HighSecurityConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessTTL = 15 * time.Minute
	cfg.Password.Memory = 128 * 1024
	cfg.Password.Time = 4
	cfg.Registration.MinPasswordBytes = 12
	cfg.Verification.CodeTTL = 10 * time.Minute
	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = append([]byte(nil), cfg.JWT.PrivateKey...)
	out.JWT.PublicKey = append([]byte(nil), cfg.JWT.PublicKey...)
	return out
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	switch c.JWT.SigningMethod {
	case "hs256":
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("hs256 requires PrivateKey")
		}
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 || len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PrivateKey and PublicKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be within [0, 2m]")
	}

	switch c.Password.Algorithm {
	case "argon2id":
		if c.Password.Memory < 8*1024 || c.Password.Time < 1 || c.Password.Parallelism < 1 {
			return errors.New("argon2id parameters below minimum")
		}
		if c.Password.SaltLength < 16 || c.Password.KeyLength < 16 {
			return errors.New("argon2id salt and key length must be >= 16")
		}
	case "bcrypt":
		if c.Password.BcryptCost < 10 || c.Password.BcryptCost > 31 {
			return errors.New("bcrypt cost must be within [10, 31]")
		}
	default:
		return fmt.Errorf("unsupported password algorithm %q", c.Password.Algorithm)
	}

	if c.Verification.CodeTTL <= 0 {
		return errors.New("Verification CodeTTL must be > 0")
	}
	if c.Verification.RetentionGrace < 0 {
		return errors.New("Verification RetentionGrace must be >= 0")
	}
	if c.Verification.RedisPrefix == "" {
		return errors.New("Verification RedisPrefix must not be empty")
	}

	if c.Registration.MinPasswordBytes < 1 {
		return errors.New("Registration MinPasswordBytes must be >= 1")
	}
	if c.Registration.MaxPasswordBytes < c.Registration.MinPasswordBytes {
		return errors.New("Registration MaxPasswordBytes must be >= MinPasswordBytes")
	}
	if c.Password.Algorithm == "bcrypt" && c.Registration.MaxPasswordBytes > password.BcryptMaxPasswordBytes {
		return errors.New("Registration MaxPasswordBytes must be <= 72 with bcrypt")
	}
	if c.Registration.MaxNameRunes < 1 {
		return errors.New("Registration MaxNameRunes must be >= 1")
	}
	if !c.Registration.DefaultRole.Valid() {
		return errors.New("Registration DefaultRole is not a known role")
	}

	if c.Timeouts.Store <= 0 || c.Timeouts.Notifier <= 0 {
		return errors.New("Timeouts must be > 0")
	}

	return nil
}

// LintWarning describes a legal but risky setting.
type LintWarning struct {
	Code    string
	Message string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports settings that pass Validate but weaken the registration flow.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	if c.JWT.AccessTTL > 24*time.Hour {
		ws = append(ws, LintWarning{Code: "access_ttl_long", Message: "session tokens live longer than a day and cannot be revoked"})
	}
	if c.JWT.Leeway > 30*time.Second {
		ws = append(ws, LintWarning{Code: "leeway_large", Message: "token expiry leeway above 30s"})
	}
	if c.JWT.SigningMethod == "hs256" && len(c.JWT.PrivateKey) < 32 {
		ws = append(ws, LintWarning{Code: "hs256_key_short", Message: "hs256 secret shorter than 32 bytes"})
	}
	if c.Verification.CodeTTL > time.Hour {
		ws = append(ws, LintWarning{Code: "code_ttl_long", Message: "verification codes live longer than an hour"})
	}
	if c.Verification.RetentionGrace > c.Verification.CodeTTL {
		ws = append(ws, LintWarning{Code: "retention_grace_long", Message: "expired records outlive their validity window"})
	}
	if c.Registration.MinPasswordBytes < 8 {
		ws = append(ws, LintWarning{Code: "password_min_short", Message: "minimum password length below 8"})
	}
	if c.Timeouts.Notifier > time.Minute {
		ws = append(ws, LintWarning{Code: "notifier_timeout_long", Message: "notifier timeout above one minute"})
	}
	return ws
}
