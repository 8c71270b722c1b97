package goSignup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSignup/internal"
	"github.com/MrEthical07/goSignup/internal/flows"
	"github.com/MrEthical07/goSignup/internal/stores"
	"github.com/MrEthical07/goSignup/jwt"
	"github.com/MrEthical07/goSignup/password"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// dummyPassword is hashed once at build time; Login verifies against the
// result when the email is unknown.
const dummyPassword = "goSignup-dummy-password"

// Builder assembles an [Engine]. Configure it during initialization; Build
// may be called once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	credentials CredentialStore
	notifier    Notifier
	logger      *slog.Logger

	generateCode func() (string, error)
	now          func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing the verification record store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore sets the durable credential table.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.credentials = store
	return b
}

// WithNotifier sets the out-of-band code delivery.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithCodeGenerator replaces the random code source.
func (b *Builder) WithCodeGenerator(gen func() (string, error)) *Builder {
	b.generateCode = gen
	return b
}

// WithClock replaces time.Now for code expiry and token timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the login latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.credentials == nil {
		return nil, errors.New("credential store required")
	}
	if b.notifier == nil {
		return nil, errors.New("notifier required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := b.now
	if now == nil {
		now = time.Now
	}
	generate := b.generateCode
	if generate == nil {
		generate = internal.NewVerificationCode
	}

	ph, err := password.New(password.Config{
		Algorithm:   password.Algorithm(cfg.Password.Algorithm),
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
		BcryptCost:  cfg.Password.BcryptCost,
	})
	if err != nil {
		return nil, err
	}
	dummyHash, err := ph.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    append([]byte(nil), cfg.JWT.PrivateKey...),
		PublicKey:     append([]byte(nil), cfg.JWT.PublicKey...),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		KeyID:         cfg.JWT.KeyID,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config: cfg,
		verification: stores.NewVerificationStore(
			b.redis,
			cfg.Verification.RedisPrefix,
			cfg.Verification.RetentionGrace,
		),
		credentials:  b.credentials,
		notifier:     b.notifier,
		passwordHash: ph,
		jwtManager:   jm,
		metrics:      NewMetrics(cfg.Metrics),
		logger:       logger,
		now:          now,
	}
	engine.flows = flows.New(engine.flowDeps(generate, dummyHash))

	b.built = true
	return engine, nil
}

func (e *Engine) flowDeps(generate func() (string, error), dummyHash string) flows.Deps {
	cfg := e.config
	metricInc := func(id int) { e.metricInc(MetricID(id)) }
	mapStore := func(err error) error { return dependencyError(ErrStoreUnavailable, err) }
	mapInternal := func(err error) error { return dependencyError(ErrInternal, err) }

	return flows.Deps{
		Registration: flows.RegistrationDeps{
			CodeTTL:          cfg.Verification.CodeTTL,
			MinPasswordBytes: cfg.Registration.MinPasswordBytes,
			MaxPasswordBytes: cfg.Registration.MaxPasswordBytes,
			MaxNameRunes:     cfg.Registration.MaxNameRunes,
			DefaultRole:      string(cfg.Registration.DefaultRole),
			StoreTimeout:     cfg.Timeouts.Store,
			NotifierTimeout:  cfg.Timeouts.Notifier,
			Now:              e.now,
			Logger:           e.logger,

			GenerateCode: generate,
			IsCode:       internal.IsVerificationCode,
			HashCode:     internal.HashCode,
			NewID:        uuid.NewString,
			HashPassword: e.passwordHash.Hash,

			CredentialExists: e.credentials.Exists,
			CreateCredential: func(ctx context.Context, c flows.RegistrationCredential) error {
				return e.credentials.Create(ctx, Credential{
					ID:           c.ID,
					Email:        c.Email,
					PasswordHash: c.PasswordHash,
					Name:         c.Name,
					Role:         Role(c.Role),
					CreatedAt:    c.CreatedAt,
				})
			},
			IsDuplicate: func(err error) bool { return errors.Is(err, ErrDuplicateEmail) },

			IssueRecord: e.verification.Issue,
			CheckRecord: e.verification.Check,
			ConsumeRecord: func(ctx context.Context, email, codeHash string, now time.Time) (flows.ConsumeOutcome, error) {
				res, err := e.verification.ConsumeIfVerified(ctx, email, codeHash, now)
				switch res {
				case stores.ConsumeClaimed:
					return flows.ConsumeClaimed, err
				case stores.ConsumeAlreadyClaimed:
					return flows.ConsumeAlreadyClaimed, err
				default:
					return flows.ConsumeNotVerified, err
				}
			},
			ReleaseRecord: e.verification.Release,
			DeleteRecord:  e.verification.Delete,
			ClassifyCheck: classifyVerificationError,
			Notify: func(ctx context.Context, email, code string, expiresAt time.Time) error {
				return e.notifier.SendVerificationCode(ctx, VerificationMessage{
					Email:     email,
					Code:      code,
					ExpiresAt: expiresAt,
					TTL:       cfg.Verification.CodeTTL,
				})
			},
			IssueSession: e.issueSession,

			PasswordPolicyError: passwordPolicyError,
			MapStoreError:       mapStore,
			MapDeliveryError:    func(err error) error { return dependencyError(ErrDeliveryFailed, err) },
			MapInternalError:    mapInternal,
			MetricInc:           metricInc,
			Metrics: flows.RegistrationMetrics{
				CodeIssued:              int(MetricCodeIssued),
				CodeDeliveryFailed:      int(MetricCodeDeliveryFailed),
				CodeVerified:            int(MetricCodeVerified),
				CodeRejected:            int(MetricCodeRejected),
				RegistrationSuccess:     int(MetricRegistrationSuccess),
				RegistrationDuplicate:   int(MetricRegistrationDuplicate),
				RegistrationNotVerified: int(MetricRegistrationNotVerified),
			},
			Errors: flows.RegistrationErrors{
				EngineNotReady:    ErrEngineNotReady,
				InvalidEmail:      ErrInvalidEmail,
				InvalidCode:       ErrInvalidCode,
				InvalidName:       ErrInvalidName,
				AlreadyRegistered: ErrAlreadyRegistered,
				NotVerified:       ErrNotVerified,
			},
		},
		Session: flows.SessionDeps{
			StoreTimeout: cfg.Timeouts.Store,
			Logger:       e.logger,

			GetByEmail: func(ctx context.Context, email string) (flows.LoginCredential, error) {
				return loginCredential(e.credentials.GetByEmail(ctx, email))
			},
			GetByID: func(ctx context.Context, id string) (flows.LoginCredential, error) {
				return loginCredential(e.credentials.GetByID(ctx, id))
			},
			IsNotFound:     func(err error) bool { return errors.Is(err, ErrCredentialNotFound) },
			VerifyPassword: e.passwordHash.Verify,
			DummyHash:      dummyHash,

			IssueSession: e.issueSession,
			ParseToken:   e.parseToken,
			IsExpired:    func(err error) bool { return errors.Is(err, jwt.ErrExpired) },

			MapStoreError:    mapStore,
			MapInternalError: mapInternal,
			MetricInc:        metricInc,
			Metrics: flows.SessionMetrics{
				LoginSuccess:        int(MetricLoginSuccess),
				LoginFailure:        int(MetricLoginFailure),
				AuthenticateSuccess: int(MetricAuthenticateSuccess),
				AuthenticateFailure: int(MetricAuthenticateFailure),
				AuthenticateExpired: int(MetricAuthenticateExpired),
			},
			Errors: flows.SessionErrors{
				EngineNotReady:     ErrEngineNotReady,
				InvalidInput:       ErrInvalidInput,
				InvalidCredentials: ErrInvalidCredentials,
				MissingToken:       ErrMissingToken,
				InvalidToken:       ErrInvalidToken,
				TokenExpired:       ErrTokenExpired,
				IdentityNotFound:   ErrIdentityNotFound,
			},
		},
	}
}

func (e *Engine) issueSession(subject, email, role string) (flows.SessionIssue, error) {
	token, expiresAt, err := e.jwtManager.CreateAccess(subject, email, role)
	if err != nil {
		return flows.SessionIssue{}, err
	}
	return flows.SessionIssue{
		Token:     token,
		Subject:   subject,
		Email:     email,
		Role:      role,
		ExpiresAt: expiresAt,
	}, nil
}

func (e *Engine) parseToken(token string) (flows.TokenIdentity, error) {
	claims, err := e.jwtManager.ParseAccess(token)
	if err != nil {
		return flows.TokenIdentity{}, err
	}
	return flows.TokenIdentity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
	}, nil
}

func loginCredential(c *Credential, err error) (flows.LoginCredential, error) {
	if err != nil {
		return flows.LoginCredential{}, err
	}
	if c == nil {
		return flows.LoginCredential{}, ErrCredentialNotFound
	}
	return flows.LoginCredential{
		ID:           c.ID,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         string(c.Role),
	}, nil
}

func classifyVerificationError(err error) error {
	switch {
	case errors.Is(err, stores.ErrVerificationNotFound):
		return ErrCodeNotFound
	case errors.Is(err, stores.ErrVerificationMismatch):
		return ErrCodeMismatch
	case errors.Is(err, stores.ErrVerificationExpired):
		return ErrCodeExpired
	default:
		return nil
	}
}
