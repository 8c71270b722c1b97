package goSignup

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type memCredentialStore struct {
	mu    sync.Mutex
	byID  map[string]Credential
	email map[string]string
	err   error
}

func newMemCredentialStore() *memCredentialStore {
	return &memCredentialStore{
		byID:  map[string]Credential{},
		email: map[string]string{},
	}
}

func (s *memCredentialStore) Exists(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.email[email]
	return ok, nil
}

func (s *memCredentialStore) GetByEmail(_ context.Context, email string) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.email[email]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	c := s.byID[id]
	return &c, nil
}

func (s *memCredentialStore) GetByID(_ context.Context, id string) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return &c, nil
}

func (s *memCredentialStore) Create(_ context.Context, c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.email[c.Email]; ok {
		return ErrDuplicateEmail
	}
	s.byID[c.ID] = c
	s.email[c.Email] = c.ID
	return nil
}

func (s *memCredentialStore) remove(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, s.email[email])
	delete(s.email, email)
}

func (s *memCredentialStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []VerificationMessage
	err  error
}

func (n *recordingNotifier) SendVerificationCode(_ context.Context, msg VerificationMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return n.err
}

func (n *recordingNotifier) lastCode(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.msgs) == 0 {
		t.Fatal("notifier received no message")
	}
	return n.msgs[len(n.msgs)-1].Code
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	engine   *Engine
	store    *memCredentialStore
	notifier *recordingNotifier
	clock    *testClock
	redis    *miniredis.Miniredis
}

func fastTestConfig() Config {
	cfg := testConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestEnv(t *testing.T, opts ...func(*Builder)) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &testEnv{
		store:    newMemCredentialStore(),
		notifier: &recordingNotifier{},
		clock:    &testClock{now: time.Now().Truncate(time.Millisecond)},
		redis:    mr,
	}

	b := New().
		WithConfig(fastTestConfig()).
		WithRedis(rdb).
		WithCredentialStore(env.store).
		WithNotifier(env.notifier).
		WithClock(env.clock.Now)
	for _, opt := range opts {
		opt(b)
	}

	env.engine, err = b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return env
}

func (env *testEnv) register(t *testing.T, email, pass string) *SessionResult {
	t.Helper()
	ctx := context.Background()

	if _, err := env.engine.RequestCode(ctx, email); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}
	if err := env.engine.VerifyCode(ctx, email, env.notifier.lastCode(t)); err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}
	res, err := env.engine.CompleteRegistration(ctx, CompleteRegistrationRequest{Email: email, Password: pass, Name: "Test"})
	if err != nil {
		t.Fatalf("CompleteRegistration failed: %v", err)
	}
	return res
}

func sequenceGenerator(codes ...string) func(*Builder) {
	var mu sync.Mutex
	i := 0
	return func(b *Builder) {
		b.WithCodeGenerator(func() (string, error) {
			mu.Lock()
			defer mu.Unlock()
			c := codes[i%len(codes)]
			i++
			return c, nil
		})
	}
}

func TestRegistrationScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	issued, err := env.engine.RequestCode(ctx, "Ann@Example.com")
	if err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}
	if issued.Message != "Verification code sent to your email" {
		t.Fatalf("unexpected message %q", issued.Message)
	}
	if !issued.ExpiresAt.Equal(env.clock.Now().Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", issued.ExpiresAt)
	}

	env.notifier.mu.Lock()
	msg := env.notifier.msgs[0]
	env.notifier.mu.Unlock()
	if msg.Email != "ann@example.com" || msg.TTL != 15*time.Minute {
		t.Fatalf("unexpected notifier message %+v", msg)
	}

	err = env.engine.VerifyCode(ctx, "ann@example.com", "000000")
	if !errors.Is(err, ErrCodeMismatch) || KindOf(err) != KindAuth {
		t.Fatalf("expected Mismatch for a wrong all-zero code, got %v", err)
	}

	if err := env.engine.VerifyCode(ctx, "ann@example.com", msg.Code); err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}

	res, err := env.engine.CompleteRegistration(ctx, CompleteRegistrationRequest{
		Email:    "ann@example.com",
		Password: "secret1",
		Name:     "Ann",
	})
	if err != nil {
		t.Fatalf("CompleteRegistration failed: %v", err)
	}
	if res.Token == "" || res.Email != "ann@example.com" || res.Role != RoleUser {
		t.Fatalf("unexpected session %+v", res)
	}

	id, err := env.engine.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if id.Email != "ann@example.com" || id.Role != RoleUser || id.Subject == "" {
		t.Fatalf("unexpected identity %+v", id)
	}

	cred, err := env.store.GetByEmail(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("credential missing: %v", err)
	}
	if cred.Name != "Ann" || cred.PasswordHash == "secret1" || strings.Contains(cred.PasswordHash, "secret1") {
		t.Fatalf("credential stored incorrectly: %+v", cred)
	}

	login, err := env.engine.Login(ctx, "ann@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.Token == "" {
		t.Fatal("login returned empty token")
	}

	_, err = env.engine.CompleteRegistration(ctx, CompleteRegistrationRequest{
		Email:    "ann@example.com",
		Password: "another1",
		Name:     "Ann Again",
	})
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected AlreadyRegistered for a repeat completion, got %v", err)
	}
	if _, err := env.engine.RequestCode(ctx, "ann@example.com"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected AlreadyRegistered, got %v", err)
	}
	if env.redis.Exists("sgv:ann@example.com") {
		t.Fatal("verification record must be consumed by registration")
	}
	if env.store.count() != 1 {
		t.Fatalf("expected one credential, got %d", env.store.count())
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ann@example.com", "secret1")
	ctx := context.Background()

	_, unknownErr := env.engine.Login(ctx, "nobody@example.com", "secret1")
	_, wrongErr := env.engine.Login(ctx, "ann@example.com", "wrong-pass")

	if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("expected InvalidCredentials, got %v and %v", unknownErr, wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() || CodeOf(unknownErr) != CodeOf(wrongErr) {
		t.Fatal("unknown email and wrong password must be indistinguishable")
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricLoginFailure]; got != 2 {
		t.Fatalf("expected 2 login failures, got %d", got)
	}
}

func TestReissueInvalidatesPreviousCode(t *testing.T) {
	env := newTestEnv(t, sequenceGenerator("111111", "222222"))
	ctx := context.Background()

	if _, err := env.engine.RequestCode(ctx, "ann@example.com"); err != nil {
		t.Fatalf("first RequestCode failed: %v", err)
	}
	if _, err := env.engine.RequestCode(ctx, "ann@example.com"); err != nil {
		t.Fatalf("second RequestCode failed: %v", err)
	}

	if err := env.engine.VerifyCode(ctx, "ann@example.com", "111111"); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected Mismatch for the first code, got %v", err)
	}
	if err := env.engine.VerifyCode(ctx, "ann@example.com", "222222"); err != nil {
		t.Fatalf("second code must verify: %v", err)
	}
}

func TestReissueAfterVerifyResetsVerification(t *testing.T) {
	env := newTestEnv(t, sequenceGenerator("111111", "222222"))
	ctx := context.Background()

	if _, err := env.engine.RequestCode(ctx, "ann@example.com"); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}
	if err := env.engine.VerifyCode(ctx, "ann@example.com", "111111"); err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}
	if _, err := env.engine.RequestCode(ctx, "ann@example.com"); err != nil {
		t.Fatalf("reissue failed: %v", err)
	}

	_, err := env.engine.CompleteRegistration(ctx, CompleteRegistrationRequest{Email: "ann@example.com", Password: "secret1", Name: "Ann"})
	if !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected NotVerified after reissue, got %v", err)
	}
}

func TestVerifyCodeExpiry(t *testing.T) {
	env := newTestEnv(t, sequenceGenerator("123456"))
	ctx := context.Background()

	if _, err := env.engine.RequestCode(ctx, "ann@example.com"); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}

	env.clock.Advance(15*time.Minute + time.Millisecond)
	err := env.engine.VerifyCode(ctx, "ann@example.com", "123456")
	if !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected Expired, got %v", err)
	}
	if err := env.engine.VerifyCode(ctx, "ann@example.com", "123456"); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expired record must be gone, got %v", err)
	}
}

func TestVerifyCodeAtExactExpiry(t *testing.T) {
	env := newTestEnv(t, sequenceGenerator("123456"))
	ctx := context.Background()

	if _, err := env.engine.RequestCode(ctx, "ann@example.com"); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}
	env.clock.Advance(15 * time.Minute)
	if err := env.engine.VerifyCode(ctx, "ann@example.com", "123456"); err != nil {
		t.Fatalf("code must still verify at its expiry instant: %v", err)
	}
}

func TestVerifyCodeWithoutRequest(t *testing.T) {
	env := newTestEnv(t)
	err := env.engine.VerifyCode(context.Background(), "ann@example.com", "123456")
	if !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if KindOf(err) != KindNotFound {
		t.Fatalf("unexpected kind %q", KindOf(err))
	}
}

func TestCompleteRegistrationRequiresVerification(t *testing.T) {
	env := newTestEnv(t, sequenceGenerator("123456"))
	ctx := context.Background()
	req := CompleteRegistrationRequest{Email: "ann@example.com", Password: "secret1", Name: "Ann"}

	if _, err := env.engine.CompleteRegistration(ctx, req); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected NotVerified without any code, got %v", err)
	}

	if _, err := env.engine.RequestCode(ctx, req.Email); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}
	if _, err := env.engine.CompleteRegistration(ctx, req); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected NotVerified before VerifyCode, got %v", err)
	}
	if env.store.count() != 0 {
		t.Fatal("no credential may be created without verification")
	}
}

func TestCompleteRegistrationBindsSubmittedCode(t *testing.T) {
	env := newTestEnv(t, sequenceGenerator("123456"))
	ctx := context.Background()

	if _, err := env.engine.RequestCode(ctx, "ann@example.com"); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}
	if err := env.engine.VerifyCode(ctx, "ann@example.com", "123456"); err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}

	req := CompleteRegistrationRequest{Email: "ann@example.com", Password: "secret1", Name: "Ann", Code: "654321"}
	if _, err := env.engine.CompleteRegistration(ctx, req); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected NotVerified for a different code, got %v", err)
	}

	req.Code = "123456"
	if _, err := env.engine.CompleteRegistration(ctx, req); err != nil {
		t.Fatalf("matching code must register: %v", err)
	}
}

func TestCompleteRegistrationAfterVerificationExpired(t *testing.T) {
	env := newTestEnv(t, sequenceGenerator("123456"))
	ctx := context.Background()

	if _, err := env.engine.RequestCode(ctx, "ann@example.com"); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}
	if err := env.engine.VerifyCode(ctx, "ann@example.com", "123456"); err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}

	env.clock.Advance(16 * time.Minute)
	_, err := env.engine.CompleteRegistration(ctx, CompleteRegistrationRequest{Email: "ann@example.com", Password: "secret1", Name: "Ann"})
	if !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected NotVerified after expiry, got %v", err)
	}
}

func TestConcurrentCompleteRegistrationSingleWinner(t *testing.T) {
	env := newTestEnv(t, sequenceGenerator("123456"))
	ctx := context.Background()

	if _, err := env.engine.RequestCode(ctx, "ann@example.com"); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}
	if err := env.engine.VerifyCode(ctx, "ann@example.com", "123456"); err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}

	const workers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := env.engine.CompleteRegistration(ctx, CompleteRegistrationRequest{
				Email:    "ann@example.com",
				Password: "secret1",
				Name:     "Ann",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyRegistered):
				duplicates++
			default:
				t.Errorf("losers must see AlreadyRegistered, got %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || duplicates != workers-1 {
		t.Fatalf("expected 1 success and %d duplicates, got %d and %d", workers-1, successes, duplicates)
	}
	if env.store.count() != 1 {
		t.Fatalf("expected one credential, got %d", env.store.count())
	}
}

func TestRequestCodeForRegisteredEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ann@example.com", "secret1")

	_, err := env.engine.RequestCode(context.Background(), " ANN@example.com ")
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected AlreadyRegistered, got %v", err)
	}
	if KindOf(err) != KindConflict {
		t.Fatalf("unexpected kind %q", KindOf(err))
	}
}

func TestDeliveryFailureKeepsIssuedCode(t *testing.T) {
	env := newTestEnv(t, sequenceGenerator("123456"))
	env.notifier.err = errors.New("smtp: connection refused")
	ctx := context.Background()

	_, err := env.engine.RequestCode(ctx, "ann@example.com")
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected DeliveryFailed, got %v", err)
	}
	if KindOf(err) != KindDependency {
		t.Fatalf("unexpected kind %q", KindOf(err))
	}
	if MessageOf(err) != ErrDeliveryFailed.Message {
		t.Fatalf("cause must not leak into the message, got %q", MessageOf(err))
	}

	if err := env.engine.VerifyCode(ctx, "ann@example.com", "123456"); err != nil {
		t.Fatalf("undelivered code must stay valid: %v", err)
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricCodeDeliveryFailed]; got != 1 {
		t.Fatalf("expected 1 delivery failure, got %d", got)
	}
}

func TestSessionTokenExpiry(t *testing.T) {
	env := newTestEnv(t)
	res := env.register(t, "ann@example.com", "secret1")
	ctx := context.Background()

	env.clock.Advance(59 * time.Minute)
	if _, err := env.engine.Authenticate(ctx, res.Token); err != nil {
		t.Fatalf("token must be valid before expiry: %v", err)
	}

	env.clock.Advance(2 * time.Minute)
	_, err := env.engine.Authenticate(ctx, res.Token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected token Expired, got %v", err)
	}
	if CodeOf(err) != "Expired" || KindOf(err) != KindAuth {
		t.Fatalf("unexpected classification %s/%s", CodeOf(err), KindOf(err))
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)
	res := env.register(t, "ann@example.com", "secret1")
	ctx := context.Background()

	if _, err := env.engine.Authenticate(ctx, ""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected MissingToken, got %v", err)
	}
	if _, err := env.engine.Authenticate(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected InvalidToken, got %v", err)
	}
	tampered := []byte(res.Token)
	i := len(tampered) - 10
	if tampered[i] == 'A' {
		tampered[i] = 'B'
	} else {
		tampered[i] = 'A'
	}
	if _, err := env.engine.Authenticate(ctx, string(tampered)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected InvalidToken for tampered token, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	res := env.register(t, "ann@example.com", "secret1")
	ctx := context.Background()

	id, err := env.engine.Profile(ctx, res.Token)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if id.Email != "ann@example.com" {
		t.Fatalf("unexpected profile %+v", id)
	}

	env.store.remove("ann@example.com")
	if _, err := env.engine.Profile(ctx, res.Token); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected IdentityNotFound, got %v", err)
	}
}

func TestValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.engine.RequestCode(ctx, "not-an-email"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected InvalidEmail, got %v", err)
	}
	if _, err := env.engine.RequestCode(ctx, "Ann <ann@example.com>"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("display-name address must be rejected, got %v", err)
	}
	if err := env.engine.VerifyCode(ctx, "ann@example.com", "12ab56"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected InvalidCode, got %v", err)
	}

	_, err := env.engine.CompleteRegistration(ctx, CompleteRegistrationRequest{Email: "ann@example.com", Password: "12345", Name: "Ann"})
	if !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected PasswordPolicy, got %v", err)
	}
	if !strings.Contains(MessageOf(err), "between 6 and 1024") {
		t.Fatalf("policy detail missing from %q", MessageOf(err))
	}

	_, err = env.engine.CompleteRegistration(ctx, CompleteRegistrationRequest{Email: "ann@example.com", Password: "secret1", Name: "   "})
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected InvalidName, got %v", err)
	}

	if _, err := env.engine.Login(ctx, "", "secret1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
	if KindOf(err) != KindValidation {
		t.Fatalf("unexpected kind %q", KindOf(err))
	}
	if len(env.notifier.msgs) != 0 {
		t.Fatal("invalid input must not reach the notifier")
	}
}

func TestStoreUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.redis.Close()

	_, err := env.engine.RequestCode(context.Background(), "ann@example.com")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected StoreUnavailable, got %v", err)
	}
	if err := env.engine.Ping(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected Ping failure, got %v", err)
	}
}

func TestCredentialStoreFailureClassified(t *testing.T) {
	env := newTestEnv(t)
	env.store.err = errors.New("connection reset")

	_, err := env.engine.RequestCode(context.Background(), "ann@example.com")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected StoreUnavailable, got %v", err)
	}
	if MessageOf(err) != ErrStoreUnavailable.Message {
		t.Fatalf("unexpected message %q", MessageOf(err))
	}
}

func TestBuilderRequiresDependencies(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	if _, err := New().WithConfig(fastTestConfig()).WithCredentialStore(newMemCredentialStore()).WithNotifier(&recordingNotifier{}).Build(); err == nil {
		t.Fatal("expected error without redis")
	}
	if _, err := New().WithConfig(fastTestConfig()).WithRedis(rdb).WithNotifier(&recordingNotifier{}).Build(); err == nil {
		t.Fatal("expected error without credential store")
	}
	if _, err := New().WithConfig(fastTestConfig()).WithRedis(rdb).WithCredentialStore(newMemCredentialStore()).Build(); err == nil {
		t.Fatal("expected error without notifier")
	}
	if _, err := New().WithRedis(rdb).WithCredentialStore(newMemCredentialStore()).WithNotifier(&recordingNotifier{}).Build(); err == nil {
		t.Fatal("expected error without a signing key")
	}

	b := New().WithConfig(fastTestConfig()).WithRedis(rdb).WithCredentialStore(newMemCredentialStore()).WithNotifier(&recordingNotifier{})
	if _, err := b.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected builder reuse to fail")
	}
}

func TestZeroEngineNotReady(t *testing.T) {
	var e Engine
	if _, err := e.RequestCode(context.Background(), "ann@example.com"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected EngineNotReady, got %v", err)
	}
	if _, err := e.Login(context.Background(), "ann@example.com", "secret1"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected EngineNotReady, got %v", err)
	}
}

func TestBcryptEngineLogin(t *testing.T) {
	env := newTestEnv(t, func(b *Builder) {
		cfg := fastTestConfig()
		cfg.Password.Algorithm = "bcrypt"
		cfg.Registration.MaxPasswordBytes = 72
		b.WithConfig(cfg)
	})
	env.register(t, "ann@example.com", "secret1")

	cred, _ := env.store.GetByEmail(context.Background(), "ann@example.com")
	if !strings.HasPrefix(cred.PasswordHash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", cred.PasswordHash)
	}
	if _, err := env.engine.Login(context.Background(), "ann@example.com", "secret1"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
}

func TestBcryptOverlongPasswordKeepsVerification(t *testing.T) {
	env := newTestEnv(t, sequenceGenerator("123456"), func(b *Builder) {
		cfg := fastTestConfig()
		cfg.Password.Algorithm = "bcrypt"
		cfg.Registration.MaxPasswordBytes = 72
		b.WithConfig(cfg)
	})
	ctx := context.Background()

	if _, err := env.engine.RequestCode(ctx, "ann@example.com"); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}
	if err := env.engine.VerifyCode(ctx, "ann@example.com", "123456"); err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}

	_, err := env.engine.CompleteRegistration(ctx, CompleteRegistrationRequest{
		Email:    "ann@example.com",
		Password: strings.Repeat("p", 80),
		Name:     "Ann",
		Code:     "123456",
	})
	if !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected PasswordPolicy for an 80 byte password, got %v", err)
	}

	if _, err := env.engine.CompleteRegistration(ctx, CompleteRegistrationRequest{
		Email:    "ann@example.com",
		Password: "secret1",
		Name:     "Ann",
		Code:     "123456",
	}); err != nil {
		t.Fatalf("retry with the same code must succeed, got %v", err)
	}
}

func TestBcryptConfigRejectsLongPasswordLimit(t *testing.T) {
	cfg := fastTestConfig()
	cfg.Password.Algorithm = "bcrypt"
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected Build to reject a bcrypt limit above 72 bytes")
	}
}
