package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newHSManager(t *testing.T, clock *fakeClock) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		AccessTTL:     time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "gosignup",
		Now:           clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestCreateAndParseRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newHSManager(t, clock)

	token, expiresAt, err := m.CreateAccess("id-1", "a@x.com", "user")
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	if !expiresAt.Equal(clock.now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.Subject != "id-1" || claims.Email != "a@x.com" || claims.Role != "user" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.IssuedAt == nil || !claims.IssuedAt.Time.Equal(clock.now) {
		t.Fatalf("unexpected iat %v", claims.IssuedAt)
	}
}

func TestParseAccessExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newHSManager(t, clock)

	token, expiresAt, err := m.CreateAccess("id-1", "a@x.com", "user")
	if err != nil {
		t.Fatalf("create access: %v", err)
	}

	clock.now = expiresAt.Add(-time.Second)
	if _, err := m.ParseAccess(token); err != nil {
		t.Fatalf("token must be valid before expiry: %v", err)
	}

	clock.now = expiresAt.Add(time.Second)
	_, err = m.ParseAccess(token)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if errors.Is(err, ErrInvalid) {
		t.Fatal("expired token must not also be reported invalid")
	}
}

func TestParseAccessRejectsTampering(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newHSManager(t, clock)

	token, _, err := m.CreateAccess("id-1", "a@x.com", "user")
	if err != nil {
		t.Fatalf("create access: %v", err)
	}

	parts := strings.Split(token, ".")
	forged := AccessClaims{
		Email:            "a@x.com",
		Role:             "admin",
		RegisteredClaims: gjwt.RegisteredClaims{Subject: "id-1", ExpiresAt: gjwt.NewNumericDate(clock.now.Add(time.Hour)), Issuer: "gosignup"},
	}
	other, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, forged).SignedString([]byte("another-secret-another-secret-xx"))
	if err != nil {
		t.Fatalf("sign forged: %v", err)
	}
	otherParts := strings.Split(other, ".")
	spliced := parts[0] + "." + otherParts[1] + "." + parts[2]

	cases := map[string]string{
		"empty":          "",
		"garbage":        "not-a-token",
		"wrong secret":   other,
		"spliced claims": spliced,
	}
	for name, tok := range cases {
		if _, err := m.ParseAccess(tok); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestParseAccessRejectsWrongAlgorithm(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	m, err := NewManager(Config{AccessTTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: priv, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{Subject: "s", ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString([]byte("secret-secret-secret-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.ParseAccess(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected wrong algorithm to be rejected, got %v", err)
	}

	good, _, err := m.CreateAccess("s", "a@x.com", "user")
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	if _, err := m.ParseAccess(good); err != nil {
		t.Fatalf("ed25519 token must verify: %v", err)
	}
}

func TestParseAccessIssuerAudienceAndKeyID(t *testing.T) {
	base := Config{
		AccessTTL:     time.Minute,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "gosignup",
		Audience:      "web",
		KeyID:         "k1",
	}
	m, err := NewManager(base)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, _, err := m.CreateAccess("s", "a@x.com", "user")
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	if _, err := m.ParseAccess(token); err != nil {
		t.Fatalf("expected token to parse: %v", err)
	}

	for name, mutate := range map[string]func(*Config){
		"issuer":   func(c *Config) { c.Issuer = "other" },
		"audience": func(c *Config) { c.Audience = "mobile" },
		"kid":      func(c *Config) { c.KeyID = "k2" },
	} {
		cfg := base
		mutate(&cfg)
		other, err := NewManager(cfg)
		if err != nil {
			t.Fatalf("%s: new manager: %v", name, err)
		}
		if _, err := other.ParseAccess(token); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestParseAccessRequiresExpiry(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	m, err := NewManager(Config{AccessTTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: secret})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	claims := AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{Subject: "s"}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.ParseAccess(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected token without exp to be rejected, got %v", err)
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	bad := []Config{
		{AccessTTL: 0, SigningMethod: MethodHS256, PrivateKey: []byte("k")},
		{AccessTTL: time.Minute, SigningMethod: MethodHS256},
		{AccessTTL: time.Minute, SigningMethod: "rs256", PrivateKey: []byte("k")},
		{AccessTTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("k"), Leeway: time.Hour},
		{AccessTTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: []byte("short")},
	}
	for i, cfg := range bad {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}
