package flows

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"
)

// LoginCredential is the flow-local view of a stored credential.
type LoginCredential struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
}

// TokenIdentity is the flow-local view of verified token claims.
type TokenIdentity struct {
	Subject string
	Email   string
	Role    string
}

// SessionMetrics carries metric IDs used by the login and token flows.
type SessionMetrics struct {
	LoginSuccess        int
	LoginFailure        int
	AuthenticateSuccess int
	AuthenticateFailure int
	AuthenticateExpired int
}

// SessionErrors carries host-level sentinel errors used by the login and token flows.
type SessionErrors struct {
	EngineNotReady     error
	InvalidInput       error
	InvalidCredentials error
	MissingToken       error
	InvalidToken       error
	TokenExpired       error
	IdentityNotFound   error
}

// SessionDeps wires the login and token flows to the credential store and token manager.
type SessionDeps struct {
	StoreTimeout time.Duration
	Logger       *slog.Logger

	GetByEmail     func(context.Context, string) (LoginCredential, error)
	GetByID        func(context.Context, string) (LoginCredential, error)
	IsNotFound     func(error) bool
	VerifyPassword func(string, string) (bool, error)
	// DummyHash is verified against when the email is unknown so both
	// failure paths spend the same hashing time.
	DummyHash string

	IssueSession func(string, string, string) (SessionIssue, error)
	ParseToken   func(string) (TokenIdentity, error)
	IsExpired    func(error) bool

	MapStoreError    func(error) error
	MapInternalError func(error) error
	MetricInc        func(int)

	Metrics SessionMetrics
	Errors  SessionErrors
}

// RunLogin exchanges an email and password for a session token. Unknown
// email and wrong password produce the same error.
func RunLogin(ctx context.Context, rawEmail, password string, deps SessionDeps) (SessionIssue, error) {
	normalizeSessionDeps(&deps)

	if deps.GetByEmail == nil || deps.VerifyPassword == nil || deps.IssueSession == nil {
		return SessionIssue{}, deps.Errors.EngineNotReady
	}

	email := strings.ToLower(strings.TrimSpace(rawEmail))
	if email == "" || password == "" {
		return SessionIssue{}, deps.Errors.InvalidInput
	}

	storeCtx, cancel := withTimeout(ctx, deps.StoreTimeout)
	cred, err := deps.GetByEmail(storeCtx, email)
	cancel()
	if err != nil {
		if !deps.IsNotFound(err) {
			deps.Logger.ErrorContext(ctx, "credential lookup failed", "email", email, "error", err)
			return SessionIssue{}, deps.MapStoreError(err)
		}
		if deps.DummyHash != "" {
			_, _ = deps.VerifyPassword(password, deps.DummyHash)
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.Logger.InfoContext(ctx, "login failed", "email", email)
		return SessionIssue{}, deps.Errors.InvalidCredentials
	}

	ok, err := deps.VerifyPassword(password, cred.PasswordHash)
	if err != nil || !ok {
		if err != nil {
			deps.Logger.WarnContext(ctx, "stored password hash unreadable", "subject", cred.ID, "error", err)
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.Logger.InfoContext(ctx, "login failed", "email", email)
		return SessionIssue{}, deps.Errors.InvalidCredentials
	}

	issued, err := deps.IssueSession(cred.ID, cred.Email, cred.Role)
	if err != nil {
		return SessionIssue{}, deps.MapInternalError(err)
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.Logger.InfoContext(ctx, "login succeeded", "subject", cred.ID)
	return issued, nil
}

// RunAuthenticate derives the caller identity from a token without any store access.
func RunAuthenticate(ctx context.Context, token string, deps SessionDeps) (TokenIdentity, error) {
	normalizeSessionDeps(&deps)

	if deps.ParseToken == nil {
		return TokenIdentity{}, deps.Errors.EngineNotReady
	}
	if token == "" {
		deps.MetricInc(deps.Metrics.AuthenticateFailure)
		return TokenIdentity{}, deps.Errors.MissingToken
	}

	id, err := deps.ParseToken(token)
	if err != nil {
		if deps.IsExpired(err) {
			deps.MetricInc(deps.Metrics.AuthenticateExpired)
			return TokenIdentity{}, deps.Errors.TokenExpired
		}
		deps.MetricInc(deps.Metrics.AuthenticateFailure)
		deps.Logger.DebugContext(ctx, "token rejected", "error", err)
		return TokenIdentity{}, deps.Errors.InvalidToken
	}

	deps.MetricInc(deps.Metrics.AuthenticateSuccess)
	return id, nil
}

// RunProfile authenticates token and confirms the credential still exists.
func RunProfile(ctx context.Context, token string, deps SessionDeps) (TokenIdentity, error) {
	normalizeSessionDeps(&deps)

	if deps.GetByID == nil {
		return TokenIdentity{}, deps.Errors.EngineNotReady
	}

	id, err := RunAuthenticate(ctx, token, deps)
	if err != nil {
		return TokenIdentity{}, err
	}

	storeCtx, cancel := withTimeout(ctx, deps.StoreTimeout)
	cred, err := deps.GetByID(storeCtx, id.Subject)
	cancel()
	if err != nil {
		if deps.IsNotFound(err) {
			return TokenIdentity{}, deps.Errors.IdentityNotFound
		}
		deps.Logger.ErrorContext(ctx, "credential lookup failed", "subject", id.Subject, "error", err)
		return TokenIdentity{}, deps.MapStoreError(err)
	}

	return TokenIdentity{Subject: cred.ID, Email: cred.Email, Role: cred.Role}, nil
}

func normalizeSessionDeps(deps *SessionDeps) {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.IsNotFound == nil {
		deps.IsNotFound = func(error) bool { return false }
	}
	if deps.IsExpired == nil {
		deps.IsExpired = func(error) bool { return false }
	}
	if deps.MapStoreError == nil {
		deps.MapStoreError = func(err error) error { return err }
	}
	if deps.MapInternalError == nil {
		deps.MapInternalError = func(err error) error { return err }
	}
}
