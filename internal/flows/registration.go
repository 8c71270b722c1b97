package flows

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

// RegistrationCredential is the flow-local shape of a credential to persist.
type RegistrationCredential struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    time.Time
}

// SessionIssue is the flow-local result of signing a session token.
type SessionIssue struct {
	Token     string
	Subject   string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// RegistrationMetrics carries metric IDs used by the registration flows.
type RegistrationMetrics struct {
	CodeIssued              int
	CodeDeliveryFailed      int
	CodeVerified            int
	CodeRejected            int
	RegistrationSuccess     int
	RegistrationDuplicate   int
	RegistrationNotVerified int
}

// RegistrationErrors carries host-level sentinel errors used by the registration flows.
type RegistrationErrors struct {
	EngineNotReady    error
	InvalidEmail      error
	InvalidCode       error
	InvalidName       error
	AlreadyRegistered error
	NotVerified       error
}

// ConsumeOutcome is what ConsumeRecord did with the verification record.
type ConsumeOutcome int

const (
	ConsumeNotVerified ConsumeOutcome = iota
	ConsumeClaimed
	ConsumeAlreadyClaimed
)

// RegistrationDeps wires the registration flows to their stores and collaborators.
type RegistrationDeps struct {
	CodeTTL          time.Duration
	MinPasswordBytes int
	MaxPasswordBytes int
	MaxNameRunes     int
	DefaultRole      string
	StoreTimeout     time.Duration
	NotifierTimeout  time.Duration

	Now    func() time.Time
	Logger *slog.Logger

	GenerateCode func() (string, error)
	IsCode       func(string) bool
	HashCode     func(string) string
	NewID        func() string
	HashPassword func(string) (string, error)

	CredentialExists func(context.Context, string) (bool, error)
	CreateCredential func(context.Context, RegistrationCredential) error
	IsDuplicate      func(error) bool

	IssueRecord   func(context.Context, string, string, time.Time) error
	CheckRecord   func(context.Context, string, string, time.Time) error
	ConsumeRecord func(context.Context, string, string, time.Time) (ConsumeOutcome, error)
	// ReleaseRecord hands a claimed record back after a failed insert.
	ReleaseRecord func(context.Context, string) error
	// DeleteRecord settles a claimed record once the account exists.
	DeleteRecord func(context.Context, string) error

	// ClassifyCheck maps a CheckRecord failure to one of the code sentinels,
	// or returns nil when the failure is a store fault.
	ClassifyCheck func(error) error
	Notify        func(context.Context, string, string, time.Time) error
	IssueSession  func(string, string, string) (SessionIssue, error)

	PasswordPolicyError func(int, int) error
	MapStoreError       func(error) error
	MapDeliveryError    func(error) error
	MapInternalError    func(error) error

	MetricInc func(int)

	Metrics RegistrationMetrics
	Errors  RegistrationErrors
}

// RunRequestCode issues a fresh code for email, replacing any pending one,
// and hands it to the notifier. A delivery failure leaves the issued record
// valid and is reported to the caller.
func RunRequestCode(ctx context.Context, rawEmail string, deps RegistrationDeps) (time.Time, error) {
	normalizeRegistrationDeps(&deps)

	if deps.IssueRecord == nil || deps.CredentialExists == nil || deps.GenerateCode == nil || deps.Notify == nil {
		return time.Time{}, deps.Errors.EngineNotReady
	}

	email, ok := NormalizeEmail(rawEmail)
	if !ok {
		return time.Time{}, deps.Errors.InvalidEmail
	}

	exists, err := credentialExists(ctx, email, deps)
	if err != nil {
		return time.Time{}, err
	}
	if exists {
		deps.Logger.InfoContext(ctx, "verification code refused", "email", email, "outcome", "already_registered")
		return time.Time{}, deps.Errors.AlreadyRegistered
	}

	code, err := deps.GenerateCode()
	if err != nil {
		return time.Time{}, deps.MapInternalError(err)
	}
	expiresAt := deps.Now().Add(deps.CodeTTL)

	storeCtx, cancel := withTimeout(ctx, deps.StoreTimeout)
	err = deps.IssueRecord(storeCtx, email, deps.HashCode(code), expiresAt)
	cancel()
	if err != nil {
		deps.Logger.ErrorContext(ctx, "verification record not stored", "email", email, "error", err)
		return time.Time{}, deps.MapStoreError(err)
	}
	deps.MetricInc(deps.Metrics.CodeIssued)

	notifyCtx, cancel := withTimeout(ctx, deps.NotifierTimeout)
	err = deps.Notify(notifyCtx, email, code, expiresAt)
	cancel()
	if err != nil {
		deps.MetricInc(deps.Metrics.CodeDeliveryFailed)
		deps.Logger.WarnContext(ctx, "verification code delivery failed", "email", email, "error", err)
		return expiresAt, deps.MapDeliveryError(err)
	}

	deps.Logger.InfoContext(ctx, "verification code sent", "email", email, "expires_at", expiresAt)
	return expiresAt, nil
}

// RunVerifyCode checks code against the pending record for email and marks
// it verified on a match.
func RunVerifyCode(ctx context.Context, rawEmail, code string, deps RegistrationDeps) error {
	normalizeRegistrationDeps(&deps)

	if deps.CheckRecord == nil || deps.ClassifyCheck == nil {
		return deps.Errors.EngineNotReady
	}

	email, ok := NormalizeEmail(rawEmail)
	if !ok {
		return deps.Errors.InvalidEmail
	}
	if !deps.IsCode(code) {
		return deps.Errors.InvalidCode
	}

	storeCtx, cancel := withTimeout(ctx, deps.StoreTimeout)
	err := deps.CheckRecord(storeCtx, email, deps.HashCode(code), deps.Now())
	cancel()
	if err != nil {
		if classified := deps.ClassifyCheck(err); classified != nil {
			deps.MetricInc(deps.Metrics.CodeRejected)
			deps.Logger.InfoContext(ctx, "verification code rejected", "email", email, "outcome", classified.Error())
			return classified
		}
		deps.Logger.ErrorContext(ctx, "verification check failed", "email", email, "error", err)
		return deps.MapStoreError(err)
	}

	deps.MetricInc(deps.Metrics.CodeVerified)
	deps.Logger.InfoContext(ctx, "email verified", "email", email)
	return nil
}

// RunCompleteRegistration creates the credential for a verified email and
// signs the first session for it.
func RunCompleteRegistration(ctx context.Context, rawEmail, password, rawName, code string, deps RegistrationDeps) (SessionIssue, error) {
	normalizeRegistrationDeps(&deps)

	if deps.CredentialExists == nil || deps.ConsumeRecord == nil || deps.CreateCredential == nil ||
		deps.HashPassword == nil || deps.IssueSession == nil || deps.NewID == nil {
		return SessionIssue{}, deps.Errors.EngineNotReady
	}

	email, ok := NormalizeEmail(rawEmail)
	if !ok {
		return SessionIssue{}, deps.Errors.InvalidEmail
	}
	name, ok := NormalizeName(rawName, deps.MaxNameRunes)
	if !ok {
		return SessionIssue{}, deps.Errors.InvalidName
	}
	if len(password) < deps.MinPasswordBytes || len(password) > deps.MaxPasswordBytes {
		return SessionIssue{}, deps.PasswordPolicyError(deps.MinPasswordBytes, deps.MaxPasswordBytes)
	}
	codeHash := ""
	if code != "" {
		if !deps.IsCode(code) {
			return SessionIssue{}, deps.Errors.InvalidCode
		}
		codeHash = deps.HashCode(code)
	}

	exists, err := credentialExists(ctx, email, deps)
	if err != nil {
		return SessionIssue{}, err
	}
	if exists {
		deps.MetricInc(deps.Metrics.RegistrationDuplicate)
		return SessionIssue{}, deps.Errors.AlreadyRegistered
	}

	hash, err := deps.HashPassword(password)
	if err != nil {
		return SessionIssue{}, deps.MapInternalError(err)
	}

	storeCtx, cancel := withTimeout(ctx, deps.StoreTimeout)
	outcome, err := deps.ConsumeRecord(storeCtx, email, codeHash, deps.Now())
	cancel()
	if err != nil {
		deps.Logger.ErrorContext(ctx, "verification consume failed", "email", email, "error", err)
		return SessionIssue{}, deps.MapStoreError(err)
	}
	switch outcome {
	case ConsumeClaimed:
	case ConsumeAlreadyClaimed:
		deps.MetricInc(deps.Metrics.RegistrationDuplicate)
		deps.Logger.InfoContext(ctx, "registration refused", "email", email, "outcome", "in_progress")
		return SessionIssue{}, deps.Errors.AlreadyRegistered
	default:
		// A concurrent registration may have created the account and settled the record.
		exists, err = credentialExists(ctx, email, deps)
		if err != nil {
			return SessionIssue{}, err
		}
		if exists {
			deps.MetricInc(deps.Metrics.RegistrationDuplicate)
			return SessionIssue{}, deps.Errors.AlreadyRegistered
		}
		deps.MetricInc(deps.Metrics.RegistrationNotVerified)
		deps.Logger.InfoContext(ctx, "registration refused", "email", email, "outcome", "not_verified")
		return SessionIssue{}, deps.Errors.NotVerified
	}

	cred := RegistrationCredential{
		ID:           deps.NewID(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         deps.DefaultRole,
		CreatedAt:    deps.Now(),
	}

	storeCtx, cancel = withTimeout(ctx, deps.StoreTimeout)
	err = deps.CreateCredential(storeCtx, cred)
	cancel()
	if err != nil {
		if deps.IsDuplicate(err) {
			settleRecord(ctx, email, deps.DeleteRecord, deps)
			deps.MetricInc(deps.Metrics.RegistrationDuplicate)
			deps.Logger.InfoContext(ctx, "registration lost uniqueness race", "email", email)
			return SessionIssue{}, deps.Errors.AlreadyRegistered
		}
		settleRecord(ctx, email, deps.ReleaseRecord, deps)
		deps.Logger.ErrorContext(ctx, "credential not stored", "email", email, "error", err)
		return SessionIssue{}, deps.MapStoreError(err)
	}
	settleRecord(ctx, email, deps.DeleteRecord, deps)

	deps.MetricInc(deps.Metrics.RegistrationSuccess)
	deps.Logger.InfoContext(ctx, "account created", "email", email, "subject", cred.ID)

	issued, err := deps.IssueSession(cred.ID, cred.Email, cred.Role)
	if err != nil {
		return SessionIssue{}, deps.MapInternalError(err)
	}
	return issued, nil
}

func credentialExists(ctx context.Context, email string, deps RegistrationDeps) (bool, error) {
	storeCtx, cancel := withTimeout(ctx, deps.StoreTimeout)
	defer cancel()

	exists, err := deps.CredentialExists(storeCtx, email)
	if err != nil {
		deps.Logger.ErrorContext(ctx, "credential lookup failed", "email", email, "error", err)
		return false, deps.MapStoreError(err)
	}
	return exists, nil
}

// settleRecord runs a follow-up on a claimed record. It outlives the request
// context; a failure only leaves the record to its own expiry.
func settleRecord(ctx context.Context, email string, op func(context.Context, string) error, deps RegistrationDeps) {
	if op == nil {
		return
	}
	opCtx, cancel := withTimeout(context.WithoutCancel(ctx), deps.StoreTimeout)
	defer cancel()
	if err := op(opCtx, email); err != nil {
		deps.Logger.WarnContext(ctx, "verification record not settled", "email", email, "error", err)
	}
}

func normalizeRegistrationDeps(deps *RegistrationDeps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.IsCode == nil {
		deps.IsCode = func(s string) bool { return s != "" }
	}
	if deps.HashCode == nil {
		deps.HashCode = func(s string) string { return s }
	}
	if deps.IsDuplicate == nil {
		deps.IsDuplicate = func(error) bool { return false }
	}
	if deps.MaxNameRunes <= 0 {
		deps.MaxNameRunes = 100
	}
	if deps.MaxPasswordBytes <= 0 {
		deps.MaxPasswordBytes = 1024
	}
	if deps.PasswordPolicyError == nil {
		deps.PasswordPolicyError = func(int, int) error { return errors.New("password policy violation") }
	}
	if deps.MapStoreError == nil {
		deps.MapStoreError = func(err error) error { return err }
	}
	if deps.MapDeliveryError == nil {
		deps.MapDeliveryError = func(err error) error { return err }
	}
	if deps.MapInternalError == nil {
		deps.MapInternalError = func(err error) error { return err }
	}
}
