package flows

import (
	"context"
	"time"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Session.ParseToken != nil && s.deps.Registration.IssueRecord != nil
}

// RequestCode runs RunRequestCode with the registration deps.
func (s Service) RequestCode(ctx context.Context, email string) (time.Time, error) {
	return RunRequestCode(ctx, email, s.deps.Registration)
}

// VerifyCode runs RunVerifyCode with the registration deps.
func (s Service) VerifyCode(ctx context.Context, email, code string) error {
	return RunVerifyCode(ctx, email, code, s.deps.Registration)
}

// CompleteRegistration runs RunCompleteRegistration with the registration deps.
func (s Service) CompleteRegistration(ctx context.Context, email, password, name, code string) (SessionIssue, error) {
	return RunCompleteRegistration(ctx, email, password, name, code, s.deps.Registration)
}

// Login runs RunLogin with the session deps.
func (s Service) Login(ctx context.Context, email, password string) (SessionIssue, error) {
	return RunLogin(ctx, email, password, s.deps.Session)
}

// Authenticate runs RunAuthenticate with the session deps.
func (s Service) Authenticate(ctx context.Context, token string) (TokenIdentity, error) {
	return RunAuthenticate(ctx, token, s.deps.Session)
}

// Profile runs RunProfile with the session deps.
func (s Service) Profile(ctx context.Context, token string) (TokenIdentity, error) {
	return RunProfile(ctx, token, s.deps.Session)
}
