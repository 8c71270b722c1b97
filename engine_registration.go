package goSignup

import (
	"context"
)

const codeSentMessage = "Verification code sent to your email"

// RequestCode issues a fresh verification code for email and hands it to the
// notifier. Any pending code for the same email stops matching.
//
// When delivery fails the issued code stays valid until it expires and
// [ErrDeliveryFailed] is returned; calling RequestCode again issues a new code.
func (e *Engine) RequestCode(ctx context.Context, email string) (*CodeIssueResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	expiresAt, err := e.flows.RequestCode(ctx, email)
	if err != nil {
		return nil, err
	}
	return &CodeIssueResult{
		Message:   codeSentMessage,
		ExpiresAt: expiresAt,
	}, nil
}

// VerifyCode marks the pending record for email verified when code matches.
//
// It returns [ErrCodeNotFound], [ErrCodeMismatch] or [ErrCodeExpired] when the
// record does not accept code. A mismatch leaves the record in place.
func (e *Engine) VerifyCode(ctx context.Context, email, code string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flows.VerifyCode(ctx, email, code)
}

// CompleteRegistration creates the credential for a verified email and
// returns its first session.
//
// The verification record is claimed atomically, so of several concurrent
// calls for the same email one creates the credential and the others get
// [ErrAlreadyRegistered].
func (e *Engine) CompleteRegistration(ctx context.Context, req CompleteRegistrationRequest) (*SessionResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	issued, err := e.flows.CompleteRegistration(ctx, req.Email, req.Password, req.Name, req.Code)
	if err != nil {
		return nil, err
	}
	return sessionResultFromIssue(issued), nil
}
