package goSignup

import (
	"context"
	"time"

	"github.com/MrEthical07/goSignup/internal/flows"
)

// Login exchanges email and password for a session token.
//
// An unknown email and a wrong password both return [ErrInvalidCredentials]
// after the same amount of hashing work.
func (e *Engine) Login(ctx context.Context, email, password string) (*SessionResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	issued, err := e.flows.Login(ctx, email, password)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricLoginLatency, time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	return sessionResultFromIssue(issued), nil
}

// Authenticate verifies token and returns the identity it carries. It never
// touches a store.
func (e *Engine) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	id, err := e.flows.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return identityFromToken(id), nil
}

// Profile authenticates token and confirms its subject is still registered.
func (e *Engine) Profile(ctx context.Context, token string) (*Identity, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	id, err := e.flows.Profile(ctx, token)
	if err != nil {
		return nil, err
	}
	return identityFromToken(id), nil
}

func sessionResultFromIssue(issued flows.SessionIssue) *SessionResult {
	return &SessionResult{
		Token:     issued.Token,
		Email:     issued.Email,
		Role:      Role(issued.Role),
		ExpiresAt: issued.ExpiresAt,
	}
}

func identityFromToken(id flows.TokenIdentity) *Identity {
	return &Identity{
		Subject: id.Subject,
		Email:   id.Email,
		Role:    Role(id.Role),
	}
}
