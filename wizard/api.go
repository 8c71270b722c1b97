package wizard

import (
	"context"
	"time"
)

// API is the server surface the wizard needs.
type API interface {
	RequestCode(ctx context.Context, email string) (*CodeSent, error)
	VerifyCode(ctx context.Context, email, code string) error
	Register(ctx context.Context, req RegisterRequest) (*Session, error)
}

// CodeSent is the server acknowledgement of a code request.
type CodeSent struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Code     string `json:"code,omitempty"`
}

// Session is a signed-in user as returned by register and login.
type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Profile is the identity behind the current token.
type Profile struct {
	Subject string `json:"subject"`
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

// APIError is a non-2xx server answer.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}
