package goSignup

import (
	"context"
	"time"
)

// Role is the closed set of roles a credential may hold.
type Role string

const (
	// RoleUser is assigned to every self-registered credential.
	RoleUser Role = "user"
	// RoleAdmin is reserved for operator-provisioned credentials.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// Credential is a registered user as persisted by a [CredentialStore].
type Credential struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	CreatedAt    time.Time
}

// Identity is the caller identity carried by a session token.
type Identity struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
}

// CredentialStore is the durable table of registered users.
//
// Create must enforce email uniqueness atomically and report a violation as
// [ErrDuplicateEmail]. Lookups that match nothing return [ErrCredentialNotFound].
// Emails reach the store already normalized.
type CredentialStore interface {
	Exists(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	GetByID(ctx context.Context, id string) (*Credential, error)
	Create(ctx context.Context, cred Credential) error
}

// VerificationMessage is the content handed to a [Notifier].
type VerificationMessage struct {
	Email     string
	Code      string
	ExpiresAt time.Time
	TTL       time.Duration
}

// Notifier delivers a verification code out of band.
type Notifier interface {
	SendVerificationCode(ctx context.Context, msg VerificationMessage) error
}

// CodeIssueResult is returned by [Engine.RequestCode].
type CodeIssueResult struct {
	Message   string
	ExpiresAt time.Time
}

// CompleteRegistrationRequest carries the final wizard step.
//
// Code is optional; when set, the verification record must have been issued
// with this exact code.
type CompleteRegistrationRequest struct {
	Email    string
	Password string
	Name     string
	Code     string
}

// SessionResult is returned by login and by a completed registration.
type SessionResult struct {
	Token     string
	Email     string
	Role      Role
	ExpiresAt time.Time
}
