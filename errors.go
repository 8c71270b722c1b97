package goSignup

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error for transports and clients.
type Kind string

const (
	// KindValidation marks malformed input rejected before any store access.
	KindValidation Kind = "ValidationError"
	// KindConflict marks a uniqueness conflict.
	KindConflict Kind = "ConflictError"
	// KindAuth marks a failed proof of identity, code possession, or token validity.
	KindAuth Kind = "AuthError"
	// KindNotFound marks a missing verification record or identity.
	KindNotFound Kind = "NotFoundError"
	// KindDependency marks a failure of the notifier or a backing store.
	KindDependency Kind = "DependencyError"
	// KindInternal marks a programming or wiring fault.
	KindInternal Kind = "InternalError"
)

// Error is the classified error returned at the engine boundary.
//
// The exported Err* values are sentinels; compare with errors.Is. Dependency
// failures are returned wrapped so the underlying cause is still printable.
type Error struct {
	Code    string
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code string, kind Kind, message string) *Error {
	return &Error{Code: code, Kind: kind, Message: message}
}

var (
	// ErrInvalidInput is returned for a request that fails basic shape checks.
	ErrInvalidInput = newError("InvalidInput", KindValidation, "invalid input")
	// ErrInvalidEmail is returned when the email is empty or not a bare address.
	ErrInvalidEmail = newError("InvalidInput", KindValidation, "a valid email address is required")
	// ErrInvalidCode is returned when a submitted code is not six digits.
	ErrInvalidCode = newError("InvalidInput", KindValidation, "verification code must be 6 digits")
	// ErrInvalidName is returned when the display name is empty or too long.
	ErrInvalidName = newError("InvalidInput", KindValidation, "name is required")
	// ErrPasswordPolicy is returned when the password violates length bounds.
	ErrPasswordPolicy = newError("InvalidInput", KindValidation, "password does not meet the length policy")

	// ErrAlreadyRegistered is returned when a credential exists for the email.
	ErrAlreadyRegistered = newError("AlreadyRegistered", KindConflict, "User already exists")

	// ErrCodeNotFound is returned when no verification record exists for the email.
	ErrCodeNotFound = newError("NotFound", KindNotFound, "No verification code found for this email")
	// ErrCodeMismatch is returned when the submitted code differs from the issued one.
	ErrCodeMismatch = newError("Mismatch", KindAuth, "Invalid verification code")
	// ErrCodeExpired is returned when the verification record is past its expiry.
	ErrCodeExpired = newError("Expired", KindAuth, "Verification code has expired")
	// ErrNotVerified is returned when registration is attempted without a verified code.
	ErrNotVerified = newError("NotVerified", KindAuth, "Email not verified. Please verify your email first.")

	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = newError("InvalidCredentials", KindAuth, "Invalid credentials")
	// ErrMissingToken is returned when a protected call carries no bearer token.
	ErrMissingToken = newError("MissingToken", KindAuth, "No token provided")
	// ErrInvalidToken is returned for a malformed or tampered session token.
	ErrInvalidToken = newError("InvalidToken", KindAuth, "Invalid or expired token")
	// ErrTokenExpired is returned for a well-signed session token past its expiry.
	ErrTokenExpired = newError("Expired", KindAuth, "Token has expired")
	// ErrIdentityNotFound is returned when a valid token names a missing credential.
	ErrIdentityNotFound = newError("IdentityNotFound", KindNotFound, "User not found")

	// ErrDeliveryFailed is returned when the notifier could not deliver the code.
	ErrDeliveryFailed = newError("DeliveryFailed", KindDependency, "Failed to send verification email. Please try again.")
	// ErrStoreUnavailable is returned when a backing store fails or times out.
	ErrStoreUnavailable = newError("StoreUnavailable", KindDependency, "service temporarily unavailable")

	// ErrEngineNotReady is returned by an Engine that was not built through Builder.
	ErrEngineNotReady = newError("Internal", KindInternal, "engine not ready")
	// ErrInternal is returned when hashing, code generation or signing fails.
	ErrInternal = newError("Internal", KindInternal, "internal error")

	// ErrDuplicateEmail must be returned by CredentialStore.Create when the
	// unique email constraint rejects the insert.
	ErrDuplicateEmail = errors.New("credential email already exists")
	// ErrCredentialNotFound must be returned by CredentialStore lookups that match no row.
	ErrCredentialNotFound = errors.New("credential not found")
)

// KindOf returns the Kind of the first classified error in err's chain.
// Unclassified errors report KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the stable code of the first classified error in err's chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "Internal"
}

// MessageOf returns the user-facing message for err. Validation errors keep
// their wrapped detail; every other kind reports only the sentinel message so
// dependency causes stay out of responses.
func MessageOf(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal error"
	}
	if e.Kind == KindValidation {
		return err.Error()
	}
	return e.Message
}

func passwordPolicyError(minBytes, maxBytes int) error {
	return fmt.Errorf("%w (between %d and %d characters)", ErrPasswordPolicy, minBytes, maxBytes)
}

func dependencyError(sentinel *Error, cause error) error {
	return fmt.Errorf("%w: %v", sentinel, cause)
}
