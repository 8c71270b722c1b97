package middleware

import (
	"context"
	"net/http"
	"strings"

	goSignup "github.com/MrEthical07/goSignup"
)

// Mode selects how much a guard checks.
type Mode int

const (
	// ModeStateless accepts any well-signed, unexpired token without a store call.
	ModeStateless Mode = iota
	// ModeStrict additionally requires the token subject to still be registered.
	ModeStrict
)

// Authenticator is the part of goSignup.Engine a guard needs.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*goSignup.Identity, error)
	Profile(ctx context.Context, token string) (*goSignup.Identity, error)
}

// ErrorWriter renders a rejected request.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

type identityContextKey struct{}

// IdentityFromContext returns the identity stored by [Guard].
func IdentityFromContext(ctx context.Context) (*goSignup.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*goSignup.Identity)
	return id, ok
}

// Guard rejects requests without a valid bearer token and stores the caller
// identity in the request context. onError may be nil, in which case
// rejections are a plain 401.
func Guard(auth Authenticator, mode Mode, onError ErrorWriter) func(http.Handler) http.Handler {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				onError(w, r, goSignup.ErrEngineNotReady)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				onError(w, r, goSignup.ErrMissingToken)
				return
			}

			var (
				id  *goSignup.Identity
				err error
			)
			if mode == ModeStrict {
				id, err = auth.Profile(r.Context(), token)
			} else {
				id, err = auth.Authenticate(r.Context(), token)
			}
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
