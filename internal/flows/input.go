package flows

import (
	"context"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

const maxEmailBytes = 254

// NormalizeEmail trims and lower-cases email and reports whether it is a bare
// address (no display name, no angle brackets).
func NormalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(email) > maxEmailBytes {
		return "", false
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return "", false
	}
	return email, true
}

// NormalizeName trims name and reports whether it is non-empty and at most maxRunes long.
func NormalizeName(name string, maxRunes int) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxRunes {
		return "", false
	}
	return name, true
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
