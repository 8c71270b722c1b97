package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strconv"
)

const (
	codeLow  = 100000
	codeSpan = 900000
	// CodeDigits is the fixed width of a verification code.
	CodeDigits = 6
)

var codeSpanBig = big.NewInt(codeSpan)

// NewVerificationCode draws a code uniformly from [100000, 999999].
func NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpanBig)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(codeLow+n.Int64(), 10), nil
}

// IsVerificationCode reports whether s is six ASCII digits. Codes outside the
// issued range are well-formed and simply never match.
func IsVerificationCode(s string) bool {
	if len(s) != CodeDigits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// HashCode returns the hex SHA-256 digest stored in place of a code.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
