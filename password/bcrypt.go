package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptVerifyOnlyCost is never used to hash; it only satisfies the struct.
const bcryptVerifyOnlyCost = bcrypt.DefaultCost

// BcryptMaxPasswordBytes is the longest input bcrypt accepts.
const BcryptMaxPasswordBytes = 72

// ErrPasswordTooLong is returned by Bcrypt.Hash for inputs over BcryptMaxPasswordBytes.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// Bcrypt hashes passwords with bcrypt ($2a$ encodings).
type Bcrypt struct {
	cost int
}

// NewBcrypt accepts costs from bcrypt.DefaultCost up to bcrypt.MaxCost.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost < bcrypt.DefaultCost || cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	return &Bcrypt{cost: cost}, nil
}

// Hash rejects passwords longer than 72 bytes instead of truncating them.
func (b *Bcrypt) Hash(password string) (string, error) {
	if len(password) > BcryptMaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (b *Bcrypt) Verify(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
