package password

import (
	"errors"
	"strings"
)

// Algorithm names a supported hashing scheme.
type Algorithm string

const (
	AlgorithmArgon2id Algorithm = "argon2id"
	AlgorithmBcrypt   Algorithm = "bcrypt"
)

// ErrUnsupportedHash is returned by Verify for an encoding no hasher recognises.
var ErrUnsupportedHash = errors.New("unsupported password hash encoding")

// Hasher produces and checks one-way password digests.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// Config selects the algorithm used for new hashes and its cost parameters.
type Config struct {
	Algorithm Algorithm

	// argon2id
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// bcrypt
	BcryptCost int
}

// Multi hashes with the configured algorithm and verifies any supported
// encoding, so credentials hashed under a previous algorithm keep working.
type Multi struct {
	primary Hasher
	argon   *Argon2
	bcrypt  *Bcrypt
}

// New builds a Multi from cfg.
func New(cfg Config) (*Multi, error) {
	m := &Multi{bcrypt: &Bcrypt{cost: bcryptVerifyOnlyCost}}

	switch cfg.Algorithm {
	case AlgorithmArgon2id, "":
		a, err := NewArgon2(cfg)
		if err != nil {
			return nil, err
		}
		m.argon = a
		m.primary = a
	case AlgorithmBcrypt:
		b, err := NewBcrypt(cfg.BcryptCost)
		if err != nil {
			return nil, err
		}
		m.bcrypt = b
		m.primary = b
	default:
		return nil, errors.New("unsupported password algorithm")
	}

	return m, nil
}

func (m *Multi) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

func (m *Multi) Verify(password, encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, "$"+algorithmID+"$"):
		// Parameters come from the encoding, so any Argon2 value verifies it.
		var a Argon2
		return a.Verify(password, encodedHash)
	case isBcryptHash(encodedHash):
		return m.bcrypt.Verify(password, encodedHash)
	default:
		return false, ErrUnsupportedHash
	}
}
