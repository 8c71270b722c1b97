// Package jwt issues and verifies stateless session tokens carrying the
// subject, email and role of a credential. HS256 is the default; Ed25519 is
// available when verification must happen without the signing secret.
package jwt
