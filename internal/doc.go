// Package internal contains helpers private to goSignup: verification code
// generation and digesting.
//
// # Sub-packages
//
//   - config: process configuration for the binaries (env, .env, YAML)
//   - flows: pure-function orchestrators for every Engine operation
//   - logging: slog handler construction for the binaries
//   - stores: Redis-backed verification record store
package internal
