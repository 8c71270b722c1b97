// Package goSignup provides an email-verified registration engine: one-time
// verification codes kept in Redis, credentials hashed with argon2id or
// bcrypt, and signed session tokens.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Flow
//
//	RequestCode  -> code delivered through the Notifier, record stored with a TTL
//	VerifyCode   -> record marked verified
//	CompleteRegistration -> record consumed, credential created, session issued
//	Login / Authenticate / Profile
//
// # Architecture boundaries
//
// goSignup is the public surface. It exposes [Engine], [Builder], [Config], the
// [CredentialStore] and [Notifier] contracts and the error taxonomy. Flow
// orchestration and the Redis record encoding live under internal/ and are
// never exported.
//
// # What this package must NOT do
//
//   - Log or persist a plaintext password or verification code.
//   - Expose Redis clients or record encoding in its public API.
//   - Return an error that [KindOf] cannot classify.
package goSignup
