// Package middleware exposes the bearer-token guard for goSignup HTTP routes.
//
// [Guard] reads the Authorization header, delegates the decision to the
// engine and injects the resulting goSignup.Identity into the request context.
// In [ModeStateless] only the token is checked; [ModeStrict] also confirms the
// subject still exists in the credential store.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to the engine).
//   - Access Redis or PostgreSQL.
package middleware
