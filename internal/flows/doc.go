// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunRequestCode, RunVerifyCode, RunCompleteRegistration,
// RunLogin, RunAuthenticate, RunProfile) accepts a typed dependency struct and
// returns results without side effects beyond those dependencies, so every
// branch can be driven from a unit test with plain function stubs.
//
// # Architecture boundaries
//
// Flow functions coordinate the credential store, the verification store, the
// notifier, the password hasher and the token manager. They own none of them.
// Every store and notifier call is bounded by the timeout carried in the deps.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSignup (to avoid import cycles).
//   - Log passwords, codes or tokens.
package flows
