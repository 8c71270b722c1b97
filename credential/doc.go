// Package credential implements goSignup.CredentialStore on PostgreSQL, plus
// an in-memory store for demos and load tests.
//
// The store is reached through database/sql with the pgx driver. The schema
// is embedded and applied with goose; a unique index on email is what makes
// exactly one of several concurrent registrations for the same address win.
package credential
