// Package httpapi serves the goSignup engine over JSON HTTP.
//
// Routes live under /api/auth. Every failure is rendered as
// {"error": code, "kind": kind, "message": text} with the status chosen by
// [StatusOf]; dependency causes are logged, never returned.
package httpapi
