// Package wizard drives a user through signup: email, verification code,
// password, success.
//
// [Wizard] is a synchronous state machine over an [API]; [HTTPClient]
// implements API against the httpapi routes. A failed step keeps its state and
// reports the server message in [View].Error. Nothing is retried automatically.
package wizard
