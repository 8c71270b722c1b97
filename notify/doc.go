// Package notify implements goSignup.Notifier.
//
// SMTPNotifier sends the verification email through github.com/wneessen/go-mail.
// LogNotifier writes a structured log record instead and is meant for local
// development where no mail relay exists.
package notify
