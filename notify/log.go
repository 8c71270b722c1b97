package notify

import (
	"context"
	"log/slog"

	goSignup "github.com/MrEthical07/goSignup"
)

// LogNotifier records each issued code as a log entry. With RevealCode false
// the code itself is omitted, which leaves the notifier useful only for
// watching traffic.
type LogNotifier struct {
	Logger     *slog.Logger
	RevealCode bool
}

var _ goSignup.Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) SendVerificationCode(ctx context.Context, msg goSignup.VerificationMessage) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []slog.Attr{
		slog.String("email", msg.Email),
		slog.Time("expires_at", msg.ExpiresAt),
	}
	if n.RevealCode {
		attrs = append(attrs, slog.String("code", msg.Code))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "verification code issued", attrs...)
	return nil
}
