package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	goSignup "github.com/MrEthical07/goSignup"
	"github.com/wneessen/go-mail"
)

// SMTPConfig configures the mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Brand is the product name in the subject and body. Defaults to "Excel Platform".
	Brand   string
	Timeout time.Duration
}

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPNotifier delivers verification codes by email.
type SMTPNotifier struct {
	sender mailSender
	from   string
	brand  string
	now    func() time.Time
}

var _ goSignup.Notifier = (*SMTPNotifier)(nil)

// NewSMTP returns a notifier for cfg. No connection is made until the first send.
func NewSMTP(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp sender address required")
	}

	opts := []mail.Option{
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Port > 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return newSMTPNotifier(client, cfg.From, cfg.Brand), nil
}

func newSMTPNotifier(sender mailSender, from, brand string) *SMTPNotifier {
	if brand == "" {
		brand = defaultBrand
	}
	return &SMTPNotifier{sender: sender, from: from, brand: brand, now: time.Now}
}

// SendVerificationCode mails msg.Code to msg.Email.
func (n *SMTPNotifier) SendVerificationCode(ctx context.Context, msg goSignup.VerificationMessage) error {
	m, err := n.message(msg)
	if err != nil {
		return err
	}
	if err := n.sender.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (n *SMTPNotifier) message(msg goSignup.VerificationMessage) (*mail.Msg, error) {
	ttl := msg.TTL
	if ttl <= 0 {
		ttl = time.Until(msg.ExpiresAt)
	}
	html, text, err := render(newEmailData(n.brand, msg.Code, ttl, n.now()))
	if err != nil {
		return nil, fmt.Errorf("render verification email: %w", err)
	}

	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := m.To(msg.Email); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	m.Subject(subject(n.brand))
	m.SetBodyString(mail.TypeTextHTML, html)
	m.AddAlternativeString(mail.TypeTextPlain, text)
	return m, nil
}
