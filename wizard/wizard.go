package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Step is a wizard state.
type Step int

const (
	StepEmail Step = iota
	StepVerification
	StepPassword
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepEmail:
		return "email"
	case StepVerification:
		return "verification"
	case StepPassword:
		return "password"
	case StepSuccess:
		return "success"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

const (
	// MinPasswordLength mirrors the server default policy.
	MinPasswordLength = 6

	DefaultRedirectDelay  = 2 * time.Second
	DefaultRedirectTarget = "/login"

	prefixSendCode = "Failed to send verification code"
	prefixVerify   = "Verification failed"
	prefixSignup   = "Signup failed"

	noticeCodeSent = "Verification code sent to your email!"
	noticeVerified = "Email verified successfully!"

	msgPasswordMismatch = "Passwords do not match"
	msgPasswordShort    = "Password must be at least 6 characters long"
	msgCodeFormat       = "Please enter the 6-digit verification code"
)

var (
	// ErrWrongStep is returned for an action the current step does not accept.
	ErrWrongStep = errors.New("wizard: action not allowed in current step")
	// ErrRejectedLocally is returned when input fails a client-side check.
	ErrRejectedLocally = errors.New("wizard: input rejected")
)

// View is what a front end renders.
type View struct {
	Step   Step
	Email  string
	Error  string
	Notice string
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithRedirect overrides the post-signup delay and target.
func WithRedirect(delay time.Duration, target string) Option {
	return func(w *Wizard) {
		w.redirectDelay = delay
		if target != "" {
			w.redirectTarget = target
		}
	}
}

// Wizard is safe for concurrent use; actions are serialized.
type Wizard struct {
	api API

	mu      sync.Mutex
	view    View
	code    string
	session *Session

	redirectDelay  time.Duration
	redirectTarget string
}

func New(api API, opts ...Option) *Wizard {
	w := &Wizard{
		api:            api,
		view:           View{Step: StepEmail},
		redirectDelay:  DefaultRedirectDelay,
		redirectTarget: DefaultRedirectTarget,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// View returns a copy of the current view.
func (w *Wizard) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view
}

// Session returns the session issued at signup, or nil before success.
func (w *Wizard) Session() *Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

func (w *Wizard) SubmitEmail(ctx context.Context, email string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.view.Step != StepEmail {
		return ErrWrongStep
	}
	email = strings.TrimSpace(email)
	w.clearMessages()

	if _, err := w.api.RequestCode(ctx, email); err != nil {
		w.fail(prefixSendCode, err)
		return err
	}

	w.view.Email = email
	w.view.Step = StepVerification
	w.view.Notice = noticeCodeSent
	return nil
}

func (w *Wizard) SubmitCode(ctx context.Context, code string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.view.Step != StepVerification {
		return ErrWrongStep
	}
	code = strings.TrimSpace(code)
	w.clearMessages()

	if !isSixDigits(code) {
		w.view.Error = msgCodeFormat
		return ErrRejectedLocally
	}

	if err := w.api.VerifyCode(ctx, w.view.Email, code); err != nil {
		w.fail(prefixVerify, err)
		return err
	}

	w.code = code
	w.view.Step = StepPassword
	w.view.Notice = noticeVerified
	return nil
}

func (w *Wizard) SubmitPassword(ctx context.Context, name, password, confirm string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.view.Step != StepPassword {
		return ErrWrongStep
	}
	w.clearMessages()

	if password != confirm {
		w.view.Error = msgPasswordMismatch
		return ErrRejectedLocally
	}
	if len(password) < MinPasswordLength {
		w.view.Error = msgPasswordShort
		return ErrRejectedLocally
	}

	session, err := w.api.Register(ctx, RegisterRequest{
		Email:    w.view.Email,
		Password: password,
		Name:     strings.TrimSpace(name),
		Code:     w.code,
	})
	if err != nil {
		w.fail(prefixSignup, err)
		return err
	}

	w.session = session
	w.view.Step = StepSuccess
	return nil
}

// UseDifferentEmail returns from verification to the email step.
func (w *Wizard) UseDifferentEmail() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.view.Step != StepVerification {
		return ErrWrongStep
	}
	w.view = View{Step: StepEmail}
	w.code = ""
	return nil
}

// Redirect waits for the redirect delay and returns the target. It is only
// valid after a successful signup.
func (w *Wizard) Redirect(ctx context.Context) (string, error) {
	w.mu.Lock()
	step, delay, target := w.view.Step, w.redirectDelay, w.redirectTarget
	w.mu.Unlock()

	if step != StepSuccess {
		return "", ErrWrongStep
	}
	if delay <= 0 {
		return target, nil
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-t.C:
		return target, nil
	}
}

func (w *Wizard) clearMessages() {
	w.view.Error = ""
	w.view.Notice = ""
}

func (w *Wizard) fail(prefix string, err error) {
	w.view.Error = prefix + ": " + messageOf(err)
}

func messageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}

func isSixDigits(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
