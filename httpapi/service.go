package httpapi

import (
	"context"

	goSignup "github.com/MrEthical07/goSignup"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks Service

// Service is the engine surface the handlers call. *goSignup.Engine implements it.
type Service interface {
	RequestCode(ctx context.Context, email string) (*goSignup.CodeIssueResult, error)
	VerifyCode(ctx context.Context, email, code string) error
	CompleteRegistration(ctx context.Context, req goSignup.CompleteRegistrationRequest) (*goSignup.SessionResult, error)
	Login(ctx context.Context, email, password string) (*goSignup.SessionResult, error)
	Authenticate(ctx context.Context, token string) (*goSignup.Identity, error)
	Profile(ctx context.Context, token string) (*goSignup.Identity, error)
	Ping(ctx context.Context) error
}

var _ Service = (*goSignup.Engine)(nil)
