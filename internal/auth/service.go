package auth

import (
	"context"
	"fmt"

	"github.com/dmoreno/shopfront/internal/session"
	pkgerrors "github.com/dmoreno/shopfront/pkg/errors"
	"github.com/dmoreno/shopfront/pkg/logger"
	"github.com/dmoreno/shopfront/pkg/validate"
)

type remoteClient interface {
	Post(ctx context.Context, path string, body, out any) error
}

type sessionWriter interface {
	LoginStart(ctx context.Context)
	LoginSuccess(ctx context.Context, token string, user session.User) error
	LoginFailure(ctx context.Context, message string)
	Logout(ctx context.Context) error
}

// LoginInput is an email/password credential pair.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RegisterInput creates a new shopper account.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// VerifyOTPInput confirms a one-time code sent after registration.
type VerifyOTPInput struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// GoogleInput carries the OAuth credential from the Google sign-in flow.
type GoogleInput struct {
	Credential string `json:"credential" validate:"required"`
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// Service drives the authentication flows. Every flow ends as a session
// store transition; the service itself holds no state.
type Service interface {
	Login(ctx context.Context, input LoginInput) error
	Register(ctx context.Context, input RegisterInput) error
	VerifyOTP(ctx context.Context, input VerifyOTPInput) error
	Google(ctx context.Context, input GoogleInput) error
	Logout(ctx context.Context) error
}

type service struct {
	api     remoteClient
	session sessionWriter
	logger  *logger.Logger
}

// NewService builds the auth service.
func NewService(api remoteClient, sess sessionWriter, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client required")
	}
	if sess == nil {
		return nil, fmt.Errorf("session store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{api: api, session: sess, logger: logg}, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) error {
	return s.obtain(ctx, "/api/users/login", input)
}

func (s *service) Register(ctx context.Context, input RegisterInput) error {
	return s.obtain(ctx, "/api/users/register", input)
}

func (s *service) VerifyOTP(ctx context.Context, input VerifyOTPInput) error {
	return s.obtain(ctx, "/api/users/verify-otp", input)
}

func (s *service) Google(ctx context.Context, input GoogleInput) error {
	return s.obtain(ctx, "/api/users/google", input)
}

func (s *service) Logout(ctx context.Context) error {
	return s.session.Logout(ctx)
}

// obtain runs the shared token-acquisition flow: validate locally, mark
// the attempt in flight, exchange credentials for {token, user}, then
// commit or record the failure. Validation failures never touch the
// in-flight flag; the request was never dispatched.
func (s *service) obtain(ctx context.Context, path string, input any) error {
	if err := validate.Struct(input); err != nil {
		return err
	}

	s.session.LoginStart(ctx)

	var resp tokenResponse
	if err := s.api.Post(ctx, path, input, &resp); err != nil {
		s.session.LoginFailure(ctx, failureMessage(err))
		return err
	}

	if resp.Token == "" {
		err := pkgerrors.New(pkgerrors.CodeDependency, "auth response missing token")
		s.session.LoginFailure(ctx, failureMessage(err))
		return err
	}

	return s.session.LoginSuccess(ctx, resp.Token, resp.User)
}

func failureMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		if msg := typed.Message(); msg != "" {
			return msg
		}
		return pkgerrors.MetadataFor(typed.Code()).PublicMessage
	}
	return "authentication failed"
}
