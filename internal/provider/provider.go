package provider

import (
	"context"
	"errors"

	"github.com/lu-zhengda/mailboard/internal/domain"
)

var (
	// ErrGatewayUnavailable reports a transport or server failure. Callers
	// are expected to answer from the fallback data set instead.
	ErrGatewayUnavailable = errors.New("email gateway unavailable")

	// ErrAuthExpired reports that the remote service rejected the session.
	ErrAuthExpired = errors.New("session expired; please sign in again")

	// ErrNotFound reports that an email does not exist.
	ErrNotFound = errors.New("email not found")
)

// EmailProvider is the list/get/mutate contract shared by the remote
// gateway and the fallback data set.
type EmailProvider interface {
	ListEmails(ctx context.Context, filters domain.Filters) (*domain.PageResult, error)
	GetEmail(ctx context.Context, id string) (*domain.Email, error)
	Counts(ctx context.Context) (domain.EmailCounts, error)

	MarkRead(ctx context.Context, id string) error
	ToggleStar(ctx context.Context, id string) error
	ToggleImportant(ctx context.Context, id string) error
}

// RegisterRequest is the body of an account registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Authenticator issues sessions against the remote service.
type Authenticator interface {
	Register(ctx context.Context, req RegisterRequest) error
	Login(ctx context.Context, email, password string) (*domain.Session, error)
}

// Credentials supplies the bearer token for outgoing requests and is told
// when the remote service rejects it.
type Credentials interface {
	Token() string
	Expire()
}
