package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lu-zhengda/mailboard/internal/domain"
	"github.com/lu-zhengda/mailboard/internal/provider"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authPayload struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates an account on the remote service. A 4xx (for example
// "user already exists") is returned as an error like any other failure.
func (p *Provider) Register(ctx context.Context, req provider.RegisterRequest) error {
	err := p.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/register",
		body:      req,
		anonymous: true,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", req.Email, err)
	}
	return nil
}

// Login exchanges credentials for a server-issued session.
func (p *Provider) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp envelope[authPayload]
	err := p.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/login",
		body:      loginRequest{Email: email, Password: password},
		anonymous: true,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to log in %s: %w", email, err)
	}
	if !resp.Success || resp.Data.User == nil || resp.Data.Token == "" {
		msg := resp.Message
		if msg == "" {
			msg = "incomplete auth response"
		}
		return nil, fmt.Errorf("failed to log in %s: %w", email, errors.New(msg))
	}
	return &domain.Session{Token: resp.Data.Token, User: resp.Data.User}, nil
}
