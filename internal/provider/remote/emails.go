package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lu-zhengda/mailboard/internal/domain"
	"github.com/lu-zhengda/mailboard/internal/provider"
)

// envelope is the {success, data, message} wrapper used by single-entity
// and auth responses.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// ListEmails returns one page of emails matching filters.
func (p *Provider) ListEmails(ctx context.Context, filters domain.Filters) (*domain.PageResult, error) {
	var page domain.PageResult
	err := p.do(ctx, request{
		method: http.MethodGet,
		path:   "/emails",
		query:  filters.Values(),
	}, &page)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	if !page.Success {
		return nil, fmt.Errorf("failed to list emails: %w: success=false", provider.ErrGatewayUnavailable)
	}
	for i := range page.Data {
		page.Data[i].Normalize()
	}
	if page.Data == nil {
		page.Data = []domain.Email{}
	}
	return &page, nil
}

// GetEmail returns a single email by ID.
func (p *Provider) GetEmail(ctx context.Context, id string) (*domain.Email, error) {
	var resp envelope[domain.Email]
	err := p.do(ctx, request{
		method: http.MethodGet,
		path:   "/emails/" + url.PathEscape(id),
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to get email %s: %w", id, err)
	}
	if resp.Data.ID == "" {
		return nil, fmt.Errorf("failed to get email %s: %w: empty payload", id, provider.ErrGatewayUnavailable)
	}
	resp.Data.Normalize()
	return &resp.Data, nil
}

// Counts returns per-folder email counts.
func (p *Provider) Counts(ctx context.Context) (domain.EmailCounts, error) {
	var resp envelope[domain.EmailCounts]
	err := p.do(ctx, request{
		method: http.MethodGet,
		path:   "/emails/counts",
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to get email counts: %w", err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("failed to get email counts: %w: empty payload", provider.ErrGatewayUnavailable)
	}
	return resp.Data, nil
}

// MarkRead marks an email as read.
func (p *Provider) MarkRead(ctx context.Context, id string) error {
	return p.patch(ctx, id, "read")
}

// ToggleStar flips the starred flag of an email.
func (p *Provider) ToggleStar(ctx context.Context, id string) error {
	return p.patch(ctx, id, "star")
}

// ToggleImportant flips the important flag of an email.
func (p *Provider) ToggleImportant(ctx context.Context, id string) error {
	return p.patch(ctx, id, "important")
}

func (p *Provider) patch(ctx context.Context, id, action string) error {
	err := p.do(ctx, request{
		method: http.MethodPatch,
		path:   "/emails/" + url.PathEscape(id) + "/" + action,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to %s email %s: %w", action, id, err)
	}
	return nil
}
