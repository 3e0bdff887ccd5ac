// Package fallback answers email queries from a fixed in-memory sample set.
// It is used whenever the remote gateway cannot be reached.
package fallback

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/lu-zhengda/mailboard/internal/domain"
	"github.com/lu-zhengda/mailboard/internal/provider"
)

// Provider implements provider.EmailProvider over an in-memory data set.
type Provider struct {
	mu     sync.Mutex
	emails []domain.Email
}

// New creates a provider seeded with SampleEmails.
func New() *Provider {
	return NewWithEmails(SampleEmails())
}

// NewWithEmails creates a provider over a copy of emails.
func NewWithEmails(emails []domain.Email) *Provider {
	p := &Provider{emails: make([]domain.Email, len(emails))}
	for i, e := range emails {
		p.emails[i] = e.Clone()
	}
	return p
}

// ListEmails filters, sorts, and paginates the data set.
func (p *Provider) ListEmails(_ context.Context, filters domain.Filters) (*domain.PageResult, error) {
	f := filters.WithDefaults()

	p.mu.Lock()
	matched := make([]domain.Email, 0, len(p.emails))
	for _, e := range p.emails {
		if matches(&e, f) {
			matched = append(matched, e.Clone())
		}
	}
	p.mu.Unlock()

	sortEmails(matched, f.SortBy, f.SortOrder)

	pg := domain.NewPagination(f.Page, f.Limit, len(matched))
	start := min(pg.Offset(), len(matched))
	end := start + min(pg.Limit, len(matched)-start)

	return &domain.PageResult{
		Success:    true,
		Data:       matched[start:end:end],
		Pagination: pg,
	}, nil
}

// GetEmail returns a copy of the email with the given ID.
func (p *Provider) GetEmail(_ context.Context, id string) (*domain.Email, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.find(id)
	if e == nil {
		return nil, fmt.Errorf("failed to get email %s: %w", id, provider.ErrNotFound)
	}
	out := e.Clone()
	return &out, nil
}

// Counts derives per-folder counts from the data set.
func (p *Provider) Counts(_ context.Context) (domain.EmailCounts, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	counts := make(domain.EmailCounts, len(domain.Folders))
	for _, f := range domain.Folders {
		counts[f] = 0
	}
	for i := range p.emails {
		e := &p.emails[i]
		switch {
		case e.HasLabel(string(domain.FolderSent)):
			counts[domain.FolderSent]++
		case e.HasLabel(string(domain.FolderDrafts)):
			counts[domain.FolderDrafts]++
		case e.HasLabel(string(domain.FolderTrash)):
			counts[domain.FolderTrash]++
		default:
			counts[domain.FolderInbox]++
		}
		if e.IsStarred {
			counts[domain.FolderStarred]++
		}
		if e.IsImportant {
			counts[domain.FolderImportant]++
		}
	}
	return counts, nil
}

// MarkRead sets IsRead. Unknown IDs are ignored.
func (p *Provider) MarkRead(_ context.Context, id string) error {
	p.update(id, func(e *domain.Email) { e.IsRead = true })
	return nil
}

// ToggleStar flips IsStarred. Unknown IDs are ignored.
func (p *Provider) ToggleStar(_ context.Context, id string) error {
	p.update(id, func(e *domain.Email) { e.IsStarred = !e.IsStarred })
	return nil
}

// ToggleImportant flips IsImportant. Unknown IDs are ignored.
func (p *Provider) ToggleImportant(_ context.Context, id string) error {
	p.update(id, func(e *domain.Email) { e.IsImportant = !e.IsImportant })
	return nil
}

func (p *Provider) update(id string, fn func(*domain.Email)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e := p.find(id); e != nil {
		fn(e)
	}
}

// find must be called with mu held.
func (p *Provider) find(id string) *domain.Email {
	for i := range p.emails {
		if p.emails[i].ID == id {
			return &p.emails[i]
		}
	}
	return nil
}

func matches(e *domain.Email, f domain.Filters) bool {
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(e.Subject), term) &&
			!strings.Contains(strings.ToLower(e.From), term) &&
			!strings.Contains(strings.ToLower(e.Body), term) {
			return false
		}
	}

	switch f.View {
	case string(domain.FolderStarred):
		if !e.IsStarred {
			return false
		}
	case string(domain.FolderImportant):
		if !e.IsImportant {
			return false
		}
	case domain.ViewUnread:
		if e.IsRead {
			return false
		}
	}

	if !boolMatches(f.IsRead, e.IsRead) ||
		!boolMatches(f.IsStarred, e.IsStarred) ||
		!boolMatches(f.IsImportant, e.IsImportant) ||
		!boolMatches(f.HasAttachments, e.HasAttachments) {
		return false
	}

	if labels := f.LabelList(); len(labels) > 0 {
		if !slices.ContainsFunc(labels, e.HasLabel) {
			return false
		}
	}

	if f.DateFrom != nil && e.Timestamp.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && e.Timestamp.After(*f.DateTo) {
		return false
	}
	return true
}

func boolMatches(want *bool, got bool) bool {
	return want == nil || *want == got
}

// sortEmails orders emails by field, falling back to timestamp for unknown
// fields. Ties keep their original order.
func sortEmails(emails []domain.Email, field, order string) {
	compare := func(a, b domain.Email) int { return a.Timestamp.Compare(b.Timestamp) }
	switch field {
	case "createdAt":
		compare = func(a, b domain.Email) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case "updatedAt":
		compare = func(a, b domain.Email) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case "subject":
		compare = func(a, b domain.Email) int {
			return cmp.Compare(strings.ToLower(a.Subject), strings.ToLower(b.Subject))
		}
	case "from":
		compare = func(a, b domain.Email) int {
			return cmp.Compare(strings.ToLower(a.From), strings.ToLower(b.From))
		}
	}
	if order != domain.SortAsc {
		asc := compare
		compare = func(a, b domain.Email) int { return -asc(a, b) }
	}
	slices.SortStableFunc(emails, compare)
}
