package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"time"

	"github.com/lu-zhengda/mailboard/internal/domain"
	"github.com/lu-zhengda/mailboard/internal/provider"
	"golang.org/x/sync/errgroup"
)

const countsCacheKey = "counts"

// EmailService answers email queries from the remote gateway and switches to
// the fallback provider whenever the gateway is unavailable. Callers always
// get the same result shape regardless of which source answered.
type EmailService struct {
	remote   provider.EmailProvider
	fallback provider.EmailProvider

	pages  *ttlCache[*domain.PageResult]
	counts *ttlCache[domain.EmailCounts]
}

// Overview is a folder count snapshot together with one page of emails.
type Overview struct {
	Counts domain.EmailCounts
	Page   *domain.PageResult
}

// NewEmailService creates an EmailService. Results are cached for ttl; a
// zero ttl disables caching.
func NewEmailService(remote, fallback provider.EmailProvider, ttl time.Duration) *EmailService {
	return newEmailService(remote, fallback, ttl, time.Now)
}

func newEmailService(remote, fallback provider.EmailProvider, ttl time.Duration, now func() time.Time) *EmailService {
	return &EmailService{
		remote:   remote,
		fallback: fallback,
		pages:    newTTLCache[*domain.PageResult](ttl, now),
		counts:   newTTLCache[domain.EmailCounts](ttl, now),
	}
}

// withFallback runs remote and, only if it reports the gateway unavailable,
// runs local instead. Every other error is returned unchanged.
func withFallback[T any](op string, remote, local func() (T, error)) (T, error) {
	v, err := remote()
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, provider.ErrGatewayUnavailable) {
		return v, err
	}
	log.Printf("[emails] %s: remote unavailable, using fallback data: %v", op, err)
	return local()
}

// GetEmails returns one page of emails matching filters.
func (s *EmailService) GetEmails(ctx context.Context, filters domain.Filters) (*domain.PageResult, error) {
	f := filters.WithDefaults()
	key := f.Key()
	if page, ok := s.pages.get(key); ok {
		return clonePage(page), nil
	}
	gen := s.pages.generation()

	page, err := withFallback("list",
		func() (*domain.PageResult, error) { return s.remote.ListEmails(ctx, f) },
		func() (*domain.PageResult, error) { return s.fallback.ListEmails(ctx, f) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}

	s.pages.set(gen, key, clonePage(page))
	return page, nil
}

// GetEmailCounts returns per-folder counts.
func (s *EmailService) GetEmailCounts(ctx context.Context) (domain.EmailCounts, error) {
	if counts, ok := s.counts.get(countsCacheKey); ok {
		return maps.Clone(counts), nil
	}
	gen := s.counts.generation()

	counts, err := withFallback("counts",
		func() (domain.EmailCounts, error) { return s.remote.Counts(ctx) },
		func() (domain.EmailCounts, error) { return s.fallback.Counts(ctx) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get email counts: %w", err)
	}

	s.counts.set(gen, countsCacheKey, maps.Clone(counts))
	return counts, nil
}

// GetEmailByID returns a single email. provider.ErrNotFound is returned when
// neither source has it.
func (s *EmailService) GetEmailByID(ctx context.Context, id string) (*domain.Email, error) {
	email, err := withFallback("get",
		func() (*domain.Email, error) { return s.remote.GetEmail(ctx, id) },
		func() (*domain.Email, error) { return s.fallback.GetEmail(ctx, id) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get email %s: %w", id, err)
	}
	return email, nil
}

// Overview fetches counts and a page of emails concurrently.
func (s *EmailService) Overview(ctx context.Context, filters domain.Filters) (*Overview, error) {
	var ov Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.GetEmailCounts(gctx)
		ov.Counts = counts
		return err
	})
	g.Go(func() error {
		page, err := s.GetEmails(gctx, filters)
		ov.Page = page
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ov, nil
}

// MarkAsRead marks an email read. Repeating it has no further effect.
func (s *EmailService) MarkAsRead(ctx context.Context, id string) error {
	return s.mutate(ctx, "mark read", id, s.remote.MarkRead, s.fallback.MarkRead)
}

// ToggleStar flips the starred flag.
func (s *EmailService) ToggleStar(ctx context.Context, id string) error {
	return s.mutate(ctx, "toggle star", id, s.remote.ToggleStar, s.fallback.ToggleStar)
}

// ToggleImportant flips the important flag.
func (s *EmailService) ToggleImportant(ctx context.Context, id string) error {
	return s.mutate(ctx, "toggle important", id, s.remote.ToggleImportant, s.fallback.ToggleImportant)
}

type mutation func(ctx context.Context, id string) error

func (s *EmailService) mutate(ctx context.Context, op, id string, remote, local mutation) error {
	_, err := withFallback(op,
		func() (struct{}, error) { return struct{}{}, remote(ctx, id) },
		func() (struct{}, error) { return struct{}{}, local(ctx, id) },
	)
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", op, id, err)
	}
	s.Refresh()
	return nil
}

// Refresh drops every cached result so the next query goes to a source.
// Fetches already in flight when Refresh runs do not repopulate the cache.
func (s *EmailService) Refresh() {
	s.pages.clear()
	s.counts.clear()
}

func clonePage(p *domain.PageResult) *domain.PageResult {
	out := *p
	out.Data = make([]domain.Email, len(p.Data))
	for i, e := range p.Data {
		out.Data[i] = e.Clone()
	}
	return &out
}
