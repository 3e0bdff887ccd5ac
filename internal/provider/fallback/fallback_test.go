package fallback

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/lu-zhengda/mailboard/internal/domain"
	"github.com/lu-zhengda/mailboard/internal/provider"
)

func ids(emails []domain.Email) []string {
	out := make([]string, len(emails))
	for i, e := range emails {
		out[i] = e.ID
	}
	return out
}

func timePtr(s string) *time.Time {
	t, _ := domain.ParseTime(s)
	return &t
}

func TestListEmails_Filters(t *testing.T) {
	tests := []struct {
		name    string
		filters domain.Filters
		want    []string
	}{
		{"default newest first", domain.Filters{}, []string{"email-1", "email-2", "email-3", "email-4", "email-5"}},
		{"ascending", domain.Filters{SortOrder: "asc"}, []string{"email-5", "email-4", "email-3", "email-2", "email-1"}},
		{"bogus sort order is desc", domain.Filters{SortOrder: "sideways"}, []string{"email-1", "email-2", "email-3", "email-4", "email-5"}},
		{"starred view", domain.Filters{View: "starred"}, []string{"email-1"}},
		{"important view", domain.Filters{View: "important"}, []string{"email-3"}},
		{"unread view", domain.Filters{View: "unread"}, []string{"email-1", "email-3", "email-5"}},
		{"unknown view passes through", domain.Filters{View: "trash"}, []string{"email-1", "email-2", "email-3", "email-4", "email-5"}},
		{"search subject case-insensitive", domain.Filters{Search: "newsletter"}, []string{"email-2"}},
		{"search sender", domain.Filters{Search: "ALICE@"}, []string{"email-4"}},
		{"search body only", domain.Filters{Search: "renew now"}, []string{"email-5"}},
		{"has attachments", domain.Filters{HasAttachments: domain.Bool(true)}, []string{"email-1", "email-4"}},
		{"is read false", domain.Filters{IsRead: domain.Bool(false)}, []string{"email-1", "email-3", "email-5"}},
		{"not starred and unread", domain.Filters{IsStarred: domain.Bool(false), View: "unread"}, []string{"email-3", "email-5"}},
		{"labels any of", domain.Filters{Labels: "design, marketing"}, []string{"email-3", "email-4"}},
		{"date range inclusive", domain.Filters{DateFrom: timePtr("2024-01-12T11:20:00Z"), DateTo: timePtr("2024-01-14T08:00:00Z")}, []string{"email-2", "email-3", "email-4"}},
		{"sort by subject asc", domain.Filters{SortBy: "subject", SortOrder: "asc"}, []string{"email-4", "email-3", "email-1", "email-2", "email-5"}},
		{"sort by sender desc", domain.Filters{SortBy: "from"}, []string{"email-3", "email-5", "email-2", "email-1", "email-4"}},
		{"unknown sort field uses timestamp", domain.Filters{SortBy: "size"}, []string{"email-1", "email-2", "email-3", "email-4", "email-5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := New().ListEmails(context.Background(), tt.filters)
			if err != nil {
				t.Fatalf("ListEmails() error: %v", err)
			}
			if !page.Success {
				t.Error("expected Success = true")
			}
			if diff := cmp.Diff(tt.want, ids(page.Data)); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
			if page.Pagination.Total != len(tt.want) {
				t.Errorf("Total = %d, want %d", page.Pagination.Total, len(tt.want))
			}
		})
	}
}

func TestListEmails_PaginationInvariants(t *testing.T) {
	p := New()
	for limit := 1; limit <= 6; limit++ {
		for page := 1; page <= 6; page++ {
			res, err := p.ListEmails(context.Background(), domain.Filters{Page: page, Limit: limit})
			if err != nil {
				t.Fatalf("ListEmails() error: %v", err)
			}
			pg := res.Pagination
			if len(res.Data) > pg.Limit {
				t.Errorf("page %d limit %d: len(data) = %d > limit", page, limit, len(res.Data))
			}
			if want := (pg.Total + pg.Limit - 1) / pg.Limit; pg.TotalPages != want {
				t.Errorf("page %d limit %d: TotalPages = %d, want %d", page, limit, pg.TotalPages, want)
			}
		}
	}
}

func TestListEmails_HugePageNumbers(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
	}{
		{"max page", math.MaxInt, 2},
		{"max page default limit", math.MaxInt, 0},
		{"max limit second page", 2, math.MaxInt},
		{"max page and limit", math.MaxInt, math.MaxInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New().ListEmails(context.Background(), domain.Filters{Page: tt.page, Limit: tt.limit})
			if err != nil {
				t.Fatalf("ListEmails() error: %v", err)
			}
			if len(res.Data) != 0 {
				t.Errorf("data = %v, want empty", ids(res.Data))
			}
			if res.Pagination.Total != 5 || res.Pagination.Page != tt.page {
				t.Errorf("pagination = %+v", res.Pagination)
			}
			if res.Pagination.HasNext() {
				t.Error("HasNext() = true past the last page")
			}
		})
	}
}

func TestListEmails_PagesAreContiguous(t *testing.T) {
	p := New()
	ctx := context.Background()
	first, _ := p.ListEmails(ctx, domain.Filters{Page: 1, Limit: 2})
	second, _ := p.ListEmails(ctx, domain.Filters{Page: 2, Limit: 2})
	third, _ := p.ListEmails(ctx, domain.Filters{Page: 3, Limit: 2})
	beyond, _ := p.ListEmails(ctx, domain.Filters{Page: 4, Limit: 2})

	var got []string
	got = append(got, ids(first.Data)...)
	got = append(got, ids(second.Data)...)
	got = append(got, ids(third.Data)...)
	want := []string{"email-1", "email-2", "email-3", "email-4", "email-5"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pages not contiguous (-want +got):\n%s", diff)
	}
	if len(beyond.Data) != 0 || beyond.Pagination.TotalPages != 3 {
		t.Errorf("page beyond end: data=%v pagination=%+v", ids(beyond.Data), beyond.Pagination)
	}
}

func TestListEmails_UnreadComplementsRead(t *testing.T) {
	p := New()
	ctx := context.Background()
	unread, _ := p.ListEmails(ctx, domain.Filters{View: "unread"})
	read, _ := p.ListEmails(ctx, domain.Filters{IsRead: domain.Bool(true)})
	all, _ := p.ListEmails(ctx, domain.Filters{})

	seen := map[string]int{}
	for _, id := range append(ids(unread.Data), ids(read.Data)...) {
		seen[id]++
	}
	for _, id := range ids(all.Data) {
		if seen[id] != 1 {
			t.Errorf("%s appears %d times across unread and read", id, seen[id])
		}
	}
	if len(seen) != len(all.Data) {
		t.Errorf("union has %d ids, want %d", len(seen), len(all.Data))
	}
}

func TestMutations(t *testing.T) {
	p := New()
	ctx := context.Background()

	for range 2 {
		if err := p.MarkRead(ctx, "email-1"); err != nil {
			t.Fatalf("MarkRead() error: %v", err)
		}
		e, _ := p.GetEmail(ctx, "email-1")
		if !e.IsRead {
			t.Fatal("expected email-1 read")
		}
	}

	orig, _ := p.GetEmail(ctx, "email-2")
	_ = p.ToggleStar(ctx, "email-2")
	once, _ := p.GetEmail(ctx, "email-2")
	if once.IsStarred == orig.IsStarred {
		t.Error("ToggleStar did not flip")
	}
	_ = p.ToggleStar(ctx, "email-2")
	twice, _ := p.GetEmail(ctx, "email-2")
	if twice.IsStarred != orig.IsStarred {
		t.Error("ToggleStar twice is not the identity")
	}

	_ = p.ToggleImportant(ctx, "email-3")
	_ = p.ToggleImportant(ctx, "email-3")
	e3, _ := p.GetEmail(ctx, "email-3")
	if !e3.IsImportant {
		t.Error("ToggleImportant twice is not the identity")
	}

	if err := p.ToggleStar(ctx, "missing"); err != nil {
		t.Errorf("unknown id should be a no-op, got %v", err)
	}
}

func TestGetEmail_NotFound(t *testing.T) {
	_, err := New().GetEmail(context.Background(), "nope")
	if !errors.Is(err, provider.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReturnsCopies(t *testing.T) {
	p := New()
	ctx := context.Background()

	e, _ := p.GetEmail(ctx, "email-1")
	e.Subject = "changed"
	e.Labels[0] = "changed"

	page, _ := p.ListEmails(ctx, domain.Filters{})
	page.Data[0].IsStarred = false

	again, _ := p.GetEmail(ctx, "email-1")
	if again.Subject != "Quarterly Review Meeting" || again.Labels[0] != "work" || !again.IsStarred {
		t.Errorf("caller mutation leaked into the data set: %+v", again)
	}
}

func TestCounts(t *testing.T) {
	p := NewWithEmails(append(SampleEmails(),
		domain.Email{ID: "sent-1", Labels: []string{"sent"}, IsStarred: true},
		domain.Email{ID: "trash-1", Labels: []string{"trash"}},
	))
	counts, err := p.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts() error: %v", err)
	}
	want := domain.EmailCounts{
		domain.FolderInbox:     5,
		domain.FolderStarred:   2,
		domain.FolderSent:      1,
		domain.FolderImportant: 1,
		domain.FolderDrafts:    0,
		domain.FolderTrash:     1,
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestSampleEmails_Invariants(t *testing.T) {
	emails := SampleEmails()
	if len(emails) != 5 {
		t.Fatalf("len = %d, want 5", len(emails))
	}
	for _, e := range emails {
		if e.HasAttachments != (len(e.Attachments) > 0) {
			t.Errorf("%s: HasAttachments disagrees with attachments", e.ID)
		}
		if e.UserID != SampleUserID {
			t.Errorf("%s: UserID = %q", e.ID, e.UserID)
		}
	}
}
