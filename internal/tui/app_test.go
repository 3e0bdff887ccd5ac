package tui

import (
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lu-zhengda/mailboard/internal/app"
	"github.com/lu-zhengda/mailboard/internal/domain"
	"github.com/lu-zhengda/mailboard/internal/provider"
	"github.com/lu-zhengda/mailboard/internal/provider/fallback"
)

func newTestModel(t *testing.T) model {
	t.Helper()
	svc := app.NewEmailService(fallback.New(), fallback.New(), 0)
	m := NewModel(svc, nil, Options{PageSize: 2})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(model)
}

// run executes cmd and feeds the resulting message back into m.
func run(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(model)
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func ids(emails []domain.Email) []string {
	out := make([]string, len(emails))
	for i, e := range emails {
		out[i] = e.ID
	}
	return out
}

func TestModel_InitLoadsOverview(t *testing.T) {
	m := newTestModel(t)
	m = run(t, m, m.Init())

	if got := len(m.inbox.emails); got != 2 {
		t.Fatalf("loaded %d emails, want 2", got)
	}
	if m.inbox.pagination.Total != 5 {
		t.Errorf("total = %d, want 5", m.inbox.pagination.Total)
	}
	if m.sidebar.counts[domain.FolderInbox] != 5 {
		t.Errorf("inbox count = %d, want 5", m.sidebar.counts[domain.FolderInbox])
	}
}

func TestModel_DropsStalePages(t *testing.T) {
	m := newTestModel(t)
	m.seq = 5

	stale := &domain.PageResult{Data: []domain.Email{{ID: "old"}}, Pagination: domain.NewPagination(1, 2, 1)}
	next, _ := m.Update(pageLoadedMsg{seq: 4, page: stale})
	m = next.(model)
	if len(m.inbox.emails) != 0 {
		t.Fatalf("stale page applied: %v", ids(m.inbox.emails))
	}

	fresh := &domain.PageResult{Data: []domain.Email{{ID: "new"}}, Pagination: domain.NewPagination(1, 2, 1)}
	next, _ = m.Update(pageLoadedMsg{seq: 5, page: fresh})
	m = next.(model)
	if got := ids(m.inbox.emails); len(got) != 1 || got[0] != "new" {
		t.Errorf("emails = %v, want [new]", got)
	}
}

func TestModel_SearchDebounce(t *testing.T) {
	m := newTestModel(t)
	m.debounce = 300 * time.Millisecond

	m.search.input.SetValue("News")
	next, cmd := m.Update(searchChangedMsg{query: "News"})
	m = next.(model)
	if cmd == nil {
		t.Fatal("expected a debounce tick")
	}

	m.search.input.SetValue("Newsletter")
	next, _ = m.Update(searchChangedMsg{query: "Newsletter"})
	m = next.(model)
	if m.searchTag != 2 {
		t.Fatalf("searchTag = %d, want 2", m.searchTag)
	}

	// The first tick is superseded.
	seq := m.seq
	next, cmd = m.Update(searchDebounceMsg{tag: 1})
	m = next.(model)
	if cmd != nil || m.seq != seq || m.filters.Search != "" {
		t.Fatal("superseded debounce tick should be ignored")
	}

	next, cmd = m.Update(searchDebounceMsg{tag: 2})
	m = next.(model)
	if m.filters.Search != "Newsletter" || m.filters.Page != 1 {
		t.Fatalf("filters = %+v", m.filters)
	}
	m = run(t, m, cmd)
	if got := ids(m.inbox.emails); len(got) != 1 || got[0] != "email-2" {
		t.Errorf("search results = %v, want [email-2]", got)
	}
}

func TestModel_CloseSearchClearsQuery(t *testing.T) {
	m := newTestModel(t)
	m.filters.Search = "Newsletter"

	next, cmd := m.Update(closeSearchMsg{})
	m = next.(model)
	if m.filters.Search != "" {
		t.Errorf("Search = %q, want empty", m.filters.Search)
	}
	m = run(t, m, cmd)
	if m.inbox.pagination.Total != 5 {
		t.Errorf("total = %d, want 5 after clearing search", m.inbox.pagination.Total)
	}
}

func TestModel_FolderSelection(t *testing.T) {
	m := newTestModel(t)
	m.filters.Page = 3

	next, cmd := m.Update(folderSelectedMsg{view: string(domain.FolderStarred)})
	m = next.(model)
	if m.filters.View != "starred" || m.filters.Page != 1 || m.filters.Labels != "" {
		t.Fatalf("filters = %+v", m.filters)
	}
	m = run(t, m, cmd)
	for _, e := range m.inbox.emails {
		if !e.IsStarred {
			t.Errorf("email %s in starred view is not starred", e.ID)
		}
	}

	next, cmd = m.Update(folderSelectedMsg{labelID: "work"})
	m = next.(model)
	m = run(t, m, cmd)
	if got := ids(m.inbox.emails); len(got) != 2 || got[0] != "email-1" || got[1] != "email-3" {
		t.Errorf("work label = %v, want [email-1 email-3]", got)
	}
}

func TestModel_SortToggle(t *testing.T) {
	m := newTestModel(t)
	m = run(t, m, m.Init())
	first := m.inbox.emails[0].ID

	next, cmd := m.Update(keyPress("o"))
	m = next.(model)
	if m.filters.SortOrder != domain.SortAsc {
		t.Fatalf("SortOrder = %q, want asc", m.filters.SortOrder)
	}
	m = run(t, m, cmd)
	if m.inbox.emails[0].ID == first {
		t.Errorf("first email unchanged after reversing the order")
	}
}

func TestModel_PagingFromInbox(t *testing.T) {
	m := newTestModel(t)
	m = run(t, m, m.Init())

	_, cmd := m.Update(keyPress("n"))
	if cmd == nil {
		t.Fatal("expected a page request")
	}
	next, cmd := m.Update(cmd())
	m = next.(model)
	if m.filters.Page != 2 {
		t.Fatalf("Page = %d, want 2", m.filters.Page)
	}
	m = run(t, m, cmd)
	if m.inbox.pagination.Page != 2 || len(m.inbox.emails) != 2 {
		t.Errorf("pagination = %+v, %d emails", m.inbox.pagination, len(m.inbox.emails))
	}
}

func TestModel_OpenEmailMarksRead(t *testing.T) {
	svc := app.NewEmailService(fallback.New(), fallback.New(), 0)
	m := NewModel(svc, nil, Options{PageSize: 15})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(model)

	next, cmd := m.Update(emailSelectedMsg{emailID: "email-1"})
	m = next.(model)
	next, cmd = m.Update(cmd())
	m = next.(model)
	if !m.reader.IsVisible() || m.reader.email.ID != "email-1" {
		t.Fatal("reader should show email-1")
	}
	if cmd == nil {
		t.Fatal("expected mark-read for an unread email")
	}
	if msg := cmd(); msg != (actionDoneMsg{emailID: "email-1", action: actionMarkRead}) {
		t.Fatalf("got %#v", msg)
	}

	email, err := svc.GetEmailByID(t.Context(), "email-1")
	if err != nil {
		t.Fatal(err)
	}
	if !email.IsRead {
		t.Error("email-1 should be read after opening it")
	}
}

func TestModel_SessionExpiryQuits(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
		want bool
	}{
		{"expired error", errMsg{err: fmt.Errorf("failed to list emails: %w", provider.ErrAuthExpired)}, true},
		{"expired hook", sessionExpiredMsg{}, true},
		{"other error", errMsg{err: errors.New("boom")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t)
			next, cmd := m.Update(tt.msg)
			m = next.(model)
			if m.expired != tt.want {
				t.Errorf("expired = %v, want %v", m.expired, tt.want)
			}
			quit := cmd != nil && cmd() == tea.Quit()
			if quit != tt.want {
				t.Errorf("quit = %v, want %v", quit, tt.want)
			}
			if !tt.want && !m.statusBar.isError {
				t.Error("error should be shown in the status bar")
			}
		})
	}
}
