package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lu-zhengda/mailboard/internal/domain"
	"github.com/lu-zhengda/mailboard/internal/provider"
)

type fakeCreds struct {
	mu      sync.Mutex
	token   string
	expired int
}

func (c *fakeCreds) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *fakeCreds) Expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expired++
}

func newTestProvider(t *testing.T, h http.HandlerFunc, creds provider.Credentials) *Provider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/api", Timeout: 5 * time.Second}, creds)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestListEmails_SendsFiltersAndAuth(t *testing.T) {
	creds := &fakeCreds{token: "tok-1"}
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/emails" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer tok-1")
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		q := r.URL.Query()
		if q.Get("view") != "starred" || q.Get("isRead") != "false" || q.Get("page") != "2" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": "e1", "subject": "Hi", "attachments": []map[string]any{{"id": "a1"}}},
			},
			"pagination": map[string]any{"page": 2, "limit": 15, "total": 16, "totalPages": 2},
		})
	}, creds)

	page, err := p.ListEmails(context.Background(), domain.Filters{
		Page:   2,
		View:   "starred",
		IsRead: domain.Bool(false),
	})
	if err != nil {
		t.Fatalf("ListEmails() error: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].ID != "e1" {
		t.Fatalf("unexpected data %+v", page.Data)
	}
	if !page.Data[0].HasAttachments {
		t.Error("expected HasAttachments derived from attachments")
	}
	if page.Data[0].Labels == nil {
		t.Error("expected normalized non-nil labels")
	}
	if page.Pagination.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", page.Pagination.TotalPages)
	}
}

func TestListEmails_NoTokenNoHeader(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want empty", got)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	}, &fakeCreds{})

	page, err := p.ListEmails(context.Background(), domain.Filters{})
	if err != nil {
		t.Fatalf("ListEmails() error: %v", err)
	}
	if page.Data == nil {
		t.Error("expected empty, non-nil data")
	}
}

func TestGateway_FailuresAreUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, "{not json")
		}},
		{"empty body", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}},
		{"success false", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{"success": false})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, tt.handler, nil)
			_, err := p.ListEmails(context.Background(), domain.Filters{})
			if !errors.Is(err, provider.ErrGatewayUnavailable) {
				t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
			}
		})
	}
}

func TestGateway_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := New(Options{BaseURL: url, Timeout: time.Second}, nil)
	if _, err := p.Counts(context.Background()); !errors.Is(err, provider.ErrGatewayUnavailable) {
		t.Fatalf("Counts() err = %v, want ErrGatewayUnavailable", err)
	}
	if err := p.MarkRead(context.Background(), "1"); !errors.Is(err, provider.ErrGatewayUnavailable) {
		t.Fatalf("MarkRead() err = %v, want ErrGatewayUnavailable", err)
	}
}

func TestGateway_UnauthorizedExpiresCredentials(t *testing.T) {
	creds := &fakeCreds{token: "stale"}
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{"success": false, "message": "invalid token"})
	}, creds)

	_, err := p.GetEmail(context.Background(), "1")
	if !errors.Is(err, provider.ErrAuthExpired) {
		t.Fatalf("err = %v, want ErrAuthExpired", err)
	}
	if errors.Is(err, provider.ErrGatewayUnavailable) {
		t.Error("401 must not be reported as unavailable")
	}
	if creds.expired != 1 {
		t.Errorf("Expire() called %d times, want 1", creds.expired)
	}
	if creds.Token() != "" {
		t.Error("expected token cleared")
	}
}

func TestGetEmail(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/emails/abc" {
			t.Errorf("path = %q", r.URL.Path)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": "abc", "subject": "Quarterly", "labels": []string{"work"}},
		})
	}, nil)

	email, err := p.GetEmail(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetEmail() error: %v", err)
	}
	if email.Subject != "Quarterly" || !email.HasLabel("work") {
		t.Errorf("unexpected email %+v", email)
	}
}

func TestCounts(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]int{"inbox": 7, "starred": 2},
		})
	}, nil)

	counts, err := p.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts() error: %v", err)
	}
	if counts[domain.FolderInbox] != 7 || counts[domain.FolderStarred] != 2 {
		t.Errorf("counts = %v", counts)
	}
}

func TestMutations(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		mu.Lock()
		seen = append(seen, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	ctx := context.Background()
	if err := p.MarkRead(ctx, "1"); err != nil {
		t.Fatalf("MarkRead() error: %v", err)
	}
	if err := p.ToggleStar(ctx, "2"); err != nil {
		t.Fatalf("ToggleStar() error: %v", err)
	}
	if err := p.ToggleImportant(ctx, "3"); err != nil {
		t.Fatalf("ToggleImportant() error: %v", err)
	}

	want := []string{"/api/emails/1/read", "/api/emails/2/star", "/api/emails/3/important"}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Errorf("paths = %v, want %v", seen, want)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	creds := &fakeCreds{token: "old"}
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("auth endpoints must not send a bearer token")
		}
		switch r.URL.Path {
		case "/api/auth/register":
			var req provider.RegisterRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode register body: %v", err)
			}
			if req.Role != "user" {
				t.Errorf("role = %q, want user", req.Role)
			}
			writeJSON(t, w, http.StatusConflict, map[string]any{"success": false, "message": "User already exists"})
		case "/api/auth/login":
			writeJSON(t, w, http.StatusOK, map[string]any{
				"success": true,
				"data": map[string]any{
					"token": "jwt-1",
					"user":  map[string]any{"id": "u1", "name": "Ada", "email": "ada@example.com", "role": "user"},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}, creds)

	ctx := context.Background()
	err := p.Register(ctx, provider.RegisterRequest{Email: "ada@example.com", Password: "pw", Name: "ada", Role: "user"})
	if err == nil {
		t.Fatal("expected Register() to surface the conflict")
	}

	sess, err := p.Login(ctx, "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if !sess.Authenticated() || sess.Token != "jwt-1" || sess.User.ID != "u1" {
		t.Errorf("unexpected session %+v", sess)
	}
	if creds.expired != 0 {
		t.Error("auth calls must not expire credentials")
	}
}

func TestLogin_Rejected(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid credentials"})
	}, nil)

	if _, err := p.Login(context.Background(), "a@b.c", "bad"); err == nil {
		t.Fatal("expected error")
	} else if errors.Is(err, provider.ErrAuthExpired) {
		t.Error("a rejected login is not an expired session")
	}
}

func TestTraceTransport_RedactsToken(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("delegate should see the real token, got %q", r.Header.Get("Authorization"))
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "data": map[string]int{"inbox": 1}})
	}))
	defer srv.Close()

	p := New(Options{BaseURL: srv.URL, Transport: TraceTransport(nil, logger)}, &fakeCreds{token: "secret"})
	if _, err := p.Counts(context.Background()); err != nil {
		t.Fatalf("Counts() error: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "secret") {
		t.Error("trace output leaked the bearer token")
	}
	if !strings.Contains(out, "/emails/counts") {
		t.Errorf("trace output missing request line: %q", out)
	}
}
