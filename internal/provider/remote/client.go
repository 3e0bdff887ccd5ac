package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lu-zhengda/mailboard/internal/provider"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the hosted demo instance of the email list API.
const DefaultBaseURL = "https://email-list-api-3.onrender.com/api"

// Options configures a Provider.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit float64
	// Transport overrides the HTTP transport, e.g. with TraceTransport.
	Transport http.RoundTripper
}

// Provider implements provider.EmailProvider and provider.Authenticator
// against the remote email list API.
type Provider struct {
	baseURL    string
	creds      provider.Credentials
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a remote provider. creds may be nil, in which case every
// request is sent unauthenticated.
func New(opts Options, creds provider.Credentials) *Provider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	p := &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return p
}

// request describes a single API call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// anonymous skips the bearer token and the session-expiry handling.
	// The auth endpoints are called this way.
	anonymous bool
}

// do performs the call and decodes a JSON response into result (if non-nil).
// Every failure other than a 401 is reported as provider.ErrGatewayUnavailable.
func (p *Provider) do(ctx context.Context, r request, result any) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s %s: %w: %v", r.method, r.path, provider.ErrGatewayUnavailable, err)
		}
	}

	u := p.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var bodyReader io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !r.anonymous && p.creds != nil {
		if token := p.creds.Token(); token != "" {
			(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
		}
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", r.method, r.path, provider.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: %w: failed to read response body: %v", r.method, r.path, provider.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !r.anonymous {
		if p.creds != nil {
			p.creds.Expire()
		}
		return fmt.Errorf("%s %s: %w", r.method, r.path, provider.ErrAuthExpired)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %w: unexpected status %d: %s",
			r.method, r.path, provider.ErrGatewayUnavailable, resp.StatusCode, snippet(respBody))
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		if result != nil {
			return fmt.Errorf("%s %s: %w: empty response body", r.method, r.path, provider.ErrGatewayUnavailable)
		}
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("%s %s: %w: malformed response: %v", r.method, r.path, provider.ErrGatewayUnavailable, err)
	}
	return nil
}

func snippet(b []byte) string {
	const maxLen = 200
	s := strings.TrimSpace(string(b))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
