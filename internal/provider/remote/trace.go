package remote

import (
	"log"
	"net/http"
	"net/http/httputil"
	"time"
)

// traceTransport logs each request and response while delegating the round
// trip to another http.RoundTripper. The Authorization header is redacted.
type traceTransport struct {
	delegate http.RoundTripper
	logger   *log.Logger
}

// TraceTransport wraps d so that every exchange is dumped to logger. A nil d
// uses http.DefaultTransport; a nil logger uses the standard logger.
func TraceTransport(d http.RoundTripper, logger *log.Logger) http.RoundTripper {
	if d == nil {
		d = http.DefaultTransport
	}
	if logger == nil {
		logger = log.Default()
	}
	return &traceTransport{delegate: d, logger: logger}
}

func (t *traceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	redacted := req.Clone(req.Context())
	if redacted.Header.Get("Authorization") != "" {
		redacted.Header.Set("Authorization", "Bearer <redacted>")
	}
	if dump, err := httputil.DumpRequestOut(redacted, false); err == nil {
		t.logger.Printf("[remote] request %s\n%s", req.Header.Get("X-Request-ID"), dump)
	}

	start := time.Now()
	resp, err := t.delegate.RoundTrip(req)
	if err != nil {
		t.logger.Printf("[remote] %s %s failed after %s: %v", req.Method, req.URL.Path, time.Since(start), err)
		return nil, err
	}
	if dump, dumpErr := httputil.DumpResponse(resp, true); dumpErr == nil {
		t.logger.Printf("[remote] response %s (%s)\n%s", req.Header.Get("X-Request-ID"), time.Since(start), dump)
	}
	return resp, nil
}
