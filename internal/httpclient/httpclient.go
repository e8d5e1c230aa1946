package httpclient

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Options struct {
	PreferIPv4 bool
	Timeout    time.Duration
	// ResponseHeaderTimeout bounds the wait for the first response byte.
	// Image generation can take well over a minute, so it defaults to Timeout.
	ResponseHeaderTimeout time.Duration
	Logger                *slog.Logger
}

// New builds the outbound client shared by the Gemini and Telegram clients.
func New(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	headerTimeout := opts.ResponseHeaderTimeout
	if headerTimeout <= 0 {
		headerTimeout = timeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dialer := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if opts.PreferIPv4 {
				return dialer.DialContext(ctx, "tcp4", addr)
			}
			return dialer.DialContext(ctx, network, addr)
		},
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: headerTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: &loggingTransport{next: transport, logger: logger},
	}
}

// loggingTransport logs each outbound call at debug level. Only the host and
// path are logged; query strings can carry API keys and bot tokens sit in the
// path of Telegram calls, so those paths are dropped.
type loggingTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	attrs := []any{
		"method", req.Method,
		"host", req.URL.Host,
		"path", redactPath(req.URL),
		"dur_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		t.logger.Debug("outbound request failed", append(attrs, "err", err)...)
		return nil, err
	}
	t.logger.Debug("outbound request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}

func redactPath(u *url.URL) string {
	path := u.EscapedPath()
	if strings.HasPrefix(path, "/bot") || strings.HasPrefix(path, "/file/bot") {
		return "[redacted]"
	}
	return path
}
