package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrNotConfigured means the feed has no credentials; detected before any request is sent.
	ErrNotConfigured = errors.New("feed: credentials not configured")
	// ErrRateLimited is returned on HTTP 429.
	ErrRateLimited = errors.New("feed: rate limit reached")
	// ErrUnauthorized is returned on HTTP 401/403.
	ErrUnauthorized = errors.New("feed: request not authorized")
	// ErrUnexpectedStatus wraps any other non-200 response.
	ErrUnexpectedStatus = errors.New("feed: unexpected status")
)

// doGet performs a GET request and returns the decoded body.
func doGet(ctx context.Context, client *http.Client, urlStr string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br, zstd")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", redactURLError(err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return readBodyDecode(resp)
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	}

	b, _ := readBodyDecode(resp)
	preview := string(b)
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	slog.Warn("feed: API request failed", "status", resp.StatusCode, "body_preview", preview)
	return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, preview)
}

// secretParams are query parameters that carry credentials.
var secretParams = []string{"apiKey", "api_key", "token"}

// redactURLError rewrites the URL of a *url.Error so credentials sent in the
// query never reach logs or clients. The result is still a *url.Error.
func redactURLError(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return &url.Error{Op: ue.Op, URL: redactURL(ue.URL), Err: ue.Err}
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable url>"
	}
	q := u.Query()
	for k := range q {
		for _, secret := range secretParams {
			if strings.EqualFold(k, secret) {
				q.Set(k, "REDACTED")
			}
		}
	}
	u.RawQuery = q.Encode()
	u.User = nil
	return u.String()
}

// readBodyDecode reads response body and decompresses it based on Content-Encoding (gzip, br, zstd).
func readBodyDecode(resp *http.Response) ([]byte, error) {
	enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch {
	case strings.Contains(enc, "br"):
		return io.ReadAll(brotli.NewReader(resp.Body))
	case strings.Contains(enc, "zstd"):
		r, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case strings.Contains(enc, "gzip"):
		r, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer r.Close()
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read gzip body: %w", err)
		}
		return b, nil
	default:
		return io.ReadAll(resp.Body)
	}
}
