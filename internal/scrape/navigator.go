package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"recproxy/internal/credential"
)

const (
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// maxBodySize caps how much of a page is read; rendered pages run a few
	// MB, anything past this is not recommendation data.
	maxBodySize = 8 << 20
)

// Navigator fetches target pages with a session's credentials attached.
// Redirects are not followed: a 3xx from the target means the session was
// rejected and the caller needs to see that.
type Navigator interface {
	Fetch(ctx context.Context, url string, cookies []credential.Cookie, headers map[string]string) (status int, body []byte, err error)
}

// HTTPNavigator is the production Navigator. A shared rate limiter keeps the
// proxy from hammering the target no matter how many users fan in.
type HTTPNavigator struct {
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTPNavigator(timeout time.Duration, rps float64, burst int) *HTTPNavigator {
	return &HTTPNavigator{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (n *HTTPNavigator) Fetch(ctx context.Context, url string, cookies []credential.Cookie, headers map[string]string) (int, []byte, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build target request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	if cookie := cookieHeader(cookies); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch target page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read target page: %w", err)
	}
	return resp.StatusCode, body, nil
}

func cookieHeader(cookies []credential.Cookie) string {
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}
