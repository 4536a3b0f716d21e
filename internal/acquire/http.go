package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPFetcher downloads images over http(s) with a body size cap.
type HTTPFetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

func NewHTTPFetcher(client *http.Client, maxBytes int64, userAgent string) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client, maxBytes: maxBytes, userAgent: userAgent}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, ErrTooLarge
	}
	return readCapped(resp.Body, f.maxBytes)
}

// readCapped reads at most max bytes and fails when the body is longer.
func readCapped(r io.Reader, max int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(b)) > max {
		return nil, ErrTooLarge
	}
	return b, nil
}
