package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTTL is used when a caller passes a non-positive TTL.
const DefaultTTL = 24 * time.Hour

// ResponseToEntry reads the response body into an Entry that expires after
// ttl. The body is restored so the caller can still decode it.
func ResponseToEntry(resp *http.Response, ttl time.Duration) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	now := time.Now()
	return &Entry{
		Data:     body,
		CachedAt: now,
		Expires:  now.Add(ttl),
	}, nil
}
