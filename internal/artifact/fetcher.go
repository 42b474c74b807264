package artifact

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
)

// Fetcher opens the artifact found at loc.
type Fetcher interface {
	Open(ctx context.Context, loc *url.URL) (io.ReadCloser, error)
}

type FetcherFunc func(ctx context.Context, loc *url.URL) (io.ReadCloser, error)

func (f FetcherFunc) Open(ctx context.Context, loc *url.URL) (io.ReadCloser, error) {
	return f(ctx, loc)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Fetcher{}
)

// Register binds a fetcher to a location scheme. Plain paths use the empty
// scheme.
func Register(scheme string, f Fetcher) {
	key := strings.ToLower(strings.TrimSpace(scheme))
	if f == nil {
		return
	}
	registryMu.Lock()
	registry[key] = f
	registryMu.Unlock()
}

func lookup(scheme string) (Fetcher, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[strings.ToLower(scheme)]
	if !ok {
		return nil, fmt.Errorf("unsupported artifact location scheme: %q", scheme)
	}
	return f, nil
}

// ParseLocation accepts local paths, file://, http(s):// and s3://bucket/key.
func ParseLocation(location string) (*url.URL, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("artifact location is empty")
	}
	if !strings.Contains(location, "://") {
		return &url.URL{Path: location}, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse artifact location %q: %w", location, err)
	}
	return u, nil
}

func Open(ctx context.Context, location string) (io.ReadCloser, error) {
	u, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}
	f, err := lookup(u.Scheme)
	if err != nil {
		return nil, err
	}
	return f.Open(ctx, u)
}
