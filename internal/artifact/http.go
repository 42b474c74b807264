package artifact

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var httpClient = &http.Client{Timeout: 10 * time.Minute}

func openHTTP(ctx context.Context, loc *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download %s: unexpected status %d", loc.Redacted(), resp.StatusCode)
	}
	return resp.Body, nil
}

func init() {
	Register("http", FetcherFunc(openHTTP))
	Register("https", FetcherFunc(openHTTP))
}
