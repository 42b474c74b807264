package artifact

import (
	"context"
	"io"
	"net/url"
	"os"
)

func openLocal(ctx context.Context, loc *url.URL) (io.ReadCloser, error) {
	_ = ctx
	return os.Open(loc.Path)
}

func init() {
	Register("", FetcherFunc(openLocal))
	Register("file", FetcherFunc(openLocal))
}
