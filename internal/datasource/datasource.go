// Package datasource resolves opaque file locators into byte streams. A
// locator is whatever the trigger interface hands us: an s3:// object key, an
// http(s):// URL, or a local filesystem path. The resolved Source also
// reports a filename, which is the pipeline's only format signal.
package datasource

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Source yields the bytes of one file. Open may be called more than once;
// each call returns a fresh stream.
type Source interface {
	// Name returns the file's base name, used for format detection.
	Name() string

	// Open returns the byte stream. The caller owns the ReadCloser.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Resolve maps a locator onto a Source by scheme.
func Resolve(locator string) (Source, error) {
	switch {
	case strings.HasPrefix(locator, "s3://"):
		u, err := url.Parse(locator)
		if err != nil || u.Host == "" || strings.Trim(u.Path, "/") == "" {
			return nil, fmt.Errorf("datasource: malformed s3 locator %q", locator)
		}
		return NewS3(u.Host, strings.TrimPrefix(u.Path, "/")), nil

	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		u, err := url.Parse(locator)
		if err != nil {
			return nil, fmt.Errorf("datasource: malformed URL %q: %w", locator, err)
		}
		return NewHTTP(u), nil

	case strings.TrimSpace(locator) == "":
		return nil, fmt.Errorf("datasource: empty locator")

	default:
		return NewLocal(locator), nil
	}
}
