// Package source reads the documents formsync works on (HTML forms, value
// files, OpenAPI descriptions) from disk, an fs.FS, or over HTTP.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"
)

// Kind identifies where a location points to.
type Kind string

const (
	KindFile Kind = "file"
	KindFS   Kind = "fs"
	KindURL  Kind = "url"
)

// ErrHTTPDisabled is returned for URL locations when the loader was built
// without HTTP support.
var ErrHTTPDisabled = errors.New("source: http support disabled")

// Loader resolves locations to bytes. Paths are read from the configured
// fs.FS when one is set, from the operating system otherwise.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
}

// Option configures a Loader.
type Option func(*Loader)

// WithFileSystem reads relative paths from files instead of the OS.
func WithFileSystem(files fs.FS) Option {
	return func(l *Loader) {
		l.fs = files
	}
}

// WithHTTPClient enables URL locations through client.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client == nil {
			return
		}
		clone := *client
		l.http = &clone
	}
}

// WithHTTP enables URL locations with a default client and timeout.
func WithHTTP(timeout time.Duration) Option {
	return func(l *Loader) {
		if l.http == nil {
			l.http = &http.Client{}
		}
		l.timeout = timeout
	}
}

// New constructs a Loader. Without options it only reads local files.
func New(options ...Option) *Loader {
	l := &Loader{}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	if l.http != nil && l.timeout > 0 && l.http.Timeout == 0 {
		l.http.Timeout = l.timeout
	}
	return l
}

// KindOf classifies location.
func (l *Loader) KindOf(location string) Kind {
	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return KindURL
	case l.fs != nil:
		return KindFS
	default:
		return KindFile
	}
}

// Load reads the document at location.
func (l *Loader) Load(ctx context.Context, location string) ([]byte, error) {
	if strings.TrimSpace(location) == "" {
		return nil, errors.New("source: location is required")
	}

	var (
		data []byte
		err  error
	)
	switch l.KindOf(location) {
	case KindURL:
		if l.http == nil {
			return nil, ErrHTTPDisabled
		}
		data, err = loadHTTP(ctx, l.http, location, l.timeout)
	case KindFS:
		data, err = loadFromFS(ctx, l.fs, location)
	default:
		data, err = loadFile(ctx, location)
	}
	if err != nil {
		return nil, fmt.Errorf("source: load %s: %w", location, err)
	}
	return data, nil
}
