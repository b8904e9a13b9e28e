// Package fetcher retrieves wind and building source files over HTTP or FTP,
// or from local disk, and parses the CSV, JSON, XLSX and ZIP formats they ship in.
package fetcher

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Opener resolves a location to a reader. Locations are http(s):// or ftp://
// URLs, or local file paths.
type Opener struct {
	HTTP Fetcher
	FTP  Fetcher
}

// NewOpener returns an Opener backed by default HTTP and FTP fetchers.
func NewOpener(userAgent string) *Opener {
	return &Opener{
		HTTP: NewHTTPFetcher(HTTPOptions{UserAgent: userAgent}),
		FTP:  NewFTPFetcher(FTPOptions{}),
	}
}

// Open returns a reader for location. The caller closes it.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		if o.HTTP == nil {
			return nil, eris.Errorf("open %s: no http fetcher configured", location)
		}
		return o.HTTP.Download(ctx, location)
	case strings.HasPrefix(location, "ftp://"):
		if o.FTP == nil {
			return nil, eris.Errorf("open %s: no ftp fetcher configured", location)
		}
		return o.FTP.Download(ctx, location)
	default:
		f, err := os.Open(location)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", location)
		}
		return f, nil
	}
}

// IsRemote reports whether location is an http(s):// or ftp:// URL.
func IsRemote(location string) bool {
	for _, prefix := range []string{"http://", "https://", "ftp://"} {
		if strings.HasPrefix(location, prefix) {
			return true
		}
	}
	return false
}

// OpenToFile materialises location on disk, downloading it to dest when it is
// remote. It returns the local path to read.
func (o *Opener) OpenToFile(ctx context.Context, location, dest string) (string, error) {
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		if _, err := o.HTTP.DownloadToFile(ctx, location, dest); err != nil {
			return "", err
		}
		return dest, nil
	case strings.HasPrefix(location, "ftp://"):
		if _, err := o.FTP.DownloadToFile(ctx, location, dest); err != nil {
			return "", err
		}
		return dest, nil
	default:
		return location, nil
	}
}

func copyToFile(r io.Reader, path string) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, r)
	if err != nil {
		return n, eris.Wrap(err, "write file")
	}
	return n, nil
}
