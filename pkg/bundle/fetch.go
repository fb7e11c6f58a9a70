package bundle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/fsutil"
)

const (
	// DefaultFetchTimeout bounds a bundle download.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultMaxBundleSize bounds the bytes read from a bundle download.
	DefaultMaxBundleSize int64 = 64 << 20
)

// Fetcher downloads bundles over HTTP with optional SHA-256 verification.
type Fetcher struct {
	client    *http.Client
	userAgent string

	// MaxBytes caps the download size. Zero or less means DefaultMaxBundleSize.
	MaxBytes int64
}

// NewFetcher creates a fetcher with the given timeout and user agent.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if userAgent == "" {
		userAgent = "gotweak/1.0"
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// IsRemote reports whether location is an http or https URL.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Fetch downloads rawURL into dir and returns the local path. When checksum
// is set the download is verified against it and discarded on mismatch.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, checksum, dir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(errors.ErrDownloadFailed, "invalid URL %q: %v", rawURL, err)
	}
	if dir == "" || !filepath.IsAbs(dir) {
		return "", fmt.Errorf("download dir must be absolute: %s: %w", dir, errors.ErrInvalidPath)
	}
	if err := os.MkdirAll(dir, fsutil.DirModePrivate); err != nil {
		return "", errors.Wrap(err, "could not create download dir")
	}

	name := filepath.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		name = "bundle.tar.gz"
	}
	absPath := filepath.Join(dir, name)

	resp, err := f.doRequest(ctx, u)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := f.download(resp.Body, absPath, normalizeHex(checksum)); err != nil {
		return "", fmt.Errorf("%s: %w", u, err)
	}
	return absPath, nil
}

// download streams body into a temporary file next to path, hashing as it
// goes, and renames it into place once size and checksum check out.
func (f *Fetcher) download(body io.Reader, path, checksum string) (err error) {
	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBundleSize
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.part")
	if err != nil {
		return errors.Wrap(err, "could not create download file")
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	hasher := sha256.New()
	writer := io.MultiWriter(tmpFile, hasher)
	n, err := io.Copy(writer, io.LimitReader(body, limit+1))
	if err != nil {
		return errors.Wrap(err, "could not read response")
	}
	if n > limit {
		return fmt.Errorf("bundle exceeds %d bytes: %w", limit, errors.ErrDownloadFailed)
	}
	if checksum != "" {
		if got := hex.EncodeToString(hasher.Sum(nil)); got != checksum {
			return fmt.Errorf("got %s: %w", got, errors.ErrChecksumMismatch)
		}
	}

	if err := tmpFile.Close(); err != nil {
		return errors.Wrap(err, "could not write download")
	}
	if err := os.Chmod(tmpPath, fsutil.FileModeSecure); err != nil {
		return errors.Wrap(err, "could not write download")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "could not write download")
	}
	return nil
}

func (f *Fetcher) doRequest(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDownloadFailed, err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d: %w", resp.StatusCode, errors.ErrDownloadFailed)
	}
	return resp, nil
}

// Checksum returns the hex-encoded SHA-256 of the file at path.
func Checksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "open for checksum")
	}
	defer func() { _ = file.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", errors.Wrap(err, "hashing")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func normalizeHex(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
