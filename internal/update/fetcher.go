package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/afero"
)

const (
	// DefaultTimeout bounds each HTTP request made by HTTPFetcher.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent identifies the updater to release servers.
	DefaultUserAgent = "pluginupdater"

	maxMetadataSize = 1 << 20
)

// HTTPFetcher fetches release metadata and packages over HTTP.
// It implements both MetadataFetcher and FileFetcher.
type HTTPFetcher struct {
	client    *http.Client
	fs        afero.Fs
	userAgent string
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client.Timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// NewHTTPFetcher creates a fetcher that writes downloads to fs.
func NewHTTPFetcher(fs afero.Fs, opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
		fs:        fs,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchMetadata GETs url and decodes the release document.
// Failures are described in the returned Metadata's Error field.
func (f *HTTPFetcher) FetchMetadata(ctx context.Context, url string) *Metadata {
	resp, err := f.get(ctx, url, "application/json")
	if err != nil {
		return &Metadata{Error: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &Metadata{
			Error:    fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			HTTPCode: resp.StatusCode,
		}
	}

	var release Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetadataSize)).Decode(&release); err != nil {
		return &Metadata{
			Error:    fmt.Sprintf("decode response: %v", err),
			HTTPCode: resp.StatusCode,
		}
	}

	return &Metadata{HTTPCode: resp.StatusCode, Response: &release}
}

// FetchToFile GETs url and streams the body into dst.
// Non-200 responses return their status with a nil error and leave dst
// untouched. Transport and write failures return status 0 and the error; a
// partially written dst is removed.
func (f *HTTPFetcher) FetchToFile(ctx context.Context, url, dst string) (int, error) {
	resp, err := f.get(ctx, url, "application/octet-stream")
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	out, err := f.fs.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = f.fs.Remove(dst)
		return 0, fmt.Errorf("write %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		_ = f.fs.Remove(dst)
		return 0, fmt.Errorf("close %s: %w", dst, err)
	}

	return resp.StatusCode, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	return resp, nil
}
