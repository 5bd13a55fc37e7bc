package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	ioutils "github.com/handiism/tcia-downloader/internal/io"
)

// Options configures the Client.
type Options struct {
	// BaseURL is the API root, e.g. https://services.cancerimagingarchive.net/services/v4.
	BaseURL string

	// Resource is the API resource segment. Default: "TCIA".
	Resource string

	// APIKey is sent as the api_key header when set.
	APIKey string

	// UserAgent header value. Default: "tcia-downloader".
	UserAgent string

	// Timeout for whole requests. Zero means no timeout.
	Timeout time.Duration
}

// Client wraps HTTP operations against the TCIA API.
//
// Client provides:
//   - Series archive download (getImage) streamed straight to disk
//   - Collection catalog retrieval (getCollectionValues)
//
// Example usage:
//
//	client := NewClient(Options{BaseURL: base})
//
//	// Fetch the catalog
//	body, err := client.CollectionValues(ctx)
//	defer body.Close()
//
//	// Download a series with progress
//	err = client.FetchImage(ctx, series, dest, series+".zip", func(written, total int64) {
//	    percent := float64(written) / float64(total) * 100
//	    fmt.Printf("%.1f%%\n", percent)
//	})
type Client struct {
	httpClient *http.Client
	baseURL    string
	resource   string
	apiKey     string
	userAgent  string
}

// NewClient creates a new HTTP client configured for the TCIA API.
func NewClient(opts Options) *Client {
	if opts.Resource == "" {
		opts.Resource = "TCIA"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "tcia-downloader"
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		resource:  strings.Trim(opts.Resource, "/"),
		apiKey:    opts.APIKey,
		userAgent: opts.UserAgent,
	}
}

// ProgressWriter wraps a writer to track download progress.
//
// Use this to monitor large downloads by providing an OnUpdate callback
// that receives the current bytes written and total expected bytes.
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header), or -1.
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	// Parameters are (bytesWritten, totalExpected).
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// queryURL builds {base}/{resource}/query/{endpoint}?{params}.
func (c *Client) queryURL(endpoint string, params url.Values) string {
	u := c.baseURL + "/" + c.resource + "/query/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// get issues a GET request and returns the response if it is 200 OK.
// The caller closes the body.
func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("api_key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return resp, nil
}

// CollectionValues returns the raw JSON catalog of collections, an array of
// {"Collection": "..."} records. The caller closes the stream.
func (c *Client) CollectionValues(ctx context.Context) (io.ReadCloser, error) {
	resp, err := c.get(ctx, c.queryURL("getCollectionValues", url.Values{"format": {"json"}}))
	if err != nil {
		return nil, fmt.Errorf("get collection values: %w", err)
	}
	return resp.Body, nil
}

// FetchImage downloads the archive of one series to destDir/filename.
//
// The body is streamed to a temporary file in destDir and renamed into
// place only when complete, so destDir/filename exists only after a
// successful transfer. onProgress may be nil.
func (c *Client) FetchImage(ctx context.Context, series, destDir, filename string, onProgress func(written, total int64)) error {
	u := c.queryURL("getImage", url.Values{"SeriesInstanceUID": {series}})

	resp, err := c.get(ctx, u)
	if err != nil {
		return fmt.Errorf("get image %s: %w", series, err)
	}
	defer resp.Body.Close()

	var wrap func(io.Writer) io.Writer
	if onProgress != nil {
		wrap = func(w io.Writer) io.Writer {
			return &ProgressWriter{
				Writer:   w,
				Total:    resp.ContentLength,
				OnUpdate: onProgress,
			}
		}
	}

	dest := filepath.Join(destDir, filename)
	if err := ioutils.WriteFileAtomic(ctx, dest, resp.Body, wrap); err != nil {
		return fmt.Errorf("save image %s: %w", series, err)
	}
	return nil
}

// GetImage downloads one series archive and reports whether
// destDir/filename is present and complete afterwards. Transport and
// server errors are folded into false; use FetchImage to inspect them.
func (c *Client) GetImage(ctx context.Context, series, destDir, filename string) bool {
	return c.FetchImage(ctx, series, destDir, filename, nil) == nil
}
