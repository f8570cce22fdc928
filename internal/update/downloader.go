package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultHTTPTimeout bounds a whole download.
const DefaultHTTPTimeout = 60 * time.Second

// HTTPDownloader downloads candidates over HTTP(S).
type HTTPDownloader struct {
	client    *http.Client
	tempDir   string
	userAgent string
}

// NewHTTPDownloader creates a new HTTP downloader writing into tempDir
// (os.TempDir() when empty).
func NewHTTPDownloader(tempDir string) *HTTPDownloader {
	return &HTTPDownloader{
		client:    &http.Client{Timeout: DefaultHTTPTimeout},
		tempDir:   tempDir,
		userAgent: "sus",
	}
}

// WithClient replaces the HTTP client.
func (d *HTTPDownloader) WithClient(c *http.Client) *HTTPDownloader {
	d.client = c
	return d
}

// WithUserAgent sets the User-Agent header sent with every request.
func (d *HTTPDownloader) WithUserAgent(ua string) *HTTPDownloader {
	d.userAgent = ua
	return d
}

// Fetch downloads url into a new executable temporary file. Every failure is
// a KindFetch error and leaves no file behind. There is no retry.
func (d *HTTPDownloader) Fetch(ctx context.Context, url string) (_ *Artifact, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newError(KindFetch, "download", url, err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, newError(KindFetch, "download", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, newError(KindFetch, "download", url,
			fmt.Errorf("server returned status %d: %s", resp.StatusCode, summarizeBody(body)))
	}

	// The timestamp keeps names readable; CreateTemp adds the random part.
	pattern := "sus-candidate-" + strconv.FormatInt(time.Now().UnixNano(), 10) + "-*"
	tmp, err := os.CreateTemp(d.tempDir, pattern)
	if err != nil {
		return nil, newError(KindFetch, "create temp file", d.tempDir, err)
	}
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = newError(KindFetch, "write", tmp.Name(), closeErr)
		}
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		return nil, newError(KindFetch, "write", tmp.Name(), err)
	}
	if err := tmp.Chmod(0755); err != nil {
		return nil, newError(KindFetch, "chmod", tmp.Name(), err)
	}

	return &Artifact{Path: tmp.Name(), URL: url, Size: n}, nil
}

// summarizeBody returns a short body excerpt for error messages.
func summarizeBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "empty body"
	}
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
