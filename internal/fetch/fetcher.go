// Package fetch implements the resilient network layer: GET/POST page
// fetches and streamed file downloads with a bounded retry loop, fixed
// inter-retry delay and detection of maintenance pages that arrive with a
// 200 status.
package fetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Markers of an application-server error page returned with HTTP 200.
var maintenanceMarkers = [][]byte{
	[]byte("Service Unavailable"),
	[]byte("docasne nedostupna"),
}

// ErrMaintenance marks a 200 response whose body is a maintenance page.
// Treated like any other transient failure: retried, then skipped.
var ErrMaintenance = errors.New("server returned a maintenance page")

// ErrUnavailable marks a document the site reports as withdrawn. Terminal
// for the attachment, never retried.
var ErrUnavailable = errors.New("document no longer available")

// StatusError reports a non-200 response status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.Code)
}

// Config holds the network knobs for one site.
type Config struct {
	Timeout            time.Duration
	DownloadTimeout    time.Duration
	Retries            int
	RetryDelay         time.Duration
	UserAgent          string
	InsecureSkipVerify bool
}

// Client performs retry-bounded fetches against one site. A failed call is
// never fatal to the run; callers treat the returned error as "item
// skipped".
type Client struct {
	pages   *resty.Client
	files   *resty.Client
	retries int
	delay   time.Duration
	log     *zap.Logger

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration)
}

// New builds a Client. Both sites are plain server-rendered applications;
// the Brno board needs InsecureSkipVerify because of its certificate chain.
func New(cfg Config, log *zap.Logger) *Client {
	headers := map[string]string{
		"User-Agent":      cfg.UserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "cs,en;q=0.5",
	}
	build := func(timeout time.Duration) *resty.Client {
		c := resty.New().SetTimeout(timeout).SetHeaders(headers)
		if cfg.InsecureSkipVerify {
			c.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
		}
		return c
	}
	return &Client{
		pages:   build(cfg.Timeout),
		files:   build(cfg.DownloadTimeout),
		retries: cfg.Retries,
		delay:   cfg.RetryDelay,
		log:     log,
		sleep:   sleepCtx,
	}
}

// Get fetches a page body.
func (c *Client) Get(ctx context.Context, rawURL string) (string, error) {
	return c.fetchPage(ctx, "GET "+rawURL, func() (*resty.Response, error) {
		return c.pages.R().SetContext(ctx).Get(rawURL)
	})
}

// PostForm submits a form and returns the page body. Used for the ASP.NET
// viewstate postbacks and the offset pagination POSTs.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) (string, error) {
	return c.fetchPage(ctx, "POST "+rawURL, func() (*resty.Response, error) {
		return c.pages.R().SetContext(ctx).SetFormDataFromValues(form).Post(rawURL)
	})
}

func (c *Client) fetchPage(ctx context.Context, what string, do func() (*resty.Response, error)) (string, error) {
	for attempt := 0; ; attempt++ {
		body, err := c.tryPage(do)
		if err == nil {
			return body, nil
		}
		if !c.retryAfter(ctx, what, attempt, err) {
			return "", err
		}
	}
}

func (c *Client) tryPage(do func() (*resty.Response, error)) (string, error) {
	resp, err := do()
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", &StatusError{Code: resp.StatusCode()}
	}
	if isMaintenance(resp.Body()) {
		return "", ErrMaintenance
	}
	return string(resp.Body()), nil
}

// Download streams a file to dest. A textual response without an attachment
// disposition is inspected first: maintenance pages are retried, a
// "document not available" page is a terminal soft failure.
func (c *Client) Download(ctx context.Context, rawURL, dest string) error {
	for attempt := 0; ; attempt++ {
		err := c.tryDownload(ctx, rawURL, dest)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrUnavailable) {
			c.log.Warn("document withdrawn by the site", zap.String("url", rawURL))
			return err
		}
		if !c.retryAfter(ctx, "download "+rawURL, attempt, err) {
			return err
		}
	}
}

func (c *Client) tryDownload(ctx context.Context, rawURL, dest string) error {
	resp, err := c.files.R().SetContext(ctx).SetDoNotParseResponse(true).Get(rawURL)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != 200 {
		return &StatusError{Code: resp.StatusCode()}
	}

	var prefix []byte
	contentType := resp.Header().Get("Content-Type")
	if strings.Contains(contentType, "text/html") && resp.Header().Get("Content-Disposition") == "" {
		prefix, err = io.ReadAll(io.LimitReader(body, 1<<20))
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		if isMaintenance(prefix) {
			return ErrMaintenance
		}
		lower := bytes.ToLower(prefix)
		if bytes.Contains(lower, []byte("dokument")) && bytes.Contains(lower, []byte("dispozici")) {
			return ErrUnavailable
		}
	}

	return writeFile(dest, prefix, body)
}

func writeFile(dest string, prefix []byte, rest io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if len(prefix) > 0 {
		if _, err := f.Write(prefix); err != nil {
			return fmt.Errorf("write file: %w", err)
		}
	}
	if _, err := io.Copy(f, rest); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// retryAfter logs and sleeps when another attempt is allowed; on an
// exhausted budget it logs the final ERROR and returns false.
func (c *Client) retryAfter(ctx context.Context, what string, attempt int, err error) bool {
	if attempt >= c.retries || ctx.Err() != nil {
		c.log.Error("giving up after retries",
			zap.String("request", what),
			zap.Int("attempts", attempt+1),
			zap.Error(err),
		)
		return false
	}
	c.log.Warn("fetch failed, will retry",
		zap.String("request", what),
		zap.Duration("delay", c.delay),
		zap.Error(err),
	)
	c.sleep(ctx, c.delay)
	return true
}

func isMaintenance(body []byte) bool {
	for _, marker := range maintenanceMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
