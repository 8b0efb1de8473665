package datalink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/vvka-141/ndlsync/internal/logging"
	"github.com/vvka-141/ndlsync/internal/retry"
	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

// Status errors, each wrapping ndlsync.ErrTransport.
var (
	ErrUnauthorized = fmt.Errorf("%w: unauthorized (check the API key)", ndlsync.ErrTransport)
	ErrForbidden    = fmt.Errorf("%w: forbidden (check the subscription)", ndlsync.ErrTransport)
	ErrNotFound     = fmt.Errorf("%w: not found", ndlsync.ErrTransport)
	ErrRateLimited  = fmt.Errorf("%w: rate limited", ndlsync.ErrTransport)
	ErrServerError  = fmt.Errorf("%w: server error", ndlsync.ErrTransport)
)

// maxErrorBody bounds how much of an error response is quoted in messages.
const maxErrorBody = 512

// Options configures the client.
type Options struct {
	// BaseURL is the datatable collection URL. Default: ndlsync.DefaultBaseURL
	BaseURL string

	// APIKey is sent as the api_key query parameter.
	APIKey string

	// Timeout bounds each status request. Downloads are bounded by the context only.
	// Default: ndlsync.DefaultHTTPTimeout
	Timeout time.Duration

	// PollInterval is the wait between status requests. Default: ndlsync.DefaultPollInterval
	PollInterval time.Duration

	// MaxPolls bounds status requests per dataset; -1 polls forever.
	// Default: ndlsync.DefaultMaxPolls
	MaxPolls int

	// Clock paces the poll loop. Default: the real clock.
	Clock clockwork.Clock

	// HTTPClient replaces the default transport for both status requests and downloads.
	HTTPClient *http.Client

	Logger ndlsync.Logger
}

// DefaultOptions returns options with the vendor defaults and no API key.
func DefaultOptions() Options {
	return Options{
		BaseURL:      ndlsync.DefaultBaseURL,
		Timeout:      ndlsync.DefaultHTTPTimeout,
		PollInterval: ndlsync.DefaultPollInterval,
		MaxPolls:     ndlsync.DefaultMaxPolls,
	}
}

// Client resolves export links and streams export archives.
type Client struct {
	opts     Options
	status   *http.Client
	download *http.Client
	executor *retry.Executor
	logger   ndlsync.Logger
}

// NewClient creates a client. Zero-valued options fall back to DefaultOptions.
func NewClient(opts Options) *Client {
	defaults := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = defaults.BaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaults.PollInterval
	}
	if opts.MaxPolls == 0 {
		opts.MaxPolls = defaults.MaxPolls
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNullLogger()
	}

	c := &Client{opts: opts, logger: opts.Logger}
	if opts.HTTPClient != nil {
		c.status = opts.HTTPClient
		c.download = opts.HTTPClient
	} else {
		c.status = &http.Client{Timeout: opts.Timeout}
		c.download = &http.Client{}
	}

	c.executor = retry.NewExecutor(
		retry.NewSentinelClassifier(ndlsync.ErrExportNotReady),
		retry.NewPollBackoff(opts.PollInterval, opts.MaxPolls),
	).WithClock(opts.Clock)

	return c
}

// exportResponse is the subset of the datatable export response the client reads.
type exportResponse struct {
	BulkDownload *struct {
		File *struct {
			Status string `json:"status"`
			Link   string `json:"link"`
		} `json:"file"`
	} `json:"datatable_bulk_download"`
}

// ExportLink polls the export endpoint for dataset until the export is ready
// and returns its download link.
func (c *Client) ExportLink(ctx context.Context, dataset string) (string, error) {
	if dataset == "" {
		return "", fmt.Errorf("dataset name must not be empty: %w", ndlsync.ErrInvalidConfig)
	}
	if !ndlsync.IsKnownDataset(dataset) {
		return "", fmt.Errorf("%q: %w", dataset, ndlsync.ErrUnknownDataset)
	}

	polls := 0
	var link string
	executor := c.executor.WithOnRetry(func(attempt int, _ error, delay time.Duration) {
		c.logger.Info("⏳ %s: export generating, poll %d in %s", dataset, attempt+2, delay)
	})

	err := executor.Execute(ctx, func(ctx context.Context) error {
		polls++
		c.logger.Verbose("%s: requesting export status (poll %d)", dataset, polls)
		status, l, err := c.exportStatus(ctx, dataset)
		if err != nil {
			return err
		}
		c.logger.Verbose("%s: export status %q", dataset, status)
		switch status {
		case ndlsync.StatusFresh, ndlsync.StatusRegenerating:
			if l == "" {
				return fmt.Errorf("%w: %s export is %s but has no link", ndlsync.ErrTransport, dataset, status)
			}
			link = l
			return nil
		default:
			return fmt.Errorf("%s is %q: %w", dataset, status, ndlsync.ErrExportNotReady)
		}
	})

	if errors.Is(err, ndlsync.ErrExportNotReady) {
		return "", fmt.Errorf("%s: %w after %d polls", dataset, ndlsync.ErrReadinessTimeout, polls)
	}
	if err != nil {
		return "", err
	}
	return link, nil
}

func (c *Client) exportStatus(ctx context.Context, dataset string) (string, string, error) {
	endpoint := c.exportURL(dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.status.Do(req)
	if err != nil {
		return "", "", c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return "", "", fmt.Errorf("%s export request: %w", dataset, err)
	}

	var body exportResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", fmt.Errorf("%w: %s export response: %v", ndlsync.ErrTransport, dataset, err)
	}
	if body.BulkDownload == nil || body.BulkDownload.File == nil || body.BulkDownload.File.Status == "" {
		return "", "", fmt.Errorf("%w: %s export response has no status", ndlsync.ErrTransport, dataset)
	}
	file := body.BulkDownload.File
	return file.Status, file.Link, nil
}

// Fetch starts downloading link and returns the body with its declared size
// (-1 when the server sends no Content-Length). The caller closes the body.
func (c *Client) Fetch(ctx context.Context, link string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: invalid download link: %v", ndlsync.ErrTransport, err)
	}

	resp, err := c.download.Do(req)
	if err != nil {
		return nil, 0, c.transportError(ctx, err)
	}
	if err := checkResponse(resp); err != nil {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("download: %w", err)
	}
	return resp.Body, resp.ContentLength, nil
}

func (c *Client) exportURL(dataset string) string {
	q := url.Values{}
	q.Set("qopts.export", "true")
	q.Set("api_key", c.opts.APIKey)
	return c.opts.BaseURL + "/" + url.PathEscape(dataset) + ".json?" + q.Encode()
}

// transportError wraps a failed round trip without echoing the request URL,
// which carries the API key.
func (c *Client) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %s %s: %v", ndlsync.ErrTransport, urlErr.Op, redact(urlErr.URL), urlErr.Err)
	}
	return fmt.Errorf("%w: %v", ndlsync.ErrTransport, err)
}

func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(snippet))

	var base error
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		base = ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		base = ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		base = ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		base = ErrRateLimited
	case resp.StatusCode >= 500:
		base = ErrServerError
	default:
		base = ndlsync.ErrTransport
	}

	if detail == "" {
		return fmt.Errorf("%w (status %d)", base, resp.StatusCode)
	}
	return fmt.Errorf("%w (status %d): %s", base, resp.StatusCode, detail)
}
