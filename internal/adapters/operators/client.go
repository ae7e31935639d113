// Package operators provides operator lookup implementations: an HTTP client
// for the lookup service, a static YAML directory, a Redis read-through cache
// and a concurrency limiter. All of them satisfy the enrich domain port and
// compose as decorators.
package operators

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cdrflow/internal/core/cdr"
	perr "cdrflow/internal/platform/errors"
	"cdrflow/internal/platform/logger"
	"cdrflow/internal/platform/net/http/bind"
)

const (
	defaultTimeout = 5 * time.Second
	defaultUA      = "cdrflow-enricher"
	maxBodyBytes   = 64 << 10
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// HTTPClient overrides the transport, mostly for tests
	HTTPClient *http.Client
}

// Client calls the operator lookup service. It does not retry; a failed call
// is reported once and the caller decides what a missing operator means.
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// NewClient creates a Client with defaults applied
func NewClient(o Options) (*Client, error) {
	o.BaseURL = strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	if o.BaseURL == "" {
		return nil, perr.InvalidArgf("operators: base url is required")
	}
	if _, err := url.ParseRequestURI(o.BaseURL); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "operators: bad base url %q", o.BaseURL)
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	return &Client{
		http: hc,
		opts: o,
		log:  *logger.Named("operators"),
		now:  time.Now,
	}, nil
}

// Lookup fetches the operator for number on day
func (c *Client) Lookup(ctx context.Context, number string, day cdr.DayRef) (cdr.OperatorInfo, error) {
	u := c.opts.BaseURL + "/v1/operators/" + url.PathEscape(number) + "?date=" + url.QueryEscape(day.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return cdr.OperatorInfo{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "operators new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return cdr.OperatorInfo{}, perr.Wrapf(err, perr.ErrorCodeTimeout, "operators lookup timed out")
		}
		return cdr.OperatorInfo{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "operators lookup failed")
	}
	defer func() {
		if cerr := drainAndClose(resp.Body); cerr != nil {
			c.log.Error().Err(cerr).Msg("operators close body failed")
		}
	}()

	c.log.Debug().
		Str("number", number).
		Str("day", day.String()).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Msg("operators http response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return cdr.OperatorInfo{}, perr.Newf(perr.FromHTTPStatus(resp.StatusCode),
			"operators unexpected status %d body %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out cdr.OperatorInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out); err != nil {
		return cdr.OperatorInfo{}, perr.Wrapf(err, perr.ErrorCodeJSON, "operators decode failed")
	}
	if err := validateInfo(out); err != nil {
		return cdr.OperatorInfo{}, err
	}
	return out, nil
}

// validateInfo rejects payloads missing operator or country, or with a negative rate
func validateInfo(info cdr.OperatorInfo) error {
	if err := bind.Struct(info); err != nil {
		return perr.WithOp(err, "operators invalid payload")
	}
	return nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
