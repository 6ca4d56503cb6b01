package netbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rtmigrate/internal/errs"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

type Options struct {
	URL         string
	Token       string
	InsecureTLS bool
	Timeout     time.Duration
	// Retries is the number of extra attempts for transient failures of a single request.
	Retries  int
	PageSize int
	Logger   logrus.FieldLogger
}

// Client talks to the NetBox REST API.
type Client struct {
	base     *url.URL
	token    string
	pageSize int
	http     *retryablehttp.Client
	log      logrus.FieldLogger
}

// APIError is a request NetBox answered with a non-2xx status.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

func New(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(opts.URL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid netbox url %q", opts.URL)
	}
	if opts.Token == "" {
		return nil, fmt.Errorf("netbox token is required")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 1000
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	hc := retryablehttp.NewClient()
	hc.RetryMax = max(opts.Retries, 0)
	hc.RetryWaitMin = 500 * time.Millisecond
	hc.RetryWaitMax = 5 * time.Second
	hc.HTTPClient.Timeout = opts.Timeout
	hc.Logger = leveledLogger{opts.Logger}
	// hand the last response back instead of a "giving up" error so APIError keeps the body
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.InsecureTLS {
		if tr, ok := hc.HTTPClient.Transport.(*http.Transport); ok {
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		}
	}

	return &Client{
		base:     u,
		token:    opts.Token,
		pageSize: opts.PageSize,
		http:     hc,
		log:      opts.Logger,
	}, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// do sends one request. Transport failures and gateway errors are
// connectivity errors; other non-2xx answers are *APIError.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.endpoint(path, q), body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.Connectivity("netbox", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		switch resp.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return errs.Connectivity("netbox", apiErr)
		}
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// list walks every page of a list endpoint.
func list[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	params := url.Values{}
	for k, v := range q {
		params[k] = v
	}
	params.Set("limit", strconv.Itoa(c.pageSize))

	var out []T
	for offset := 0; ; {
		params.Set("offset", strconv.Itoa(offset))
		var page ListResponse[T]
		if err := c.do(ctx, http.MethodGet, path, params, nil, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Results...)
		offset += len(page.Results)
		if len(page.Results) == 0 || offset >= page.Count || page.Next == "" {
			return out, nil
		}
	}
}

func create[T any](ctx context.Context, c *Client, path string, in any) (*T, error) {
	var out T
	if err := c.do(ctx, http.MethodPost, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status checks that the API answers with the configured token.
func (c *Client) Status(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/status/", nil, nil, nil)
}

type leveledLogger struct{ l logrus.FieldLogger }

func kvFields(kv []any) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}

// retry noise is a warning; per-record failures are reported by the caller.
func (a leveledLogger) Error(msg string, kv ...any) { a.l.WithFields(kvFields(kv)).Warn(msg) }
func (a leveledLogger) Warn(msg string, kv ...any)  { a.l.WithFields(kvFields(kv)).Warn(msg) }
func (a leveledLogger) Info(msg string, kv ...any)  { a.l.WithFields(kvFields(kv)).Debug(msg) }
func (a leveledLogger) Debug(msg string, kv ...any) { a.l.WithFields(kvFields(kv)).Debug(msg) }
