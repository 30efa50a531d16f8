// Package transport sends cluster requests over HTTP.
//
// HTTPTransport implements adapters.Transport on net/http. Retries are
// explicit: a transport built with NoRetry sends every request once, and a
// retrying transport only repeats transient failures (see RetryableFor).
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/canonica-labs/esql/internal/adapters"
	cerrors "github.com/canonica-labs/esql/internal/errors"
)

// DefaultTimeout bounds one attempt.
const DefaultTimeout = 30 * time.Second

// Config configures an HTTPTransport.
type Config struct {
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	Retry              RetryConfig   `mapstructure:"retry"`
}

// HTTPTransport sends requests to one cluster endpoint.
type HTTPTransport struct {
	endpoint   string
	httpClient *http.Client
	retry      RetryConfig
}

var _ adapters.Transport = (*HTTPTransport)(nil)

// New creates a transport for endpoint, e.g. http://localhost:9200.
func New(endpoint string, cfg Config) (*HTTPTransport, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, cerrors.NewValidation("connect", "endpoint",
			"endpoint must be an absolute http or https URL", "e.g. http://localhost:9200")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = NoRetry()
	}

	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.InsecureSkipVerify {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed dev clusters
		client.Transport = tr
	}

	return &HTTPTransport{
		endpoint:   strings.TrimRight(u.String(), "/"),
		httpClient: client,
		retry:      cfg.Retry,
	}, nil
}

// Endpoint returns the configured endpoint.
func (t *HTTPTransport) Endpoint() string {
	return t.endpoint
}

// Do sends req. Error statuses are returned as a Response; a retryable
// status is only returned after the last attempt. Which failures are
// retried depends on the method (see RetryableFor).
func (t *HTTPTransport) Do(ctx context.Context, req *adapters.Request) (*adapters.Response, error) {
	target := t.url(req)

	var last *adapters.Response
	result := ExecuteWithRetry(ctx, t.retry, RetryableFor(req.Method), func() error {
		resp, err := t.once(ctx, req, target)
		if err != nil {
			last = nil
			return err
		}
		last = resp
		if RetryableStatus(resp.Status) {
			return &StatusError{Status: resp.Status}
		}
		return nil
	})

	var se *StatusError
	if last != nil && (result.Success || errors.As(result.LastError, &se)) {
		return last, nil
	}
	if result.Attempts > 1 {
		return nil, &RetryableError{Result: result}
	}
	return nil, result.LastError
}

func (t *HTTPTransport) once(ctx context.Context, req *adapters.Request, target string) (*adapters.Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &adapters.Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// url joins the endpoint, the request path (which may carry its own query
// string) and the request parameters.
func (t *HTTPTransport) url(req *adapters.Request) string {
	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := t.endpoint + path
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}
	return target
}
