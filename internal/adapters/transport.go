package adapters

import (
	"context"
	"net/http"
	"net/url"

	"github.com/buger/jsonparser"
)

// Request is one call to the cluster. Path is relative to the profile
// endpoint and may already carry a query string.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response is the raw answer of the cluster.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Transport sends requests. It returns an error only when no response was
// received; error statuses come back as a Response. Implementations must
// be safe for concurrent use.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f.
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// ErrorReason extracts the reason of a cluster error envelope:
// error.reason when error is an object, error itself when it is a string.
// Returns "" when body is not an error envelope.
func ErrorReason(body []byte) string {
	value, dt, _, err := jsonparser.Get(body, "error")
	if err != nil {
		return ""
	}
	switch dt {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return string(value)
		}
		return s
	case jsonparser.Object:
		reason, err := jsonparser.GetString(value, "reason")
		if err == nil {
			return reason
		}
		if t, err := jsonparser.GetString(value, "type"); err == nil {
			return t
		}
	}
	return ""
}
