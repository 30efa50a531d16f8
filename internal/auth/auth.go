// Package auth attaches connection credentials to cluster requests.
//
// A profile uses exactly one mode: none, basic (Authorization: Basic),
// header (a custom header carrying the secret, e.g. an API key or a proxy
// token) or cookie (a Cookie header).
package auth

import (
	"encoding/base64"
	"net/http"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/pkg/api"
	"github.com/canonica-labs/esql/pkg/models"
)

// Authenticator sets credential headers on an outgoing request.
type Authenticator interface {
	// Apply adds the credential headers to h.
	Apply(h http.Header)
	// Mode returns the auth mode.
	Mode() models.AuthMode
}

// ForProfile returns the authenticator of a profile.
func ForProfile(p *models.ConnectionProfile) (Authenticator, error) {
	mode, err := models.ParseAuthMode(string(p.AuthMode))
	if err != nil {
		return nil, cerrors.NewValidation("authenticate", "auth_mode", err.Error(), "use none, basic, header or cookie")
	}
	switch mode {
	case models.AuthBasic:
		if p.Username == "" {
			return nil, cerrors.NewValidation("authenticate", "username", "basic auth requires a username", "")
		}
		return Basic{Username: p.Username, Password: p.Password}, nil
	case models.AuthHeader:
		if p.HeaderName == "" {
			return nil, cerrors.NewValidation("authenticate", "header_name", "header auth requires a header name", "set header_name, e.g. Authorization")
		}
		return Header{Name: p.HeaderName, Value: p.Password}, nil
	case models.AuthCookie:
		return Cookie{Value: p.Password}, nil
	default:
		return None{}, nil
	}
}

// None sends no credentials.
type None struct{}

func (None) Apply(http.Header)     {}
func (None) Mode() models.AuthMode { return models.AuthNone }

// Basic is HTTP basic authentication.
type Basic struct {
	Username string
	Password string
}

func (b Basic) Apply(h http.Header) {
	token := base64.StdEncoding.EncodeToString([]byte(b.Username + ":" + b.Password))
	h.Set(api.HeaderAuthorization, "Basic "+token)
}

func (Basic) Mode() models.AuthMode { return models.AuthBasic }

// Header sends the secret verbatim in a named header.
type Header struct {
	Name  string
	Value string
}

func (a Header) Apply(h http.Header) {
	h.Set(a.Name, a.Value)
}

func (Header) Mode() models.AuthMode { return models.AuthHeader }

// Cookie sends a session cookie string.
type Cookie struct {
	Value string
}

func (c Cookie) Apply(h http.Header) {
	if c.Value != "" {
		h.Set(api.HeaderCookie, c.Value)
	}
}

func (Cookie) Mode() models.AuthMode { return models.AuthCookie }
