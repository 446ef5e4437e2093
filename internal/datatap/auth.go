package datatap

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/config"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/secrets"
)

// ErrUnauthorized is returned for missing or wrong Data Tap credentials.
var ErrUnauthorized = errors.New("unauthorized")

// Authenticator checks the basic-auth credentials of Data Tap requests.
type Authenticator struct {
	creds    secrets.Credentials
	disabled bool
}

// NewAuthenticator builds an authenticator from configuration. Credentials
// held in Secrets Manager are fetched once, here.
func NewAuthenticator(ctx context.Context, cfg config.AuthConfig, api secrets.API) (*Authenticator, error) {
	switch {
	case cfg.Disabled:
		return &Authenticator{disabled: true}, nil
	case cfg.SecretID != "":
		if api == nil {
			return nil, fmt.Errorf("auth.secret_id set but no Secrets Manager client available")
		}
		creds, err := secrets.FetchCredentials(ctx, api, cfg.SecretID)
		if err != nil {
			return nil, err
		}
		return &Authenticator{creds: creds}, nil
	default:
		return NewStaticAuthenticator(cfg.Username, cfg.Password), nil
	}
}

// NewStaticAuthenticator accepts exactly the given credentials.
func NewStaticAuthenticator(username, password string) *Authenticator {
	return &Authenticator{creds: secrets.Credentials{Username: username, Password: password}}
}

// Disabled reports whether every request is accepted.
func (a *Authenticator) Disabled() bool {
	return a.disabled
}

// CheckAuthorization validates an Authorization header value.
func (a *Authenticator) CheckAuthorization(header string) error {
	if a.disabled {
		return nil
	}

	username, password, ok := ParseBasicAuth(header)
	if !ok {
		return ErrUnauthorized
	}
	return a.Check(username, password)
}

// Check validates a username and password.
func (a *Authenticator) Check(username, password string) error {
	if a.disabled {
		return nil
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.creds.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.creds.Password)) == 1
	if !userOK || !passOK || a.creds.Username == "" {
		return ErrUnauthorized
	}
	return nil
}

// ParseBasicAuth parses an HTTP Basic Authorization header value.
func ParseBasicAuth(header string) (username, password string, ok bool) {
	const prefix = "basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return "", "", false
	}

	username, password, ok = strings.Cut(string(decoded), ":")
	return username, password, ok
}
