package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/qepting91/frontpage-watch/internal/domain"
	"golang.org/x/oauth2"
)

// AuthOptions configures the password grant.
type AuthOptions struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
	Timeout      time.Duration
}

// PasswordAuthenticator exchanges account credentials for a bearer token
// using the OAuth2 resource-owner password grant.
type PasswordAuthenticator struct {
	config     oauth2.Config
	username   string
	password   string
	httpClient *http.Client
}

var _ domain.Authenticator = (*PasswordAuthenticator)(nil)

// NewPasswordAuthenticator builds an authenticator. Client credentials go in
// the basic auth header, the only style Reddit accepts.
func NewPasswordAuthenticator(opts AuthOptions) *PasswordAuthenticator {
	client := newHTTPClient(opts.UserAgent, opts.Timeout)
	client.Transport = &tokenErrorTransport{base: client.Transport}

	return &PasswordAuthenticator{
		config: oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  opts.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		username:   opts.Username,
		password:   opts.Password,
		httpClient: client,
	}
}

// PasswordGrant performs one token request. Only a response carrying an
// explicit error payload comes back as *domain.AuthError; outages and
// malformed responses are returned wrapped but unclassified.
func (a *PasswordAuthenticator) PasswordGrant(ctx context.Context) (domain.Grant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	tok, err := a.config.PasswordCredentialsToken(ctx, a.username, a.password)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if !errors.As(err, &rErr) {
			return domain.Grant{}, fmt.Errorf("password grant: %w", err)
		}
		if rErr.ErrorCode != "" || hasErrorField(rErr.Body) {
			return domain.Grant{}, &domain.AuthError{Message: retrieveMessage(rErr)}
		}
		if rErr.Response != nil {
			return domain.Grant{}, fmt.Errorf("password grant: status %d: %w", rErr.Response.StatusCode, err)
		}
		return domain.Grant{}, fmt.Errorf("password grant: %w", err)
	}

	grant := domain.Grant{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   expiresIn(tok),
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		grant.Scope = scope
	}
	return grant, nil
}

func retrieveMessage(e *oauth2.RetrieveError) string {
	switch {
	case e.ErrorCode != "" && e.ErrorDescription != "":
		return e.ErrorCode + ": " + e.ErrorDescription
	case e.ErrorCode != "":
		return e.ErrorCode
	case len(e.Body) > 0:
		return string(e.Body)
	case e.Response != nil:
		return e.Response.Status
	}
	return "token request rejected"
}

// expiresIn reads the raw expires_in field, falling back to the parsed expiry.
func expiresIn(tok *oauth2.Token) time.Duration {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return time.Duration(n) * time.Second
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	if !tok.Expiry.IsZero() {
		return time.Until(tok.Expiry).Round(time.Second)
	}
	return 0
}
