package collector

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// userAgentTransport stamps every request with the configured User-Agent.
// Reddit throttles requests that carry a generic one.
type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

func newHTTPClient(userAgent string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &userAgentTransport{
			userAgent: userAgent,
			base:      http.DefaultTransport,
		},
	}
}

// tokenErrorTransport turns a 2xx JSON token response that holds an "error"
// field into a 400, so the oauth2 package reports it as a RetrieveError.
type tokenErrorTransport struct {
	base http.RoundTripper
}

func (t *tokenErrorTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	if hasErrorField(body) {
		resp.StatusCode = http.StatusBadRequest
		resp.Status = http.StatusText(http.StatusBadRequest)
	}
	return resp, nil
}

// hasErrorField reports whether body is a JSON object with a non-null "error" member.
func hasErrorField(body []byte) bool {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &envelope) != nil {
		return false
	}
	return len(envelope.Error) > 0 && string(envelope.Error) != "null"
}
