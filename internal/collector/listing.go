package collector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/qepting91/frontpage-watch/internal/domain"
)

type listingResponse struct {
	Data struct {
		Children []struct {
			Data domain.RemoteItem `json:"data"`
		} `json:"children"`
		After *string `json:"after"`
	} `json:"data"`
}

type submitResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
	} `json:"json"`
}

// errorEnvelope covers both error conventions: {"error": "msg"} and
// {"error": 403, "message": "Forbidden"}.
type errorEnvelope struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// checkErrorPayload returns a *domain.FetchError when body carries a top-level error field.
func checkErrorPayload(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var env errorEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil
	}
	if len(env.Error) == 0 || string(env.Error) == "null" {
		return nil
	}

	var code int
	if err := json.Unmarshal(env.Error, &code); err == nil {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(code)
		}
		return &domain.FetchError{Code: code, Message: msg}
	}
	var msg string
	if err := json.Unmarshal(env.Error, &msg); err == nil {
		return &domain.FetchError{Message: msg}
	}
	return &domain.FetchError{Message: string(env.Error)}
}

func decodeListing(body []byte) (domain.RemoteFeedPage, error) {
	var resp listingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.RemoteFeedPage{}, &domain.FetchError{Message: fmt.Sprintf("malformed listing: %v", err)}
	}

	page := domain.RemoteFeedPage{Items: make([]domain.RemoteItem, 0, len(resp.Data.Children))}
	for _, child := range resp.Data.Children {
		page.Items = append(page.Items, child.Data)
	}
	if resp.Data.After != nil {
		page.After = *resp.Data.After
	}
	return page, nil
}

func decodeSubmit(body []byte) error {
	var resp submitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return &domain.FetchError{Message: fmt.Sprintf("malformed submit response: %v", err)}
	}
	if len(resp.JSON.Errors) == 0 {
		return nil
	}
	parts := make([]string, 0, len(resp.JSON.Errors))
	for _, e := range resp.JSON.Errors {
		parts = append(parts, fmt.Sprint(e...))
	}
	return &domain.FetchError{Message: strings.Join(parts, "; ")}
}
