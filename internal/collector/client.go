package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/qepting91/frontpage-watch/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of a response we read.
const maxBodyBytes = 8 << 20

// Options configures a RedditClient.
type Options struct {
	BaseURL         string
	FeedPath        string
	UserAgent       string
	PageSize        int
	RequestInterval time.Duration
	Timeout         time.Duration
}

// RedditClient talks to the OAuth API with a cached bearer token.
type RedditClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	feedPath   string
	pageSize   int
}

var _ domain.Collector = (*RedditClient)(nil)

// NewRedditClient builds a client. Every request waits on a token bucket so a
// run never exceeds one request per RequestInterval (Reddit allows ~60/min).
func NewRedditClient(opts Options) *RedditClient {
	return &RedditClient{
		httpClient: newHTTPClient(opts.UserAgent, opts.Timeout),
		limiter:    rate.NewLimiter(rate.Every(opts.RequestInterval), 1),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		feedPath:   opts.FeedPath,
		pageSize:   opts.PageSize,
	}
}

// FetchPage fetches one page of the feed listing.
func (rc *RedditClient) FetchPage(ctx context.Context, token domain.CachedCredential, after string) (domain.RemoteFeedPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(rc.pageSize))
	q.Set("raw_json", "1")
	if after != "" {
		q.Set("after", after)
	}

	body, err := rc.do(ctx, token, http.MethodGet, rc.feedPath+"?"+q.Encode(), nil)
	if err != nil {
		return domain.RemoteFeedPage{}, err
	}
	return decodeListing(body)
}

// FetchInfo looks up the given fullnames in one call. Callers keep len(names) <= InfoBatchSize.
func (rc *RedditClient) FetchInfo(ctx context.Context, token domain.CachedCredential, names []string) ([]domain.RemoteItem, error) {
	q := url.Values{}
	q.Set("id", strings.Join(names, ","))
	q.Set("raw_json", "1")

	body, err := rc.do(ctx, token, http.MethodGet, "/api/info?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	page, err := decodeListing(body)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Submit posts a link to s.Subreddit.
func (rc *RedditClient) Submit(ctx context.Context, token domain.CachedCredential, s domain.Submission) error {
	form := url.Values{}
	form.Set("sr", s.Subreddit)
	form.Set("kind", "link")
	form.Set("title", s.Title)
	form.Set("url", s.URL)
	form.Set("resubmit", "true")
	form.Set("api_type", "json")

	body, err := rc.do(ctx, token, http.MethodPost, "/api/submit", form)
	if err != nil {
		return err
	}
	return decodeSubmit(body)
}

// do sends one authenticated request and returns the body once the status
// and the error envelope have been checked.
func (rc *RedditClient) do(ctx context.Context, token domain.CachedCredential, method, path string, form url.Values) ([]byte, error) {
	if err := rc.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var payload io.Reader
	if form != nil {
		payload = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, rc.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	bearer := &oauth2.Token{AccessToken: token.AccessToken, TokenType: token.TokenType}
	bearer.SetAuthHeader(req)

	resp, err := rc.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if err := checkErrorPayload(body); err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("reddit api status: %d", resp.StatusCode)
	}
	return body, nil
}
