package domaintest

import (
	"context"
	"sync"
	"time"

	"github.com/qepting91/frontpage-watch/internal/domain"
)

// Authenticator returns Grant (or Err) and counts calls.
type Authenticator struct {
	mu    sync.Mutex
	Grant domain.Grant
	Err   error
	Calls int
}

var _ domain.Authenticator = (*Authenticator)(nil)

func (a *Authenticator) PasswordGrant(context.Context) (domain.Grant, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Calls++
	if a.Err != nil {
		return domain.Grant{}, a.Err
	}
	return a.Grant, nil
}

// SubmitCall is one recorded submission.
type SubmitCall struct {
	Submission domain.Submission
	At         time.Time
}

// Collector serves Pages in order, answers info lookups from Known and
// records submissions. PageErr fails every page call, or only call PageErrAt
// (1-based) when that is set. Submissions whose URL is in FailSubmit fail.
type Collector struct {
	mu sync.Mutex

	Pages      []domain.RemoteFeedPage
	PageErr    error
	PageErrAt  int
	Known      map[string]domain.RemoteItem
	InfoErr    error
	FailSubmit map[string]bool

	PageCalls int
	Afters    []string
	InfoCalls [][]string
	Submitted []SubmitCall
}

var _ domain.Collector = (*Collector)(nil)

func (c *Collector) FetchPage(_ context.Context, _ domain.CachedCredential, after string) (domain.RemoteFeedPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PageCalls++
	c.Afters = append(c.Afters, after)
	if c.PageErr != nil && (c.PageErrAt == 0 || c.PageErrAt == c.PageCalls) {
		return domain.RemoteFeedPage{}, c.PageErr
	}
	if c.PageCalls > len(c.Pages) {
		return domain.RemoteFeedPage{}, nil
	}
	return c.Pages[c.PageCalls-1], nil
}

func (c *Collector) FetchInfo(_ context.Context, _ domain.CachedCredential, names []string) ([]domain.RemoteItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.InfoCalls = append(c.InfoCalls, names)
	if c.InfoErr != nil {
		return nil, c.InfoErr
	}
	var out []domain.RemoteItem
	for _, n := range names {
		if item, ok := c.Known[n]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (c *Collector) Submit(_ context.Context, _ domain.CachedCredential, s domain.Submission) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailSubmit[s.URL] {
		return ErrInjected
	}
	c.Submitted = append(c.Submitted, SubmitCall{Submission: s, At: time.Now()})
	return nil
}

// Submissions returns a copy of the recorded submissions.
func (c *Collector) Submissions() []SubmitCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SubmitCall(nil), c.Submitted...)
}
