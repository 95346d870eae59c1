package collector

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/qepting91/frontpage-watch/internal/domain"
)

const (
	mockPoolSize = 300
	mockFeedSize = 200
	mockPageSize = 100
	mockLatency  = 50 * time.Millisecond
)

var mockCategories = []string{"", "", domain.CategoryDeleted, "moderator", "automod_filtered", "reddit"}

// MockClient implements domain.Collector but returns fake data. Each walk of
// the feed reshuffles a fixed pool, so consecutive runs see items appear,
// move and vanish.
type MockClient struct {
	mu   sync.Mutex
	rng  *rand.Rand
	feed []string
}

var _ domain.Collector = (*MockClient)(nil)

func NewMockClient() *MockClient {
	return &MockClient{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (mc *MockClient) FetchPage(ctx context.Context, _ domain.CachedCredential, after string) (domain.RemoteFeedPage, error) {
	if err := mockWait(ctx); err != nil {
		return domain.RemoteFeedPage{}, err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	offset := 0
	if after != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(after, "mock_"))
		if err != nil {
			return domain.RemoteFeedPage{}, &domain.FetchError{Message: "bad cursor " + after}
		}
		offset = n
	}
	if offset == 0 || mc.feed == nil {
		mc.shuffle()
	}

	end := min(offset+mockPageSize, len(mc.feed))
	page := domain.RemoteFeedPage{}
	for i := offset; i < end; i++ {
		page.Items = append(page.Items, mc.item(mc.feed[i], nil))
	}
	if end < len(mc.feed) {
		page.After = fmt.Sprintf("mock_%d", end)
	}
	return page, nil
}

func (mc *MockClient) FetchInfo(ctx context.Context, _ domain.CachedCredential, names []string) ([]domain.RemoteItem, error) {
	if err := mockWait(ctx); err != nil {
		return nil, err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	items := make([]domain.RemoteItem, 0, len(names))
	for _, name := range names {
		// Roughly one in ten lookups comes back empty.
		if mc.rng.Intn(10) == 0 {
			continue
		}
		var category *string
		if c := mockCategories[mc.rng.Intn(len(mockCategories))]; c != "" {
			category = &c
		}
		items = append(items, mc.item(name, category))
	}
	return items, nil
}

func (mc *MockClient) Submit(ctx context.Context, _ domain.CachedCredential, _ domain.Submission) error {
	return mockWait(ctx)
}

// shuffle draws a new feed from the pool.
func (mc *MockClient) shuffle() {
	perm := mc.rng.Perm(mockPoolSize)[:mockFeedSize]
	mc.feed = make([]string, len(perm))
	for i, n := range perm {
		mc.feed[i] = fmt.Sprintf("t3_mock%03d", n)
	}
}

func (mc *MockClient) item(name string, category *string) domain.RemoteItem {
	return domain.RemoteItem{
		Name:                  name,
		RemovalCategory:       category,
		Ups:                   mc.rng.Intn(50000),
		NumComments:           mc.rng.Intn(5000),
		Title:                 fmt.Sprintf("Simulated front page post %s", strings.TrimPrefix(name, "t3_")),
		SubredditNamePrefixed: "r/mock",
		Permalink:             fmt.Sprintf("/r/mock/comments/%s/simulated/", strings.TrimPrefix(name, "t3_")),
	}
}

func mockWait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(mockLatency):
		return nil
	}
}

// MockAuthenticator hands out a fresh fake token on every grant.
type MockAuthenticator struct{}

var _ domain.Authenticator = MockAuthenticator{}

func (MockAuthenticator) PasswordGrant(ctx context.Context) (domain.Grant, error) {
	if err := mockWait(ctx); err != nil {
		return domain.Grant{}, err
	}
	return domain.Grant{
		AccessToken: fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		TokenType:   "bearer",
		Scope:       "*",
		ExpiresIn:   time.Hour,
	}, nil
}
