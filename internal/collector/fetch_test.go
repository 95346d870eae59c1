package collector_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/qepting91/frontpage-watch/internal/collector"
	"github.com/qepting91/frontpage-watch/internal/domain"
	"github.com/qepting91/frontpage-watch/internal/domain/domaintest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(names ...string) []domain.RemoteItem {
	out := make([]domain.RemoteItem, len(names))
	for i, n := range names {
		out[i] = domain.RemoteItem{Name: n}
	}
	return out
}

func TestFetchPages_StopsWhenFeedEnds(t *testing.T) {
	c := &domaintest.Collector{Pages: []domain.RemoteFeedPage{
		{Items: items("t3_a", "t3_b"), After: "t3_b"},
		{Items: items("t3_c")},
	}}

	pages, err := collector.FetchPages(context.Background(), c, testToken, 3)
	require.NoError(t, err)

	assert.Len(t, pages, 2)
	assert.Equal(t, []string{"", "t3_b"}, c.Afters)
}

func TestFetchPages_RespectsBudget(t *testing.T) {
	c := &domaintest.Collector{Pages: []domain.RemoteFeedPage{
		{Items: items("t3_a"), After: "t3_a"},
		{Items: items("t3_b"), After: "t3_b"},
		{Items: items("t3_c"), After: "t3_c"},
	}}

	pages, err := collector.FetchPages(context.Background(), c, testToken, 2)
	require.NoError(t, err)
	assert.Len(t, pages, 2)
	assert.Len(t, c.Afters, 2)
}

func TestFetchPages_BudgetBelowOne(t *testing.T) {
	c := &domaintest.Collector{Pages: []domain.RemoteFeedPage{
		{Items: items("t3_a"), After: "t3_a"},
	}}

	pages, err := collector.FetchPages(context.Background(), c, testToken, 0)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestFetchPages_FailsWholeFetch(t *testing.T) {
	c := &domaintest.Collector{
		Pages:     []domain.RemoteFeedPage{{Items: items("t3_a"), After: "t3_a"}},
		PageErr:   &domain.FetchError{Code: 503, Message: "Service Unavailable"},
		PageErrAt: 2,
	}

	pages, err := collector.FetchPages(context.Background(), c, testToken, 3)
	assert.Nil(t, pages)
	assert.Equal(t, 2, c.PageCalls)

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 503, fetchErr.Code)
}

func TestLookupRemovalInfo_Batches(t *testing.T) {
	removed := make([]domain.TrackedItem, 250)
	known := map[string]domain.RemoteItem{}
	for i := range removed {
		name := fmt.Sprintf("t3_%03d", i)
		removed[i] = domain.TrackedItem{Name: name, Rank: i + 1}
		if i%10 != 0 {
			known[name] = domain.RemoteItem{Name: name}
		}
	}
	c := &domaintest.Collector{Known: known}

	lookup, err := collector.LookupRemovalInfo(context.Background(), c, testToken, removed)
	require.NoError(t, err)

	require.Len(t, c.InfoCalls, 3)
	assert.Len(t, c.InfoCalls[0], collector.InfoBatchSize)
	assert.Len(t, c.InfoCalls[1], collector.InfoBatchSize)
	assert.Len(t, c.InfoCalls[2], 52)

	assert.Len(t, lookup.Missing, 25)
	assert.Len(t, lookup.Found, 225)
	for _, f := range lookup.Found {
		assert.Equal(t, f.Item.Name, f.Remote.Name)
	}
	assert.Equal(t, "t3_001", lookup.Found[0].Item.Name)
	assert.Equal(t, "t3_000", lookup.Missing[0].Name)
}

func TestLookupRemovalInfo_Empty(t *testing.T) {
	c := &domaintest.Collector{}

	lookup, err := collector.LookupRemovalInfo(context.Background(), c, testToken, nil)
	require.NoError(t, err)
	assert.Empty(t, lookup.Found)
	assert.Empty(t, lookup.Missing)
	assert.Empty(t, c.InfoCalls)
}

func TestLookupRemovalInfo_BatchFailure(t *testing.T) {
	c := &domaintest.Collector{InfoErr: errors.New("connection reset")}

	_, err := collector.LookupRemovalInfo(context.Background(), c, testToken, []domain.TrackedItem{{Name: "t3_a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
