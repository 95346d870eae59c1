package collector

import (
	"context"
	"fmt"

	"github.com/qepting91/frontpage-watch/internal/domain"
)

// InfoBatchSize is the most fullnames sent in one info lookup.
const InfoBatchSize = 99

// FetchPages walks the feed until budget pages are fetched or a page comes
// back without an after cursor. A budget below 1 is treated as 1.
// Pages are returned in fetch order; any failed page fails the whole fetch.
func FetchPages(ctx context.Context, c domain.Collector, token domain.CachedCredential, budget int) ([]domain.RemoteFeedPage, error) {
	if budget < 1 {
		budget = 1
	}

	pages := make([]domain.RemoteFeedPage, 0, budget)
	after := ""
	for len(pages) < budget {
		page, err := c.FetchPage(ctx, token, after)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", len(pages)+1, err)
		}
		pages = append(pages, page)
		if page.After == "" {
			break
		}
		after = page.After
	}
	return pages, nil
}

// LookupRemovalInfo asks the API about every removed item, InfoBatchSize names
// per call, and pairs each answer back to its tracked item by name. Items the
// API says nothing about end up in Missing.
func LookupRemovalInfo(ctx context.Context, c domain.Collector, token domain.CachedCredential, removed []domain.TrackedItem) (domain.RemovalLookup, error) {
	var lookup domain.RemovalLookup
	for start := 0; start < len(removed); start += InfoBatchSize {
		batch := removed[start:min(start+InfoBatchSize, len(removed))]

		names := make([]string, len(batch))
		for i, item := range batch {
			names[i] = item.Name
		}
		remote, err := c.FetchInfo(ctx, token, names)
		if err != nil {
			return domain.RemovalLookup{}, fmt.Errorf("info batch %d: %w", start/InfoBatchSize+1, err)
		}

		byName := make(map[string]domain.RemoteItem, len(remote))
		for _, r := range remote {
			byName[r.Name] = r
		}
		for _, item := range batch {
			if r, ok := byName[item.Name]; ok {
				lookup.Found = append(lookup.Found, domain.RemovalInfo{Item: item, Remote: r})
			} else {
				lookup.Missing = append(lookup.Missing, item)
			}
		}
	}
	return lookup, nil
}
