// Package reconcile diffs a freshly fetched feed against the persisted snapshot.
package reconcile

import "github.com/qepting91/frontpage-watch/internal/domain"

// Reconcile flattens pages into one ranked sequence (rank = 1-based position)
// and partitions it against previous:
//
//   - New: in the feed, not in previous. Fresh rank, nil ID.
//   - Updated: in both, rank changed. ID carried forward.
//   - Removed: in previous, not in the feed.
//
// Items present in both with an unchanged rank appear nowhere. When a name
// occurs more than once in the feed the first occurrence wins. New and
// Updated are ordered by rank, Removed keeps the order of previous.
func Reconcile(previous []domain.TrackedItem, pages []domain.RemoteFeedPage) domain.DiffResult {
	current := rank(pages)

	known := make(map[string]domain.TrackedItem, len(previous))
	for _, item := range previous {
		known[item.Name] = item
	}

	var diff domain.DiffResult
	seen := make(map[string]bool, len(current))
	for _, cur := range current {
		seen[cur.Name] = true
		prev, ok := known[cur.Name]
		switch {
		case !ok:
			diff.New = append(diff.New, cur)
		case prev.Rank != cur.Rank:
			prev.Rank = cur.Rank
			diff.Updated = append(diff.Updated, prev)
		}
	}

	for _, item := range previous {
		if !seen[item.Name] {
			diff.Removed = append(diff.Removed, item)
		}
	}
	return diff
}

// Duplicates returns the names that occur more than once in pages, in order of
// their second occurrence.
func Duplicates(pages []domain.RemoteFeedPage) []string {
	var dups []string
	count := make(map[string]int)
	for _, page := range pages {
		for _, item := range page.Items {
			count[item.Name]++
			if count[item.Name] == 2 {
				dups = append(dups, item.Name)
			}
		}
	}
	return dups
}

// rank flattens pages, dropping repeated names.
func rank(pages []domain.RemoteFeedPage) []domain.TrackedItem {
	var out []domain.TrackedItem
	seen := make(map[string]bool)
	pos := 0
	for _, page := range pages {
		for _, item := range page.Items {
			pos++
			if seen[item.Name] {
				continue
			}
			seen[item.Name] = true
			out = append(out, domain.TrackedItem{Name: item.Name, Rank: pos})
		}
	}
	return out
}
