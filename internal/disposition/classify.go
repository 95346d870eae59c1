// Package disposition decides what happens to items that left the feed and carries it out.
package disposition

import "github.com/qepting91/frontpage-watch/internal/domain"

// Class is the disposition of one removed item.
type Class int

const (
	// ClassUncensored items vanished on their own (no removal category, or deleted by the author).
	ClassUncensored Class = iota
	// ClassBelowMinRank items were removed but ranked above the watched window.
	ClassBelowMinRank
	// ClassAboveMaxRank items were removed but ranked below the watched window.
	ClassAboveMaxRank
	// ClassUnresolvable items were not returned by the info lookup at all.
	ClassUnresolvable
	// ClassCensored items were removed by someone other than the author inside the window.
	ClassCensored
)

var classNames = [...]string{
	ClassUncensored:   "uncensored",
	ClassBelowMinRank: "below_min_rank",
	ClassAboveMaxRank: "above_max_rank",
	ClassUnresolvable: "unresolvable",
	ClassCensored:     "censored",
}

// Classes lists every class in evaluation order.
var Classes = []Class{ClassUncensored, ClassBelowMinRank, ClassAboveMaxRank, ClassUnresolvable, ClassCensored}

func (c Class) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return "unknown"
	}
	return classNames[c]
}

// Thresholds bound the rank window in which removals are re-submitted. Both ends are inclusive.
type Thresholds struct {
	MinRank int
	MaxRank int
}

// Entry is one classified item. Remote is nil for ClassUnresolvable.
type Entry struct {
	Class  Class
	Item   domain.TrackedItem
	Remote *domain.RemoteItem
}

// Plan is the classified lookup, found items first in lookup order, then the missing ones.
type Plan struct {
	Entries []Entry
}

// Count returns how many entries have class c.
func (p Plan) Count(c Class) int {
	n := 0
	for _, e := range p.Entries {
		if e.Class == c {
			n++
		}
	}
	return n
}

// Classify assigns exactly one class to every item in lookup.
func Classify(lookup domain.RemovalLookup, t Thresholds) Plan {
	plan := Plan{Entries: make([]Entry, 0, len(lookup.Found)+len(lookup.Missing))}
	for _, f := range lookup.Found {
		remote := f.Remote
		plan.Entries = append(plan.Entries, Entry{
			Class:  classOf(f.Item.Rank, remote.RemovalCategory, t),
			Item:   f.Item,
			Remote: &remote,
		})
	}
	for _, m := range lookup.Missing {
		plan.Entries = append(plan.Entries, Entry{Class: ClassUnresolvable, Item: m})
	}
	return plan
}

func classOf(rank int, category *string, t Thresholds) Class {
	switch {
	case category == nil || *category == "" || *category == domain.CategoryDeleted:
		return ClassUncensored
	case rank < t.MinRank:
		return ClassBelowMinRank
	case rank > t.MaxRank:
		return ClassAboveMaxRank
	default:
		return ClassCensored
	}
}
