package disposition

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/qepting91/frontpage-watch/internal/domain"
	"github.com/qepting91/frontpage-watch/internal/logger"
)

// Options configure where and how censored items are re-submitted.
type Options struct {
	// SubmitInterval spaces censored submissions: item i waits i*SubmitInterval.
	SubmitInterval     time.Duration
	TargetSubreddit    string
	LongtailSubreddit  string
	LongtailRank       int
	DeleteUnresolvable bool
}

// Outcome counts what Dispose did.
type Outcome struct {
	Deleted      int
	Kept         int
	Submitted    int
	SubmitFailed int
}

// Router carries out a Plan.
type Router struct {
	collector domain.Collector
	opts      Options
	log       logger.Logger
	journal   chan<- domain.Disposition
	now       func() time.Time
}

func NewRouter(collector domain.Collector, opts Options, log logger.Logger) *Router {
	return &Router{collector: collector, opts: opts, log: log, now: time.Now}
}

// WithJournal returns a copy of r that reports every action on journal.
// The caller closes journal after Dispose returns.
func (r *Router) WithJournal(journal chan<- domain.Disposition) *Router {
	cp := *r
	cp.journal = journal
	return &cp
}

func (r *Router) record(entry Entry, action, subreddit string, err error) {
	if r.journal == nil {
		return
	}
	d := domain.Disposition{
		At:        r.now().UTC(),
		Name:      entry.Item.Name,
		Rank:      entry.Item.Rank,
		Class:     entry.Class.String(),
		Action:    action,
		Subreddit: subreddit,
	}
	if err != nil {
		d.Error = err.Error()
	}
	r.journal <- d
}

// Destination picks the subreddit for an item at rank.
func (r *Router) Destination(rank int) string {
	if rank < r.opts.LongtailRank {
		return r.opts.TargetSubreddit
	}
	return r.opts.LongtailSubreddit
}

// Dispose runs every action in plan concurrently and waits for all of them.
// Uncensored and out-of-window items are deleted, unresolvable ones only when
// DeleteUnresolvable is set. Censored items are re-submitted on a staggered
// schedule and deleted once their own submission succeeds; a failed submission
// keeps the record so the next run retries it. Delete failures are joined into
// the returned error.
func (r *Router) Dispose(ctx context.Context, store domain.Store, token domain.CachedCredential, plan Plan) (Outcome, error) {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		out  Outcome
		errs []error
	)

	remove := func(entry Entry) {
		err := store.DeleteItem(ctx, entry.Item)
		if err != nil {
			r.record(entry, domain.ActionDeleteFailed, "", err)
		} else {
			r.record(entry, domain.ActionDeleted, "", nil)
		}

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", entry.Item.Name, err))
			return
		}
		out.Deleted++
	}

	censored := 0
	for _, entry := range plan.Entries {
		switch entry.Class {
		case ClassUnresolvable:
			if !r.opts.DeleteUnresolvable {
				out.Kept++
				r.record(entry, domain.ActionKept, "", nil)
				continue
			}
			fallthrough
		case ClassUncensored, ClassBelowMinRank, ClassAboveMaxRank:
			wg.Add(1)
			go func(entry Entry) {
				defer wg.Done()
				remove(entry)
			}(entry)
		case ClassCensored:
			delay := time.Duration(censored) * r.opts.SubmitInterval
			censored++
			wg.Add(1)
			go func(entry Entry) {
				defer wg.Done()
				subreddit := r.Destination(entry.Item.Rank)
				err := r.resubmit(ctx, token, entry, subreddit, delay)
				mu.Lock()
				if err != nil {
					out.SubmitFailed++
				} else {
					out.Submitted++
				}
				mu.Unlock()
				if err != nil {
					r.record(entry, domain.ActionSubmitFailed, subreddit, err)
					r.log.Warn("Re-submission failed, keeping record",
						logger.String("name", entry.Item.Name),
						logger.Int("rank", entry.Item.Rank),
						logger.Error(err),
					)
					return
				}
				r.record(entry, domain.ActionSubmitted, subreddit, nil)
				remove(entry)
			}(entry)
		}
	}
	wg.Wait()

	return out, errors.Join(errs...)
}

// resubmit waits out delay, then posts entry to subreddit.
func (r *Router) resubmit(ctx context.Context, token domain.CachedCredential, entry Entry, subreddit string, delay time.Duration) error {
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	remote := entry.Remote
	sub := domain.Submission{
		Subreddit: subreddit,
		Title:     BuildTitle(entry.Item.Rank, remote.Ups, remote.NumComments, remote.Title, remote.SubredditNamePrefixed),
		URL:       PermalinkURL(remote.Permalink),
	}
	if err := r.collector.Submit(ctx, token, sub); err != nil {
		return err
	}

	r.log.Info("Re-submitted censored item",
		logger.String("name", entry.Item.Name),
		logger.Int("rank", entry.Item.Rank),
		logger.String("subreddit", sub.Subreddit),
	)
	return nil
}
