// Package watch runs one reconciliation of the front page against the tracked snapshot.
package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qepting91/frontpage-watch/internal/collector"
	"github.com/qepting91/frontpage-watch/internal/credential"
	"github.com/qepting91/frontpage-watch/internal/disposition"
	"github.com/qepting91/frontpage-watch/internal/domain"
	"github.com/qepting91/frontpage-watch/internal/logger"
	"github.com/qepting91/frontpage-watch/internal/metrics"
	"github.com/qepting91/frontpage-watch/internal/reconcile"
	"github.com/qepting91/frontpage-watch/internal/storage"
	"golang.org/x/sync/errgroup"
)

// Stage names, in execution order.
const (
	StageConnect            = "Connect"
	StageLoadSnapshot       = "LoadSnapshot"
	StageAuthenticate       = "Authenticate"
	StageFetchFeed          = "FetchFeed"
	StageDiff               = "Diff"
	StagePersistNew         = "PersistNew"
	StagePersistUpdated     = "PersistUpdated"
	StageLookupRemovalInfo  = "LookupRemovalInfo"
	StageClassifyAndDispose = "ClassifyAndDispose"
)

const journalBuffer = 64

// Session is a Store bound to one connection for the length of a run.
type Session interface {
	domain.Store
	Release() error
}

// ConnectFunc acquires the run's session.
type ConnectFunc func(ctx context.Context) (Session, error)

// Options tune a run.
type Options struct {
	Pages      int
	Thresholds disposition.Thresholds
	// JournalPath, when set, receives one NDJSON line per disposition action.
	JournalPath string
}

// Deps are the collaborators a Runner drives.
type Deps struct {
	Connect   ConnectFunc
	Collector domain.Collector
	Cache     *credential.Cache
	Router    *disposition.Router
	Recorder  *metrics.Recorder
	Log       logger.Logger
}

// Runner executes runs. It holds no per-run state and may be reused.
type Runner struct {
	deps Deps
	opts Options
	now  func() time.Time
}

func NewRunner(deps Deps, opts Options) *Runner {
	return &Runner{deps: deps, opts: opts, now: time.Now}
}

// runState is threaded through the stages by value; each stage returns the next one.
type runState struct {
	log      logger.Logger
	session  Session
	snapshot []domain.TrackedItem
	token    domain.CachedCredential
	pages    []domain.RemoteFeedPage
	diff     domain.DiffResult
	lookup   domain.RemovalLookup
	report   Report
}

type stage struct {
	name string
	run  func(context.Context, runState) (runState, error)
}

// Run performs Connect, LoadSnapshot, Authenticate, FetchFeed, Diff,
// PersistNew, PersistUpdated, LookupRemovalInfo and ClassifyAndDispose in
// order, then releases the connection. The first failing stage aborts the run
// with a *StageError.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	start := r.now()
	st := runState{
		log:    r.deps.Log.With(logger.String("run_id", uuid.NewString())),
		report: Report{Started: start},
	}

	session, err := r.deps.Connect(ctx)
	if err != nil {
		return st.report, r.fail(st, StageConnect, err)
	}
	st.session = session
	defer func() {
		if relErr := session.Release(); relErr != nil {
			st.log.Warn("Release connection failed", logger.Error(relErr))
		}
	}()

	stages := []stage{
		{StageLoadSnapshot, r.loadSnapshot},
		{StageAuthenticate, r.authenticate},
		{StageFetchFeed, r.fetchFeed},
		{StageDiff, r.computeDiff},
		{StagePersistNew, r.persistNew},
		{StagePersistUpdated, r.persistUpdated},
		{StageLookupRemovalInfo, r.lookupRemovalInfo},
		{StageClassifyAndDispose, r.classifyAndDispose},
	}
	for _, s := range stages {
		next, err := s.run(ctx, st)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			return next.report, r.fail(next, s.name, err)
		}
		st = next
	}

	st.report.Duration = r.now().Sub(start)
	r.recordSuccess(st.report)
	st.log.Info("Run completed", st.report.Fields()...)
	return st.report, nil
}

func (r *Runner) fail(st runState, name string, err error) error {
	took := r.now().Sub(st.report.Started)
	if r.deps.Recorder != nil {
		r.deps.Recorder.Failed(name, took)
	}
	st.log.Error("Run failed", logger.String("stage", name), logger.Duration("duration", took), logger.Error(err))
	return &StageError{Stage: name, Err: err}
}

func (r *Runner) loadSnapshot(ctx context.Context, st runState) (runState, error) {
	items, err := st.session.LoadTrackedItems(ctx)
	if err != nil {
		return st, err
	}
	st.snapshot = items
	st.report.Tracked = len(items)
	st.log.Debug("Loaded snapshot", logger.Int("tracked", len(items)))
	return st, nil
}

func (r *Runner) authenticate(ctx context.Context, st runState) (runState, error) {
	persisted, err := st.session.LoadCredential(ctx)
	if err != nil {
		return st, err
	}
	token, refreshed, err := r.deps.Cache.EnsureToken(ctx, st.session, r.now(), persisted)
	if err != nil {
		return st, err
	}
	st.token = token
	st.report.CredentialRefreshed = refreshed
	return st, nil
}

func (r *Runner) fetchFeed(ctx context.Context, st runState) (runState, error) {
	pages, err := collector.FetchPages(ctx, r.deps.Collector, st.token, r.opts.Pages)
	if err != nil {
		return st, err
	}
	st.pages = pages
	st.report.Pages = len(pages)
	for _, p := range pages {
		st.report.Fetched += len(p.Items)
	}
	if dups := reconcile.Duplicates(pages); len(dups) > 0 {
		st.report.Duplicates = len(dups)
		st.log.Warn("Feed repeated items, first occurrence wins", logger.Strings("names", dups))
	}
	return st, nil
}

func (r *Runner) computeDiff(_ context.Context, st runState) (runState, error) {
	st.diff = reconcile.Reconcile(st.snapshot, st.pages)
	st.report.New = len(st.diff.New)
	st.report.Updated = len(st.diff.Updated)
	st.report.Removed = len(st.diff.Removed)
	st.log.Info("Reconciled feed",
		logger.Int("new", st.report.New),
		logger.Int("updated", st.report.Updated),
		logger.Int("removed", st.report.Removed),
	)
	return st, nil
}

func (r *Runner) persistNew(ctx context.Context, st runState) (runState, error) {
	return st, fanOut(ctx, st.diff.New, st.session.InsertItem)
}

func (r *Runner) persistUpdated(ctx context.Context, st runState) (runState, error) {
	return st, fanOut(ctx, st.diff.Updated, st.session.UpdateItem)
}

// fanOut runs write once per item concurrently and waits for all of them.
func fanOut(ctx context.Context, items []domain.TrackedItem, write func(context.Context, domain.TrackedItem) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, item := range items {
		g.Go(func() error {
			return write(gctx, item)
		})
	}
	return g.Wait()
}

func (r *Runner) lookupRemovalInfo(ctx context.Context, st runState) (runState, error) {
	lookup, err := collector.LookupRemovalInfo(ctx, r.deps.Collector, st.token, st.diff.Removed)
	if err != nil {
		return st, err
	}
	st.lookup = lookup
	st.report.Unresolved = len(lookup.Missing)
	return st, nil
}

func (r *Runner) classifyAndDispose(ctx context.Context, st runState) (runState, error) {
	plan := disposition.Classify(st.lookup, r.opts.Thresholds)
	st.report.Classes = make(map[disposition.Class]int, len(disposition.Classes))
	for _, c := range disposition.Classes {
		st.report.Classes[c] = plan.Count(c)
	}

	router := r.deps.Router
	if r.opts.JournalPath != "" {
		records := make(chan domain.Disposition, journalBuffer)
		w := &storage.JournalWriter{FilePath: r.opts.JournalPath, Log: st.log}
		var wg sync.WaitGroup
		wg.Add(1)
		go w.Start(&wg, records)
		defer func() {
			close(records)
			wg.Wait()
		}()
		router = router.WithJournal(records)
	}

	outcome, err := router.Dispose(ctx, st.session, st.token, plan)
	st.report.Outcome = outcome
	if err != nil {
		return st, fmt.Errorf("dispose: %w", err)
	}
	return st, nil
}

func (r *Runner) recordSuccess(rep Report) {
	rec := r.deps.Recorder
	if rec == nil {
		return
	}
	rec.Succeeded(r.now(), rep.Duration)
	if rep.CredentialRefreshed {
		rec.CredentialRefresh.Set(1)
	} else {
		rec.CredentialRefresh.Set(0)
	}
	rec.Items.WithLabelValues("tracked").Set(float64(rep.Tracked))
	rec.Items.WithLabelValues("fetched").Set(float64(rep.Fetched))
	rec.Items.WithLabelValues("duplicates").Set(float64(rep.Duplicates))
	rec.Items.WithLabelValues("new").Set(float64(rep.New))
	rec.Items.WithLabelValues("updated").Set(float64(rep.Updated))
	rec.Items.WithLabelValues("removed").Set(float64(rep.Removed))
	for class, n := range rep.Classes {
		rec.Dispositions.WithLabelValues(class.String()).Set(float64(n))
	}
	rec.Submissions.WithLabelValues("submitted").Set(float64(rep.Outcome.Submitted))
	rec.Submissions.WithLabelValues("failed").Set(float64(rep.Outcome.SubmitFailed))
}
