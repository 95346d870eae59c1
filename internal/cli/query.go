package cli

import (
	"context"
	"math"
	"os/signal"
	"syscall"
	"time"

	"github.com/qepting91/frontpage-watch/internal/collector"
	"github.com/qepting91/frontpage-watch/internal/config"
	"github.com/qepting91/frontpage-watch/internal/credential"
	"github.com/qepting91/frontpage-watch/internal/disposition"
	"github.com/qepting91/frontpage-watch/internal/domain"
	"github.com/qepting91/frontpage-watch/internal/logger"
	"github.com/qepting91/frontpage-watch/internal/metrics"
	"github.com/qepting91/frontpage-watch/internal/storage"
	"github.com/qepting91/frontpage-watch/internal/watch"
	"github.com/spf13/cobra"
)

const (
	defaultRunTimeout = 5 * time.Minute
	pushTimeout       = 10 * time.Second
)

// QueryOptions holds flags for the query command. Each one overrides the
// matching config field only when it was set on the command line.
type QueryOptions struct {
	*RootOptions
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	Mode         string
	Pages        int
	MinRank      int
	MaxRank      int
	DeleteOops   bool
	Journal      string
	Timeout      time.Duration
}

// NewQueryCommand creates the query command, which performs one run.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run one reconciliation of the front page",
		Long: "Fetch the configured number of front page listings, reconcile them against the " +
			"tracked snapshot and dispose of every submission that disappeared.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, opts)
		},
	}

	opts.bindFlags(cmd)
	return cmd
}

func (o *QueryOptions) bindFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.Username, "username", "u", "", "Reddit account username")
	f.StringVarP(&o.Password, "password", "p", "", "Reddit account password")
	f.StringVarP(&o.ClientID, "client-id", "c", "", "OAuth client id")
	f.StringVarP(&o.ClientSecret, "client-secret", "s", "", "OAuth client secret")
	f.StringVar(&o.Mode, "mode", "", "collector mode (api|mock)")
	f.IntVar(&o.Pages, "pages", 1, "number of listing pages to fetch")
	f.IntVar(&o.MinRank, "min-rank", 0, "lowest rank considered for re-submission")
	f.IntVar(&o.MaxRank, "max-rank", 0, "highest rank considered for re-submission (0 = unbounded)")
	f.BoolVar(&o.DeleteOops, "delete-oops", false, "delete removed items the info lookup could not resolve")
	f.StringVar(&o.Journal, "journal", "", "append one NDJSON line per disposition to this file")
	f.DurationVar(&o.Timeout, "timeout", defaultRunTimeout, "abort the run after this long")
}

// applyFlags copies explicitly set flags over the loaded configuration.
func (o *QueryOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("username") {
		cfg.Reddit.Username = o.Username
	}
	if f.Changed("password") {
		cfg.Reddit.Password = o.Password
	}
	if f.Changed("client-id") {
		cfg.Reddit.ClientID = o.ClientID
	}
	if f.Changed("client-secret") {
		cfg.Reddit.ClientSecret = o.ClientSecret
	}
	if f.Changed("mode") {
		cfg.Reddit.Mode = o.Mode
	}
	if f.Changed("pages") {
		cfg.Watch.Pages = o.Pages
	}
	if f.Changed("min-rank") {
		cfg.Watch.MinPostRank = o.MinRank
	}
	if f.Changed("max-rank") {
		cfg.Watch.MaxPostRank = o.MaxRank
		if o.MaxRank == 0 {
			cfg.Watch.MaxPostRank = math.MaxInt
		}
	}
	if f.Changed("delete-oops") {
		cfg.Watch.DeleteUnresolvable = o.DeleteOops
	}
	if f.Changed("journal") {
		cfg.Watch.JournalPath = o.Journal
	}
}

func runQuery(cmd *cobra.Command, opts *QueryOptions) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	opts.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	db, err := storage.Open(ctx, cfg.Database.DSN())
	if err != nil {
		return WrapExitError(ExitCommandError, "connect to database", err)
	}
	defer db.Close()

	remote, auth, err := collector.NewCollector(cfg.Reddit)
	if err != nil {
		return WrapExitError(ExitCommandError, "create collector", err)
	}

	recorder := metrics.NewRecorder()
	runner := newRunner(cfg, db, remote, auth, recorder, log)

	log.Info("Starting run",
		logger.String("mode", cfg.Reddit.Mode),
		logger.Int("pages", cfg.Watch.Pages),
		logger.Duration("timeout", opts.Timeout),
	)
	_, runErr := runner.Run(ctx)

	pushMetrics(recorder, cfg.Metrics, log)

	if runErr != nil {
		return runFailure(runErr)
	}
	return nil
}

func newRunner(
	cfg *config.Config,
	db *storage.DB,
	remote domain.Collector,
	auth domain.Authenticator,
	recorder *metrics.Recorder,
	log logger.Logger,
) *watch.Runner {
	router := disposition.NewRouter(remote, disposition.Options{
		SubmitInterval:     cfg.Watch.SubmitInterval,
		TargetSubreddit:    cfg.Watch.TargetSubreddit,
		LongtailSubreddit:  cfg.Watch.LongtailSubreddit,
		LongtailRank:       cfg.Watch.LongtailRank,
		DeleteUnresolvable: cfg.Watch.DeleteUnresolvable,
	}, log)

	return watch.NewRunner(watch.Deps{
		Connect:   connectFunc(db),
		Collector: remote,
		Cache:     credential.NewCache(auth, log),
		Router:    router,
		Recorder:  recorder,
		Log:       log,
	}, watch.Options{
		Pages: cfg.Watch.Pages,
		Thresholds: disposition.Thresholds{
			MinRank: cfg.Watch.MinPostRank,
			MaxRank: cfg.Watch.MaxPostRank,
		},
		JournalPath: cfg.Watch.JournalPath,
	})
}

// connectFunc adapts the pool to the runner's session contract.
func connectFunc(db *storage.DB) watch.ConnectFunc {
	return func(ctx context.Context) (watch.Session, error) {
		s, err := db.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// pushMetrics runs on its own deadline so a cancelled run still reports.
func pushMetrics(recorder *metrics.Recorder, cfg config.MetricsConfig, log logger.Logger) {
	if cfg.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if err := recorder.Push(ctx, cfg.PushgatewayURL, cfg.Job); err != nil {
		log.Warn("Push metrics failed", logger.String("url", cfg.PushgatewayURL), logger.Error(err))
	}
}
