// Package config loads frontpage-watch settings from YAML, .env files and the environment.
package config

import (
	"fmt"
	"math"
	"time"
)

// Collector modes.
const (
	ModeAPI  = "api"
	ModeMock = "mock"
)

// Default configuration values.
const (
	defaultUserAgent       = "frontpage-watch/2.0 (by /u/frontpagewatch)"
	defaultBaseURL         = "https://oauth.reddit.com"
	defaultTokenURL        = "https://www.reddit.com/api/v1/access_token"
	defaultFeedPath        = "/r/all/hot"
	defaultPageSize        = 100
	defaultRequestInterval = time.Second
	defaultHTTPTimeout     = 30 * time.Second

	defaultPages             = 1
	defaultSubmitInterval    = 2 * time.Second
	defaultTargetSubreddit   = "FrontpageWatch2020"
	defaultLongtailSubreddit = "FrontpageWatchTail"
	defaultLongtailRank      = 100

	defaultDBHost    = "localhost"
	defaultDBPort    = 5432
	defaultDBUser    = "postgres"
	defaultDBName    = "frontpagewatch"
	defaultDBSSLMode = "disable"

	defaultLogLevel = "info"
	defaultJobName  = "frontpagewatch"
)

// Config holds the application configuration.
type Config struct {
	Reddit   RedditConfig   `yaml:"reddit"`
	Watch    WatchConfig    `yaml:"watch"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// RedditConfig holds API credentials and endpoints.
type RedditConfig struct {
	Mode            string        `env:"COLLECTOR_MODE"       yaml:"mode"`
	Username        string        `env:"REDDIT_USERNAME"      yaml:"username"`
	Password        string        `env:"REDDIT_PASSWORD"      yaml:"password"`
	ClientID        string        `env:"REDDIT_CLIENT_ID"     yaml:"client_id"`
	ClientSecret    string        `env:"REDDIT_CLIENT_SECRET" yaml:"client_secret"`
	UserAgent       string        `env:"REDDIT_USER_AGENT"    yaml:"user_agent"`
	BaseURL         string        `env:"REDDIT_BASE_URL"      yaml:"base_url"`
	TokenURL        string        `env:"REDDIT_TOKEN_URL"     yaml:"token_url"`
	FeedPath        string        `env:"REDDIT_FEED_PATH"     yaml:"feed_path"`
	PageSize        int           `yaml:"page_size"`
	RequestInterval time.Duration `yaml:"request_interval"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`
}

// WatchConfig holds the reconciliation and disposition settings.
type WatchConfig struct {
	Pages              int           `env:"WATCH_PAGES"               yaml:"pages"`
	MinPostRank        int           `env:"WATCH_MIN_POST_RANK"       yaml:"min_post_rank"`
	MaxPostRank        int           `env:"WATCH_MAX_POST_RANK"       yaml:"max_post_rank"`
	DeleteUnresolvable bool          `env:"WATCH_DELETE_UNRESOLVABLE" yaml:"delete_unresolvable"`
	SubmitInterval     time.Duration `env:"WATCH_SUBMIT_INTERVAL"     yaml:"submit_interval"`
	TargetSubreddit    string        `env:"WATCH_TARGET_SUBREDDIT"    yaml:"target_subreddit"`
	LongtailSubreddit  string        `env:"WATCH_LONGTAIL_SUBREDDIT"  yaml:"longtail_subreddit"`
	LongtailRank       int           `yaml:"longtail_rank"`
	JournalPath        string        `env:"WATCH_JOURNAL_PATH"        yaml:"journal_path"`
}

// DatabaseConfig holds PostgreSQL configuration. URL wins over the individual fields.
type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL"      yaml:"url"`
	Host     string `env:"DATABASE_HOST"     yaml:"host"`
	Port     int    `env:"DATABASE_PORT"     yaml:"port"`
	User     string `env:"DATABASE_USER"     yaml:"user"`
	Password string `env:"DATABASE_PASSWORD" yaml:"password"`
	Database string `env:"DATABASE_NAME"     yaml:"database"`
	SSLMode  string `env:"DATABASE_SSLMODE"  yaml:"sslmode"`
}

// DSN returns the lib/pq connection string.
func (d *DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// MigrateURL returns the URL form golang-migrate expects.
func (d *DatabaseConfig) MigrateURL() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" yaml:"level"`
	Debug bool   `env:"APP_DEBUG" yaml:"debug"`
}

// MetricsConfig configures the Prometheus pushgateway. Empty URL disables pushing.
type MetricsConfig struct {
	PushgatewayURL string `env:"PUSHGATEWAY_URL" yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return loadFile[Config](path, setPresets, setDefaults)
}

// setPresets seeds defaults for fields where zero is meaningful.
func setPresets(cfg *Config) {
	cfg.Watch.SubmitInterval = defaultSubmitInterval
}

func setDefaults(cfg *Config) {
	setRedditDefaults(&cfg.Reddit)
	setWatchDefaults(&cfg.Watch)
	setDatabaseDefaults(&cfg.Database)
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = defaultJobName
	}
}

func setRedditDefaults(r *RedditConfig) {
	if r.Mode == "" {
		r.Mode = ModeAPI
	}
	if r.UserAgent == "" {
		r.UserAgent = defaultUserAgent
	}
	if r.BaseURL == "" {
		r.BaseURL = defaultBaseURL
	}
	if r.TokenURL == "" {
		r.TokenURL = defaultTokenURL
	}
	if r.FeedPath == "" {
		r.FeedPath = defaultFeedPath
	}
	if r.PageSize == 0 {
		r.PageSize = defaultPageSize
	}
	if r.RequestInterval == 0 {
		r.RequestInterval = defaultRequestInterval
	}
	if r.HTTPTimeout == 0 {
		r.HTTPTimeout = defaultHTTPTimeout
	}
}

// setWatchDefaults fills zero values. A zero MaxPostRank means unbounded.
func setWatchDefaults(w *WatchConfig) {
	if w.Pages == 0 {
		w.Pages = defaultPages
	}
	if w.MaxPostRank == 0 {
		w.MaxPostRank = math.MaxInt
	}
	if w.TargetSubreddit == "" {
		w.TargetSubreddit = defaultTargetSubreddit
	}
	if w.LongtailSubreddit == "" {
		w.LongtailSubreddit = defaultLongtailSubreddit
	}
	if w.LongtailRank == 0 {
		w.LongtailRank = defaultLongtailRank
	}
}

func setDatabaseDefaults(db *DatabaseConfig) {
	if db.Host == "" {
		db.Host = defaultDBHost
	}
	if db.Port == 0 {
		db.Port = defaultDBPort
	}
	if db.User == "" {
		db.User = defaultDBUser
	}
	if db.Database == "" {
		db.Database = defaultDBName
	}
	if db.SSLMode == "" {
		db.SSLMode = defaultDBSSLMode
	}
}

// Validate checks the settings a query run cannot work without.
func (c *Config) Validate() error {
	switch c.Reddit.Mode {
	case ModeAPI:
		required := []struct{ field, value string }{
			{"reddit.username", c.Reddit.Username},
			{"reddit.password", c.Reddit.Password},
			{"reddit.client_id", c.Reddit.ClientID},
			{"reddit.client_secret", c.Reddit.ClientSecret},
		}
		for _, r := range required {
			if err := ValidateRequired(r.field, r.value); err != nil {
				return err
			}
		}
	case ModeMock:
	default:
		return &ValidationError{Field: "reddit.mode", Message: fmt.Sprintf("unknown mode %q (use 'api' or 'mock')", c.Reddit.Mode)}
	}

	if c.Reddit.PageSize < 1 || c.Reddit.PageSize > 100 {
		return &ValidationError{Field: "reddit.page_size", Message: "must be between 1 and 100"}
	}
	if c.Watch.Pages < 1 {
		return &ValidationError{Field: "watch.pages", Message: "must be at least 1"}
	}
	if c.Watch.MinPostRank < 0 {
		return &ValidationError{Field: "watch.min_post_rank", Message: "must not be negative"}
	}
	if c.Watch.MaxPostRank < c.Watch.MinPostRank {
		return &ValidationError{Field: "watch.max_post_rank", Message: "must not be below min_post_rank"}
	}
	if err := ValidateSubreddit("watch.target_subreddit", c.Watch.TargetSubreddit); err != nil {
		return err
	}
	if err := ValidateSubreddit("watch.longtail_subreddit", c.Watch.LongtailSubreddit); err != nil {
		return err
	}
	if c.Watch.SubmitInterval < 0 {
		return &ValidationError{Field: "watch.submit_interval", Message: "must not be negative"}
	}
	return nil
}
