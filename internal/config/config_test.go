package config_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/qepting91/frontpage-watch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV_FILE", "COLLECTOR_MODE", "REDDIT_USERNAME", "REDDIT_PASSWORD", "REDDIT_CLIENT_ID",
		"REDDIT_CLIENT_SECRET", "REDDIT_USER_AGENT", "REDDIT_BASE_URL", "REDDIT_TOKEN_URL",
		"REDDIT_FEED_PATH", "WATCH_PAGES", "WATCH_MIN_POST_RANK", "WATCH_MAX_POST_RANK",
		"WATCH_DELETE_UNRESOLVABLE", "WATCH_SUBMIT_INTERVAL", "WATCH_TARGET_SUBREDDIT", "WATCH_LONGTAIL_SUBREDDIT",
		"WATCH_JOURNAL_PATH", "DATABASE_URL", "DATABASE_HOST", "DATABASE_PORT", "DATABASE_USER",
		"DATABASE_PASSWORD", "DATABASE_NAME", "DATABASE_SSLMODE", "LOG_LEVEL", "APP_DEBUG",
		"PUSHGATEWAY_URL",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, config.ModeAPI, cfg.Reddit.Mode)
	assert.Equal(t, "https://oauth.reddit.com", cfg.Reddit.BaseURL)
	assert.Equal(t, "/r/all/hot", cfg.Reddit.FeedPath)
	assert.Equal(t, 100, cfg.Reddit.PageSize)
	assert.Equal(t, time.Second, cfg.Reddit.RequestInterval)

	assert.Equal(t, 1, cfg.Watch.Pages)
	assert.Zero(t, cfg.Watch.MinPostRank)
	assert.Equal(t, math.MaxInt, cfg.Watch.MaxPostRank)
	assert.False(t, cfg.Watch.DeleteUnresolvable)
	assert.Equal(t, 2*time.Second, cfg.Watch.SubmitInterval)
	assert.Equal(t, "FrontpageWatch2020", cfg.Watch.TargetSubreddit)
	assert.Equal(t, 100, cfg.Watch.LongtailRank)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "frontpagewatch", cfg.Metrics.Job)
	assert.Empty(t, cfg.Metrics.PushgatewayURL)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
reddit:
  username: alice
  password: hunter2
  client_id: id
  client_secret: secret
  request_interval: 500ms
watch:
  pages: 3
  min_post_rank: 1
  max_post_rank: 250
  delete_unresolvable: true
  submit_interval: 5s
  journal_path: /var/log/frontpagewatch.ndjson
database:
  host: db
  port: 5433
metrics:
  pushgateway_url: http://pushgateway:9091
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Reddit.Username)
	assert.Equal(t, 500*time.Millisecond, cfg.Reddit.RequestInterval)
	assert.Equal(t, 3, cfg.Watch.Pages)
	assert.Equal(t, 1, cfg.Watch.MinPostRank)
	assert.Equal(t, 250, cfg.Watch.MaxPostRank)
	assert.True(t, cfg.Watch.DeleteUnresolvable)
	assert.Equal(t, 5*time.Second, cfg.Watch.SubmitInterval)
	assert.Equal(t, "/var/log/frontpagewatch.ndjson", cfg.Watch.JournalPath)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "http://pushgateway:9091", cfg.Metrics.PushgatewayURL)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDDIT_USERNAME", "from-env")
	t.Setenv("WATCH_PAGES", "4")
	t.Setenv("WATCH_DELETE_UNRESOLVABLE", "yes")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/frontpagewatch")
	path := writeFile(t, "reddit:\n  username: from-file\nwatch:\n  pages: 2\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Reddit.Username)
	assert.Equal(t, 4, cfg.Watch.Pages)
	assert.True(t, cfg.Watch.DeleteUnresolvable)
	assert.Equal(t, "postgres://u:p@db/frontpagewatch", cfg.Database.DSN())
	assert.Equal(t, "postgres://u:p@db/frontpagewatch", cfg.Database.MigrateURL())
}

func TestLoad_ZeroSubmitInterval(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "watch:\n  submit_interval: 0s\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.Watch.SubmitInterval, "an explicit zero must not be replaced by the default")
	require.NoError(t, withCredentials(cfg).Validate())

	clearEnv(t)
	t.Setenv("WATCH_SUBMIT_INTERVAL", "0s")
	cfg, err = config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Watch.SubmitInterval)

	clearEnv(t)
	path = writeFile(t, "watch:\n  pages: 2\n")
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Watch.SubmitInterval)
}

func withCredentials(cfg *config.Config) *config.Config {
	cfg.Reddit.Username = "alice"
	cfg.Reddit.Password = "pw"
	cfg.Reddit.ClientID = "id"
	cfg.Reddit.ClientSecret = "secret"
	return cfg
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	envPath := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("REDDIT_CLIENT_ID=from-dotenv\n"), 0o600))
	t.Setenv("ENV_FILE", envPath)
	// godotenv only fills unset variables.
	require.NoError(t, os.Unsetenv("REDDIT_CLIENT_ID"))

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Reddit.ClientID)
}

func TestLoad_MalformedYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "watch: [unclosed\n")

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := config.DatabaseConfig{
		Host: "localhost", Port: 5432, User: "postgres", Password: "pw", Database: "frontpagewatch", SSLMode: "disable",
	}
	assert.Equal(t, "host=localhost port=5432 user=postgres password=pw dbname=frontpagewatch sslmode=disable", db.DSN())
	assert.Equal(t, "postgres://postgres:pw@localhost:5432/frontpagewatch?sslmode=disable", db.MigrateURL())
}

func validConfig() config.Config {
	return config.Config{
		Reddit: config.RedditConfig{
			Mode: config.ModeAPI, Username: "alice", Password: "pw", ClientID: "id", ClientSecret: "secret", PageSize: 100,
		},
		Watch: config.WatchConfig{
			Pages: 1, MaxPostRank: math.MaxInt, SubmitInterval: time.Second,
			TargetSubreddit: "FrontpageWatch2020", LongtailSubreddit: "FrontpageWatchTail",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *config.Config)
		wantField string
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "mock mode needs no credentials", mutate: func(c *config.Config) {
			c.Reddit = config.RedditConfig{Mode: config.ModeMock, PageSize: 100}
		}},
		{name: "missing username", mutate: func(c *config.Config) { c.Reddit.Username = "" }, wantField: "reddit.username"},
		{name: "missing secret", mutate: func(c *config.Config) { c.Reddit.ClientSecret = "" }, wantField: "reddit.client_secret"},
		{name: "unknown mode", mutate: func(c *config.Config) { c.Reddit.Mode = "public" }, wantField: "reddit.mode"},
		{name: "page size too large", mutate: func(c *config.Config) { c.Reddit.PageSize = 101 }, wantField: "reddit.page_size"},
		{name: "zero pages", mutate: func(c *config.Config) { c.Watch.Pages = 0 }, wantField: "watch.pages"},
		{name: "negative min rank", mutate: func(c *config.Config) { c.Watch.MinPostRank = -1 }, wantField: "watch.min_post_rank"},
		{name: "max below min", mutate: func(c *config.Config) {
			c.Watch.MinPostRank = 10
			c.Watch.MaxPostRank = 5
		}, wantField: "watch.max_post_rank"},
		{name: "prefixed target", mutate: func(c *config.Config) { c.Watch.TargetSubreddit = "r/news" }, wantField: "watch.target_subreddit"},
		{name: "long longtail", mutate: func(c *config.Config) {
			c.Watch.LongtailSubreddit = "ThisNameIsMuchTooLongForReddit"
		}, wantField: "watch.longtail_subreddit"},
		{name: "negative interval", mutate: func(c *config.Config) { c.Watch.SubmitInterval = -time.Second }, wantField: "watch.submit_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var verr *config.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "config.yml", config.GetConfigPath("config.yml"))

	t.Setenv("CONFIG_PATH", "/etc/frontpagewatch.yml")
	assert.Equal(t, "/etc/frontpagewatch.yml", config.GetConfigPath("config.yml"))
}
