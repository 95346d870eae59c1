package collector

import (
	"fmt"

	"github.com/qepting91/frontpage-watch/internal/config"
	"github.com/qepting91/frontpage-watch/internal/domain"
)

// NewCollector selects the correct implementation based on the mode.
func NewCollector(cfg config.RedditConfig) (domain.Collector, domain.Authenticator, error) {
	switch cfg.Mode {
	case config.ModeAPI:
		client := NewRedditClient(Options{
			BaseURL:         cfg.BaseURL,
			FeedPath:        cfg.FeedPath,
			UserAgent:       cfg.UserAgent,
			PageSize:        cfg.PageSize,
			RequestInterval: cfg.RequestInterval,
			Timeout:         cfg.HTTPTimeout,
		})
		auth := NewPasswordAuthenticator(AuthOptions{
			TokenURL:     cfg.TokenURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Username:     cfg.Username,
			Password:     cfg.Password,
			UserAgent:    cfg.UserAgent,
			Timeout:      cfg.HTTPTimeout,
		})
		return client, auth, nil
	case config.ModeMock:
		return NewMockClient(), MockAuthenticator{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'api' or 'mock')", cfg.Mode)
	}
}
