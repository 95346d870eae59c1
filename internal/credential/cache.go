// Package credential keeps the single cached bearer token fresh.
package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/qepting91/frontpage-watch/internal/domain"
	"github.com/qepting91/frontpage-watch/internal/logger"
)

// Cache hands out a usable credential, refreshing it through the password
// grant when the persisted one is missing or expired.
type Cache struct {
	auth domain.Authenticator
	log  logger.Logger
}

func NewCache(auth domain.Authenticator, log logger.Logger) *Cache {
	return &Cache{auth: auth, log: log}
}

// EnsureToken returns persisted unchanged while it is usable at now.
// Otherwise it runs one password grant and writes the new credential to
// store exactly once: an insert when nothing was persisted, an update
// otherwise. The bool reports whether a refresh happened.
func (c *Cache) EnsureToken(ctx context.Context, store domain.Store, now time.Time, persisted *domain.CachedCredential) (domain.CachedCredential, bool, error) {
	if persisted != nil && persisted.Usable(now) {
		c.log.Debug("Using cached credential", logger.Time("expires_at", persisted.ExpiresAt))
		return *persisted, false, nil
	}

	grant, err := c.auth.PasswordGrant(ctx)
	if err != nil {
		return domain.CachedCredential{}, false, fmt.Errorf("password grant: %w", err)
	}

	fresh := domain.CachedCredential{
		ID:          domain.CredentialID,
		ExpiresAt:   now.Add(grant.ExpiresIn),
		AccessToken: grant.AccessToken,
		TokenType:   grant.TokenType,
		Scope:       grant.Scope,
	}

	if persisted == nil {
		err = store.InsertCredential(ctx, fresh)
	} else {
		err = store.UpdateCredential(ctx, fresh)
	}
	if err != nil {
		return domain.CachedCredential{}, false, fmt.Errorf("persist credential: %w", err)
	}

	c.log.Info("Refreshed credential",
		logger.Time("expires_at", fresh.ExpiresAt),
		logger.Bool("first", persisted == nil),
	)
	return fresh, true, nil
}
