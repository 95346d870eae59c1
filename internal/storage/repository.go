package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qepting91/frontpage-watch/internal/domain"
)

// execer is the part of sqlx shared by *sqlx.DB and *sqlx.Conn.
type execer interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Repository implements domain.Store.
type Repository struct {
	db execer
}

var _ domain.Store = (*Repository)(nil)

func NewRepository(db execer) *Repository {
	return &Repository{db: db}
}

// LoadTrackedItems returns the whole snapshot ordered by rank.
func (r *Repository) LoadTrackedItems(ctx context.Context) ([]domain.TrackedItem, error) {
	var items []domain.TrackedItem
	query := `SELECT id, name, rank FROM tracked_items ORDER BY rank, id`

	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("load tracked items: %w", err)
	}
	return items, nil
}

func (r *Repository) InsertItem(ctx context.Context, item domain.TrackedItem) error {
	query := `INSERT INTO tracked_items (name, rank) VALUES ($1, $2)`

	if _, err := r.db.ExecContext(ctx, query, item.Name, item.Rank); err != nil {
		return fmt.Errorf("insert item %s: %w", item.Name, err)
	}
	return nil
}

func (r *Repository) UpdateItem(ctx context.Context, item domain.TrackedItem) error {
	if item.ID == nil {
		return fmt.Errorf("update item %s: %w", item.Name, domain.ErrNotPersisted)
	}
	query := `UPDATE tracked_items SET rank = $1 WHERE id = $2`

	if _, err := r.db.ExecContext(ctx, query, item.Rank, *item.ID); err != nil {
		return fmt.Errorf("update item %s: %w", item.Name, err)
	}
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, item domain.TrackedItem) error {
	if item.ID == nil {
		return fmt.Errorf("delete item %s: %w", item.Name, domain.ErrNotPersisted)
	}
	query := `DELETE FROM tracked_items WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, *item.ID); err != nil {
		return fmt.Errorf("delete item %s: %w", item.Name, err)
	}
	return nil
}

// LoadCredential returns the cached credential, or nil when none was ever stored.
func (r *Repository) LoadCredential(ctx context.Context) (*domain.CachedCredential, error) {
	var c domain.CachedCredential
	query := `
		SELECT id, expires_at, access_token, token_type, scope
		FROM cached_credentials
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &c, query, domain.CredentialID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	return &c, nil
}

func (r *Repository) InsertCredential(ctx context.Context, c domain.CachedCredential) error {
	query := `
		INSERT INTO cached_credentials (id, expires_at, access_token, token_type, scope)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := r.db.ExecContext(ctx, query, domain.CredentialID, c.ExpiresAt, c.AccessToken, c.TokenType, c.Scope); err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *Repository) UpdateCredential(ctx context.Context, c domain.CachedCredential) error {
	query := `
		UPDATE cached_credentials
		SET expires_at = $1, access_token = $2, token_type = $3, scope = $4
		WHERE id = $5
	`

	if _, err := r.db.ExecContext(ctx, query, c.ExpiresAt, c.AccessToken, c.TokenType, c.Scope, domain.CredentialID); err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	return nil
}
