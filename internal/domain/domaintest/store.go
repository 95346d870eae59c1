// Package domaintest provides in-memory doubles of the domain interfaces for tests.
package domaintest

import (
	"context"
	"errors"
	"sync"

	"github.com/qepting91/frontpage-watch/internal/domain"
)

// ErrInjected is returned by doubles configured to fail.
var ErrInjected = errors.New("injected failure")

// Store is an in-memory domain.Store that records every write.
// Setting a Fail* field makes the matching call return ErrInjected.
type Store struct {
	mu sync.Mutex

	Items      []domain.TrackedItem
	Credential *domain.CachedCredential

	Inserted          []domain.TrackedItem
	Updated           []domain.TrackedItem
	Deleted           []domain.TrackedItem
	CredentialInserts int
	CredentialUpdates int

	FailLoadItems       bool
	FailLoadCredential  bool
	FailInsertItem      bool
	FailUpdateItem      bool
	FailCredentialWrite bool

	// FailDelete names the items whose delete fails.
	FailDelete map[string]bool

	// nextID numbers inserted items from 1001 so they never clash with seeded IDs.
	nextID int64
}

var _ domain.Store = (*Store)(nil)

func (s *Store) LoadTrackedItems(context.Context) ([]domain.TrackedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailLoadItems {
		return nil, ErrInjected
	}
	return append([]domain.TrackedItem(nil), s.Items...), nil
}

func (s *Store) InsertItem(_ context.Context, item domain.TrackedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailInsertItem {
		return ErrInjected
	}
	s.nextID++
	id := 1000 + s.nextID
	item.ID = &id
	s.Inserted = append(s.Inserted, item)
	s.Items = append(s.Items, item)
	return nil
}

func (s *Store) UpdateItem(_ context.Context, item domain.TrackedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpdateItem {
		return ErrInjected
	}
	if item.ID == nil {
		return domain.ErrNotPersisted
	}
	s.Updated = append(s.Updated, item)
	for i := range s.Items {
		if s.Items[i].ID != nil && *s.Items[i].ID == *item.ID {
			s.Items[i].Rank = item.Rank
		}
	}
	return nil
}

func (s *Store) DeleteItem(_ context.Context, item domain.TrackedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete[item.Name] {
		return ErrInjected
	}
	if item.ID == nil {
		return domain.ErrNotPersisted
	}
	s.Deleted = append(s.Deleted, item)
	kept := s.Items[:0]
	for _, it := range s.Items {
		if it.ID == nil || *it.ID != *item.ID {
			kept = append(kept, it)
		}
	}
	s.Items = kept
	return nil
}

func (s *Store) LoadCredential(context.Context) (*domain.CachedCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailLoadCredential {
		return nil, ErrInjected
	}
	if s.Credential == nil {
		return nil, nil
	}
	c := *s.Credential
	return &c, nil
}

func (s *Store) InsertCredential(_ context.Context, c domain.CachedCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCredentialWrite {
		return ErrInjected
	}
	s.CredentialInserts++
	s.Credential = &c
	return nil
}

func (s *Store) UpdateCredential(_ context.Context, c domain.CachedCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCredentialWrite {
		return ErrInjected
	}
	s.CredentialUpdates++
	s.Credential = &c
	return nil
}

// DeletedNames returns the names of deleted items in delete order.
func (s *Store) DeletedNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.Deleted))
	for i, it := range s.Deleted {
		names[i] = it.Name
	}
	return names
}
