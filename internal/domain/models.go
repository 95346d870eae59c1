package domain

import (
	"context"
	"time"
)

// CredentialID is the fixed key of the single cached credential row.
const CredentialID = 1

// CategoryDeleted is the removal category Reddit reports for self-deleted posts.
const CategoryDeleted = "deleted"

// TrackedItem is a post we have seen on the feed and persisted
type TrackedItem struct {
	ID   *int64 `db:"id"   json:"id,omitempty"`
	Name string `db:"name" json:"name"`
	Rank int    `db:"rank" json:"rank"`
}

// CachedCredential is the persisted bearer token used for every API call.
type CachedCredential struct {
	ID          int       `db:"id"`
	ExpiresAt   time.Time `db:"expires_at"`
	AccessToken string    `db:"access_token"`
	TokenType   string    `db:"token_type"`
	Scope       string    `db:"scope"`
}

// Usable reports whether the credential is still valid at now.
func (c CachedCredential) Usable(now time.Time) bool {
	return c.ExpiresAt.After(now)
}

// RemoteItem is one post as returned by a listing or info call
type RemoteItem struct {
	Name                  string  `json:"name"`
	RemovalCategory       *string `json:"removed_by_category"`
	Ups                   int     `json:"ups"`
	NumComments           int     `json:"num_comments"`
	Title                 string  `json:"title"`
	SubredditNamePrefixed string  `json:"subreddit_name_prefixed"`
	Permalink             string  `json:"permalink"`
}

// RemoteFeedPage is one page of the ranked feed. An empty After marks the end of the feed.
type RemoteFeedPage struct {
	Items []RemoteItem
	After string
}

// DiffResult partitions a fresh feed against the persisted snapshot.
type DiffResult struct {
	New     []TrackedItem
	Updated []TrackedItem
	Removed []TrackedItem
}

// RemovalInfo pairs a vanished item with the metadata the info endpoint returned for it.
type RemovalInfo struct {
	Item   TrackedItem
	Remote RemoteItem
}

// RemovalLookup is the result of looking up every removed item.
// Missing holds the items the info endpoint did not return at all.
type RemovalLookup struct {
	Found   []RemovalInfo
	Missing []TrackedItem
}

// Grant is a successful password-grant response
type Grant struct {
	AccessToken string
	TokenType   string
	Scope       string
	ExpiresIn   time.Duration
}

// Submission is a link post sent to a destination subreddit.
type Submission struct {
	Subreddit string
	Title     string
	URL       string
}

// Collector defines the interface for talking to the feed API
type Collector interface {
	// FetchPage fetches one page of the feed starting after the given cursor ("" for the first page).
	FetchPage(ctx context.Context, token CachedCredential, after string) (RemoteFeedPage, error)
	// FetchInfo fetches current metadata for the given fullnames.
	FetchInfo(ctx context.Context, token CachedCredential, names []string) ([]RemoteItem, error)
	// Submit posts a link submission.
	Submit(ctx context.Context, token CachedCredential, s Submission) error
}

// Authenticator performs the password grant against the auth endpoint
type Authenticator interface {
	PasswordGrant(ctx context.Context) (Grant, error)
}

// Store is the persistence boundary for a single run.
type Store interface {
	LoadTrackedItems(ctx context.Context) ([]TrackedItem, error)
	InsertItem(ctx context.Context, item TrackedItem) error
	UpdateItem(ctx context.Context, item TrackedItem) error
	DeleteItem(ctx context.Context, item TrackedItem) error

	LoadCredential(ctx context.Context) (*CachedCredential, error)
	InsertCredential(ctx context.Context, c CachedCredential) error
	UpdateCredential(ctx context.Context, c CachedCredential) error
}

// Disposition actions recorded in the journal.
const (
	ActionDeleted      = "deleted"
	ActionKept         = "kept"
	ActionSubmitted    = "submitted"
	ActionSubmitFailed = "submit_failed"
	ActionDeleteFailed = "delete_failed"
)

// Disposition is one journal line describing what happened to a removed item.
type Disposition struct {
	At        time.Time `json:"at"`
	Name      string    `json:"name"`
	Rank      int       `json:"rank"`
	Class     string    `json:"class"`
	Action    string    `json:"action"`
	Subreddit string    `json:"subreddit,omitempty"`
	Error     string    `json:"error,omitempty"`
}
