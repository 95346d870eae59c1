package storage_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/qepting91/frontpage-watch/internal/domain"
	"github.com/qepting91/frontpage-watch/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*storage.Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return storage.NewRepository(sqlx.NewDb(db, "postgres")), mock
}

func int64Ptr(v int64) *int64 { return &v }

func TestRepository_LoadTrackedItems(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "name", "rank"}).
		AddRow(int64(1), "t3_a", 1).
		AddRow(int64(2), "t3_b", 2)
	mock.ExpectQuery("SELECT id, name, rank FROM tracked_items").WillReturnRows(rows)

	items, err := repo.LoadTrackedItems(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.TrackedItem{
		{ID: int64Ptr(1), Name: "t3_a", Rank: 1},
		{ID: int64Ptr(2), Name: "t3_b", Rank: 2},
	}, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_LoadTrackedItems_Error(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, name, rank FROM tracked_items").WillReturnError(sql.ErrConnDone)

	_, err := repo.LoadTrackedItems(context.Background())
	require.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertItem(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tracked_items (name, rank) VALUES ($1, $2)")).
		WithArgs("t3_new", 7).
		WillReturnResult(sqlmock.NewResult(3, 1))

	err := repo.InsertItem(context.Background(), domain.TrackedItem{Name: "t3_new", Rank: 7})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateItem(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tracked_items SET rank = $1 WHERE id = $2")).
		WithArgs(4, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateItem(context.Background(), domain.TrackedItem{ID: int64Ptr(2), Name: "t3_b", Rank: 4})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_WritesNeedID(t *testing.T) {
	repo, mock := newMockRepo(t)
	item := domain.TrackedItem{Name: "t3_unsaved", Rank: 1}

	require.ErrorIs(t, repo.UpdateItem(context.Background(), item), domain.ErrNotPersisted)
	require.ErrorIs(t, repo.DeleteItem(context.Background(), item), domain.ErrNotPersisted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteItem(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tracked_items WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DeleteItem(context.Background(), domain.TrackedItem{ID: int64Ptr(5), Name: "t3_e", Rank: 5})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_LoadCredential(t *testing.T) {
	expires := time.Date(2020, 11, 3, 13, 0, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		want      *domain.CachedCredential
		wantErr   bool
	}{
		{
			name: "returns stored credential",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "expires_at", "access_token", "token_type", "scope"}).
					AddRow(1, expires, "tok", "bearer", "*")
				mock.ExpectQuery("FROM cached_credentials").WithArgs(domain.CredentialID).WillReturnRows(rows)
			},
			want: &domain.CachedCredential{ID: 1, ExpiresAt: expires, AccessToken: "tok", TokenType: "bearer", Scope: "*"},
		},
		{
			name: "returns nil when never stored",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "expires_at", "access_token", "token_type", "scope"})
				mock.ExpectQuery("FROM cached_credentials").WithArgs(domain.CredentialID).WillReturnRows(rows)
			},
		},
		{
			name: "returns error on database failure",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM cached_credentials").WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tc.setupMock(mock)

			got, err := repo.LoadCredential(context.Background())
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_CredentialWrites(t *testing.T) {
	repo, mock := newMockRepo(t)
	c := domain.CachedCredential{
		ID:          domain.CredentialID,
		ExpiresAt:   time.Date(2020, 11, 3, 13, 0, 0, 0, time.UTC),
		AccessToken: "tok",
		TokenType:   "bearer",
		Scope:       "*",
	}

	mock.ExpectExec("INSERT INTO cached_credentials").
		WithArgs(domain.CredentialID, c.ExpiresAt, "tok", "bearer", "*").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE cached_credentials").
		WithArgs(c.ExpiresAt, "tok", "bearer", "*", domain.CredentialID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.InsertCredential(context.Background(), c))
	require.NoError(t, repo.UpdateCredential(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_AcquireAndRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	pool := storage.NewDB(sqlx.NewDb(db, "postgres"))

	mock.ExpectQuery("SELECT id, name, rank FROM tracked_items").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "rank"}))

	session, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	items, err := session.LoadTrackedItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, session.Release())
	assert.NoError(t, mock.ExpectationsWereMet())
}
