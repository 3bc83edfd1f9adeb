package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/recruit-inbox/internal/model"
	"github.com/nhle/recruit-inbox/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations
// applied. The store is closed when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err, "creating test store")

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedAccount saves an account pointing at baseURL and returns it with
// its generated ID.
func SeedAccount(t *testing.T, s store.Store, name, baseURL string) model.Account {
	t.Helper()

	acct, err := s.UpsertAccount(context.Background(), model.Account{
		Name:    name,
		BaseURL: baseURL,
	})
	require.NoError(t, err, "seeding account %s", name)
	return acct
}
