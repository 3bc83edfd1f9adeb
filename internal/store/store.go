package store

import (
	"context"
	"errors"

	"github.com/nhle/recruit-inbox/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store defines the local persistence interface. Notifications are never
// stored; they live only in the controller's memory.
type Store interface {
	// === Accounts ===

	UpsertAccount(ctx context.Context, acct model.Account) (model.Account, error)
	GetAccounts(ctx context.Context) ([]model.Account, error)
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	DeleteAccount(ctx context.Context, id string) error

	// === Sync history ===

	RecordSync(ctx context.Context, run model.SyncRun) error
	GetSyncRuns(ctx context.Context, accountID string, limit int) ([]model.SyncRun, error)
	PruneSyncRuns(ctx context.Context, accountID string, keep int) (int64, error)

	Close() error
}
