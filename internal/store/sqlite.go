package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/recruit-inbox/internal/model"
	"github.com/nhle/recruit-inbox/internal/portal"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// UpsertAccount inserts or replaces an account. A missing ID is generated
// and a missing portal is derived from the base URL host. The stored
// account is returned.
func (s *SQLiteStore) UpsertAccount(
	ctx context.Context,
	acct model.Account,
) (model.Account, error) {
	acct.BaseURL = strings.TrimRight(strings.TrimSpace(acct.BaseURL), "/")
	if acct.BaseURL == "" {
		return model.Account{}, fmt.Errorf("upserting account: base URL is required")
	}
	if acct.ID == "" {
		acct.ID = uuid.New().String()
	}
	if acct.Name == "" {
		acct.Name = acct.BaseURL
	}
	if acct.Portal == "" {
		acct.Portal = string(portal.FromURL(acct.BaseURL))
	} else {
		p, err := portal.Parse(acct.Portal)
		if err != nil {
			return model.Account{}, fmt.Errorf("upserting account %s: %w", acct.ID, err)
		}
		acct.Portal = string(p)
	}

	now := time.Now().UTC()
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = now
	}
	acct.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, base_url, portal, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			base_url = excluded.base_url,
			portal = excluded.portal,
			updated_at = excluded.updated_at`,
		acct.ID, acct.Name, acct.BaseURL, acct.Portal,
		acct.CreatedAt.UTC(), acct.UpdatedAt,
	)
	if err != nil {
		return model.Account{}, fmt.Errorf("upserting account %s: %w", acct.ID, err)
	}

	return acct, nil
}

// GetAccounts retrieves all saved accounts ordered by name.
func (s *SQLiteStore) GetAccounts(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := s.db.SelectContext(ctx, &accounts, `
		SELECT id, name, base_url, portal, created_at, updated_at
		FROM accounts ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	return accounts, nil
}

// GetAccount retrieves a single account by ID.
func (s *SQLiteStore) GetAccount(
	ctx context.Context,
	id string,
) (*model.Account, error) {
	var acct model.Account
	err := s.db.GetContext(ctx, &acct, `
		SELECT id, name, base_url, portal, created_at, updated_at
		FROM accounts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting account %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting account %s: %w", id, err)
	}
	return &acct, nil
}

// DeleteAccount removes an account and its sync history.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sync_runs WHERE account_id = ?", id); err != nil {
		return fmt.Errorf("deleting sync runs for %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting account %s: %w", id, err)
	}

	return tx.Commit()
}

// RecordSync stores the outcome of one notification refresh.
func (s *SQLiteStore) RecordSync(ctx context.Context, run model.SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (
			id, account_id, started_at, finished_at,
			item_count, unread_count, error
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.AccountID, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.ItemCount, run.UnreadCount, run.Error,
	)
	if err != nil {
		return fmt.Errorf("recording sync run: %w", err)
	}
	return nil
}

// GetSyncRuns returns the most recent sync runs for an account, newest
// first. A non-positive limit defaults to 50.
func (s *SQLiteStore) GetSyncRuns(
	ctx context.Context,
	accountID string,
	limit int,
) ([]model.SyncRun, error) {
	if limit <= 0 {
		limit = 50
	}

	var runs []model.SyncRun
	err := s.db.SelectContext(ctx, &runs, `
		SELECT id, account_id, started_at, finished_at,
			item_count, unread_count, error
		FROM sync_runs
		WHERE account_id = ?
		ORDER BY started_at DESC
		LIMIT ?`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs: %w", err)
	}
	return runs, nil
}

// PruneSyncRuns keeps only the newest keep runs for an account and returns
// how many were deleted.
func (s *SQLiteStore) PruneSyncRuns(
	ctx context.Context,
	accountID string,
	keep int,
) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM sync_runs
		WHERE account_id = ? AND id NOT IN (
			SELECT id FROM sync_runs
			WHERE account_id = ?
			ORDER BY started_at DESC
			LIMIT ?
		)`, accountID, accountID, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning sync runs: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning sync runs: %w", err)
	}
	return n, nil
}
