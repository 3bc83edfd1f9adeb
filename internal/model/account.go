package model

import "time"

// Account is a saved backend profile. The session cookie for an account
// is kept in the system keyring, never alongside these fields.
type Account struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	BaseURL   string    `json:"base_url" db:"base_url"`
	Portal    string    `json:"portal" db:"portal"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SyncRun records the outcome of one notification refresh.
type SyncRun struct {
	ID          string    `db:"id"`
	AccountID   string    `db:"account_id"`
	StartedAt   time.Time `db:"started_at"`
	FinishedAt  time.Time `db:"finished_at"`
	ItemCount   int       `db:"item_count"`
	UnreadCount int       `db:"unread_count"`
	Error       string    `db:"error"`
}

// Failed reports whether the refresh ended in an error.
func (r SyncRun) Failed() bool {
	return r.Error != ""
}
