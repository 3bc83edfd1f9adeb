package history

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/recruit-inbox/internal/keys"
	"github.com/nhle/recruit-inbox/internal/model"
	"github.com/nhle/recruit-inbox/tests/testutil"
)

func TestShowsRecordedRuns(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordSync(ctx, model.SyncRun{
		AccountID: "acct", StartedAt: start, FinishedAt: start.Add(120 * time.Millisecond),
		ItemCount: 12, UnreadCount: 4,
	}))
	require.NoError(t, s.RecordSync(ctx, model.SyncRun{
		AccountID: "acct", StartedAt: start.Add(time.Minute), FinishedAt: start.Add(time.Minute),
		Error: "status 503",
	}))

	m := New(s, keys.DefaultKeyMap(), 100, 30)
	m, _ = m.Update(m.Load("acct")())

	out := m.View()
	assert.Contains(t, out, "12 items, 4 unread")
	assert.Contains(t, out, "status 503")
}

func TestEmptyHistory(t *testing.T) {
	m := New(testutil.NewTestStore(t), keys.DefaultKeyMap(), 100, 30)
	m, _ = m.Update(m.Load("nobody")())
	assert.Contains(t, m.View(), "No refreshes recorded yet.")
}

func TestEscCloses(t *testing.T) {
	m := New(testutil.NewTestStore(t), keys.DefaultKeyMap(), 100, 30)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CloseMsg{}, cmd())
}
