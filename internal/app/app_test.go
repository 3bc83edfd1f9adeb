package app

import (
	"context"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nhle/recruit-inbox/internal/credential"
	"github.com/nhle/recruit-inbox/internal/model"
	"github.com/nhle/recruit-inbox/internal/notify"
	"github.com/nhle/recruit-inbox/internal/store"
	"github.com/nhle/recruit-inbox/tests/testutil"
)

type fixture struct {
	model   Model
	backend *testutil.FakeBackend
	store   *store.SQLiteStore
	creds   *credential.Store
	account model.Account
}

func newFixture(t *testing.T, withAccount bool) *fixture {
	t.Helper()

	cfg, err := model.LoadConfig(t.TempDir() + "/absent.yaml")
	require.NoError(t, err)

	f := &fixture{
		backend: testutil.NewFakeBackend(t, cfg.Backend.CookieName, "cookie-1"),
		store:   testutil.NewTestStore(t),
		creds:   credential.NewStore(keyring.NewArrayKeyring(nil)),
	}
	f.backend.SetItems([]model.Notification{
		{ID: "n1", Title: "Interview scheduled"},
		{ID: "n2", Title: "Offer received", Link: "offers/n2.pdf"},
		{ID: "n3", Title: "Application viewed", IsRead: true},
	})

	if withAccount {
		f.account = testutil.SeedAccount(t, f.store, "Campus", f.backend.URL)
		require.NoError(t, f.creds.Set(credential.SessionKey(f.account.ID), "cookie-1"))
	}

	f.model = New(Deps{
		Config:      cfg,
		Store:       f.store,
		Credentials: f.creds,
		Logger:      zaptest.NewLogger(t),
	})
	f.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	t.Cleanup(f.model.Close)

	return f
}

// send feeds msg to the model and returns the resulting command.
func (f *fixture) send(msg tea.Msg) tea.Cmd {
	next, cmd := f.model.Update(msg)
	f.model = next.(Model)
	return cmd
}

// open runs startup until the session is open.
func (f *fixture) open(t *testing.T) {
	t.Helper()
	cmd := f.send(f.model.Init()())
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, sessionOpenedMsg{}, msg)
	f.send(msg)
	require.NotNil(t, f.model.current())
}

// await pumps controller snapshots into the model until cond holds.
func (f *fixture) await(t *testing.T, cond func(Model) bool) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for !cond(f.model) {
		s := f.model.current()
		require.NotNil(t, s)
		select {
		case <-s.controller.Changes():
			f.send(snapshotMsg{session: s, snapshot: s.controller.Snapshot()})
		case <-timeout:
			t.Fatal("condition not reached")
		}
	}
}

func loaded(m Model) bool { return len(m.snapshot.All) == 3 && !m.snapshot.Syncing }

func TestFirstRunOpensAccountForm(t *testing.T) {
	f := newFixture(t, false)

	f.send(f.model.Init()())
	assert.Equal(t, ViewAccountForm, f.model.currentView)
	assert.Nil(t, f.model.current())
}

func TestStartupLoadsInbox(t *testing.T) {
	f := newFixture(t, true)
	f.open(t)
	f.await(t, loaded)

	assert.Equal(t, 2, f.model.snapshot.UnreadCount)
	assert.True(t, f.model.snapshot.Active)

	view := f.model.View()
	assert.Contains(t, view, "Campus")
	assert.Contains(t, view, "Interview scheduled")
}

func TestMarkReadReachesBackend(t *testing.T) {
	f := newFixture(t, true)
	f.open(t)
	f.await(t, loaded)

	f.model.markRead("n1")()
	f.await(t, func(m Model) bool { return m.snapshot.UnreadCount == 1 })
	assert.True(t, f.backend.Items()[0].IsRead)

	f.model.markAllRead()()
	f.await(t, func(m Model) bool { return m.snapshot.UnreadCount == 0 })
}

func TestBackendRejectionSignsOut(t *testing.T) {
	f := newFixture(t, true)
	f.open(t)
	f.await(t, loaded)

	f.backend.SetSessionCookie("rotated-elsewhere")
	f.model.refresh()()
	f.await(t, func(m Model) bool { return !m.snapshot.Active })

	assert.Empty(t, f.model.snapshot.All)
	assert.Contains(t, f.model.statusErr, "Session expired")

	_, err := f.creds.Get(credential.SessionKey(f.account.ID))
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestLogoutStopsPolling(t *testing.T) {
	f := newFixture(t, true)
	f.open(t)
	f.await(t, loaded)

	f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("L")})
	f.await(t, func(m Model) bool { return !m.snapshot.Active })

	assert.Contains(t, f.model.View(), "signed out")
	_, err := f.creds.Get(credential.SessionKey(f.account.ID))
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestOpenDetailResolvesMedia(t *testing.T) {
	f := newFixture(t, true)
	f.backend.SetMedia("offers/n2.pdf", "https://cdn.example/offers/n2.pdf?sig=abc", 900)
	f.open(t)
	f.await(t, loaded)

	f.send(tea.KeyMsg{Type: tea.KeyDown})
	cmd := f.send(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	cmd = f.send(cmd())
	require.Equal(t, ViewDetail, f.model.currentView)
	require.NotNil(t, cmd)

	f.send(cmd())
	assert.Contains(t, f.model.View(), "https://cdn.example/offers/n2.pdf?sig=abc")
	assert.Equal(t, 1, f.backend.Hits(testutil.RoutePresign))
}

func TestSaveAccountStoresCookie(t *testing.T) {
	f := newFixture(t, false)

	msg := f.model.saveAccount(model.Account{Name: "New", BaseURL: f.backend.URL}, "cookie-1")()
	saved, ok := msg.(accountSavedMsg)
	require.True(t, ok)
	require.NoError(t, saved.err)

	cookie, err := f.creds.Get(credential.SessionKey(saved.account.ID))
	require.NoError(t, err)
	assert.Equal(t, "cookie-1", cookie)

	accts, err := f.store.GetAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accts, 1)
	assert.Equal(t, "student", accts[0].Portal)
}

func TestPickAccount(t *testing.T) {
	accts := []model.Account{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}}

	got, ok := pickAccount(accts, "b")
	require.True(t, ok)
	assert.Equal(t, "b", got.ID)

	got, ok = pickAccount(accts, "Beta")
	require.True(t, ok)
	assert.Equal(t, "b", got.ID)

	got, ok = pickAccount(accts, "")
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)

	_, ok = pickAccount(nil, "")
	assert.False(t, ok)
}

func TestRecordsSyncHistory(t *testing.T) {
	f := newFixture(t, true)
	f.open(t)
	f.await(t, loaded)

	require.Eventually(t, func() bool {
		runs, err := f.store.GetSyncRuns(context.Background(), f.account.ID, 10)
		return err == nil && len(runs) >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSyncStatusSpinsWhileSyncing(t *testing.T) {
	m := New(Deps{})
	m.sessions.session = &accountSession{}
	m.snapshot = notify.Snapshot{Active: true, Syncing: true}

	assert.Equal(t, m.spinner.View()+" syncing…", m.syncStatus())

	updated, cmd := m.Update(m.spinner.Tick())
	assert.NotNil(t, cmd, "ticks keep coming while syncing")

	next := updated.(Model)
	next.snapshot.Syncing = false
	_, cmd = next.Update(next.spinner.Tick())
	assert.Nil(t, cmd, "ticks stop after the sync")
	assert.Equal(t, "waiting for first sync", next.syncStatus())
}

func TestSpinnerTicksIgnoredWithoutSync(t *testing.T) {
	m := New(Deps{})
	_, cmd := m.Update(spinner.TickMsg{})
	assert.Nil(t, cmd)
}
