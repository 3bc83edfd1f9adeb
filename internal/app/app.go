package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/recruit-inbox/internal/credential"
	"github.com/nhle/recruit-inbox/internal/keys"
	"github.com/nhle/recruit-inbox/internal/model"
	"github.com/nhle/recruit-inbox/internal/notify"
	"github.com/nhle/recruit-inbox/internal/portal"
	"github.com/nhle/recruit-inbox/internal/store"
	"github.com/nhle/recruit-inbox/internal/ui"
	"github.com/nhle/recruit-inbox/internal/ui/accountform"
	"github.com/nhle/recruit-inbox/internal/ui/accounts"
	"github.com/nhle/recruit-inbox/internal/ui/command"
	"github.com/nhle/recruit-inbox/internal/ui/detail"
	helpview "github.com/nhle/recruit-inbox/internal/ui/help"
	"github.com/nhle/recruit-inbox/internal/ui/history"
	"github.com/nhle/recruit-inbox/internal/ui/inbox"
	"github.com/nhle/recruit-inbox/internal/ui/preview"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewAccounts
	ViewAccountForm
	ViewHistory
)

// Deps are the long-lived services the UI needs.
type Deps struct {
	Config      *model.AppConfig
	Store       store.Store
	Credentials *credential.Store
	Logger      *zap.Logger

	// AccountID selects the account opened at startup. Empty picks the
	// first saved account.
	AccountID string
}

// holder carries the active session across Bubble Tea model copies.
type holder struct {
	session *accountSession
}

// accountsReadyMsg carries the saved accounts at startup.
type accountsReadyMsg struct {
	accounts []model.Account
	err      error
}

// accountSavedMsg is sent after the account form was persisted.
type accountSavedMsg struct {
	account model.Account
	err     error
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and the active account session.
type Model struct {
	deps         Deps
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	inboxView    inbox.Model
	previewView  preview.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	accountsView accounts.Model
	accountForm  accountform.Model
	historyView  history.Model
	sessions     *holder
	snapshot     notify.Snapshot
	spinner      spinner.Model
	showPreview  bool
	statusErr    string
	ready        bool
}

// New creates the root application model.
func New(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	k := keys.DefaultKeyMap()
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		deps:         deps,
		currentView:  ViewInbox,
		keys:         k,
		inboxView:    inbox.New(k, 80, 22),
		previewView:  preview.New(30, 22),
		detail:       detail.New(k, 80, 22),
		helpView:     helpview.New(k, 80, 22),
		commandView:  command.New(80, 22),
		accountsView: accounts.New(deps.Store, k, 80, 22),
		accountForm:  accountform.New(80, 22),
		historyView:  history.New(deps.Store, k, 80, 22),
		sessions:     &holder{},
		spinner:      sp,
		showPreview:  true,
	}
}

// Init loads the saved accounts and opens the startup account.
func (m Model) Init() tea.Cmd {
	st := m.deps.Store
	return func() tea.Msg {
		accts, err := st.GetAccounts(context.Background())
		return accountsReadyMsg{accounts: accts, err: err}
	}
}

// Close shuts down the active session. It is safe to call after the
// program exits.
func (m Model) Close() {
	if s := m.sessions.session; s != nil {
		s.close()
		m.sessions.session = nil
	}
}

func (m Model) current() *accountSession {
	return m.sessions.session
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.resize()
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case accountsReadyMsg:
		if msg.err != nil {
			m.statusErr = fmt.Sprintf("Loading accounts: %v", msg.err)
			return m, nil
		}
		acct, ok := pickAccount(msg.accounts, m.deps.AccountID)
		if !ok {
			// First run: nothing to open until an account exists.
			m.previousView = ViewInbox
			m.currentView = ViewAccountForm
			return m, m.accountForm.StartCreate()
		}
		return m, m.openAccount(acct)

	case sessionOpenedMsg:
		if msg.err != nil {
			m.statusErr = msg.err.Error()
			return m, nil
		}
		m.Close()
		m.sessions.session = msg.session
		m.statusErr = ""
		m.snapshot = notify.Snapshot{}
		m.inboxView.SetNotifications(nil, false)
		m.detail.SetResolver(msg.session.resolver)
		m.accountsView.SetCurrent(msg.session.account.ID)
		m.helpView.SetContext(msg.session.account.Name, pollInterval(m.deps.Config).String())
		msg.session.start(pollInterval(m.deps.Config))
		return m, waitForChanges(msg.session)

	case snapshotMsg:
		if msg.session != m.current() {
			return m, nil
		}
		wasSyncing := m.snapshot.Syncing
		m.snapshot = msg.snapshot
		cmd := m.inboxView.SetNotifications(msg.snapshot.All, msg.snapshot.Active)
		m.previewView.Set(msg.snapshot.Preview, msg.snapshot.UnreadCount)
		m.detail.Sync(msg.snapshot.All)
		if !msg.snapshot.Active {
			m.statusErr = msg.session.lastAuthError()
		}
		var tick tea.Cmd
		if msg.snapshot.Syncing && !wasSyncing {
			tick = m.spinner.Tick
		}
		return m, tea.Batch(cmd, tick, waitForChanges(msg.session))

	case spinner.TickMsg:
		// The spinner stops once the sync finishes.
		if m.snapshot.Syncing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case inbox.SelectedMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		return m, m.detail.Show(msg.Notification)

	case inbox.MarkReadMsg:
		return m, m.markRead(msg.ID)

	case detail.MarkReadMsg:
		return m, m.markRead(msg.ID)

	case inbox.MarkAllReadMsg:
		return m, m.markAllRead()

	case detail.BackMsg:
		m.currentView = ViewInbox
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case accounts.CloseMsg:
		m.currentView = ViewInbox
		return m, nil

	case accounts.SwitchMsg:
		m.currentView = ViewInbox
		if s := m.current(); s != nil && s.account.ID == msg.Account.ID {
			return m, nil
		}
		return m, m.openAccount(msg.Account)

	case accounts.NewMsg:
		m.previousView = ViewAccounts
		m.currentView = ViewAccountForm
		return m, m.accountForm.StartCreate()

	case accounts.EditMsg:
		m.previousView = ViewAccounts
		m.currentView = ViewAccountForm
		return m, m.accountForm.StartEdit(msg.Account)

	case accounts.DeletedMsg:
		var cmd tea.Cmd
		m.accountsView, cmd = m.accountsView.Update(msg)
		if msg.Err == nil {
			cmd = tea.Batch(cmd, m.forgetAccount(msg.ID))
		}
		return m, cmd

	case accountform.SubmittedMsg:
		m.currentView = m.previousView
		return m, m.saveAccount(msg.Account, msg.Cookie)

	case accountform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case accountSavedMsg:
		if msg.err != nil {
			m.statusErr = fmt.Sprintf("Saving account: %v", msg.err)
			return m, nil
		}
		m.currentView = ViewInbox
		return m, tea.Batch(m.accountsView.Init(), m.openAccount(msg.account))

	case history.CloseMsg:
		m.currentView = ViewInbox
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work outside text input.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}

	inInbox := m.currentView == ViewInbox && !m.inboxView.Filtering()

	switch {
	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return nil, true
		}
		if inInbox || m.currentView == ViewDetail {
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return nil, true
		}

	case m.currentView == ViewHelp && key.Matches(msg, m.keys.Back):
		m.currentView = m.previousView
		return nil, true

	case !inInbox:
		return nil, false

	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true

	case key.Matches(msg, m.keys.Refresh):
		return m.refresh(), true

	case key.Matches(msg, m.keys.Preview):
		m.showPreview = !m.showPreview
		m.resize()
		return nil, true

	case key.Matches(msg, m.keys.Accounts):
		m.previousView = m.currentView
		m.currentView = ViewAccounts
		return m.accountsView.Init(), true

	case key.Matches(msg, m.keys.History):
		return m.openHistory(), true

	case key.Matches(msg, m.keys.Logout):
		m.logout()
		return nil, true
	}

	return nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewAccounts:
		m.accountsView, cmd = m.accountsView.Update(msg)
	case ViewAccountForm:
		m.accountForm, cmd = m.accountForm.Update(msg)
	case ViewHistory:
		m.historyView, cmd = m.historyView.Update(msg)
	}

	// Async results for views that are not focused still need to land.
	switch msg.(type) {
	case detail.LinkResolvedMsg:
		if m.currentView != ViewDetail {
			m.detail, _ = m.detail.Update(msg)
		}
	}

	return m, cmd
}

func (m *Model) resize() {
	w := m.layout.ContentWidth()
	h := m.layout.ContentHeight()

	listWidth := w
	if m.showPreview {
		main, side := m.layout.SplitWidths()
		if side > 0 {
			listWidth = main
			m.previewView.SetSize(side, h)
		}
	}

	m.inboxView.SetSize(listWidth, h)
	m.detail.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
	m.accountsView.SetSize(w, h)
	m.accountForm.SetSize(w, h)
	m.historyView.SetSize(w, h)
}

// pickAccount returns the account with id, or the first one.
func pickAccount(accts []model.Account, id string) (model.Account, bool) {
	for _, a := range accts {
		if a.ID == id || (id != "" && a.Name == id) {
			return a, true
		}
	}
	if len(accts) == 0 {
		return model.Account{}, false
	}
	return accts[0], true
}

// title returns the header title for the active account.
func (m Model) title() string {
	s := m.current()
	if s == nil {
		return "Recruit Inbox"
	}
	p := portal.Portal(s.account.Portal)
	return fmt.Sprintf("Recruit Inbox · %s · %s", s.account.Name, p.Label())
}

// syncStatus returns a short string describing the controller state.
func (m Model) syncStatus() string {
	snap := m.snapshot
	switch {
	case m.current() == nil:
		return "no account"
	case !snap.Active:
		return "signed out"
	case snap.Syncing:
		return m.spinner.View() + " syncing…"
	case snap.LastSync.IsZero():
		return "waiting for first sync"
	default:
		return "synced " + inbox.RelativeTime(snap.LastSync, time.Now())
	}
}
