package app

import (
	"context"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/recruit-inbox/internal/credential"
	"github.com/nhle/recruit-inbox/internal/model"
	"github.com/nhle/recruit-inbox/internal/notify"
	"github.com/nhle/recruit-inbox/internal/session"
)

// openAccount returns a command that builds the session for acct.
func (m Model) openAccount(acct model.Account) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		s, err := openSession(deps.Config, deps.Store, deps.Credentials, deps.Logger, acct)
		return sessionOpenedMsg{session: s, err: err}
	}
}

// saveAccount persists acct and, when given, its new session cookie.
func (m Model) saveAccount(acct model.Account, cookie string) tea.Cmd {
	st := m.deps.Store
	creds := m.deps.Credentials
	return func() tea.Msg {
		saved, err := st.UpsertAccount(context.Background(), acct)
		if err != nil {
			return accountSavedMsg{err: err}
		}
		if cookie != "" {
			if err := session.NewKeyring(creds, saved.ID).Save(cookie); err != nil {
				return accountSavedMsg{err: err}
			}
		}
		return accountSavedMsg{account: saved}
	}
}

// forgetAccount drops the session of a deleted account.
func (m *Model) forgetAccount(id string) tea.Cmd {
	if s := m.current(); s != nil && s.account.ID == id {
		m.Close()
		m.snapshot = notify.Snapshot{}
		m.inboxView.SetNotifications(nil, false)
		m.previewView.Set(nil, 0)
		m.detail.SetResolver(nil)
	}

	creds := m.deps.Credentials
	logger := m.deps.Logger
	return func() tea.Msg {
		if err := creds.Delete(credential.SessionKey(id)); err != nil {
			logger.Warn("removing session of deleted account failed",
				zap.String("account", id), zap.Error(err))
		}
		return nil
	}
}

func (m Model) markRead(id string) tea.Cmd {
	s := m.current()
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		s.controller.MarkRead(context.Background(), id)
		return nil
	}
}

func (m Model) markAllRead() tea.Cmd {
	s := m.current()
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		s.controller.MarkAllRead(context.Background())
		return nil
	}
}

func (m Model) refresh() tea.Cmd {
	s := m.current()
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		s.controller.Refresh(context.Background())
		return nil
	}
}

func (m *Model) openHistory() tea.Cmd {
	s := m.current()
	if s == nil {
		return nil
	}
	m.previousView = m.currentView
	m.currentView = ViewHistory
	return m.historyView.Load(s.account.ID)
}

func (m *Model) logout() {
	s := m.current()
	if s == nil {
		return
	}
	if err := s.logout(); err != nil {
		m.statusErr = fmt.Sprintf("Signing out: %v", err)
		return
	}
	m.statusErr = ""
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "refresh":
		return m.refresh()
	case "mark-all-read":
		return m.markAllRead()
	case "accounts":
		m.previousView = ViewInbox
		m.currentView = ViewAccounts
		return m.accountsView.Init()
	case "history":
		return m.openHistory()
	case "preview":
		m.showPreview = !m.showPreview
		m.resize()
		return nil
	case "logout":
		m.logout()
		return nil
	case "quit":
		return tea.Quit
	default:
		m.statusErr = fmt.Sprintf("Unknown command %q", cmd)
		return nil
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	badge := ""
	if m.snapshot.UnreadCount > 0 {
		badge = strconv.Itoa(m.snapshot.UnreadCount)
	}

	header := m.layout.RenderHeader(m.title(), badge, m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.statusErr)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewInbox:
		if _, side := m.layout.SplitWidths(); m.showPreview && side > 0 {
			return lipgloss.JoinHorizontal(lipgloss.Top,
				m.inboxView.View(), m.previewView.View())
		}
		return m.inboxView.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewAccounts:
		return m.accountsView.View()
	case ViewAccountForm:
		return m.accountForm.View()
	case ViewHistory:
		return m.historyView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return "esc back | m mark read | j/k scroll"
	case ViewAccounts:
		return "enter switch | n new | e edit | d delete | esc back"
	case ViewAccountForm:
		return "enter next | esc cancel"
	case ViewHistory:
		return "esc back"
	default:
		return "q quit | ? help | m read | M all read | r refresh | p preview | a accounts"
	}
}
