// Package history shows the recent refresh outcomes recorded for the
// active account.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/recruit-inbox/internal/keys"
	"github.com/nhle/recruit-inbox/internal/model"
	"github.com/nhle/recruit-inbox/internal/store"
	"github.com/nhle/recruit-inbox/internal/theme"
)

// limit is how many runs are shown.
const limit = 20

// CloseMsg signals the parent to close the history view.
type CloseMsg struct{}

type runsLoadedMsg struct {
	runs []model.SyncRun
	err  error
}

// Model lists recorded sync runs, newest first.
type Model struct {
	store     store.Store
	keys      *keys.KeyMap
	accountID string
	runs      []model.SyncRun
	err       error
	width     int
	height    int
}

// New creates a new history view.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	return Model{store: s, keys: k, width: width, height: height}
}

// Load returns a command that reads the runs for accountID.
func (m *Model) Load(accountID string) tea.Cmd {
	m.accountID = accountID
	m.runs = nil
	m.err = nil

	s := m.store
	return func() tea.Msg {
		runs, err := s.GetSyncRuns(context.Background(), accountID, limit)
		return runsLoadedMsg{runs: runs, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runsLoadedMsg:
		m.runs = msg.runs
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.History) {
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}
	return m, nil
}

// View renders the history table.
func (m Model) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Sync history"))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorRed).Render("Error: " + m.err.Error()))
	case len(m.runs) == 0:
		b.WriteString(theme.DimmedStyle.Italic(true).Render("No refreshes recorded yet."))
	default:
		for _, run := range m.runs {
			b.WriteString(formatRun(run))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

func formatRun(run model.SyncRun) string {
	when := run.StartedAt.Local().Format("2006-01-02 15:04:05")
	took := run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond)

	if run.Failed() {
		return fmt.Sprintf("%s  %s  %s",
			when,
			theme.SyncStyle("failed").Render("failed"),
			theme.DimmedStyle.Render(run.Error),
		)
	}
	return fmt.Sprintf("%s  %s  %d items, %d unread  %s",
		when,
		theme.SyncStyle("ok").Render("ok    "),
		run.ItemCount,
		run.UnreadCount,
		theme.DimmedStyle.Render(took.String()),
	)
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
