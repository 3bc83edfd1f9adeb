package inbox

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/recruit-inbox/internal/keys"
	"github.com/nhle/recruit-inbox/internal/model"
	"github.com/nhle/recruit-inbox/internal/theme"
)

// SelectedMsg is sent when the user opens a notification.
type SelectedMsg struct {
	Notification model.Notification
}

// MarkReadMsg asks the parent to mark one notification read.
type MarkReadMsg struct {
	ID string
}

// MarkAllReadMsg asks the parent to mark every notification read.
type MarkAllReadMsg struct{}

// Model is the full notification list view.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	active bool
	width  int
	height int
}

// New creates a new inbox list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.HeaderStyle
	l.SetStatusBarItemName("notification", "notifications")
	l.DisableQuitKeybindings()

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetNotifications replaces the displayed list, keeping the cursor on the
// same notification when it is still present.
func (m *Model) SetNotifications(all []model.Notification, active bool) tea.Cmd {
	m.active = active

	selectedID := ""
	if it, ok := m.list.SelectedItem().(Item); ok {
		selectedID = it.Notification.ID
	}

	items := make([]list.Item, len(all))
	cursor := 0
	for i, n := range all {
		items[i] = Item{Notification: n}
		if n.ID == selectedID {
			cursor = i
		}
	}

	cmd := m.list.SetItems(items)
	if len(items) > 0 {
		m.list.Select(cursor)
	}
	return cmd
}

// Selected returns the notification under the cursor.
func (m Model) Selected() (model.Notification, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.Notification{}, false
	}
	return it.Notification, true
}

// Filtering reports whether the list filter input has focus, in which
// case single-key shortcuts must not fire.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Update handles messages for the inbox list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok && !m.Filtering() {
		switch {
		case key.Matches(kmsg, m.keys.Select):
			if n, ok := m.Selected(); ok {
				return m, func() tea.Msg { return SelectedMsg{Notification: n} }
			}
			return m, nil

		case key.Matches(kmsg, m.keys.MarkRead):
			if n, ok := m.Selected(); ok && !n.IsRead {
				return m, func() tea.Msg { return MarkReadMsg{ID: n.ID} }
			}
			return m, nil

		case key.Matches(kmsg, m.keys.MarkAll):
			return m, func() tea.Msg { return MarkAllReadMsg{} }
		}
	}

	// Delegate to the list for navigation and filtering.
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list or an empty-state hint.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if !m.active {
		return style.Render(
			"Not signed in.\n\n" +
				"Press a to add an account or paste a new session cookie.",
		)
	}
	return style.Render("No notifications.\nYou're all caught up.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
