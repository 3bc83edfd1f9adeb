// Package preview renders the compact panel of the newest notifications,
// the terminal counterpart of a notification bell dropdown.
package preview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/recruit-inbox/internal/model"
	"github.com/nhle/recruit-inbox/internal/theme"
	"github.com/nhle/recruit-inbox/internal/ui/inbox"
)

// Model holds the preview items and the total unread count.
type Model struct {
	items  []model.Notification
	unread int
	width  int
	height int
	now    func() time.Time
}

// New creates an empty preview panel.
func New(width, height int) Model {
	return Model{width: width, height: height, now: time.Now}
}

// Set replaces the preview contents.
func (m *Model) Set(items []model.Notification, unread int) {
	m.items = items
	m.unread = unread
}

// View renders the panel.
func (m Model) View() string {
	title := "Latest"
	if m.unread > 0 {
		title = fmt.Sprintf("Latest · %d unread", m.unread)
	}

	inner := m.width - 4
	if inner < 10 {
		inner = 10
	}

	lines := []string{theme.UnreadStyle.Render(title), ""}
	if len(m.items) == 0 {
		lines = append(lines, theme.DimmedStyle.Render("Nothing yet"))
	}
	for _, n := range m.items {
		line := inbox.RenderLine(n, false, inner, m.now())
		lines = append(lines, lipgloss.NewStyle().MaxWidth(inner).Render(line))
	}

	height := m.height - 2
	if height < 1 {
		height = 1
	}
	return theme.PreviewPanelStyle.
		Width(m.width - 2).
		Height(height).
		Render(strings.Join(lines, "\n"))
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
