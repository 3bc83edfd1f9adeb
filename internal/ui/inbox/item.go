package inbox

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/recruit-inbox/internal/model"
	"github.com/nhle/recruit-inbox/internal/theme"
)

// Item wraps a model.Notification so it can be used in a bubbles/list.
type Item struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string {
	return i.Notification.Title + " " + i.Notification.Message
}

// Title returns the notification title for the list.
func (i Item) Title() string { return i.Notification.Title }

// Description returns the message line for the list.
func (i Item) Description() string { return i.Notification.Message }

// ItemDelegate implements list.ItemDelegate for rendering notifications.
type ItemDelegate struct {
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	fmt.Fprint(w, RenderLine(it.Notification, index == m.Index(), m.Width(), d.clock()))
}

func (d ItemDelegate) clock() time.Time {
	if d.now == nil {
		return time.Now()
	}
	return d.now()
}

// RenderLine draws one notification: an unread marker, the title, a
// snippet of the message, and its age. It is shared with the preview panel.
func RenderLine(n model.Notification, selected bool, width int, now time.Time) string {
	marker := " "
	title := n.Title
	if title == "" {
		title = "(untitled)"
	}

	if n.IsRead {
		title = theme.DimmedStyle.Render(title)
	} else {
		marker = lipgloss.NewStyle().Foreground(theme.ColorRed).Render("●")
		title = theme.UnreadStyle.Render(title)
	}

	age := theme.DimmedStyle.Render(RelativeTime(n.CreatedAt, now))

	snippet := ""
	if msg := firstLine(n.Message); msg != "" {
		room := width - lipgloss.Width(title) - lipgloss.Width(age) - 10
		if room > 8 {
			snippet = theme.DimmedStyle.Render(" " + truncate(msg, room))
		}
	}

	line := fmt.Sprintf("%s %s%s  %s", marker, title, snippet, age)

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// RelativeTime returns a human-friendly age of t measured at now.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
