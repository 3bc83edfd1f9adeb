package detail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/recruit-inbox/internal/keys"
	"github.com/nhle/recruit-inbox/internal/media"
	"github.com/nhle/recruit-inbox/internal/model"
	"github.com/nhle/recruit-inbox/internal/theme"
)

// resolveTimeout bounds a single presign lookup.
const resolveTimeout = 10 * time.Second

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// MarkReadMsg asks the parent to mark the shown notification read.
type MarkReadMsg struct {
	ID string
}

// LinkResolvedMsg carries the fetchable URL for a notification link.
type LinkResolvedMsg struct {
	ID  string
	URL string
	Err error
}

// LinkResolver maps notification links to fetchable URLs.
type LinkResolver interface {
	Resolve(ctx context.Context, key string) (string, error)
}

// Model is the notification detail view component.
type Model struct {
	notification *model.Notification
	resolver     LinkResolver
	link         string
	linkErr      error
	resolving    bool
	viewport     viewport.Model
	keys         *keys.KeyMap
	width        int
	height       int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// SetResolver sets the resolver used for storage-key links. A nil
// resolver shows links unresolved.
func (m *Model) SetResolver(r LinkResolver) {
	m.resolver = r
}

// Show displays n and returns a command that resolves its link when the
// link is a storage key.
func (m *Model) Show(n model.Notification) tea.Cmd {
	m.notification = &n
	m.link = ""
	m.linkErr = nil
	m.resolving = false

	var cmd tea.Cmd
	switch {
	case n.Link == "":
	case !media.IsStorageKey(n.Link):
		m.link = n.Link
	case m.resolver != nil:
		m.resolving = true
		cmd = resolveLink(m.resolver, n.ID, n.Link)
	}

	m.refresh()
	m.viewport.GotoTop()
	return cmd
}

// Current returns the displayed notification, if any.
func (m Model) Current() (model.Notification, bool) {
	if m.notification == nil {
		return model.Notification{}, false
	}
	return *m.notification, true
}

// Sync updates the displayed notification from a fresh list, e.g. after
// it was marked read.
func (m *Model) Sync(all []model.Notification) {
	if m.notification == nil {
		return
	}
	for _, n := range all {
		if n.ID == m.notification.ID {
			cp := n
			m.notification = &cp
			m.refresh()
			return
		}
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LinkResolvedMsg:
		if m.notification == nil || msg.ID != m.notification.ID {
			return m, nil
		}
		m.resolving = false
		m.link = msg.URL
		m.linkErr = msg.Err
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.MarkRead):
			if m.notification != nil && !m.notification.IsRead {
				id := m.notification.ID
				return m, func() tea.Msg {
					return MarkReadMsg{ID: id}
				}
			}
			return m, nil
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.notification == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No notification selected")
	}

	return m.viewport.View()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderContent())
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	n := m.notification
	if n == nil {
		return ""
	}

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(n.Title))

	state := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed).Render("UNREAD")
	if n.IsRead {
		state = theme.DimmedStyle.Render("read")
	}
	sections = append(sections, state, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", metaStyle.Render(fmt.Sprintf("%-10s", label)), valStyle.Render(value))
	}

	if n.Recipient != "" {
		sections = append(sections, row("To:", n.Recipient))
	}
	if !n.CreatedAt.IsZero() {
		sections = append(sections, row("Received:", n.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	if n.Link != "" {
		sections = append(sections, row("Link:", m.linkText()))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	width := m.width - 4
	if width < 10 {
		width = 10
	}
	separator := sepStyle.Render(strings.Repeat("─", min(width, 80)))
	sections = append(sections, "", separator, "")

	body := n.Message
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No message")
	} else {
		body = lipgloss.NewStyle().Width(min(width, 100)).Render(body)
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) linkText() string {
	switch {
	case m.resolving:
		return "resolving…"
	case m.linkErr != nil:
		return lipgloss.NewStyle().Foreground(theme.ColorRed).
			Render("unavailable: " + m.linkErr.Error())
	case m.link != "":
		return m.link
	default:
		return m.notification.Link
	}
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.refresh()
}

func resolveLink(r LinkResolver, id, link string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		defer cancel()

		url, err := r.Resolve(ctx, link)
		return LinkResolvedMsg{ID: id, URL: url, Err: err}
	}
}
