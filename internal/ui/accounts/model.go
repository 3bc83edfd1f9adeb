package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/recruit-inbox/internal/keys"
	"github.com/nhle/recruit-inbox/internal/model"
	"github.com/nhle/recruit-inbox/internal/portal"
	"github.com/nhle/recruit-inbox/internal/store"
	"github.com/nhle/recruit-inbox/internal/theme"
)

// CloseMsg signals the parent to close the account view.
type CloseMsg struct{}

// SwitchMsg asks the parent to make Account the active one.
type SwitchMsg struct {
	Account model.Account
}

// NewMsg asks the parent to open the empty account form.
type NewMsg struct{}

// EditMsg asks the parent to open the account form for Account.
type EditMsg struct {
	Account model.Account
}

// DeletedMsg reports that an account was removed from the store.
type DeletedMsg struct {
	ID  string
	Err error
}

type accountMode int

const (
	modeList accountMode = iota
	modeConfirmDelete
)

type accountsLoadedMsg struct {
	accounts []model.Account
	err      error
}

// Model lists saved accounts and lets the user switch between them.
type Model struct {
	mode        accountMode
	store       store.Store
	keys        *keys.KeyMap
	accounts    []model.Account
	currentID   string
	selectedIdx int
	confirmForm *huh.Form
	confirm     *bool
	statusMsg   string
	width       int
	height      int
}

// New creates a new account manager model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:    modeList,
		store:   s,
		keys:    k,
		confirm: new(bool),
		width:   width,
		height:  height,
	}
}

// Init loads accounts from the store.
func (m Model) Init() tea.Cmd {
	return m.loadAccounts()
}

// SetCurrent marks the account the inbox is showing.
func (m *Model) SetCurrent(id string) {
	m.currentID = id
}

// Accounts returns the loaded accounts.
func (m Model) Accounts() []model.Account {
	return m.accounts
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case accountsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		}
		m.accounts = msg.accounts
		if m.selectedIdx >= len(m.accounts) {
			m.selectedIdx = max(len(m.accounts)-1, 0)
		}
		return m, nil

	case DeletedMsg:
		if msg.Err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.Err)
		} else {
			m.statusMsg = "Account deleted"
		}
		m.mode = modeList
		return m, m.loadAccounts()

	case tea.KeyMsg:
		if m.mode == modeConfirmDelete {
			return m.updateConfirm(msg)
		}
		return m.handleListKey(msg)
	}

	if m.mode == modeConfirmDelete {
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.accounts) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.accounts)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.accounts) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.accounts) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if acct, ok := m.selected(); ok {
			return m, func() tea.Msg { return SwitchMsg{Account: acct} }
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		return m, func() tea.Msg { return NewMsg{} }

	case key.Matches(msg, m.keys.Edit):
		if acct, ok := m.selected(); ok {
			return m, func() tea.Msg { return EditMsg{Account: acct} }
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.selected(); !ok {
			return m, nil
		}
		*m.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) selected() (model.Account, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.accounts) {
		return model.Account{}, false
	}
	return m.accounts[m.selectedIdx], true
}

func (m Model) buildConfirmForm() *huh.Form {
	acct, _ := m.selected()
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete account %q?", acct.Name)).
				Description("Its stored session and sync history are removed too.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(m.confirm),
		),
	).WithKeyMap(confirmKeyMap()).WithWidth(m.formWidth())
}

// confirmKeyMap lets esc cancel the confirmation.
func confirmKeyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("esc", "ctrl+c"))
	return km
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		m.mode = modeList
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		m.mode = modeList
		if acct, ok := m.selected(); ok && *m.confirm {
			return m, m.deleteAccount(acct.ID)
		}
		return m, nil
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the account manager.
func (m Model) View() string {
	if m.mode == modeConfirmDelete && m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Accounts"))
	b.WriteString("\n\n")

	if len(m.accounts) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No accounts yet. Press 'n' to add one."))
	}
	for i, acct := range m.accounts {
		marker := "  "
		if acct.ID == m.currentID {
			marker = "* "
		}
		p := portal.Portal(acct.Portal)
		label := fmt.Sprintf("%s%s  %s  %s",
			marker,
			acct.Name,
			theme.PortalStyle(acct.Portal).Render(p.Label()),
			theme.DimmedStyle.Render(acct.BaseURL),
		)

		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render(
		"enter switch | n new | e edit | d delete | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) loadAccounts() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		accounts, err := s.GetAccounts(context.Background())
		return accountsLoadedMsg{accounts: accounts, err: err}
	}
}

func (m Model) deleteAccount(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.DeleteAccount(context.Background(), id)
		return DeletedMsg{ID: id, Err: err}
	}
}
