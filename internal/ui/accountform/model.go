package accountform

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/recruit-inbox/internal/model"
	"github.com/nhle/recruit-inbox/internal/portal"
	"github.com/nhle/recruit-inbox/internal/theme"
)

// autoPortal is the select value that derives the portal from the URL.
const autoPortal = ""

// SubmittedMsg is dispatched when the form is completed. Cookie is empty
// when editing an account without replacing its session.
type SubmittedMsg struct {
	Account model.Account
	Cookie  string
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name    string
	baseURL string
	portal  string
	cookie  string
}

// Model is the Bubble Tea model for the account create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	editing  model.Account
	width    int
	height   int
}

// New creates a new account form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for adding an account.
func (m *Model) StartCreate() tea.Cmd {
	m.editMode = false
	m.editing = model.Account{}
	*m.fb = formBindings{}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form for an existing account. The session
// cookie field starts empty; leaving it empty keeps the stored cookie.
func (m *Model) StartEdit(acct model.Account) tea.Cmd {
	m.editMode = true
	m.editing = acct
	*m.fb = formBindings{
		name:    acct.Name,
		baseURL: acct.BaseURL,
		portal:  acct.Portal,
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the account form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.form = nil
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the account form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "Add Account"
	if m.editMode {
		titleText = "Edit Account"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	portalOpts := []huh.Option[string]{
		huh.NewOption("Detect from URL", autoPortal),
	}
	for _, p := range portal.All {
		portalOpts = append(portalOpts, huh.NewOption(p.Label(), string(p)))
	}

	cookieDesc := "Copied from the browser after signing in"
	if m.editMode {
		cookieDesc = "Leave empty to keep the current session"
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("e.g. Campus recruiting").
				Value(&m.fb.name),
			huh.NewInput().
				Title("Backend URL").
				Placeholder("https://company.recruit.example/api").
				Value(&m.fb.baseURL).
				Validate(ValidateBaseURL),
			huh.NewSelect[string]().
				Title("Portal").
				Options(portalOpts...).
				Value(&m.fb.portal),
			huh.NewInput().
				Title("Session cookie").
				Description(cookieDesc).
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.cookie).
				Validate(m.validateCookie),
		),
	).WithKeyMap(formKeyMap()).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// formKeyMap lets esc abort the form as well as ctrl+c.
func formKeyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("esc", "ctrl+c"))
	return km
}

func (m Model) handleSubmit() tea.Cmd {
	acct := m.editing
	acct.Name = strings.TrimSpace(m.fb.name)
	acct.BaseURL = strings.TrimRight(strings.TrimSpace(m.fb.baseURL), "/")
	acct.Portal = m.fb.portal
	if acct.Portal == autoPortal {
		acct.Portal = string(portal.FromURL(acct.BaseURL))
	}
	cookie := strings.TrimSpace(m.fb.cookie)

	return func() tea.Msg { return SubmittedMsg{Account: acct, Cookie: cookie} }
}

func (m Model) validateCookie(s string) error {
	if m.editMode {
		return nil
	}
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("session cookie is required")
	}
	return nil
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

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 12 {
		h = 12
	}
	return h
}

// ValidateBaseURL accepts absolute http(s) URLs.
func ValidateBaseURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("backend URL is required")
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return fmt.Errorf("backend URL must be absolute, e.g. https://recruit.example")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend URL must use http or https")
	}
	return nil
}
