package login

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/pawhaven/rescuedesk/internal/api"
	"github.com/pawhaven/rescuedesk/internal/theme"
)

// LoggedInMsg signals the parent that the server accepted the
// credentials and returned a token pair.
type LoggedInMsg struct {
	Access  string
	Refresh string
}

// loginResultMsg carries the raw outcome of the login request.
type loginResultMsg struct {
	pair *api.TokenPair
	err  error
}

// Model is the login form view.
type Model struct {
	client *api.Client
	form   *huh.Form

	username string
	password string

	submitting bool
	errMsg     string
	spinner    spinner.Model

	width  int
	height int
}

// New creates a new login view model.
func New(client *api.Client, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		client:  client,
		spinner: sp,
		width:   width,
		height:  height,
	}
	m.form = m.buildForm()
	return m
}

// buildForm constructs the credential form.
func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Placeholder("your username").
				Value(&m.username).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.password).
				Validate(validateRequired("Password")),
		),
	).WithWidth(m.formWidth())
}

// validateRequired returns a validator that rejects blank input.
func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// formWidth bounds the form width to the available space.
func (m Model) formWidth() int {
	w := m.width - 8
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Reset clears the form for a fresh login attempt (after logout).
func (m *Model) Reset() tea.Cmd {
	m.username = ""
	m.password = ""
	m.errMsg = ""
	m.submitting = false
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the login view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("Login failed: %v", msg.err)
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		pair := msg.pair
		return m, func() tea.Msg {
			return LoggedInMsg{Access: pair.Access, Refresh: pair.Refresh}
		}

	case spinner.TickMsg:
		if m.submitting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.submitting {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.submitting = true
		m.errMsg = ""
		return m, tea.Batch(m.spinner.Tick, m.submit())
	}
	if m.form.State == huh.StateAborted {
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	return m, cmd
}

// submit returns a command that sends the credentials to the server.
// Verification is entirely server-side.
func (m Model) submit() tea.Cmd {
	client := m.client
	creds := api.Credentials{Username: m.username, Password: m.password}

	return func() tea.Msg {
		pair, err := client.Login(context.Background(), creds)
		return loginResultMsg{pair: pair, err: err}
	}
}

// View renders the login form.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Sign in to PawHaven")

	var body string
	if m.submitting {
		body = m.spinner.View() + " Signing in..."
	} else {
		body = m.form.View()
	}

	sections := []string{title, body}
	if m.errMsg != "" {
		errStyle := lipgloss.NewStyle().Foreground(theme.ColorRed)
		sections = append(sections, errStyle.Render(m.errMsg))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return theme.PanelStyle.
		Width(m.formWidth() + 4).
		Render(content)
}

// SetSize updates the login view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.form = m.form.WithWidth(m.formWidth())
}
