package profile

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pawhaven/rescuedesk/internal/model"
	"github.com/pawhaven/rescuedesk/internal/theme"
)

// Model is the read-only account identity view. The account itself is
// fetched once per session by the root model; this view only renders it.
type Model struct {
	account *model.Account
	width   int
	height  int
}

// New creates a new profile view model.
func New(width, height int) Model {
	return Model{width: width, height: height}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetAccount updates the rendered identity.
func (m *Model) SetAccount(account *model.Account) {
	m.account = account
}

// Update handles messages for the profile view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the profile panel.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Account")

	var body string
	if m.account == nil {
		body = theme.HelpStyle.Render("Loading profile...")
	} else {
		labelStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		role := "standard user"
		if m.account.IsAdmin {
			role = "administrator"
		}
		body = lipgloss.JoinVertical(
			lipgloss.Left,
			labelStyle.Render("Username: ")+m.account.Username,
			labelStyle.Render("Email:    ")+m.account.Email,
			labelStyle.Render("Role:     ")+role,
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the profile view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
