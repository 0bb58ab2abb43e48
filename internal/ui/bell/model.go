package bell

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pawhaven/rescuedesk/internal/api"
	"github.com/pawhaven/rescuedesk/internal/model"
	"github.com/pawhaven/rescuedesk/internal/notify"
	"github.com/pawhaven/rescuedesk/internal/theme"
)

// PanelMsg carries the result of opening the notification panel.
type PanelMsg struct {
	Surface string
	Items   []model.Notification
	Unread  int
	Err     error
}

// Model renders the notification bell badge and the expanded panel for
// one endpoint set. Two instances run side by side (standard-user and
// admin); they are structurally identical and never share cache state.
type Model struct {
	client  *notify.Client
	poller  *notify.Poller
	label   string
	mounted bool
	visible bool
	unread  int
	items   []model.Notification
	width   int
	height  int
}

// New creates a bell surface over the given notification client.
func New(client *notify.Client, label string, interval time.Duration, width, height int) Model {
	return Model{
		client: client,
		poller: notify.NewPoller(client, interval),
		label:  label,
		width:  width,
		height: height,
	}
}

// Surface returns the endpoint set label this surface polls.
func (m Model) Surface() string {
	return m.client.Surface()
}

// Mounted reports whether the surface is active.
func (m Model) Mounted() bool {
	return m.mounted
}

// Visible reports whether the expanded panel is showing.
func (m Model) Visible() bool {
	return m.visible
}

// Unread returns the current badge count.
func (m Model) Unread() int {
	return m.unread
}

// Mount activates the surface and starts its poller. Mounting an
// already-mounted surface is a no-op.
func (m *Model) Mount() tea.Cmd {
	if m.mounted {
		return nil
	}
	m.mounted = true

	m.client.LoadSnapshot(context.Background())
	snap := m.client.Snapshot()
	m.items = snap.Items
	m.unread = snap.UnreadCount

	return m.poller.Start()
}

// Unmount stops the poller unconditionally and collapses the panel.
// Requests already in flight complete harmlessly; their results are
// dropped because the surface no longer accepts messages.
func (m *Model) Unmount() {
	if !m.mounted {
		return
	}
	m.mounted = false
	m.visible = false
	m.unread = 0
	m.items = nil
	m.poller.Stop()
}

// Toggle flips panel visibility. Opening the panel fetches the full
// list and marks everything read; the badge zeroes immediately without
// waiting for the server.
func (m Model) Toggle() (Model, tea.Cmd) {
	if !m.mounted {
		return m, nil
	}
	if m.visible {
		m.visible = false
		return m, nil
	}

	m.visible = true
	m.unread = 0
	return m, m.openPanel()
}

// openPanel returns a command that refreshes the list and marks it read.
func (m Model) openPanel() tea.Cmd {
	client := m.client
	surface := m.Surface()

	return func() tea.Msg {
		ctx := context.Background()

		_, err := client.FetchList(ctx)
		if api.IsAuthError(err) {
			return PanelMsg{Surface: surface, Err: err}
		}

		// Opening the panel counts as reading, even when the refresh
		// failed and the panel shows the last-known items.
		client.MarkAllRead(ctx)

		snap := client.Snapshot()
		return PanelMsg{
			Surface: surface,
			Items:   snap.Items,
			Unread:  snap.UnreadCount,
			Err:     err,
		}
	}
}

// Update handles messages addressed to this surface. Messages for
// other surfaces, or any message arriving while unmounted, are ignored.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.mounted {
		return m, nil
	}

	switch msg := msg.(type) {
	case notify.CountMsg:
		if msg.Surface != m.Surface() {
			return m, nil
		}
		// While the panel is open everything on screen is already
		// read and the badge was zeroed on open; a poll that raced
		// the fire-and-forget mark-all-read must not resurrect it.
		// Failed polls keep the last-known badge either way; the
		// subscription stays alive so the next tick is heard.
		if msg.Err == nil && !m.visible {
			m.unread = msg.Count
		}
		return m, m.poller.WaitForNextResult()

	case PanelMsg:
		if msg.Surface != m.Surface() {
			return m, nil
		}
		m.items = msg.Items
		m.unread = msg.Unread
		return m, nil
	}

	return m, nil
}

// Badge renders the compact header badge for this surface.
func (m Model) Badge() string {
	if !m.mounted {
		return ""
	}
	if m.unread > 0 {
		return theme.UnreadBadgeStyle.Render(
			fmt.Sprintf("%s %d", m.label, m.unread),
		)
	}
	return theme.ReadBadgeStyle.Render(m.label)
}

// View renders the expanded notification panel.
func (m Model) View() string {
	if !m.visible {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render(m.label + " Notifications")

	var lines []string
	if len(m.items) == 0 {
		lines = append(lines, theme.HelpStyle.Render("No notifications."))
	}
	for _, n := range m.items {
		line := fmt.Sprintf(
			"%s  %s",
			n.Content,
			theme.HelpStyle.Render(n.CreatedAt.Format("Jan 02 15:04")),
		)
		if n.IsRead {
			line = theme.ReadItemStyle.Render("  " + line)
		} else {
			line = theme.UnreadItemStyle.Render("• " + line)
		}
		lines = append(lines, line)
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		strings.Join(lines, "\n"),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
