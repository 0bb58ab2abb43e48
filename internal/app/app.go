package app

import (
	"context"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	aiservice "github.com/pawhaven/rescuedesk/internal/ai"
	"github.com/pawhaven/rescuedesk/internal/api"
	"github.com/pawhaven/rescuedesk/internal/keys"
	"github.com/pawhaven/rescuedesk/internal/model"
	"github.com/pawhaven/rescuedesk/internal/notify"
	"github.com/pawhaven/rescuedesk/internal/session"
	"github.com/pawhaven/rescuedesk/internal/store"
	"github.com/pawhaven/rescuedesk/internal/ui"
	assistantview "github.com/pawhaven/rescuedesk/internal/ui/assistant"
	"github.com/pawhaven/rescuedesk/internal/ui/bell"
	helpview "github.com/pawhaven/rescuedesk/internal/ui/help"
	"github.com/pawhaven/rescuedesk/internal/ui/login"
	"github.com/pawhaven/rescuedesk/internal/ui/petlist"
	"github.com/pawhaven/rescuedesk/internal/ui/profile"
)

// sessionStartedMsg kicks off the post-login mounting sequence.
type sessionStartedMsg struct{}

// profileLoadedMsg carries the account identity fetched after login.
type profileLoadedMsg struct {
	account *model.Account
	err     error
}

// petsFetchedMsg carries a fresh pet listing from the server.
type petsFetchedMsg struct {
	pets []model.Pet
	err  error
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewPets
	ViewProfile
	ViewAssistant
	ViewHelp
)

// Model is the root Bubble Tea model that manages session state, view
// routing, layout, and the two notification surfaces.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	ready        bool

	client     *api.Client
	tokens     *session.TokenStore
	gate       session.Gate
	controller *session.Controller
	store      store.Store
	logger     *log.Logger
	keys       *keys.KeyMap

	userNotify  *notify.Client
	adminNotify *notify.Client
	userBell    bell.Model
	adminBell   bell.Model

	loginView     login.Model
	petList       petlist.Model
	profileView   profile.Model
	helpView      helpview.Model
	assistantView assistantview.Model

	account *model.Account
}

// New creates the root application model and settles the initial
// session state from the token store. No network calls happen here; a
// persisted token is trusted until the server rejects it.
func New(
	cfg *model.AppConfig,
	client *api.Client,
	tokens *session.TokenStore,
	s store.Store,
	logger *log.Logger,
) Model {
	k := keys.DefaultKeyMap()

	interval := time.Duration(cfg.Service.PollIntervalSec) * time.Second
	userNotify := notify.NewClient(client, api.UserEndpoints(), s, logger)
	adminNotify := notify.NewClient(client, api.AdminEndpoints(), s, logger)

	controller := session.NewController(tokens, logger)

	m := Model{
		client:        client,
		tokens:        tokens,
		gate:          session.NewGate(tokens),
		controller:    controller,
		store:         s,
		logger:        logger,
		keys:          k,
		userNotify:    userNotify,
		adminNotify:   adminNotify,
		userBell:      bell.New(userNotify, "Inbox", interval, 80, 24),
		adminBell:     bell.New(adminNotify, "Admin", interval, 80, 24),
		loginView:     login.New(client, 80, 24),
		petList:       petlist.New(s, k, 80, 24),
		profileView:   profile.New(80, 24),
		helpView:      helpview.New(k, 80, 24),
		assistantView: assistantview.New(loadAssistant(cfg, s), k, 80, 24),
	}

	switch controller.Boot() {
	case session.StateAuthenticated:
		m.currentView = ViewPets
	default:
		m.currentView = ViewLogin
	}

	return m
}

// loadAssistant creates the AI assistant if an API key is available.
// Returns nil otherwise; the assistant panel shows a setup prompt.
func loadAssistant(cfg *model.AppConfig, s store.Store) *aiservice.Assistant {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil
	}
	return aiservice.New(apiKey, s, cfg.AI.Model, cfg.AI.MaxTokens)
}

// Init returns the initial commands. A restored session starts the
// mounting sequence immediately; otherwise the login form takes focus.
func (m Model) Init() tea.Cmd {
	if m.controller.IsAuthenticated() {
		return func() tea.Msg { return sessionStartedMsg{} }
	}
	return m.loginView.Init()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.loginView.SetSize(contentWidth, contentHeight)
		m.petList.SetSize(contentWidth, contentHeight)
		m.profileView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.assistantView.SetSize(contentWidth, contentHeight)
		m.userBell.SetSize(contentWidth, contentHeight)
		m.adminBell.SetSize(contentWidth, contentHeight)
		return m.updateActiveView(msg)

	case sessionStartedMsg:
		return m, m.mountSession()

	case login.LoggedInMsg:
		if err := m.controller.Login(msg.Access, msg.Refresh); err != nil {
			m.logger.Printf("app: persisting login tokens failed: %v", err)
			// Session state did not change; stay on the login view.
			return m, nil
		}
		m.currentView = ViewPets
		return m, m.mountSession()

	case profileLoadedMsg:
		if api.IsAuthError(msg.err) {
			return m.forceLogout()
		}
		if msg.err != nil {
			m.logger.Printf("app: profile fetch failed: %v", msg.err)
			return m, nil
		}
		m.account = msg.account
		m.profileView.SetAccount(msg.account)
		if err := m.tokens.SetIdentity(msg.account.Username, msg.account.IsAdmin); err != nil {
			m.logger.Printf("app: recording identity failed: %v", err)
		}
		// The admin surface mounts only once the server confirms the
		// account actually holds the role.
		if msg.account.IsAdmin {
			return m, m.adminBell.Mount()
		}
		return m, nil

	case petsFetchedMsg:
		if api.IsAuthError(msg.err) {
			return m.forceLogout()
		}
		if msg.err != nil {
			m.logger.Printf("app: pet listing fetch failed: %v", msg.err)
			return m, nil
		}
		m.petList.SetPets(msg.pets)
		return m, nil

	case petlist.PetsLoadedMsg:
		var cmd tea.Cmd
		m.petList, cmd = m.petList.Update(msg)
		return m, cmd

	case notify.CountMsg:
		if api.IsAuthError(msg.Err) {
			return m.forceLogout()
		}
		return m.routeToBell(msg, msg.Surface)

	case bell.PanelMsg:
		if api.IsAuthError(msg.Err) {
			return m.forceLogout()
		}
		return m.routeToBell(msg, msg.Surface)

	case assistantview.CloseMsg:
		// The conversation transcript is kept; closing the panel only
		// switches views.
		m.currentView = m.previousView
		return m, nil

	case assistantview.ResponseChunkMsg:
		var cmd tea.Cmd
		m.assistantView, cmd = m.assistantView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if handled, model, cmd := m.handleGlobalKey(msg); handled {
			return model, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes application-wide keybindings. Views with
// text input (login, assistant) only honor ctrl+c so typing is never
// intercepted.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.userBell.Unmount()
		m.adminBell.Unmount()
		return true, m, tea.Quit
	}

	if m.currentView == ViewLogin || m.currentView == ViewAssistant {
		return false, m, nil
	}

	switch msg.String() {
	case "q":
		if m.currentView == ViewPets && !m.anyPanelVisible() {
			m.userBell.Unmount()
			m.adminBell.Unmount()
			return true, m, tea.Quit
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case "esc":
		if m.userBell.Visible() {
			var cmd tea.Cmd
			m.userBell, cmd = m.userBell.Toggle()
			return true, m, cmd
		}
		if m.adminBell.Visible() {
			var cmd tea.Cmd
			m.adminBell, cmd = m.adminBell.Toggle()
			return true, m, cmd
		}
		if m.currentView != ViewPets {
			m.currentView = ViewPets
			return true, m, nil
		}

	case "b":
		if m.userBell.Mounted() {
			var cmd tea.Cmd
			m.userBell, cmd = m.userBell.Toggle()
			return true, m, cmd
		}

	case "B":
		if m.adminBell.Mounted() {
			var cmd tea.Cmd
			m.adminBell, cmd = m.adminBell.Toggle()
			return true, m, cmd
		}

	case "a":
		if m.currentView != ViewAssistant {
			m.previousView = m.currentView
			m.currentView = ViewAssistant
			return true, m, m.assistantView.Focus()
		}

	case "p":
		if m.currentView != ViewProfile {
			m.previousView = m.currentView
			m.currentView = ViewProfile
			return true, m, nil
		}

	case "r":
		if m.currentView == ViewPets {
			return true, m, m.fetchPets()
		}

	case "ctrl+l":
		m.controller.Logout()
		model, cmd := m.teardownSession()
		return true, model, cmd
	}

	return false, m, nil
}

// routeToBell forwards a surface-tagged message to the matching bell.
func (m Model) routeToBell(msg tea.Msg, surface string) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch surface {
	case m.userBell.Surface():
		m.userBell, cmd = m.userBell.Update(msg)
	case m.adminBell.Surface():
		m.adminBell, cmd = m.adminBell.Update(msg)
	}
	return m, cmd
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewPets:
		m.petList, cmd = m.petList.Update(msg)
	case ViewProfile:
		m.profileView, cmd = m.profileView.Update(msg)
	case ViewAssistant:
		m.assistantView, cmd = m.assistantView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// mountSession activates the authenticated surfaces: the standard
// notification bell starts polling right away, the profile fetch
// decides whether the admin bell mounts, and the pet listing refreshes.
func (m *Model) mountSession() tea.Cmd {
	return tea.Batch(
		m.userBell.Mount(),
		m.fetchProfile(),
		m.fetchPets(),
		m.petList.LoadPets(),
	)
}

// teardownSession unmounts both notification surfaces, drops their
// caches, and returns to the login view. The assistant transcript is
// deliberately kept. The controller transition has already happened.
func (m Model) teardownSession() (tea.Model, tea.Cmd) {
	m.userBell.Unmount()
	m.adminBell.Unmount()
	m.userNotify.Reset()
	m.adminNotify.Reset()

	if err := m.store.Clear(context.Background()); err != nil {
		m.logger.Printf("app: clearing offline cache failed: %v", err)
	}

	m.account = nil
	m.profileView.SetAccount(nil)
	m.currentView = ViewLogin

	return m, m.loginView.Reset()
}

// forceLogout handles a server token rejection. The controller
// collapses concurrent rejections into a single transition; only the
// first one tears the session down.
func (m Model) forceLogout() (tea.Model, tea.Cmd) {
	if !m.controller.ForcedLogout() {
		return m, nil
	}
	return m.teardownSession()
}

// fetchProfile returns a command that loads the account identity.
func (m Model) fetchProfile() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		account, err := client.Profile(context.Background())
		return profileLoadedMsg{account: account, err: err}
	}
}

// fetchPets returns a command that fetches the pet listing and caches
// it for offline rendering.
func (m Model) fetchPets() tea.Cmd {
	client := m.client
	s := m.store
	logger := m.logger
	return func() tea.Msg {
		pets, err := client.Pets(context.Background())
		if err != nil {
			return petsFetchedMsg{err: err}
		}
		if err := s.SavePets(context.Background(), pets); err != nil {
			logger.Printf("app: caching pet listing failed: %v", err)
		}
		return petsFetchedMsg{pets: pets}
	}
}

// anyPanelVisible reports whether a notification panel is expanded.
func (m Model) anyPanelVisible() bool {
	return m.userBell.Visible() || m.adminBell.Visible()
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("PawHaven Rescue Desk", m.headerRight())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// headerRight renders the badge cluster shown on the right of the header.
func (m Model) headerRight() string {
	if !m.gate.Allow() {
		return "signed out"
	}

	right := m.userBell.Badge()
	if admin := m.adminBell.Badge(); admin != "" {
		right += "  " + admin
	}
	if right == "" {
		right = " "
	}
	return right
}

// renderContent returns the rendered string for the current active
// view. Every protected view re-checks the gate at render time; a
// denied check falls through to the login form, never a blank or stale
// protected frame.
func (m Model) renderContent() string {
	if m.currentView != ViewLogin && !m.gate.Allow() {
		return m.loginView.View()
	}

	if m.userBell.Visible() {
		return m.userBell.View()
	}
	if m.adminBell.Visible() {
		return m.adminBell.View()
	}

	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewPets:
		return m.petList.View()
	case ViewProfile:
		return m.profileView.View()
	case ViewAssistant:
		return m.assistantView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.anyPanelVisible() {
		return "esc close | b/B toggle"
	}

	switch m.currentView {
	case ViewLogin:
		return "enter submit | tab next field | ctrl+c quit"
	case ViewProfile:
		return "esc back | ctrl+l log out"
	case ViewAssistant:
		return "enter send | esc close"
	case ViewHelp:
		return "? close help | esc back"
	default:
		return "q quit | ? help | b notifications | a assistant | p profile | r refresh"
	}
}
