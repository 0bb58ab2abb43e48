package petlist

import (
	"context"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pawhaven/rescuedesk/internal/keys"
	"github.com/pawhaven/rescuedesk/internal/model"
	"github.com/pawhaven/rescuedesk/internal/store"
	"github.com/pawhaven/rescuedesk/internal/theme"
)

// PetsLoadedMsg is sent when pets have been loaded from the local cache.
type PetsLoadedMsg struct {
	Pets []model.Pet
	Err  error
}

// Model is the pet listings view.
type Model struct {
	list   list.Model
	store  store.Store
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new pet list model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, PetDelegate{}, width, height-2)
	l.Title = "Adoptable Pets"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:  l,
		store: s,
		keys:  k,
		width: width,

		height: height,
	}
}

// Init loads cached pets so the view renders before the first fetch.
func (m Model) Init() tea.Cmd {
	return m.LoadPets()
}

// LoadPets returns a command that reads pets from the local cache.
func (m Model) LoadPets() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		pets, err := s.Pets(context.Background())
		return PetsLoadedMsg{Pets: pets, Err: err}
	}
}

// SetPets replaces the visible listing.
func (m *Model) SetPets(pets []model.Pet) {
	items := make([]list.Item, 0, len(pets))
	for _, p := range pets {
		items = append(items, PetItem{Pet: p})
	}
	m.list.SetItems(items)
}

// Update handles messages for the pet list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PetsLoadedMsg:
		if msg.Err == nil {
			m.SetPets(msg.Pets)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the pet list.
func (m Model) View() string {
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
