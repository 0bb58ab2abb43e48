package petlist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pawhaven/rescuedesk/internal/model"
	"github.com/pawhaven/rescuedesk/internal/theme"
)

// PetItem wraps a model.Pet so it can be used in a bubbles/list.
type PetItem struct {
	Pet model.Pet
}

// FilterValue returns the string used for fuzzy filtering.
func (i PetItem) FilterValue() string { return i.Pet.Name }

// Title returns the pet name for the list.
func (i PetItem) Title() string { return i.Pet.Name }

// Description returns a short summary line for the list.
func (i PetItem) Description() string {
	parts := []string{
		i.Pet.Species,
		i.Pet.Status,
		relativeTime(i.Pet.ListedAt),
	}
	return strings.Join(parts, " | ")
}

// PetDelegate implements list.ItemDelegate for rendering pet rows.
type PetDelegate struct{}

// Height returns the number of lines each item takes.
func (d PetDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d PetDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d PetDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single pet row.
func (d PetDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	petItem, ok := item.(PetItem)
	if !ok {
		return
	}

	p := petItem.Pet
	isSelected := index == m.Index()

	speciesBadge := theme.SpeciesStyle(p.Species).Render(strings.ToUpper(p.Species))
	statusBadge := theme.StatusStyle(p.Status).Render(p.Status)

	breed := ""
	if p.Breed != "" {
		breed = theme.HelpStyle.Render(" " + p.Breed)
	}

	timeStr := theme.HelpStyle.Render(relativeTime(p.ListedAt))

	line := fmt.Sprintf(
		"%s %s %s%s  %s",
		speciesBadge, statusBadge, p.Name, breed, timeStr,
	)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
