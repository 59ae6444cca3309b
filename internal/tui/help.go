package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// HelpOverlayStyle frames the expanded key binding overlay on the list.
var HelpOverlayStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("62")).
	Padding(1, 2).
	MarginTop(1)

// HelpModel renders the task list's expanded key bindings.
type HelpModel struct {
	help   help.Model
	keymap KeyMap
}

// NewHelpModel creates the help overlay over the given bindings.
func NewHelpModel(keymap KeyMap) HelpModel {
	h := help.New()
	h.ShowAll = true

	return HelpModel{
		help:   h,
		keymap: keymap,
	}
}

// View renders the overlay sized to the list layout.
func (m HelpModel) View(width int) string {
	// The overlay frame eats a border column and two padding columns
	// per side.
	m.help.Width = width - 6

	body := lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("taskdeck keys"),
		m.help.View(m.keymap),
		"",
		DimStyle.Render("? or esc closes this overlay"),
	)
	return HelpOverlayStyle.Render(body)
}
