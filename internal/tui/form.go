package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robby/taskdeck/internal/domain"
	"github.com/robby/taskdeck/internal/ops"
	"github.com/robby/taskdeck/internal/taskapi"
)

// Form field indexes.
const (
	fieldTitle = iota
	fieldDescription
	fieldCategory
	fieldDueDate
	fieldCount
)

// priorityChoices is the cycle order for the form's priority selector.
// The empty value leaves priority unset.
var priorityChoices = []string{
	domain.PriorityMedium, domain.PriorityHigh, domain.PriorityLow, "",
}

// FormModel is the create/edit form. Editing submits a full replacement:
// fields cleared here are saved as explicit nulls, not left unchanged.
type FormModel struct {
	coord *ops.Coordinator
	ctx   context.Context

	editID   int // 0 means create
	inputs   []textinput.Model
	priority string
	focused  int
	busy     bool
	errText  string
}

// NewFormModel creates the form, pre-filled from task when editing.
func NewFormModel(coord *ops.Coordinator, ctx context.Context, task *domain.Task) FormModel {
	title := textinput.New()
	title.Prompt = "Title:       "
	title.Placeholder = "What needs doing?"
	title.CharLimit = domain.MaxTitleLen
	title.Focus()

	description := textinput.New()
	description.Prompt = "Description: "
	description.Placeholder = "(optional)"
	description.CharLimit = domain.MaxDescriptionLen

	category := textinput.New()
	category.Prompt = "Category:    "
	category.Placeholder = "Work, Health, Shopping... (optional)"

	due := textinput.New()
	due.Prompt = "Due date:    "
	due.Placeholder = "YYYY-MM-DD (optional)"

	m := FormModel{
		coord:    coord,
		ctx:      ctx,
		inputs:   []textinput.Model{title, description, category, due},
		priority: domain.PriorityMedium,
	}

	if task != nil {
		m.editID = task.ID
		m.inputs[fieldTitle].SetValue(task.Title)
		if task.Description != nil {
			m.inputs[fieldDescription].SetValue(*task.Description)
		}
		if task.Category != nil {
			m.inputs[fieldCategory].SetValue(*task.Category)
		}
		if task.DueDate != nil {
			m.inputs[fieldDueDate].SetValue(dateOnly(*task.DueDate))
		}
		if task.Priority != nil {
			m.priority = *task.Priority
		} else {
			m.priority = ""
		}
	}

	return m
}

// Init initializes the form.
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ErrorMsg:
		m.busy = false
		m.errText = msg.Err.Error()
		return m, nil

	case droppedMsg:
		// The save was dropped by the single-flight guard. No message,
		// but input must come back so the user can retry or leave.
		m.busy = false
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return closeFormMsg{} }
		case "tab", "down":
			(&m).focus(m.focused + 1)
			return m, nil
		case "shift+tab", "up":
			(&m).focus(m.focused - 1)
			return m, nil
		case "ctrl+p":
			m.priority = cycle(priorityChoices, m.priority)
			return m, nil
		case "enter":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m *FormModel) focus(idx int) {
	if idx < 0 {
		idx = fieldCount - 1
	}
	if idx >= fieldCount {
		idx = 0
	}
	m.inputs[m.focused].Blur()
	m.focused = idx
	m.inputs[m.focused].Focus()
}

// submit validates locally and dispatches the create or update.
func (m FormModel) submit() (tea.Model, tea.Cmd) {
	input := taskapi.TaskInput{Title: m.inputs[fieldTitle].Value()}

	if v := strings.TrimSpace(m.inputs[fieldDescription].Value()); v != "" {
		input.Description = &v
	}
	if v := strings.TrimSpace(m.inputs[fieldCategory].Value()); v != "" {
		input.Category = &v
	}
	if m.priority != "" {
		p := m.priority
		input.Priority = &p
	}
	if v := strings.TrimSpace(m.inputs[fieldDueDate].Value()); v != "" {
		if _, err := time.Parse("2006-01-02", v); err != nil {
			m.errText = "Due date must be YYYY-MM-DD"
			return m, nil
		}
		due := v + "T00:00:00"
		input.DueDate = &due
	}

	// Run the title check here too so the form can point at the field
	// before the repository client rejects the input.
	if _, err := domain.ValidateTitle(input.Title); err != nil {
		m.errText = "Title is required"
		return m, nil
	}

	m.busy = true
	m.errText = ""
	editID := m.editID
	return m, func() tea.Msg {
		var (
			task domain.Task
			err  error
		)
		if editID == 0 {
			task, err = m.coord.Create(m.ctx, input)
		} else {
			task, err = m.coord.Update(m.ctx, editID, input)
		}
		if errors.Is(err, ops.ErrInFlight) {
			return droppedMsg{}
		}
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return taskSavedMsg{task: task, created: editID == 0}
	}
}

// View renders the form.
func (m FormModel) View() string {
	heading := "New task"
	if m.editID != 0 {
		heading = fmt.Sprintf("Edit task #%d", m.editID)
	}

	priority := m.priority
	if priority == "" {
		priority = "none"
	}

	var sections []string
	sections = append(sections, TitleStyle.Render(heading))
	for _, input := range m.inputs {
		sections = append(sections, input.View())
	}
	sections = append(sections, "Priority:    "+priorityBadge(priority))

	if m.busy {
		sections = append(sections, DimStyle.Render("Saving..."))
	}
	if m.errText != "" {
		sections = append(sections, ErrorStyle.Render(m.errText))
	}

	sections = append(sections, HelpStyle.Render("enter:save tab:next field ctrl+p:cycle priority esc:cancel"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func priorityBadge(priority string) string {
	if style, ok := priorityStyles[priority]; ok {
		return style.Render(priority)
	}
	return DimStyle.Render(priority)
}
