package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/pkg/browser"

	"github.com/robby/taskdeck/internal/domain"
	"github.com/robby/taskdeck/internal/ops"
	"github.com/robby/taskdeck/internal/store"
	"github.com/robby/taskdeck/internal/view"
)

// statusCycle and sortCycle define the order the filter keys step through.
var (
	statusCycle = []string{view.StatusAll, view.StatusActive, view.StatusCompleted}
	sortCycle   = []string{
		view.SortNewest, view.SortOldest, view.SortTitle,
		view.SortTitleDesc, view.SortDueDate, view.SortPriority,
	}
	priorityCycle = []string{
		view.PriorityAll, domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow,
	}
)

// ListModel is the main task list view.
type ListModel struct {
	// Dependencies
	coord  *ops.Coordinator
	store  *store.Store
	ctx    context.Context
	webURL string

	// UI components
	keymap      KeyMap
	help        HelpModel
	spinner     spinner.Model
	searchInput textinput.Model

	// Projection state
	filter   view.FilterState
	rows     []domain.Task
	selected int
	offset   int

	// View state
	width        int
	height       int
	searchMode   bool
	showHelp     bool
	confirmingID int // task awaiting delete confirmation, 0 = none
	loading      bool
	notice       string
	errText      string
}

// NewListModel creates the task list view.
func NewListModel(coord *ops.Coordinator, s *store.Store, ctx context.Context, webURL string) ListModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))

	ti := textinput.New()
	ti.Placeholder = "Search title and description..."
	ti.Prompt = "/ "

	return ListModel{
		coord:       coord,
		store:       s,
		ctx:         ctx,
		webURL:      webURL,
		keymap:      DefaultKeyMap(),
		help:        NewHelpModel(DefaultKeyMap()),
		spinner:     sp,
		searchInput: ti,
		filter:      view.DefaultFilter(),
		loading:     true,
	}
}

// Init starts the spinner and the initial collection reload.
func (m ListModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize(), m.refreshCmd())
}

// Update handles messages.
func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tasksLoadedMsg:
		m.loading = false
		m.errText = ""
		(&m).reproject()
		return m, nil

	case taskToggledMsg:
		// The new state comes from the backend response.
		if msg.task.Completed {
			m.notice = "Task completed!"
		} else {
			m.notice = "Task marked as incomplete"
		}
		m.errText = ""
		(&m).reproject()
		return m, nil

	case taskSavedMsg:
		if msg.created {
			m.notice = "Task created"
		} else {
			m.notice = "Task updated successfully"
		}
		m.errText = ""
		(&m).reproject()
		return m, nil

	case taskDeletedMsg:
		m.notice = "Task deleted successfully"
		m.errText = ""
		(&m).reproject()
		return m, nil

	case ErrorMsg:
		m.loading = false
		m.notice = ""
		m.errText = msg.Err.Error()
		return m, nil

	case noticeMsg:
		m.notice = msg.text
		return m, nil

	case droppedMsg:
		// Single-flight drop: deliberately silent.
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m ListModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showHelp {
		if msg.String() == "?" || msg.String() == "q" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	// Search mode
	if m.searchMode {
		switch msg.String() {
		case "enter":
			m.searchMode = false
			m.filter.Query = m.searchInput.Value()
			(&m).reproject()
			return m, nil
		case "esc":
			m.searchMode = false
			m.searchInput.SetValue(m.filter.Query)
			return m, nil
		default:
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			return m, cmd
		}
	}

	// Delete confirmation: declining is a full no-op.
	if m.confirmingID != 0 {
		switch msg.String() {
		case "y", "Y":
			id := m.confirmingID
			m.confirmingID = 0
			return m, m.deleteCmd(id)
		case "n", "N", "esc", "q":
			m.confirmingID = 0
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "/":
		m.searchMode = true
		m.searchInput.Focus()
	case "j", "down":
		(&m).moveSelection(1)
	case "k", "up":
		(&m).moveSelection(-1)
	case "g":
		(&m).jumpTo(0)
	case "G":
		(&m).jumpTo(len(m.rows) - 1)
	case " ", "enter":
		if task, ok := m.selectedTask(); ok {
			return m, m.toggleCmd(task.ID)
		}
	case "a":
		return m, func() tea.Msg { return openFormMsg{} }
	case "e":
		if task, ok := m.selectedTask(); ok {
			t := task
			return m, func() tea.Msg { return openFormMsg{task: &t} }
		}
	case "d":
		if task, ok := m.selectedTask(); ok {
			m.confirmingID = task.ID
		}
	case "s":
		m.filter.Status = cycle(statusCycle, m.filter.Status)
		(&m).reproject()
	case "c":
		categories := append([]string{view.CategoryAll}, view.Categories(m.store.All())...)
		m.filter.Category = cycle(categories, m.filter.Category)
		(&m).reproject()
	case "p":
		m.filter.Priority = cycle(priorityCycle, m.filter.Priority)
		(&m).reproject()
	case "o":
		m.filter.Sort = cycle(sortCycle, m.filter.Sort)
		(&m).reproject()
	case "r":
		m.loading = true
		return m, m.refreshCmd()
	case "w":
		if m.webURL != "" {
			_ = browser.OpenURL(m.webURL)
		}
	case "Q":
		return m, func() tea.Msg { return signOutRequestMsg{} }
	}

	return m, nil
}

// reproject recomputes the displayed rows from the store and filter state.
func (m *ListModel) reproject() {
	m.rows = view.Project(m.store.All(), m.filter)
	if m.selected >= len(m.rows) {
		m.selected = len(m.rows) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	m.clampScroll()
}

func (m *ListModel) moveSelection(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.selected += delta
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(m.rows) {
		m.selected = len(m.rows) - 1
	}
	m.clampScroll()
}

func (m *ListModel) jumpTo(idx int) {
	if len(m.rows) == 0 {
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.rows) {
		idx = len(m.rows) - 1
	}
	m.selected = idx
	m.clampScroll()
}

func (m *ListModel) clampScroll() {
	visible := m.visibleRows()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+visible {
		m.offset = m.selected - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// visibleRows is how many task rows fit between header and footer.
func (m ListModel) visibleRows() int {
	height := m.height
	if height == 0 {
		height = 24
	}
	// header(2) + filter line(1) + footer(2) + description panel(4)
	rows := height - 9
	if m.searchMode {
		rows--
	}
	if rows < 3 {
		rows = 3
	}
	return rows
}

func (m ListModel) selectedTask() (domain.Task, bool) {
	if len(m.rows) == 0 || m.selected >= len(m.rows) {
		return domain.Task{}, false
	}
	return m.rows[m.selected], true
}

// cycle returns the element after current, wrapping around.
func cycle(values []string, current string) string {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

// refreshCmd reloads the full collection.
func (m ListModel) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		err := m.coord.Refresh(m.ctx)
		if errors.Is(err, ops.ErrInFlight) {
			return droppedMsg{}
		}
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return tasksLoadedMsg{}
	}
}

// toggleCmd flips completion through the coordinator. A second toggle on a
// task with an unresolved call is dropped, not queued.
func (m ListModel) toggleCmd(id int) tea.Cmd {
	return func() tea.Msg {
		task, err := m.coord.Toggle(m.ctx, id)
		if errors.Is(err, ops.ErrInFlight) {
			return droppedMsg{}
		}
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return taskToggledMsg{task: task}
	}
}

func (m ListModel) deleteCmd(id int) tea.Cmd {
	return func() tea.Msg {
		err := m.coord.Delete(m.ctx, id, true)
		if errors.Is(err, ops.ErrInFlight) {
			return droppedMsg{}
		}
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return taskDeletedMsg{id: id}
	}
}

// signOutRequestMsg asks the app model to run the sign-out flow.
type signOutRequestMsg struct{}

// View renders the task list screen.
func (m ListModel) View() string {
	width := m.width
	if width == 0 {
		width = 80
	}

	var sections []string
	sections = append(sections, m.renderHeader(width))
	sections = append(sections, m.renderFilterLine(width))

	if m.searchMode {
		sections = append(sections, m.searchInput.View())
	}

	if m.confirmingID != 0 {
		banner := ConfirmStyle.Render("DELETE") +
			fmt.Sprintf(" Delete task #%d? (y/n)", m.confirmingID)
		sections = append(sections, banner)
	}

	switch {
	case m.showHelp:
		sections = append(sections, m.help.View(width))
	case m.loading && m.store.Len() == 0:
		sections = append(sections, m.spinner.View()+" Loading tasks...")
	case len(m.rows) == 0:
		if m.store.Len() == 0 {
			sections = append(sections, DimStyle.Render("No tasks yet. Press 'a' to add one."))
		} else {
			sections = append(sections, DimStyle.Render("No tasks found. Press 's', 'c', 'p' or '/' to adjust filters."))
		}
	default:
		sections = append(sections, m.renderRows(width))
		sections = append(sections, m.renderDescription(width))
	}

	if m.errText != "" {
		sections = append(sections, ErrorStyle.Render(m.errText))
	} else if m.notice != "" {
		sections = append(sections, SuccessStyle.Render(m.notice))
	}

	sections = append(sections, HelpStyle.Render("space:toggle a:add e:edit d:delete /:search ?:help q:quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader shows the title and the aggregate counts.
func (m ListModel) renderHeader(width int) string {
	counts := view.Summarize(m.store.All(), time.Now())
	title := TitleStyle.Render("taskdeck")
	stats := fmt.Sprintf("%d tasks | %d done | %d active | %d overdue",
		counts.Total, counts.Completed, counts.Active, counts.Overdue)
	if counts.Overdue > 0 {
		stats = fmt.Sprintf("%d tasks | %d done | %d active | ", counts.Total, counts.Completed, counts.Active) +
			OverdueStyle.Render(fmt.Sprintf("%d overdue", counts.Overdue))
	}

	padding := width - lipgloss.Width(title) - lipgloss.Width(stats) - 2
	if padding < 1 {
		padding = 1
	}
	return title + strings.Repeat(" ", padding) + DimStyle.Render(stats)
}

// renderFilterLine summarizes the active filter state.
func (m ListModel) renderFilterLine(width int) string {
	parts := []string{
		"status:" + m.filter.Status,
		"category:" + m.filter.Category,
		"priority:" + m.filter.Priority,
		"sort:" + m.filter.Sort,
	}
	if strings.TrimSpace(m.filter.Query) != "" {
		parts = append(parts, "/"+m.filter.Query)
	}
	if m.loading {
		parts = append(parts, m.spinner.View()+"loading")
	}
	line := strings.Join(parts, "  ")
	if lipgloss.Width(line) > width {
		line = truncate.String(line, uint(width))
	}
	return DimStyle.Render(line)
}

// renderRows renders the visible window of the projection.
func (m ListModel) renderRows(width int) string {
	visible := m.visibleRows()
	end := m.offset + visible
	if end > len(m.rows) {
		end = len(m.rows)
	}

	var lines []string
	if m.offset > 0 {
		lines = append(lines, DimStyle.Render(fmt.Sprintf("↑ %d more", m.offset)))
	}
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRow(m.rows[i], i == m.selected, width))
	}
	if remaining := len(m.rows) - end; remaining > 0 {
		lines = append(lines, DimStyle.Render(fmt.Sprintf("↓ %d more", remaining)))
	}
	return strings.Join(lines, "\n")
}

// renderRow formats one task line.
func (m ListModel) renderRow(task domain.Task, selected bool, width int) string {
	checkbox := "[ ]"
	if task.Completed {
		checkbox = "[x]"
	}

	var meta []string
	if task.Priority != nil {
		badge := *task.Priority
		if style, ok := priorityStyles[badge]; ok {
			badge = style.Render(badge)
		}
		meta = append(meta, badge)
	}
	if task.Category != nil && *task.Category != "" {
		meta = append(meta, DimStyle.Render("#"+*task.Category))
	}
	if task.DueDate != nil {
		meta = append(meta, DimStyle.Render("due "+dateOnly(*task.DueDate)))
	}
	if m.store.IsLoading(task.ID) {
		meta = append(meta, m.spinner.View())
	}

	title := task.Title
	maxTitle := width - 8 - lipgloss.Width(strings.Join(meta, " "))
	if maxTitle > 5 && lipgloss.Width(title) > maxTitle {
		title = truncate.StringWithTail(title, uint(maxTitle), "…")
	}

	line := fmt.Sprintf("%s %s", checkbox, title)
	if len(meta) > 0 {
		line += "  " + strings.Join(meta, " ")
	}

	switch {
	case selected:
		return SelectedItemStyle.Render("> " + line)
	case task.Completed:
		return "  " + DoneItemStyle.Render(line)
	default:
		return "  " + NormalItemStyle.Render(line)
	}
}

// renderDescription shows the selected task's description, wrapped.
func (m ListModel) renderDescription(width int) string {
	task, ok := m.selectedTask()
	if !ok || task.Description == nil || *task.Description == "" {
		return ""
	}
	wrapped := wordwrap.String(*task.Description, width-4)
	lines := strings.Split(wrapped, "\n")
	if len(lines) > 3 {
		lines = append(lines[:3], DimStyle.Render("…"))
	}
	return "\n" + DimStyle.Render(strings.Join(lines, "\n"))
}

// dateOnly trims an ISO8601 timestamp down to its date part.
func dateOnly(value string) string {
	if idx := strings.IndexByte(value, 'T'); idx > 0 {
		return value[:idx]
	}
	return value
}
