package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/taskpad/taskpad/internal/sync"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	// Build the layout
	sidebar := m.renderSidebar()
	taskList := m.renderTaskList()
	statusBar := m.renderStatusBar()

	// Combine sidebar and task list
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, taskList)

	// Add modal if in input mode
	if m.mode == ModeAddTask || m.mode == ModeAddProject || m.mode == ModeRenameProject || m.mode == ModeEditTask {
		modal := m.renderModal()
		mainContent = lipgloss.Place(
			m.width, m.height-2,
			lipgloss.Center, lipgloss.Center,
			modal,
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	if m.mode == ModeHelp {
		mainContent = m.renderHelp()
	}

	// Combine with status bar
	return lipgloss.JoinVertical(lipgloss.Left, mainContent, statusBar)
}

func (m Model) renderSidebar() string {
	sidebarWidth := 24
	var s string

	// Header with time
	now := time.Now().Format("15:04:05")
	s += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("Taskpad") + "\n"
	s += HelpStyle.Render(now) + "\n"
	s += lipgloss.NewStyle().Foreground(Border).Render("─────────────────") + "\n\n"

	projects := m.projectRows()
	if len(projects) == 0 {
		s += HelpStyle.Render("No projects yet.")
	}

	for i, p := range projects {
		cursor := "  "
		style := ProjectItemStyle
		if i == m.projCursor {
			cursor = "❯ "
			if m.pane == PaneSidebar {
				style = ProjectItemSelectedStyle
			}
		}

		// Entries with unconfirmed writes get a pending marker.
		marker := " "
		if m.list.Unsynced(p.ID) {
			marker = UnsyncedStyle.Render("•")
		}

		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("●")
		line := fmt.Sprintf("%s%s %-12s", cursor, dot, truncate(p.Name, 12))
		s += style.Render(line) + marker + "\n"
	}

	s += "\n" + lipgloss.NewStyle().Foreground(Border).Render("─────────────────") + "\n"
	s += HelpStyle.Render("p new project") + "\n"
	s += HelpStyle.Render("r rename") + "\n"
	s += HelpStyle.Render("J/K reorder")

	return SidebarStyle.Width(sidebarWidth).Height(m.height - 2).Render(s)
}

func (m Model) renderTaskList() string {
	width := m.width - 26
	var s string

	proj := m.currentProject()
	if proj == nil {
		return TaskListStyle.Width(width).Height(m.height - 2).Render("No project selected")
	}

	// Header
	pending := 0
	for _, t := range m.visible {
		if !t.Completed {
			pending++
		}
	}
	header := fmt.Sprintf("%s (%d pending)", proj.Name, pending)
	s += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(header) + "\n"
	s += lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", max(width-4, 0))) + "\n\n"

	if len(m.visible) == 0 {
		if m.tasks.ShowCompleted() {
			s += HelpStyle.Render("  No tasks. Press 'a' to add one.")
		} else {
			s += HelpStyle.Render("  No open tasks. Press 'a' to add, 'c' to show completed.")
		}
	}

	for i, t := range m.visible {
		cursor := "  "
		style := TaskItemStyle
		if i == m.taskCursor && m.pane == PaneTaskList {
			cursor = "❯ "
			style = TaskItemSelectedStyle
		}

		icon := "[ ]"
		if t.Completed {
			icon = "[x]"
			style = TaskDoneStyle
		}

		marker := " "
		if m.tasks.Unsynced(t.ID) {
			marker = UnsyncedStyle.Render("•")
		}

		text := truncate(t.Text, width-10)
		s += style.Render(fmt.Sprintf("%s%s %s", cursor, icon, text)) + marker + "\n"
	}

	return TaskListStyle.Width(width).Height(m.height - 2).Render(s)
}

func (m Model) renderStatusBar() string {
	help := "a:add  e:edit  x:done  d:del  c:completed  J/K:reorder  ?:help  q:quit"
	if m.message != "" {
		help = m.message
	}

	// Subscription state, right aligned
	var state string
	switch m.list.State() {
	case sync.StateLive:
		state = LiveStyle.Render("● live")
	case sync.StateSubscribing:
		state = UnsyncedStyle.Render("● connecting")
	case sync.StateError:
		state = ErrorStyle.Render("● sync error")
	default:
		state = HelpStyle.Render("● offline")
	}

	avail := m.width - lipgloss.Width(help) - lipgloss.Width(state) - 4
	if avail > 0 {
		help += strings.Repeat(" ", avail) + state
	} else {
		help += " " + state
	}

	return StatusBarStyle.Width(m.width).Render(help)
}

func (m Model) renderModal() string {
	title := "Add Task"
	switch m.mode {
	case ModeAddProject:
		title = "New Project"
	case ModeRenameProject:
		title = "Rename Project"
	case ModeEditTask:
		title = "Edit Task"
	}

	proj := m.currentProject()
	if proj != nil && m.mode == ModeAddTask {
		title = fmt.Sprintf("Add Task to: %s", proj.Name)
	}

	content := lipgloss.NewStyle().Bold(true).Render(title) + "\n\n"
	content += m.input.View() + "\n\n"
	content += HelpStyle.Render("Enter:save  Esc:cancel")

	return ModalStyle.Render(content)
}

func (m Model) renderHelp() string {
	help := `
╭─── Keyboard Shortcuts ───╮
│                          │
│  Navigation              │
│  ──────────              │
│  j/↓    Move down        │
│  k/↑    Move up          │
│  h/l    Switch pane      │
│  Tab    Switch pane      │
│                          │
│  Actions                 │
│  ───────                 │
│  a       Add task        │
│  e       Edit task       │
│  x/Enter Toggle done     │
│  d       Delete          │
│  p       New project     │
│  r       Rename project  │
│  c       Show completed  │
│  J/K     Reorder project │
│                          │
│  Other                   │
│  ─────                   │
│  ?       Toggle help     │
│  q       Quit            │
│                          │
╰──────────────────────────╯

     Press any key to close
`
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, help)
}
