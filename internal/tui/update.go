package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/taskpad/taskpad/internal/model"
)

// refreshMsg is sent when a sync list reports a visible-state change
type refreshMsg struct{}

// Init starts listening for sync refresh signals
func (m Model) Init() tea.Cmd {
	return m.waitForRefresh()
}

// waitForRefresh listens for change signals from the sync lists
func (m Model) waitForRefresh() tea.Cmd {
	return func() tea.Msg {
		<-m.refreshChan
		return refreshMsg{}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.reload()
		return m, m.waitForRefresh()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Handle mode-specific input
		switch m.mode {
		case ModeAddTask, ModeAddProject, ModeRenameProject, ModeEditTask:
			return m.updateInput(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}

		// Normal mode key handling
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		// Tear the subscription down exactly once, before the program exits.
		m.list.Unsubscribe()
		return m, tea.Quit

	case key.Matches(msg, keys.Tab):
		if m.pane == PaneSidebar {
			m.pane = PaneTaskList
		} else {
			m.pane = PaneSidebar
		}

	case key.Matches(msg, keys.Left):
		m.pane = PaneSidebar

	case key.Matches(msg, keys.Right):
		m.pane = PaneTaskList

	case key.Matches(msg, keys.Up):
		m.handleUp()

	case key.Matches(msg, keys.Down):
		m.handleDown()

	case key.Matches(msg, keys.MoveUp):
		m.handleMoveProject(-1)

	case key.Matches(msg, keys.MoveDown):
		m.handleMoveProject(1)

	case key.Matches(msg, keys.Completed):
		m.tasks.SetShowCompleted(!m.tasks.ShowCompleted())
		m.reload()
		if m.tasks.ShowCompleted() {
			m.message = "Showing completed tasks"
		} else {
			m.message = "Hiding completed tasks"
		}

	case key.Matches(msg, keys.Add):
		return m.startAddTask()

	case key.Matches(msg, keys.Project):
		return m.startAddProject()

	case key.Matches(msg, keys.Rename):
		return m.startRenameProject()

	case key.Matches(msg, keys.Done), key.Matches(msg, keys.Enter):
		m.handleToggleDone()

	case key.Matches(msg, keys.Delete):
		m.handleDelete()

	case key.Matches(msg, keys.Edit):
		return m.startEditTask()

	case key.Matches(msg, keys.Escape):
		m.message = ""

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}

	return m, nil
}

func (m *Model) handleUp() {
	if m.pane == PaneSidebar {
		if m.projCursor > 0 {
			m.projCursor--
			m.taskCursor = 0
			m.reload()
		}
	} else {
		if m.taskCursor > 0 {
			m.taskCursor--
		}
	}
}

func (m *Model) handleDown() {
	if m.pane == PaneSidebar {
		if m.projCursor < len(m.projectRows())-1 {
			m.projCursor++
			m.taskCursor = 0
			m.reload()
		}
	} else {
		if m.taskCursor < len(m.visible)-1 {
			m.taskCursor++
		}
	}
}

// handleMoveProject shifts the selected project in the local presentation
// order. The move is never persisted; the next snapshot restores server order.
func (m *Model) handleMoveProject(delta int) {
	if m.pane != PaneSidebar {
		return
	}
	to := m.projCursor + delta
	if to < 0 || to >= len(m.projectRows()) {
		return
	}
	m.list.Reorder(m.projCursor, to)
	m.projCursor = to
	m.message = "Reordered locally (resets on next sync)"
}

func (m Model) startAddTask() (tea.Model, tea.Cmd) {
	if m.currentProject() == nil {
		m.message = "Create a project first (press 'p')"
		return m, nil
	}
	m.mode = ModeAddTask
	m.input.SetValue("")
	m.input.Placeholder = "Enter task..."
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) startAddProject() (tea.Model, tea.Cmd) {
	m.mode = ModeAddProject
	m.input.SetValue("")
	m.input.Placeholder = "Enter project name..."
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) startRenameProject() (tea.Model, tea.Cmd) {
	if m.pane != PaneSidebar {
		return m, nil
	}
	project := m.currentProject()
	if project == nil {
		return m, nil
	}
	m.mode = ModeRenameProject
	m.input.SetValue(project.Name)
	m.input.Placeholder = "Project name..."
	m.input.Focus()
	m.input.CursorEnd()
	return m, textinput.Blink
}

func (m *Model) handleToggleDone() {
	if m.pane != PaneTaskList {
		return
	}
	task := m.currentTask()
	if task == nil {
		return
	}

	completed := !task.Completed
	if err := m.tasks.Update(context.Background(), *task, model.TaskUpdate{Completed: &completed}); err != nil {
		m.message = fmt.Sprintf("Update failed: %v", err)
	}
	m.reload()
}

func (m *Model) handleDelete() {
	if m.pane == PaneTaskList {
		task := m.currentTask()
		if task == nil {
			return
		}
		if err := m.tasks.Delete(context.Background(), *task); err != nil {
			m.message = fmt.Sprintf("Delete failed: %v", err)
		}
		m.reload()
		return
	}

	project := m.currentProject()
	if project == nil {
		return
	}
	res, err := m.list.Delete(context.Background(), *project)
	if err != nil {
		m.message = fmt.Sprintf("Delete failed: %v", err)
		return
	}
	if res.Partial() {
		m.message = fmt.Sprintf("Deleted %q; %d tasks left behind", project.Name, len(res.Orphaned))
	} else {
		m.message = fmt.Sprintf("Deleted %q and %d tasks", project.Name, res.Deleted)
	}
	m.reload()
}

func (m Model) startEditTask() (tea.Model, tea.Cmd) {
	if m.pane == PaneTaskList {
		task := m.currentTask()
		if task != nil {
			m.mode = ModeEditTask
			m.input.SetValue(task.Text)
			m.input.Placeholder = "Edit task..."
			m.input.Focus()
			m.input.CursorEnd()
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		return m, nil

	case key.Matches(msg, keys.Enter):
		value := m.input.Value()
		if value == "" {
			m.mode = ModeNormal
			return m, nil
		}

		switch m.mode {
		case ModeAddTask:
			if _, err := m.tasks.Create(context.Background(), model.TaskCreate{Text: value}); err != nil {
				m.message = fmt.Sprintf("Error adding task: %v", err)
			} else {
				m.message = fmt.Sprintf("Added: %s", value)
			}

		case ModeAddProject:
			color := model.DefaultColors[len(m.projectRows())%len(model.DefaultColors)]
			if _, err := m.list.Create(context.Background(), model.ProjectCreate{Name: value, Color: color}); err != nil {
				m.message = fmt.Sprintf("Error creating project: %v", err)
			} else {
				m.message = fmt.Sprintf("Created project: %s", value)
			}

		case ModeRenameProject:
			project := m.currentProject()
			if project != nil {
				name := value
				if err := m.list.Update(context.Background(), project.ID, model.ProjectUpdate{Name: &name}); err != nil {
					m.message = fmt.Sprintf("Error renaming project: %v", err)
				} else {
					m.message = fmt.Sprintf("Renamed project: %s", value)
				}
			}

		case ModeEditTask:
			task := m.currentTask()
			if task != nil {
				text := value
				if err := m.tasks.Update(context.Background(), *task, model.TaskUpdate{Text: &text}); err != nil {
					m.message = fmt.Sprintf("Error updating task: %v", err)
				} else {
					m.message = fmt.Sprintf("Updated: %s", value)
				}
			}
		}

		m.reload()
		m.mode = ModeNormal
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
