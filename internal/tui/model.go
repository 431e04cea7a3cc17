package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/taskpad/taskpad/internal/cache"
	"github.com/taskpad/taskpad/internal/config"
	"github.com/taskpad/taskpad/internal/gateway"
	"github.com/taskpad/taskpad/internal/logger"
	"github.com/taskpad/taskpad/internal/model"
	"github.com/taskpad/taskpad/internal/remote"
	"github.com/taskpad/taskpad/internal/sync"
)

// Pane represents which pane is focused
type Pane int

const (
	PaneSidebar Pane = iota
	PaneTaskList
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddTask
	ModeAddProject
	ModeRenameProject
	ModeEditTask
	ModeHelp
)

// Model is the main TUI model. The project sidebar is fed by the live
// subscription; the task pane is loaded per selected project. Both lists
// signal changes on refreshChan, which Update turns into a repaint.
type Model struct {
	cfg  *config.Config
	user model.User

	list  *sync.ProjectList
	tasks *sync.TaskList

	visible []model.Task

	refreshChan chan struct{}

	// UI state
	width      int
	height     int
	pane       Pane
	mode       Mode
	projCursor int
	taskCursor int

	// Input
	input textinput.Model

	message string
}

// NewModel creates a new TUI model and opens the live project subscription.
// When a snapshot cache is available, the sidebar is seeded from the last
// cached project snapshot so the first paint does not wait on the server.
func NewModel(cfg *config.Config, user model.User, store remote.Store, gw *gateway.Gateway, snap *cache.Cache) Model {
	logger.Info("Initializing TUI model")

	ti := textinput.New()
	ti.Placeholder = "Enter task..."
	ti.CharLimit = 256
	ti.Width = 50

	m := Model{
		cfg:         cfg,
		user:        user,
		list:        sync.NewProjectList(store, gw, user),
		tasks:       sync.NewTaskList(gw),
		pane:        PaneSidebar,
		mode:        ModeNormal,
		input:       ti,
		refreshChan: make(chan struct{}, 1), // Buffered to avoid blocking
	}

	// Non-blocking signal so list callbacks never stall on the UI.
	notify := func() {
		select {
		case m.refreshChan <- struct{}{}:
		default:
		}
	}
	m.list.OnChange(notify)
	m.tasks.OnChange(notify)

	if !user.Present() {
		m.message = "Not logged in - run 'taskpad auth login' first"
		return m
	}

	if snap != nil {
		if docs, err := snap.GetSnapshot(context.Background(), cache.ProjectScope(user.ID)); err == nil && len(docs) > 0 {
			m.list.Seed(docs)
		}
	}

	if err := m.list.Subscribe(context.Background()); err != nil {
		m.message = fmt.Sprintf("Subscription failed: %v", err)
	}
	m.reload()

	logger.Debug("TUI model initialized",
		logger.F("projects", len(m.projectRows())),
		logger.F("state", m.list.State()))
	return m
}

// reload refreshes the cached project and task rows from the sync lists,
// reloading the task pane when the selected project changed.
func (m *Model) reload() {
	projects := m.list.Projects()
	if m.projCursor >= len(projects) {
		m.projCursor = len(projects) - 1
	}
	if m.projCursor < 0 {
		m.projCursor = 0
	}

	var projectID string
	if m.projCursor < len(projects) {
		projectID = projects[m.projCursor].ID
	}
	if projectID != m.tasks.ProjectID() {
		if err := m.tasks.Load(context.Background(), projectID, m.cfg.TaskOrderDesc); err != nil {
			m.message = fmt.Sprintf("Failed to load tasks: %v", err)
		}
		m.taskCursor = 0
	}

	m.visible = m.tasks.Tasks()
	if m.taskCursor >= len(m.visible) && m.taskCursor > 0 {
		m.taskCursor = len(m.visible) - 1
	}
}

func (m *Model) projectRows() []model.Project {
	return m.list.Projects()
}

func (m *Model) currentProject() *model.Project {
	projects := m.projectRows()
	if m.projCursor < len(projects) {
		p := projects[m.projCursor]
		return &p
	}
	return nil
}

func (m *Model) currentTask() *model.Task {
	if m.taskCursor < len(m.visible) {
		t := m.visible[m.taskCursor]
		return &t
	}
	return nil
}
