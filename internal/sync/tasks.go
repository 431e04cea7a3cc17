package sync

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskpad/taskpad/internal/gateway"
	"github.com/taskpad/taskpad/internal/logger"
	"github.com/taskpad/taskpad/internal/model"
)

// TaskList owns the in-memory task list for the currently open project.
// Unlike projects, tasks are snapshot-loaded once per navigation, not
// push-updated; the completed/active filter is purely local and re-derives
// the visible subset from the last loaded full set.
type TaskList struct {
	mu sync.Mutex
	gw *gateway.Gateway

	projectID string
	desc      bool
	epoch     int // bumped on Load; stale completions are dropped

	all           []model.Task // full loaded set with local edits applied
	showCompleted bool
	pending       map[string]model.PendingMutation

	onChange func()
}

// NewTaskList creates an empty task list.
func NewTaskList(gw *gateway.Gateway) *TaskList {
	return &TaskList{
		gw:      gw,
		pending: map[string]model.PendingMutation{},
	}
}

// OnChange registers a callback invoked after every visible-state change.
func (l *TaskList) OnChange(fn func()) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

func (l *TaskList) notify() {
	l.mu.Lock()
	fn := l.onChange
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Load performs the one-shot ordered query for a project's tasks and
// replaces the full set. An empty project id empties the list without
// querying. Results of a Load superseded by a later Load are dropped.
func (l *TaskList) Load(ctx context.Context, projectID string, desc bool) error {
	l.mu.Lock()
	l.epoch++
	epoch := l.epoch
	l.projectID = projectID
	l.desc = desc
	l.mu.Unlock()

	if projectID == "" {
		l.mu.Lock()
		if epoch == l.epoch {
			l.all = nil
			l.pending = map[string]model.PendingMutation{}
		}
		l.mu.Unlock()
		l.notify()
		return nil
	}

	tasks, err := l.gw.ProjectTasks(ctx, projectID, desc)
	if err != nil {
		logger.Error("Task load failed",
			logger.F("project", projectID),
			logger.F("error", err))
		return fmt.Errorf("load tasks: %w", err)
	}

	l.mu.Lock()
	if epoch != l.epoch {
		l.mu.Unlock()
		return nil
	}
	l.all = tasks
	l.pending = map[string]model.PendingMutation{}
	l.mu.Unlock()

	logger.Debug("Tasks loaded", logger.F("project", projectID), logger.F("count", len(tasks)))
	l.notify()
	return nil
}

// ProjectID returns the project the list is loaded for.
func (l *TaskList) ProjectID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.projectID
}

// Tasks returns the visible subset: the full set, minus completed tasks when
// the filter hides them.
func (l *TaskList) Tasks() []model.Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Task, 0, len(l.all))
	for _, t := range l.all {
		if !l.showCompleted && t.Completed {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SetShowCompleted toggles the completed filter. Purely local: the full set
// is untouched and no query is issued, so toggling back restores everything
// including unconfirmed local edits.
func (l *TaskList) SetShowCompleted(show bool) {
	l.mu.Lock()
	l.showCompleted = show
	l.mu.Unlock()
	l.notify()
}

// ShowCompleted reports the current filter setting.
func (l *TaskList) ShowCompleted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.showCompleted
}

// Unsynced reports whether the task has an in-flight write.
func (l *TaskList) Unsynced(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.pending[id]
	return ok
}

// Create persists a new task under the loaded project (completed=false) and
// prepends it to the visible list, so the newest task appears at the top
// regardless of the persisted sort direction.
func (l *TaskList) Create(ctx context.Context, payload model.TaskCreate) (model.Task, error) {
	l.mu.Lock()
	epoch := l.epoch
	projectID := l.projectID
	l.mu.Unlock()

	if projectID == "" {
		return model.Task{}, fmt.Errorf("no project loaded")
	}

	task, err := l.gw.CreateTask(ctx, projectID, payload)
	if err != nil {
		return model.Task{}, err
	}

	l.mu.Lock()
	if epoch != l.epoch {
		// Navigated away while the write was in flight.
		l.mu.Unlock()
		return task, nil
	}
	duplicate := false
	for _, t := range l.all {
		if t.ID == task.ID {
			duplicate = true
			break
		}
	}
	if !duplicate {
		l.all = append([]model.Task{task}, l.all...)
	}
	l.mu.Unlock()

	l.notify()
	return task, nil
}

// Update splice-replaces the task at its current index optimistically, then
// dispatches the partial update. On failure the prior entry is restored and
// the error returned.
func (l *TaskList) Update(ctx context.Context, task model.Task, payload model.TaskUpdate) error {
	l.mu.Lock()
	epoch := l.epoch
	idx := l.indexLocked(task.ID)
	var prior model.Task
	if idx >= 0 {
		prior = l.all[idx]
		edited := prior
		if payload.Text != nil {
			edited.Text = *payload.Text
		}
		if payload.Completed != nil {
			edited.Completed = *payload.Completed
		}
		l.all[idx] = edited
		l.pending[task.ID] = model.PendingMutation{
			Kind:    model.MutationUpdate,
			Entity:  model.EntityTask,
			ID:      task.ID,
			Payload: payload,
		}
	}
	l.mu.Unlock()
	l.notify()

	err := l.gw.UpdateTask(ctx, task.ID, payload)

	l.mu.Lock()
	if epoch == l.epoch {
		delete(l.pending, task.ID)
		if err != nil {
			if i := l.indexLocked(task.ID); i >= 0 {
				l.all[i] = prior
			}
		}
	}
	l.mu.Unlock()
	l.notify()

	return err
}

// Delete removes the task from the visible list by id, then dispatches the
// delete. On failure the entry is reinserted at its prior index and the
// error returned, instead of silently diverging from the store.
func (l *TaskList) Delete(ctx context.Context, task model.Task) error {
	l.mu.Lock()
	epoch := l.epoch
	idx := l.indexLocked(task.ID)
	var prior model.Task
	if idx >= 0 {
		prior = l.all[idx]
		l.all = append(l.all[:idx], l.all[idx+1:]...)
		l.pending[task.ID] = model.PendingMutation{
			Kind:   model.MutationDelete,
			Entity: model.EntityTask,
			ID:     task.ID,
		}
	}
	l.mu.Unlock()
	l.notify()

	err := l.gw.DeleteTask(ctx, task.ID)

	l.mu.Lock()
	if epoch == l.epoch {
		delete(l.pending, task.ID)
		if err != nil && idx >= 0 {
			at := idx
			if at > len(l.all) {
				at = len(l.all)
			}
			l.all = append(l.all[:at], append([]model.Task{prior}, l.all[at:]...)...)
		}
	}
	l.mu.Unlock()
	l.notify()

	return err
}

func (l *TaskList) indexLocked(id string) int {
	for i, t := range l.all {
		if t.ID == id {
			return i
		}
	}
	return -1
}
