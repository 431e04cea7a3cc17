package sync

import (
	"context"

	"github.com/taskpad/taskpad/internal/gateway"
	"github.com/taskpad/taskpad/internal/logger"
	"github.com/taskpad/taskpad/internal/model"
)

// CascadeResult reports the outcome of a project deletion and its dependent
// task cleanup. The store offers no atomic batch, so task deletes are
// independent best-effort calls and a partial failure leaves orphans.
type CascadeResult struct {
	Project  model.Project
	Expected int      // dependent tasks found
	Deleted  int      // task deletes that succeeded
	Orphaned []string // ids of tasks still referencing the deleted project
	Err      error    // task query failure, if the dependents could not be listed
}

// Partial reports whether cleanup left orphaned tasks (or could not even
// enumerate them).
func (r *CascadeResult) Partial() bool {
	return len(r.Orphaned) > 0 || r.Err != nil
}

// Cascade fans a project deletion out to the tasks that reference it.
type Cascade struct {
	gw *gateway.Gateway
}

// NewCascade creates a cascade coordinator over the gateway.
func NewCascade(gw *gateway.Gateway) *Cascade {
	return &Cascade{gw: gw}
}

// DeleteProject deletes the project, then every task whose projectId matches.
// The project delete is the operation whose success is reported: if it fails
// the error returns and nothing else is attempted. Task cleanup is
// best-effort; failures are collected in the result and logged with enough
// identity for manual cleanup, never returned as an error.
func (c *Cascade) DeleteProject(ctx context.Context, project model.Project) (*CascadeResult, error) {
	if err := c.gw.DeleteProject(ctx, project.ID); err != nil {
		return nil, err
	}

	res := &CascadeResult{Project: project}

	tasks, err := c.gw.ProjectTasks(ctx, project.ID, true)
	if err != nil {
		res.Err = err
		logger.Error("Cascade delete could not list dependent tasks",
			logger.F("project", project.ID),
			logger.F("error", err))
		return res, nil
	}

	res.Expected = len(tasks)
	for _, t := range tasks {
		if err := c.gw.DeleteTask(ctx, t.ID); err != nil {
			res.Orphaned = append(res.Orphaned, t.ID)
			continue
		}
		res.Deleted++
	}

	if res.Partial() {
		logger.Warn("Cascade delete left orphaned tasks",
			logger.F("project", project.ID),
			logger.F("expected", res.Expected),
			logger.F("deleted", res.Deleted),
			logger.F("orphaned", res.Orphaned))
	} else {
		logger.Info("Project deleted with tasks",
			logger.F("project", project.ID),
			logger.F("tasks", res.Deleted))
	}

	return res, nil
}
