// Package gateway wraps remote store CRUD with one typed operation per
// entity per verb. It validates payloads before dispatch, requires the owner
// key on every create, and surfaces failures as WriteError values carrying
// the original request. It never touches in-memory list state.
package gateway

import (
	"context"
	"fmt"

	"github.com/taskpad/taskpad/internal/logger"
	"github.com/taskpad/taskpad/internal/model"
	"github.com/taskpad/taskpad/internal/remote"
)

// WriteError reports a create/update/delete rejected by the remote store.
// The original request rides along so the caller can retry or roll back its
// optimistic state; a failed write is never silently dropped.
type WriteError struct {
	Kind    model.MutationKind
	Entity  model.EntityType
	ID      string
	Payload any
	Err     error
}

func (e *WriteError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("remote write failed: %s %s %s: %v", e.Kind, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("remote write failed: %s %s: %v", e.Kind, e.Entity, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func writeErr(kind model.MutationKind, entity model.EntityType, id string, payload any, err error) error {
	werr := &WriteError{Kind: kind, Entity: entity, ID: id, Payload: payload, Err: err}
	logger.Error("Remote write failed",
		logger.F("kind", kind),
		logger.F("entity", entity),
		logger.F("id", id),
		logger.F("error", err))
	return werr
}

// Gateway dispatches typed mutations to the remote store.
type Gateway struct {
	store remote.Store
}

// New creates a gateway over the given store.
func New(store remote.Store) *Gateway {
	return &Gateway{store: store}
}

// CreateProject persists a new project owned by userID and returns it as
// persisted, including the server-assigned id and timestamp.
func (g *Gateway) CreateProject(ctx context.Context, userID string, payload model.ProjectCreate) (model.Project, error) {
	if userID == "" {
		return model.Project{}, writeErr(model.MutationCreate, model.EntityProject, "", payload,
			fmt.Errorf("owner user id is required"))
	}
	if err := payload.Validate(); err != nil {
		return model.Project{}, writeErr(model.MutationCreate, model.EntityProject, "", payload, err)
	}

	doc, err := g.store.Create(ctx, remote.CollectionProjects, remote.ProjectFields(payload, userID))
	if err != nil {
		return model.Project{}, writeErr(model.MutationCreate, model.EntityProject, "", payload, err)
	}

	project := remote.ProjectFromDocument(*doc)
	logger.Info("Project created", logger.F("id", project.ID), logger.F("name", project.Name))
	return project, nil
}

// UpdateProject overwrites the named fields of a project.
func (g *Gateway) UpdateProject(ctx context.Context, id string, payload model.ProjectUpdate) error {
	if err := payload.Validate(); err != nil {
		return writeErr(model.MutationUpdate, model.EntityProject, id, payload, err)
	}
	if err := g.store.Update(ctx, remote.CollectionProjects, id, payload.Fields()); err != nil {
		return writeErr(model.MutationUpdate, model.EntityProject, id, payload, err)
	}
	return nil
}

// DeleteProject removes the project document only; dependent task cleanup is
// the cascade coordinator's job.
func (g *Gateway) DeleteProject(ctx context.Context, id string) error {
	if err := g.store.Delete(ctx, remote.CollectionProjects, id); err != nil {
		return writeErr(model.MutationDelete, model.EntityProject, id, nil, err)
	}
	return nil
}

// CreateTask persists a new task under projectID with completed=false and
// returns it as persisted.
func (g *Gateway) CreateTask(ctx context.Context, projectID string, payload model.TaskCreate) (model.Task, error) {
	if projectID == "" {
		return model.Task{}, writeErr(model.MutationCreate, model.EntityTask, "", payload,
			fmt.Errorf("parent project id is required"))
	}
	if err := payload.Validate(); err != nil {
		return model.Task{}, writeErr(model.MutationCreate, model.EntityTask, "", payload, err)
	}

	doc, err := g.store.Create(ctx, remote.CollectionTasks, remote.TaskFields(payload, projectID))
	if err != nil {
		return model.Task{}, writeErr(model.MutationCreate, model.EntityTask, "", payload, err)
	}

	task := remote.TaskFromDocument(*doc)
	logger.Info("Task created", logger.F("id", task.ID), logger.F("project", task.ProjectID))
	return task, nil
}

// UpdateTask overwrites the named fields of a task.
func (g *Gateway) UpdateTask(ctx context.Context, id string, payload model.TaskUpdate) error {
	if err := payload.Validate(); err != nil {
		return writeErr(model.MutationUpdate, model.EntityTask, id, payload, err)
	}
	if err := g.store.Update(ctx, remote.CollectionTasks, id, payload.Fields()); err != nil {
		return writeErr(model.MutationUpdate, model.EntityTask, id, payload, err)
	}
	return nil
}

// DeleteTask removes a task document.
func (g *Gateway) DeleteTask(ctx context.Context, id string) error {
	if err := g.store.Delete(ctx, remote.CollectionTasks, id); err != nil {
		return writeErr(model.MutationDelete, model.EntityTask, id, nil, err)
	}
	return nil
}

// ProjectTasks returns every task belonging to a project, ordered as asked.
func (g *Gateway) ProjectTasks(ctx context.Context, projectID string, desc bool) ([]model.Task, error) {
	if projectID == "" {
		return nil, nil
	}
	docs, err := g.store.Query(ctx, remote.CollectionTasks,
		[]remote.Filter{remote.Where("projectId", projectID)}, remote.ByTimestamp(desc))
	if err != nil {
		return nil, err
	}
	tasks := make([]model.Task, 0, len(docs))
	for _, doc := range docs {
		tasks = append(tasks, remote.TaskFromDocument(doc))
	}
	return tasks, nil
}
