package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskpad/taskpad/internal/cache"
	"github.com/taskpad/taskpad/internal/config"
	"github.com/taskpad/taskpad/internal/gateway"
	"github.com/taskpad/taskpad/internal/logger"
	"github.com/taskpad/taskpad/internal/model"
	"github.com/taskpad/taskpad/internal/remote"
	"github.com/taskpad/taskpad/internal/session"
)

// appEnv wires the pieces every command needs: config, the resolved user,
// the remote store and the mutation gateway, plus the local snapshot cache.
type appEnv struct {
	cfg     *config.Config
	session *session.Client
	store   *remote.HTTPStore
	gw      *gateway.Gateway
	user    model.User
	snap    *cache.Cache
}

// newAppEnv builds the command environment. With requireUser set, an absent
// or rejected login is an error; otherwise the zero user is passed through
// and downstream code treats it as "no data".
func newAppEnv(requireUser bool) (*appEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	client, err := session.NewClient(cfg.ServerURL)
	if err != nil {
		return nil, err
	}

	user, err := client.CurrentUser()
	if err != nil {
		logger.Warn("Could not resolve user", logger.F("error", err))
	}
	if requireUser && !user.Present() {
		return nil, fmt.Errorf("not logged in; run 'taskpad auth login' first")
	}

	store := remote.NewHTTPStore(client.ServerURL(), client.Token())
	store.SetPollInterval(cfg.PollInterval())

	env := &appEnv{
		cfg:     cfg,
		session: client,
		store:   store,
		gw:      gateway.New(store),
		user:    user,
	}

	// The snapshot cache is best-effort; commands degrade to server-only.
	if snap, err := cache.OpenDefault(); err == nil {
		env.snap = snap
	} else {
		logger.Warn("Snapshot cache unavailable", logger.F("error", err))
	}

	return env, nil
}

func (e *appEnv) Close() {
	if e.snap != nil {
		e.snap.Close()
	}
}

// fetchProjects reads the user's projects from the server, refreshing the
// snapshot cache on success and falling back to it when the server is
// unreachable.
func (e *appEnv) fetchProjects(ctx context.Context) ([]model.Project, error) {
	docs, err := e.store.Query(ctx, remote.CollectionProjects,
		[]remote.Filter{remote.Where("userId", e.user.ID)}, remote.ByTimestamp(true))
	if err != nil {
		if e.snap == nil {
			return nil, err
		}
		cached, cerr := e.snap.GetSnapshot(ctx, cache.ProjectScope(e.user.ID))
		if cerr != nil || len(cached) == 0 {
			return nil, err
		}
		logger.Info("Serving projects from snapshot cache", logger.F("error", err))
		docs = cached
	} else if e.snap != nil {
		if cerr := e.snap.PutSnapshot(ctx, cache.ProjectScope(e.user.ID), docs); cerr != nil {
			logger.Warn("Failed to cache project snapshot", logger.F("error", cerr))
		}
	}

	projects := make([]model.Project, 0, len(docs))
	for _, doc := range docs {
		projects = append(projects, remote.ProjectFromDocument(doc))
	}
	return projects, nil
}

// fetchTasks reads a project's tasks with the same cache fallback.
func (e *appEnv) fetchTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	docs, err := e.store.Query(ctx, remote.CollectionTasks,
		[]remote.Filter{remote.Where("projectId", projectID)},
		remote.ByTimestamp(e.cfg.TaskOrderDesc))
	if err != nil {
		if e.snap == nil {
			return nil, err
		}
		cached, cerr := e.snap.GetSnapshot(ctx, cache.TaskScope(projectID))
		if cerr != nil || len(cached) == 0 {
			return nil, err
		}
		logger.Info("Serving tasks from snapshot cache", logger.F("error", err))
		docs = cached
	} else if e.snap != nil {
		if cerr := e.snap.PutSnapshot(ctx, cache.TaskScope(projectID), docs); cerr != nil {
			logger.Warn("Failed to cache task snapshot", logger.F("error", cerr))
		}
	}

	tasks := make([]model.Task, 0, len(docs))
	for _, doc := range docs {
		tasks = append(tasks, remote.TaskFromDocument(doc))
	}
	return tasks, nil
}

// findProject resolves a project by exact name, then by id prefix.
func (e *appEnv) findProject(ctx context.Context, ref string) (model.Project, error) {
	projects, err := e.fetchProjects(ctx)
	if err != nil {
		return model.Project{}, err
	}

	for _, p := range projects {
		if p.Name == ref {
			return p, nil
		}
	}
	var matches []model.Project
	for _, p := range projects {
		if strings.HasPrefix(p.ID, ref) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return model.Project{}, fmt.Errorf("project reference %q is ambiguous", ref)
	}
	return model.Project{}, fmt.Errorf("no project matching %q", ref)
}

// findTask resolves a task within a project by id prefix or exact text.
func (e *appEnv) findTask(ctx context.Context, projectID, ref string) (model.Task, error) {
	tasks, err := e.fetchTasks(ctx, projectID)
	if err != nil {
		return model.Task{}, err
	}

	var matches []model.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, ref) || t.Text == ref {
			matches = append(matches, t)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return model.Task{}, fmt.Errorf("task reference %q is ambiguous", ref)
	}
	return model.Task{}, fmt.Errorf("no task matching %q", ref)
}
