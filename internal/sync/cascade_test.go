package sync_test

import (
	"context"
	"testing"

	"github.com/taskpad/taskpad/internal/gateway"
	"github.com/taskpad/taskpad/internal/model"
	"github.com/taskpad/taskpad/internal/remote"
	"github.com/taskpad/taskpad/internal/sync"
)

func seedProject(t *testing.T, gw *gateway.Gateway, name string, taskTexts ...string) (model.Project, []model.Task) {
	t.Helper()
	ctx := context.Background()
	project, err := gw.CreateProject(ctx, "u1", model.ProjectCreate{Name: name, Color: "#fff"})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
	tasks := make([]model.Task, 0, len(taskTexts))
	for _, text := range taskTexts {
		task, err := gw.CreateTask(ctx, project.ID, model.TaskCreate{Text: text})
		if err != nil {
			t.Fatalf("seed task: %v", err)
		}
		tasks = append(tasks, task)
	}
	return project, tasks
}

func TestCascadeDeleteProject(t *testing.T) {
	t.Run("deletes project then each dependent task", func(t *testing.T) {
		mem := remote.NewMemoryStore()
		flaky := &flakyStore{Store: mem, failDelete: map[string]bool{}}
		gw := gateway.New(flaky)
		project, tasks := seedProject(t, gw, "Home", "t1", "t2", "t3")

		flaky.deleteCalls = 0
		res, err := sync.NewCascade(gw).DeleteProject(context.Background(), project)
		if err != nil {
			t.Fatalf("cascade failed: %v", err)
		}
		if flaky.deleteCalls != len(tasks)+1 {
			t.Errorf("expected %d delete calls, got %d", len(tasks)+1, flaky.deleteCalls)
		}
		if res.Expected != len(tasks) || res.Deleted != len(tasks) {
			t.Errorf("expected %d/%d tasks deleted, got %d/%d", len(tasks), len(tasks), res.Deleted, res.Expected)
		}
		if res.Partial() {
			t.Errorf("unexpected partial result: %+v", res)
		}

		if doc, _ := mem.Get(context.Background(), remote.CollectionProjects, project.ID); doc != nil {
			t.Error("project document still present")
		}
		left, _ := gw.ProjectTasks(context.Background(), project.ID, true)
		if len(left) != 0 {
			t.Errorf("expected no tasks left, got %d", len(left))
		}
	})

	t.Run("project delete failure aborts the cascade", func(t *testing.T) {
		mem := remote.NewMemoryStore()
		flaky := &flakyStore{Store: mem, failDelete: map[string]bool{}}
		gw := gateway.New(flaky)
		project, tasks := seedProject(t, gw, "Home", "t1", "t2")

		flaky.failDelete[project.ID] = true
		flaky.deleteCalls = 0
		if _, err := sync.NewCascade(gw).DeleteProject(context.Background(), project); err == nil {
			t.Fatal("expected error when the project delete fails")
		}
		if flaky.deleteCalls != 1 {
			t.Errorf("no task deletes should be attempted, got %d calls", flaky.deleteCalls)
		}
		left, _ := gw.ProjectTasks(context.Background(), project.ID, true)
		if len(left) != len(tasks) {
			t.Errorf("expected all %d tasks untouched, got %d", len(tasks), len(left))
		}
	})

	t.Run("task delete failures leave observable orphans", func(t *testing.T) {
		mem := remote.NewMemoryStore()
		flaky := &flakyStore{Store: mem, failDelete: map[string]bool{}}
		gw := gateway.New(flaky)
		project, tasks := seedProject(t, gw, "Home", "t1", "t2")

		victim := tasks[1]
		flaky.failDelete[victim.ID] = true

		res, err := sync.NewCascade(gw).DeleteProject(context.Background(), project)
		if err != nil {
			t.Fatalf("project delete should still report success: %v", err)
		}
		if !res.Partial() {
			t.Fatal("expected a partial result")
		}
		if res.Expected != 2 || res.Deleted != 1 {
			t.Errorf("expected 1/2 deleted, got %d/%d", res.Deleted, res.Expected)
		}
		if len(res.Orphaned) != 1 || res.Orphaned[0] != victim.ID {
			t.Errorf("expected orphaned [%s], got %v", victim.ID, res.Orphaned)
		}

		// The orphan still exists in the store, referencing the dead project.
		if doc, _ := mem.Get(context.Background(), remote.CollectionTasks, victim.ID); doc == nil {
			t.Error("orphaned task should still be present")
		}
	})

	t.Run("task query failure is reported in the result, not as an error", func(t *testing.T) {
		mem := remote.NewMemoryStore()
		flaky := &flakyStore{Store: mem, failDelete: map[string]bool{}}
		gw := gateway.New(flaky)
		project, _ := seedProject(t, gw, "Home", "t1")

		flaky.failQuery = true
		res, err := sync.NewCascade(gw).DeleteProject(context.Background(), project)
		if err != nil {
			t.Fatalf("expected success with a degraded result, got %v", err)
		}
		if res.Err == nil || !res.Partial() {
			t.Errorf("expected the enumeration failure in the result, got %+v", res)
		}
	})

	t.Run("project without tasks deletes cleanly", func(t *testing.T) {
		mem := remote.NewMemoryStore()
		gw := gateway.New(mem)
		project, _ := seedProject(t, gw, "Empty")

		res, err := sync.NewCascade(gw).DeleteProject(context.Background(), project)
		if err != nil {
			t.Fatalf("cascade failed: %v", err)
		}
		if res.Expected != 0 || res.Partial() {
			t.Errorf("expected clean empty cascade, got %+v", res)
		}
	})
}
