package sync_test

import (
	"context"
	"testing"

	"github.com/taskpad/taskpad/internal/gateway"
	"github.com/taskpad/taskpad/internal/model"
	"github.com/taskpad/taskpad/internal/remote"
	"github.com/taskpad/taskpad/internal/sync"
)

func taskTexts(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Text
	}
	return out
}

func equalTexts(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTaskLoad(t *testing.T) {
	t.Run("loads the project's tasks newest first", func(t *testing.T) {
		mem := remote.NewMemoryStore()
		gw := gateway.New(mem)
		project, _ := seedProject(t, gw, "Home", "first", "second", "third")

		list := sync.NewTaskList(gw)
		if err := list.Load(context.Background(), project.ID, true); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got := taskTexts(list.Tasks()); !equalTexts(got, "third", "second", "first") {
			t.Fatalf("expected newest-first order, got %v", got)
		}
	})

	t.Run("empty project id empties the list without querying", func(t *testing.T) {
		mem := remote.NewMemoryStore()
		flaky := &flakyStore{Store: mem}
		gw := gateway.New(flaky)
		project, _ := seedProject(t, gw, "Home", "a")

		list := sync.NewTaskList(gw)
		if err := list.Load(context.Background(), project.ID, true); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		before := flaky.queryCalls

		if err := list.Load(context.Background(), "", true); err != nil {
			t.Fatalf("empty load failed: %v", err)
		}
		if len(list.Tasks()) != 0 {
			t.Error("expected an empty list")
		}
		if flaky.queryCalls != before {
			t.Error("empty load must not query the store")
		}
	})

	t.Run("load failure keeps the previous set and returns the error", func(t *testing.T) {
		mem := remote.NewMemoryStore()
		flaky := &flakyStore{Store: mem}
		gw := gateway.New(flaky)
		project, _ := seedProject(t, gw, "Home", "a")

		list := sync.NewTaskList(gw)
		if err := list.Load(context.Background(), project.ID, true); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		flaky.failQuery = true
		if err := list.Load(context.Background(), project.ID, true); err == nil {
			t.Fatal("expected load error")
		}
		if got := taskTexts(list.Tasks()); !equalTexts(got, "a") {
			t.Errorf("previous set should survive a failed reload, got %v", got)
		}
	})

	t.Run("superseded load results are dropped", func(t *testing.T) {
		mem := remote.NewMemoryStore()
		gw := gateway.New(mem)
		home, _ := seedProject(t, gw, "Home", "home task")
		work, _ := seedProject(t, gw, "Work", "work task")

		hooked := &hookedStore{Store: mem}
		list := sync.NewTaskList(gateway.New(hooked))
		// While the first load's query is in flight, a navigation to Work
		// starts a second load; the first result must not clobber it.
		hooked.beforeQuery = func() {
			hooked.beforeQuery = nil
			if err := list.Load(context.Background(), work.ID, true); err != nil {
				t.Errorf("second load failed: %v", err)
			}
		}
		if err := list.Load(context.Background(), home.ID, true); err != nil {
			t.Fatalf("first load failed: %v", err)
		}
		if got := taskTexts(list.Tasks()); !equalTexts(got, "work task") {
			t.Fatalf("expected the later load to win, got %v", got)
		}
		if list.ProjectID() != work.ID {
			t.Errorf("expected project %s, got %s", work.ID, list.ProjectID())
		}
	})
}

func TestTaskCompletedFilter(t *testing.T) {
	mem := remote.NewMemoryStore()
	flaky := &flakyStore{Store: mem}
	gw := gateway.New(flaky)
	project, tasks := seedProject(t, gw, "Home", "a", "b", "c")

	list := sync.NewTaskList(gw)
	if err := list.Load(context.Background(), project.ID, true); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	done := true
	if err := list.Update(context.Background(), tasks[1], model.TaskUpdate{Completed: &done}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	t.Run("completed tasks are hidden by default", func(t *testing.T) {
		if got := taskTexts(list.Tasks()); !equalTexts(got, "c", "a") {
			t.Fatalf("expected [c a], got %v", got)
		}
	})

	t.Run("toggling the filter restores the full set without a query", func(t *testing.T) {
		before := flaky.queryCalls
		list.SetShowCompleted(true)
		if got := taskTexts(list.Tasks()); !equalTexts(got, "c", "b", "a") {
			t.Fatalf("expected [c b a], got %v", got)
		}
		list.SetShowCompleted(false)
		if got := taskTexts(list.Tasks()); !equalTexts(got, "c", "a") {
			t.Fatalf("expected [c a] again, got %v", got)
		}
		if flaky.queryCalls != before {
			t.Error("filter toggles must not hit the store")
		}
	})
}

func TestTaskCreate(t *testing.T) {
	t.Run("new task is prepended", func(t *testing.T) {
		mem := remote.NewMemoryStore()
		gw := gateway.New(mem)
		project, _ := seedProject(t, gw, "Home", "old")

		list := sync.NewTaskList(gw)
		if err := list.Load(context.Background(), project.ID, true); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		task, err := list.Create(context.Background(), model.TaskCreate{Text: "new"})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if task.Completed {
			t.Error("new tasks start active")
		}
		if got := taskTexts(list.Tasks()); !equalTexts(got, "new", "old") {
			t.Fatalf("expected [new old], got %v", got)
		}
	})

	t.Run("create without a loaded project is rejected", func(t *testing.T) {
		list := sync.NewTaskList(gateway.New(remote.NewMemoryStore()))
		if _, err := list.Create(context.Background(), model.TaskCreate{Text: "x"}); err == nil {
			t.Fatal("expected error with no project loaded")
		}
	})

	t.Run("failed create leaves the list untouched", func(t *testing.T) {
		mem := remote.NewMemoryStore()
		flaky := &flakyStore{Store: mem}
		gw := gateway.New(flaky)
		project, _ := seedProject(t, gw, "Home", "old")

		list := sync.NewTaskList(gw)
		if err := list.Load(context.Background(), project.ID, true); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		flaky.failCreate = true
		_, err := list.Create(context.Background(), model.TaskCreate{Text: "new"})
		if err == nil {
			t.Fatal("expected create error")
		}
		var werr *gateway.WriteError
		if !asWriteError(err, &werr) {
			t.Fatalf("expected WriteError, got %T", err)
		}
		if werr.Kind != model.MutationCreate || werr.Entity != model.EntityTask {
			t.Errorf("unexpected error identity: %+v", werr)
		}
		if got := taskTexts(list.Tasks()); !equalTexts(got, "old") {
			t.Fatalf("expected [old], got %v", got)
		}
	})
}

func TestTaskUpdate(t *testing.T) {
	t.Run("edit replaces the entry in place", func(t *testing.T) {
		mem := remote.NewMemoryStore()
		gw := gateway.New(mem)
		project, tasks := seedProject(t, gw, "Home", "a", "b", "c")

		list := sync.NewTaskList(gw)
		if err := list.Load(context.Background(), project.ID, true); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		text := "b edited"
		if err := list.Update(context.Background(), tasks[1], model.TaskUpdate{Text: &text}); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if got := taskTexts(list.Tasks()); !equalTexts(got, "c", "b edited", "a") {
			t.Fatalf("expected in-place edit, got %v", got)
		}
	})

	t.Run("task is marked unsynced while the write is in flight", func(t *testing.T) {
		mem := remote.NewMemoryStore()
		gw := gateway.New(mem)
		project, tasks := seedProject(t, gw, "Home", "a")

		hooked := &hookedStore{Store: mem}
		list := sync.NewTaskList(gateway.New(hooked))
		if err := list.Load(context.Background(), project.ID, true); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		inFlight := false
		hooked.beforeUpdate = func() { inFlight = list.Unsynced(tasks[0].ID) }

		done := true
		if err := list.Update(context.Background(), tasks[0], model.TaskUpdate{Completed: &done}); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if !inFlight {
			t.Error("expected unsynced marker during the write")
		}
		if list.Unsynced(tasks[0].ID) {
			t.Error("marker should clear once the write completes")
		}
	})

	t.Run("failed edit rolls back to the prior entry", func(t *testing.T) {
		mem := remote.NewMemoryStore()
		flaky := &flakyStore{Store: mem}
		gw := gateway.New(flaky)
		project, tasks := seedProject(t, gw, "Home", "a", "b")

		list := sync.NewTaskList(gw)
		if err := list.Load(context.Background(), project.ID, true); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		flaky.failUpdate = true
		done := true
		if err := list.Update(context.Background(), tasks[0], model.TaskUpdate{Completed: &done}); err == nil {
			t.Fatal("expected update error")
		}
		if got := taskTexts(list.Tasks()); !equalTexts(got, "b", "a") {
			t.Fatalf("expected rollback to [b a], got %v", got)
		}
		if list.Unsynced(tasks[0].ID) {
			t.Error("rolled-back task should not stay unsynced")
		}
	})
}

func TestTaskDelete(t *testing.T) {
	t.Run("delete removes the entry", func(t *testing.T) {
		mem := remote.NewMemoryStore()
		gw := gateway.New(mem)
		project, tasks := seedProject(t, gw, "Home", "a", "b", "c")

		list := sync.NewTaskList(gw)
		if err := list.Load(context.Background(), project.ID, true); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if err := list.Delete(context.Background(), tasks[1]); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if got := taskTexts(list.Tasks()); !equalTexts(got, "c", "a") {
			t.Fatalf("expected [c a], got %v", got)
		}
	})

	t.Run("failed delete reinserts at the prior index", func(t *testing.T) {
		mem := remote.NewMemoryStore()
		flaky := &flakyStore{Store: mem, failDelete: map[string]bool{}}
		gw := gateway.New(flaky)
		project, tasks := seedProject(t, gw, "Home", "a", "b", "c")

		list := sync.NewTaskList(gw)
		if err := list.Load(context.Background(), project.ID, true); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		flaky.failDelete[tasks[1].ID] = true
		if err := list.Delete(context.Background(), tasks[1]); err == nil {
			t.Fatal("expected delete error")
		}
		if got := taskTexts(list.Tasks()); !equalTexts(got, "c", "b", "a") {
			t.Fatalf("expected [c b a] after rollback, got %v", got)
		}
	})
}
