package sync_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/taskpad/taskpad/internal/gateway"
	"github.com/taskpad/taskpad/internal/model"
	"github.com/taskpad/taskpad/internal/remote"
	"github.com/taskpad/taskpad/internal/sync"
)

// pushStore exposes CRUD from the in-memory store but hands snapshot
// delivery to the test, so snapshots can be pushed at exact points.
type pushStore struct {
	*remote.MemoryStore
	cb          func([]remote.Document)
	failSub     bool
	unsubscribe int
}

type pushSub struct{ s *pushStore }

func (p *pushSub) Unsubscribe() { p.s.unsubscribe++ }

func (s *pushStore) Subscribe(ctx context.Context, collection string, filters []remote.Filter, order remote.Order, onSnapshot func([]remote.Document)) (remote.Subscription, error) {
	if s.failSub {
		return nil, fmt.Errorf("connection refused")
	}
	s.cb = onSnapshot
	onSnapshot(nil)
	return &pushSub{s: s}, nil
}

func (s *pushStore) push(docs []remote.Document) {
	if s.cb != nil {
		s.cb(docs)
	}
}

func newPushStore() *pushStore {
	return &pushStore{MemoryStore: remote.NewMemoryStore()}
}

func projectDoc(id, name, color, userID string, ts time.Time) remote.Document {
	return remote.Document{
		ID: id,
		Fields: map[string]any{
			"name":   name,
			"color":  color,
			"userId": userID,
		},
		Timestamp: ts,
	}
}

func ids(projects []model.Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.ID
	}
	return out
}

func equalIDs(a []string, b ...string) bool {
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

func TestProjectListSubscribe(t *testing.T) {
	t.Run("absent user does nothing", func(t *testing.T) {
		store := newPushStore()
		list := sync.NewProjectList(store, gateway.New(store), model.User{})

		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe with absent user should be a no-op, got %v", err)
		}
		if list.State() != sync.StateUnsubscribed {
			t.Errorf("expected unsubscribed state, got %v", list.State())
		}
		if len(list.Projects()) != 0 {
			t.Errorf("expected no projects, got %d", len(list.Projects()))
		}
	})

	t.Run("subscribe goes live", func(t *testing.T) {
		store := newPushStore()
		list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1", Email: "u1@example.com"})

		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
		if list.State() != sync.StateLive {
			t.Errorf("expected live state, got %v", list.State())
		}
	})

	t.Run("double subscribe is an error", func(t *testing.T) {
		store := newPushStore()
		list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1"})

		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
		if err := list.Subscribe(context.Background()); err == nil {
			t.Error("expected error on second subscribe")
		}
	})

	t.Run("failure transitions to error state", func(t *testing.T) {
		store := newPushStore()
		store.failSub = true
		list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1"})

		if err := list.Subscribe(context.Background()); err == nil {
			t.Fatal("expected subscribe error")
		}
		if list.State() != sync.StateError {
			t.Errorf("expected error state, got %v", list.State())
		}
		if list.Err() == nil {
			t.Error("expected Err to report the failure")
		}
	})

	t.Run("unsubscribe tears down the listener once", func(t *testing.T) {
		store := newPushStore()
		list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1"})

		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
		list.Unsubscribe()
		if store.unsubscribe != 1 {
			t.Errorf("expected 1 unsubscribe call, got %d", store.unsubscribe)
		}
		if list.State() != sync.StateUnsubscribed {
			t.Errorf("expected unsubscribed state, got %v", list.State())
		}

		// A snapshot delivered after teardown must not reach the list.
		store.push([]remote.Document{projectDoc("p1", "Home", "#fff", "u1", time.Now())})
		if len(list.Projects()) != 0 {
			t.Error("snapshot applied after unsubscribe")
		}
	})
}

func TestProjectSeed(t *testing.T) {
	t.Run("seed paints before the subscription opens", func(t *testing.T) {
		store := newPushStore()
		list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1"})

		list.Seed([]remote.Document{projectDoc("p1", "Home", "#fff", "u1", time.Now())})
		if got := ids(list.Projects()); !equalIDs(got, "p1") {
			t.Fatalf("expected seeded [p1], got %v", got)
		}
		if list.State() != sync.StateUnsubscribed {
			t.Errorf("seeding must not change the subscription state, got %v", list.State())
		}
	})

	t.Run("first live snapshot replaces the seed", func(t *testing.T) {
		store := newPushStore()
		list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1"})

		list.Seed([]remote.Document{projectDoc("stale", "Old", "#000", "u1", time.Now())})
		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}

		// The push store delivers an empty initial snapshot synchronously.
		if got := len(list.Projects()); got != 0 {
			t.Fatalf("expected live snapshot to replace the seed, got %d entries", got)
		}
	})

	t.Run("seed after going live is ignored", func(t *testing.T) {
		store := newPushStore()
		list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1"})
		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
		store.push([]remote.Document{projectDoc("p1", "Home", "#fff", "u1", time.Now())})

		list.Seed([]remote.Document{projectDoc("stale", "Old", "#000", "u1", time.Now())})
		if got := ids(list.Projects()); !equalIDs(got, "p1") {
			t.Fatalf("expected seed to be ignored, got %v", got)
		}
	})
}

func TestSnapshotApplication(t *testing.T) {
	t.Run("snapshot replaces the confirmed set in full", func(t *testing.T) {
		store := newPushStore()
		list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1"})
		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}

		now := time.Now()
		store.push([]remote.Document{
			projectDoc("p2", "Work", "#abc", "u1", now),
			projectDoc("p1", "Home", "#fff", "u1", now.Add(-time.Hour)),
		})
		if got := ids(list.Projects()); !equalIDs(got, "p2", "p1") {
			t.Fatalf("expected [p2 p1], got %v", got)
		}

		store.push([]remote.Document{
			projectDoc("p1", "Home", "#fff", "u1", now.Add(-time.Hour)),
		})
		if got := ids(list.Projects()); !equalIDs(got, "p1") {
			t.Fatalf("expected [p1] after replacing snapshot, got %v", got)
		}
	})

	t.Run("applying the same snapshot twice is idempotent", func(t *testing.T) {
		store := newPushStore()
		list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1"})
		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}

		now := time.Now()
		snapshot := []remote.Document{
			projectDoc("p2", "Work", "#abc", "u1", now),
			projectDoc("p1", "Home", "#fff", "u1", now.Add(-time.Hour)),
		}
		store.push(snapshot)
		store.push(snapshot)

		if got := ids(list.Projects()); !equalIDs(got, "p2", "p1") {
			t.Fatalf("expected [p2 p1], got %v", got)
		}
	})

	t.Run("duplicate ids within one snapshot are dropped", func(t *testing.T) {
		store := newPushStore()
		list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1"})
		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}

		now := time.Now()
		store.push([]remote.Document{
			projectDoc("p1", "Home", "#fff", "u1", now),
			projectDoc("p1", "Home", "#fff", "u1", now),
		})
		if got := ids(list.Projects()); !equalIDs(got, "p1") {
			t.Fatalf("expected [p1], got %v", got)
		}
	})
}

func TestProjectCreate(t *testing.T) {
	t.Run("created project appears before the next snapshot", func(t *testing.T) {
		store := newPushStore()
		list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1"})
		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}

		created, err := list.Create(context.Background(), model.ProjectCreate{Name: "Home", Color: "#fff"})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if created.ID == "" {
			t.Fatal("expected server-assigned id")
		}
		if created.UserID != "u1" {
			t.Errorf("expected owner u1, got %q", created.UserID)
		}

		if got := ids(list.Projects()); !equalIDs(got, created.ID) {
			t.Fatalf("expected [%s], got %v", created.ID, got)
		}
		if !list.Unsynced(created.ID) {
			t.Error("created project should be unsynced until a snapshot confirms it")
		}
	})

	t.Run("snapshot including the created id does not duplicate it", func(t *testing.T) {
		store := newPushStore()
		list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1"})
		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}

		created, err := list.Create(context.Background(), model.ProjectCreate{Name: "Home", Color: "#fff"})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		old := projectDoc("p0", "Old", "#000", "u1", created.Timestamp.Add(-time.Hour))
		store.push([]remote.Document{
			projectDoc(created.ID, "Home", "#fff", "u1", created.Timestamp),
			old,
		})

		if got := ids(list.Projects()); !equalIDs(got, created.ID, "p0") {
			t.Fatalf("expected [%s p0], got %v", created.ID, got)
		}
		if list.Unsynced(created.ID) {
			t.Error("snapshot confirmation should clear the unsynced marker")
		}
	})

	t.Run("completion after teardown does not mutate stale state", func(t *testing.T) {
		store := newPushStore()
		hooked := &hookedStore{Store: store}
		list := sync.NewProjectList(store, gateway.New(hooked), model.User{ID: "u1"})
		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
		// The owning view unmounts while the write is in flight.
		hooked.beforeCreate = list.Unsubscribe

		created, err := list.Create(context.Background(), model.ProjectCreate{Name: "Home", Color: "#fff"})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if created.ID == "" {
			t.Fatal("expected the write itself to succeed")
		}
		if len(list.Projects()) != 0 {
			t.Error("result applied to a torn-down list")
		}
	})
}

func TestProjectUpdate(t *testing.T) {
	t.Run("optimistic edit confirmed by snapshot", func(t *testing.T) {
		store := newPushStore()
		list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1"})
		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}

		created, err := list.Create(context.Background(), model.ProjectCreate{Name: "Home", Color: "#fff"})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		store.push([]remote.Document{projectDoc(created.ID, "Home", "#fff", "u1", created.Timestamp)})

		name := "House"
		if err := list.Update(context.Background(), created.ID, model.ProjectUpdate{Name: &name}); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if got := list.Projects()[0].Name; got != "House" {
			t.Errorf("expected optimistic name House, got %q", got)
		}
		if !list.Unsynced(created.ID) {
			t.Error("updated project should be unsynced until the snapshot reflects it")
		}

		store.push([]remote.Document{projectDoc(created.ID, "House", "#fff", "u1", created.Timestamp)})
		if list.Unsynced(created.ID) {
			t.Error("reflected update should clear the unsynced marker")
		}
		if got := list.Projects()[0].Name; got != "House" {
			t.Errorf("expected confirmed name House, got %q", got)
		}
	})

	t.Run("edit of a not-yet-snapshotted create stays visible", func(t *testing.T) {
		store := newPushStore()
		list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1"})
		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}

		created, err := list.Create(context.Background(), model.ProjectCreate{Name: "Home", Color: "#fff"})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		// No snapshot has confirmed the create yet; the edit must not make
		// the entry vanish from the visible list.
		name := "House"
		if err := list.Update(context.Background(), created.ID, model.ProjectUpdate{Name: &name}); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if got := ids(list.Projects()); !equalIDs(got, created.ID) {
			t.Fatalf("expected [%s] after update before snapshot, got %v", created.ID, got)
		}
		if got := list.Projects()[0].Name; got != "House" {
			t.Errorf("expected edited name House, got %q", got)
		}
		if !list.Unsynced(created.ID) {
			t.Error("entry should stay unsynced until a snapshot confirms it")
		}

		// The snapshot carrying the final state supersedes the overlay.
		store.push([]remote.Document{projectDoc(created.ID, "House", "#fff", "u1", created.Timestamp)})
		if got := ids(list.Projects()); !equalIDs(got, created.ID) {
			t.Fatalf("expected [%s] after snapshot, got %v", created.ID, got)
		}
		if list.Unsynced(created.ID) {
			t.Error("confirming snapshot should clear the unsynced marker")
		}
	})

	t.Run("failed edit of a not-yet-snapshotted create keeps the original", func(t *testing.T) {
		store := newPushStore()
		flaky := &flakyStore{Store: store}
		list := sync.NewProjectList(store, gateway.New(flaky), model.User{ID: "u1"})
		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}

		created, err := list.Create(context.Background(), model.ProjectCreate{Name: "Home", Color: "#fff"})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		flaky.failUpdate = true
		name := "House"
		if err := list.Update(context.Background(), created.ID, model.ProjectUpdate{Name: &name}); err == nil {
			t.Fatal("expected update to fail")
		}
		if got := ids(list.Projects()); !equalIDs(got, created.ID) {
			t.Fatalf("expected [%s] after rollback, got %v", created.ID, got)
		}
		if got := list.Projects()[0].Name; got != "Home" {
			t.Errorf("expected rollback to Home, got %q", got)
		}
		if !list.Unsynced(created.ID) {
			t.Error("the unconfirmed create should still be pending after rollback")
		}
	})

	t.Run("failed update rolls the edit back", func(t *testing.T) {
		store := newPushStore()
		flaky := &flakyStore{Store: store}
		list := sync.NewProjectList(store, gateway.New(flaky), model.User{ID: "u1"})
		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
		store.push([]remote.Document{projectDoc("p1", "Home", "#fff", "u1", time.Now())})

		flaky.failUpdate = true
		name := "House"
		err := list.Update(context.Background(), "p1", model.ProjectUpdate{Name: &name})
		if err == nil {
			t.Fatal("expected update to fail")
		}
		var werr *gateway.WriteError
		if !asWriteError(err, &werr) {
			t.Fatalf("expected WriteError, got %T", err)
		}
		if got := list.Projects()[0].Name; got != "Home" {
			t.Errorf("expected rollback to Home, got %q", got)
		}
		if list.Unsynced("p1") {
			t.Error("rolled-back update should not leave an unsynced marker")
		}
	})
}

func TestProjectDelete(t *testing.T) {
	t.Run("deleted project disappears optimistically", func(t *testing.T) {
		store := newPushStore()
		list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1"})
		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
		now := time.Now()
		store.push([]remote.Document{
			projectDoc("p1", "Home", "#fff", "u1", now),
			projectDoc("p0", "Old", "#000", "u1", now.Add(-time.Hour)),
		})

		res, err := list.Delete(context.Background(), list.Projects()[0])
		if err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if res.Partial() {
			t.Errorf("unexpected partial cascade: %+v", res)
		}
		if got := ids(list.Projects()); !equalIDs(got, "p0") {
			t.Fatalf("expected [p0], got %v", got)
		}

		store.push([]remote.Document{projectDoc("p0", "Old", "#000", "u1", now.Add(-time.Hour))})
		if got := ids(list.Projects()); !equalIDs(got, "p0") {
			t.Fatalf("expected [p0] after snapshot, got %v", got)
		}
	})

	t.Run("failed project delete restores the entry", func(t *testing.T) {
		store := newPushStore()
		flaky := &flakyStore{Store: store, failDelete: map[string]bool{"p1": true}}
		list := sync.NewProjectList(store, gateway.New(flaky), model.User{ID: "u1"})
		if err := list.Subscribe(context.Background()); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
		store.push([]remote.Document{projectDoc("p1", "Home", "#fff", "u1", time.Now())})

		if _, err := list.Delete(context.Background(), list.Projects()[0]); err == nil {
			t.Fatal("expected delete to fail")
		}
		if got := ids(list.Projects()); !equalIDs(got, "p1") {
			t.Fatalf("expected [p1] after rollback, got %v", got)
		}
	})
}

func TestReorderIsEphemeral(t *testing.T) {
	store := newPushStore()
	list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1"})
	if err := list.Subscribe(context.Background()); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	now := time.Now()
	snapshot := []remote.Document{
		projectDoc("p3", "C", "#ccc", "u1", now),
		projectDoc("p2", "B", "#bbb", "u1", now.Add(-time.Hour)),
		projectDoc("p1", "A", "#aaa", "u1", now.Add(-2*time.Hour)),
	}
	store.push(snapshot)

	list.Reorder(0, 2)
	if got := ids(list.Projects()); !equalIDs(got, "p2", "p1", "p3") {
		t.Fatalf("expected [p2 p1 p3] after reorder, got %v", got)
	}

	// Snapshot order is authoritative; the local reorder is discarded.
	store.push(snapshot)
	if got := ids(list.Projects()); !equalIDs(got, "p3", "p2", "p1") {
		t.Fatalf("expected server order [p3 p2 p1], got %v", got)
	}

	t.Run("out of range indices are ignored", func(t *testing.T) {
		list.Reorder(-1, 1)
		list.Reorder(0, 9)
		if got := ids(list.Projects()); !equalIDs(got, "p3", "p2", "p1") {
			t.Fatalf("expected unchanged order, got %v", got)
		}
	})
}

// Scenario from the product: create Home for u1, list shows [p1]; the next
// snapshot [p1 p0] yields [p1 p0], never a duplicate.
func TestCreateThenSnapshotScenario(t *testing.T) {
	store := newPushStore()
	list := sync.NewProjectList(store, gateway.New(store), model.User{ID: "u1"})
	if err := list.Subscribe(context.Background()); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	created, err := list.Create(context.Background(), model.ProjectCreate{Name: "Home", Color: "#fff"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if got := ids(list.Projects()); !equalIDs(got, created.ID) {
		t.Fatalf("expected [%s], got %v", created.ID, got)
	}

	store.push([]remote.Document{
		projectDoc(created.ID, "Home", "#fff", "u1", created.Timestamp),
		projectDoc("p0", "Older", "#000", "u1", created.Timestamp.Add(-time.Hour)),
	})

	if got := ids(list.Projects()); !equalIDs(got, created.ID, "p0") {
		t.Fatalf("expected [%s p0], got %v", created.ID, got)
	}
}
