package sync_test

import (
	"testing"

	"github.com/taskpad/taskpad/internal/model"
	"github.com/taskpad/taskpad/internal/sync"
)

func projectsNamed(names ...string) []model.Project {
	out := make([]model.Project, len(names))
	for i, name := range names {
		out[i] = model.Project{ID: name, Name: name}
	}
	return out
}

func TestReorderBuffer(t *testing.T) {
	t.Run("move shifts an entry and keeps the rest stable", func(t *testing.T) {
		var buf sync.ReorderBuffer
		buf.Move([]string{"a", "b", "c", "d"}, 1, 3)
		got := buf.Apply(projectsNamed("a", "b", "c", "d"))
		if want := []string{"a", "c", "d", "b"}; !equalIDs(ids(got), want...) {
			t.Fatalf("expected %v, got %v", want, ids(got))
		}
	})

	t.Run("inactive buffer is a no-op", func(t *testing.T) {
		var buf sync.ReorderBuffer
		if buf.Active() {
			t.Error("fresh buffer should be inactive")
		}
		got := buf.Apply(projectsNamed("a", "b"))
		if !equalIDs(ids(got), "a", "b") {
			t.Fatalf("expected passthrough, got %v", ids(got))
		}
	})

	t.Run("ids unknown to the buffer follow in input order", func(t *testing.T) {
		var buf sync.ReorderBuffer
		buf.Move([]string{"a", "b"}, 0, 1)
		got := buf.Apply(projectsNamed("a", "b", "new1", "new2"))
		if want := []string{"b", "a", "new1", "new2"}; !equalIDs(ids(got), want...) {
			t.Fatalf("expected %v, got %v", want, ids(got))
		}
	})

	t.Run("ids missing from the input are skipped", func(t *testing.T) {
		var buf sync.ReorderBuffer
		buf.Move([]string{"a", "b", "c"}, 0, 2)
		got := buf.Apply(projectsNamed("a", "c"))
		if want := []string{"c", "a"}; !equalIDs(ids(got), want...) {
			t.Fatalf("expected %v, got %v", want, ids(got))
		}
	})

	t.Run("reset deactivates", func(t *testing.T) {
		var buf sync.ReorderBuffer
		buf.Move([]string{"a", "b"}, 0, 1)
		buf.Reset()
		if buf.Active() {
			t.Error("expected inactive after reset")
		}
		got := buf.Apply(projectsNamed("a", "b"))
		if !equalIDs(ids(got), "a", "b") {
			t.Fatalf("expected input order after reset, got %v", ids(got))
		}
	})

	t.Run("out of range move is ignored", func(t *testing.T) {
		var buf sync.ReorderBuffer
		buf.Move([]string{"a", "b"}, 5, 0)
		buf.Move([]string{"a", "b"}, 0, -1)
		if buf.Active() {
			t.Error("invalid moves should not activate the buffer")
		}
	})
}
