// Package sync is the client-side state synchronization core. It keeps the
// in-memory project and task lists consistent across three concurrent input
// sources: realtime snapshots pushed by the remote store, locally-initiated
// optimistic mutations whose confirmation arrives asynchronously, and purely
// local UI state (filtering and reordering) that is never persisted.
package sync

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskpad/taskpad/internal/gateway"
	"github.com/taskpad/taskpad/internal/logger"
	"github.com/taskpad/taskpad/internal/model"
	"github.com/taskpad/taskpad/internal/remote"
)

// State is the lifecycle of the project subscription.
type State int

const (
	StateUnsubscribed State = iota
	StateSubscribing
	StateLive
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnsubscribed:
		return "unsubscribed"
	case StateSubscribing:
		return "subscribing"
	case StateLive:
		return "live"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ProjectList owns the authoritative in-memory ordered list of a user's
// projects. Snapshots replace the confirmed set in full; pending optimistic
// mutations are overlaid until a snapshot reflects them; a local reorder is
// applied last and discarded on every snapshot.
//
// The user is passed in explicitly at construction; there is no ambient
// session state. An absent user means "no projects, do nothing".
type ProjectList struct {
	mu      sync.Mutex
	store   remote.Store
	gw      *gateway.Gateway
	cascade *Cascade
	user    model.User

	state   State
	sub     remote.Subscription
	gen     int // bumped on Unsubscribe; stale completions are dropped
	onError error

	confirmed []model.Project
	pending   *pendingProjects
	reorder   ReorderBuffer

	onChange func()
}

// NewProjectList creates a project list for the given user.
func NewProjectList(store remote.Store, gw *gateway.Gateway, user model.User) *ProjectList {
	return &ProjectList{
		store:   store,
		gw:      gw,
		cascade: NewCascade(gw),
		user:    user,
		pending: newPendingProjects(),
	}
}

// OnChange registers a callback invoked after every visible-state change.
// The callback runs outside the list's lock and may read the list.
func (l *ProjectList) OnChange(fn func()) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

func (l *ProjectList) notify() {
	l.mu.Lock()
	fn := l.onChange
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// State returns the subscription state.
func (l *ProjectList) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Err returns the subscription failure when State is StateError.
func (l *ProjectList) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.onError
}

// Subscribe opens the realtime query for the user's projects, ordered by
// timestamp descending. With no resolved user it is a no-op. On failure the
// list transitions to StateError; there is no automatic retry.
func (l *ProjectList) Subscribe(ctx context.Context) error {
	l.mu.Lock()
	if !l.user.Present() {
		l.mu.Unlock()
		logger.Debug("No user resolved, project subscription skipped")
		return nil
	}
	if l.state == StateSubscribing || l.state == StateLive {
		l.mu.Unlock()
		return fmt.Errorf("project list already subscribed")
	}
	l.state = StateSubscribing
	gen := l.gen
	userID := l.user.ID
	l.mu.Unlock()

	sub, err := l.store.Subscribe(ctx, remote.CollectionProjects,
		[]remote.Filter{remote.Where("userId", userID)}, remote.ByTimestamp(true),
		func(docs []remote.Document) { l.applySnapshot(gen, docs) })

	l.mu.Lock()
	if err != nil {
		l.state = StateError
		l.onError = err
		l.mu.Unlock()
		logger.Error("Project subscription failed",
			logger.F("user", userID),
			logger.F("error", err))
		return fmt.Errorf("subscribe projects: %w", err)
	}
	l.sub = sub
	l.state = StateLive
	l.mu.Unlock()

	logger.Info("Project subscription live", logger.F("user", userID))
	return nil
}

// Unsubscribe tears the listener down. Must be called exactly once when the
// owning view goes away, so the push listener cannot keep firing into a
// detached consumer; late mutation results are dropped as well.
func (l *ProjectList) Unsubscribe() {
	l.mu.Lock()
	sub := l.sub
	l.sub = nil
	l.state = StateUnsubscribed
	l.gen++
	l.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

// Seed installs a previously cached snapshot as the confirmed set, so the
// view has something to paint before the subscription delivers a live one
// (or when subscribing fails outright). Only an unsubscribed list with no
// confirmed state accepts a seed; the first live snapshot replaces it.
func (l *ProjectList) Seed(docs []remote.Document) {
	l.mu.Lock()
	if l.state != StateUnsubscribed || len(l.confirmed) > 0 {
		l.mu.Unlock()
		return
	}
	confirmed := make([]model.Project, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if seen[doc.ID] {
			continue
		}
		seen[doc.ID] = true
		confirmed = append(confirmed, remote.ProjectFromDocument(doc))
	}
	l.confirmed = confirmed
	l.mu.Unlock()

	logger.Debug("Project list seeded from cache", logger.F("count", len(confirmed)))
	l.notify()
}

// applySnapshot replaces the confirmed set with the snapshot contents,
// reconciles the pending set, and discards any local reorder. Applying the
// same snapshot twice is idempotent: entries are de-duplicated by id.
func (l *ProjectList) applySnapshot(gen int, docs []remote.Document) {
	l.mu.Lock()
	if gen != l.gen {
		l.mu.Unlock()
		return
	}

	confirmed := make([]model.Project, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if seen[doc.ID] {
			continue
		}
		seen[doc.ID] = true
		confirmed = append(confirmed, remote.ProjectFromDocument(doc))
	}
	l.confirmed = confirmed
	l.pending.discardReflected(docs)
	l.reorder.Reset()
	l.mu.Unlock()

	logger.Debug("Project snapshot applied", logger.F("count", len(confirmed)))
	l.notify()
}

// Projects returns the visible list: the confirmed snapshot reconciled with
// pending mutations, then permuted by any local reorder.
func (l *ProjectList) Projects() []model.Project {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reorder.Apply(l.pending.overlay(l.confirmed))
}

// Unsynced reports whether the project has an in-flight or unconfirmed
// write, so the view can mark the entry as not yet synced.
func (l *ProjectList) Unsynced(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending.has(id)
}

// Create persists a new project and appends it to the visible list as soon
// as the gateway confirms, rather than waiting for the next snapshot. The
// snapshot that eventually includes the same id supersedes the appended
// entry instead of duplicating it.
func (l *ProjectList) Create(ctx context.Context, payload model.ProjectCreate) (model.Project, error) {
	l.mu.Lock()
	gen := l.gen
	userID := l.user.ID
	l.mu.Unlock()

	project, err := l.gw.CreateProject(ctx, userID, payload)
	if err != nil {
		return model.Project{}, err
	}

	l.mu.Lock()
	if gen != l.gen {
		// The owning view went away while the write was in flight.
		l.mu.Unlock()
		return project, nil
	}
	confirmed := false
	for _, p := range l.confirmed {
		if p.ID == project.ID {
			confirmed = true
			break
		}
	}
	if !confirmed {
		l.pending.add(model.PendingMutation{
			Kind:    model.MutationCreate,
			Entity:  model.EntityProject,
			ID:      project.ID,
			Payload: project,
		})
	}
	l.mu.Unlock()

	l.notify()
	return project, nil
}

// Update applies a partial-field edit optimistically, then dispatches it.
// On gateway failure the overlay is rolled back and the error returned.
func (l *ProjectList) Update(ctx context.Context, id string, payload model.ProjectUpdate) error {
	l.mu.Lock()
	gen := l.gen
	prior, hadPrior := l.pending.muts[id]
	l.pending.add(model.PendingMutation{
		Kind:    model.MutationUpdate,
		Entity:  model.EntityProject,
		ID:      id,
		Payload: payload,
	})
	l.mu.Unlock()
	l.notify()

	if err := l.gw.UpdateProject(ctx, id, payload); err != nil {
		l.mu.Lock()
		if gen == l.gen {
			if hadPrior {
				l.pending.add(prior)
			} else {
				l.pending.drop(id)
			}
		}
		l.mu.Unlock()
		l.notify()
		return err
	}
	return nil
}

// Delete removes the project optimistically, then runs the cascade delete.
// The project-level delete is the operation whose success is reported; task
// cleanup is best-effort and its outcome rides in the CascadeResult. If the
// project delete itself fails, the entry is restored.
func (l *ProjectList) Delete(ctx context.Context, project model.Project) (*CascadeResult, error) {
	l.mu.Lock()
	gen := l.gen
	prior, hadPrior := l.pending.muts[project.ID]
	l.pending.add(model.PendingMutation{
		Kind:   model.MutationDelete,
		Entity: model.EntityProject,
		ID:     project.ID,
	})
	l.mu.Unlock()
	l.notify()

	res, err := l.cascade.DeleteProject(ctx, project)
	if err != nil {
		l.mu.Lock()
		if gen == l.gen {
			if hadPrior {
				l.pending.add(prior)
			} else {
				l.pending.drop(project.ID)
			}
		}
		l.mu.Unlock()
		l.notify()
		return nil, err
	}
	return res, nil
}

// Reorder mutates only the local presentation order; nothing is written
// back, and the next snapshot resets the list to server order.
func (l *ProjectList) Reorder(from, to int) {
	l.mu.Lock()
	visible := l.reorder.Apply(l.pending.overlay(l.confirmed))
	ids := make([]string, len(visible))
	for i, p := range visible {
		ids[i] = p.ID
	}
	l.reorder.Move(ids, from, to)
	l.mu.Unlock()
	l.notify()
}
