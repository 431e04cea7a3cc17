package model

import "fmt"

// MutationKind identifies the verb of a write dispatched to the remote store.
type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
)

// EntityType identifies which collection a mutation targets.
type EntityType string

const (
	EntityProject EntityType = "project"
	EntityTask    EntityType = "task"
)

// PendingMutation is an ephemeral record of a write that has been dispatched
// but not yet confirmed by a subsequent snapshot. It exists only in memory and
// is discarded once a snapshot reflects it or the write returns an error.
type PendingMutation struct {
	Kind    MutationKind
	Entity  EntityType
	ID      string
	Payload any
}

// ProjectCreate is the payload for creating a project. The owning user is
// supplied separately by the caller; the server assigns id and timestamp.
type ProjectCreate struct {
	Name  string
	Color string
}

// Validate checks the payload before dispatch.
func (p ProjectCreate) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("project name is required")
	}
	return nil
}

// ProjectUpdate is a partial-field update. Nil fields are left untouched.
type ProjectUpdate struct {
	Name  *string
	Color *string
}

// Fields returns the named fields to overwrite.
func (p ProjectUpdate) Fields() map[string]any {
	fields := map[string]any{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Color != nil {
		fields["color"] = *p.Color
	}
	return fields
}

// Validate checks that the update names at least one field.
func (p ProjectUpdate) Validate() error {
	if p.Name == nil && p.Color == nil {
		return fmt.Errorf("project update names no fields")
	}
	if p.Name != nil && *p.Name == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	return nil
}

// TaskCreate is the payload for creating a task. The parent project is
// supplied separately; new tasks always start not completed.
type TaskCreate struct {
	Text string
}

// Validate checks the payload before dispatch.
func (t TaskCreate) Validate() error {
	if t.Text == "" {
		return fmt.Errorf("task text is required")
	}
	return nil
}

// TaskUpdate is a partial-field update. Text and completed are mutated
// independently of each other.
type TaskUpdate struct {
	Text      *string
	Completed *bool
}

// Fields returns the named fields to overwrite.
func (t TaskUpdate) Fields() map[string]any {
	fields := map[string]any{}
	if t.Text != nil {
		fields["text"] = *t.Text
	}
	if t.Completed != nil {
		fields["completed"] = *t.Completed
	}
	return fields
}

// Validate checks that the update names at least one field.
func (t TaskUpdate) Validate() error {
	if t.Text == nil && t.Completed == nil {
		return fmt.Errorf("task update names no fields")
	}
	if t.Text != nil && *t.Text == "" {
		return fmt.Errorf("task text cannot be empty")
	}
	return nil
}
