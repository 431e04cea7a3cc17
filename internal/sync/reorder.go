package sync

import "github.com/taskpad/taskpad/internal/model"

// ReorderBuffer holds a transient presentation order for the project list,
// driven by drag interaction in the view. It is never persisted and is reset
// whenever a snapshot arrives, since snapshot order is authoritative.
type ReorderBuffer struct {
	order []string // project ids in presentation order; nil means server order
}

// Move applies a stable list splice to the given presentation order: the
// entry at from is removed and reinserted at to. ids is the currently visible
// id order; out-of-range indices are ignored.
func (b *ReorderBuffer) Move(ids []string, from, to int) {
	if from < 0 || from >= len(ids) || to < 0 || to >= len(ids) || from == to {
		return
	}
	order := make([]string, len(ids))
	copy(order, ids)
	moved := order[from]
	order = append(order[:from], order[from+1:]...)
	order = append(order[:to], append([]string{moved}, order[to:]...)...)
	b.order = order
}

// Apply permutes list to the buffered order. Entries the buffer does not know
// keep their relative list order and follow the known ones; entries the
// buffer knows but the list no longer contains are skipped.
func (b *ReorderBuffer) Apply(list []model.Project) []model.Project {
	if b.order == nil {
		return list
	}
	byID := make(map[string]model.Project, len(list))
	for _, p := range list {
		byID[p.ID] = p
	}
	out := make([]model.Project, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, id := range b.order {
		if p, ok := byID[id]; ok {
			out = append(out, p)
			seen[id] = true
		}
	}
	for _, p := range list {
		if !seen[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// Active reports whether a local reorder is in effect.
func (b *ReorderBuffer) Active() bool {
	return b.order != nil
}

// Reset discards the local order; the list falls back to server order.
func (b *ReorderBuffer) Reset() {
	b.order = nil
}
