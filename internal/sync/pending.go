package sync

import (
	"github.com/taskpad/taskpad/internal/model"
	"github.com/taskpad/taskpad/internal/remote"
)

// pendingProjects tracks optimistic project mutations that have been
// dispatched (or confirmed by the gateway) but not yet reflected by a
// snapshot. Reconciliation overlays them on the confirmed set and discards
// each one as soon as a snapshot reflects or supersedes it.
type pendingProjects struct {
	muts  map[string]model.PendingMutation // by project id, latest wins
	order []string                         // dispatch order, so creates append stably
}

func newPendingProjects() *pendingProjects {
	return &pendingProjects{muts: map[string]model.PendingMutation{}}
}

func (p *pendingProjects) add(m model.PendingMutation) {
	prior, ok := p.muts[m.ID]
	if !ok {
		p.order = append(p.order, m.ID)
		p.muts[m.ID] = m
		return
	}
	// An update of a not-yet-snapshotted create folds into the create's
	// payload; overwriting the create would drop the entry from the overlay
	// until the next snapshot.
	if prior.Kind == model.MutationCreate && m.Kind == model.MutationUpdate {
		if proj, pok := prior.Payload.(model.Project); pok {
			if u, uok := m.Payload.(model.ProjectUpdate); uok {
				if u.Name != nil {
					proj.Name = *u.Name
				}
				if u.Color != nil {
					proj.Color = *u.Color
				}
				prior.Payload = proj
				p.muts[m.ID] = prior
				return
			}
		}
	}
	p.muts[m.ID] = m
}

func (p *pendingProjects) drop(id string) {
	delete(p.muts, id)
	if len(p.muts) == 0 {
		p.order = nil
	}
}

func (p *pendingProjects) has(id string) bool {
	_, ok := p.muts[id]
	return ok
}

func (p *pendingProjects) empty() bool {
	return len(p.muts) == 0
}

// discardReflected prunes mutations the snapshot already accounts for:
// a create whose id appears, an update whose fields all match, a delete
// whose id is gone.
func (p *pendingProjects) discardReflected(docs []remote.Document) {
	byID := make(map[string]remote.Document, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}
	for id, m := range p.muts {
		doc, present := byID[id]
		switch m.Kind {
		case model.MutationCreate:
			if present {
				delete(p.muts, id)
			}
		case model.MutationDelete:
			if !present {
				delete(p.muts, id)
			}
		case model.MutationUpdate:
			if !present {
				// Entity vanished remotely; the update is moot.
				delete(p.muts, id)
				continue
			}
			if update, ok := m.Payload.(model.ProjectUpdate); ok && updateReflected(doc, update) {
				delete(p.muts, id)
			}
		}
	}
	if len(p.muts) == 0 {
		p.order = nil
	}
}

func updateReflected(doc remote.Document, u model.ProjectUpdate) bool {
	got := remote.ProjectFromDocument(doc)
	if u.Name != nil && got.Name != *u.Name {
		return false
	}
	if u.Color != nil && got.Color != *u.Color {
		return false
	}
	return true
}

// overlay reconciles the confirmed snapshot list with the pending set,
// returning the visible list: deletes filtered out, updates applied in
// place, confirmed-but-unsnapshotted creates appended. De-duplicated by id.
func (p *pendingProjects) overlay(confirmed []model.Project) []model.Project {
	if p.empty() {
		out := make([]model.Project, len(confirmed))
		copy(out, confirmed)
		return out
	}
	out := make([]model.Project, 0, len(confirmed)+len(p.muts))
	seen := make(map[string]bool, len(confirmed))
	for _, proj := range confirmed {
		if seen[proj.ID] {
			continue
		}
		seen[proj.ID] = true
		m, ok := p.muts[proj.ID]
		if !ok {
			out = append(out, proj)
			continue
		}
		switch m.Kind {
		case model.MutationDelete:
			// Optimistically gone.
		case model.MutationUpdate:
			if update, ok := m.Payload.(model.ProjectUpdate); ok {
				if update.Name != nil {
					proj.Name = *update.Name
				}
				if update.Color != nil {
					proj.Color = *update.Color
				}
			}
			out = append(out, proj)
		default:
			out = append(out, proj)
		}
	}
	for _, id := range p.order {
		m, ok := p.muts[id]
		if !ok || m.Kind != model.MutationCreate || seen[id] {
			continue
		}
		if proj, ok := m.Payload.(model.Project); ok {
			out = append(out, proj)
			seen[id] = true
		}
	}
	return out
}
