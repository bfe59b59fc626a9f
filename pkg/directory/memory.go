package directory

import (
	"context"
	"sort"
	"sync"

	"github.com/garagehq/gearbox/pkg/authz"
)

// MemoryDirectory is an in-memory directory for tests and local development
type MemoryDirectory struct {
	mu        sync.RWMutex
	actors    map[string]authz.Actor
	suspended map[string]bool
}

// NewMemoryDirectory creates an empty in-memory directory
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		actors:    make(map[string]authz.Actor),
		suspended: make(map[string]bool),
	}
}

// Put inserts or replaces an actor record
func (d *MemoryDirectory) Put(actor authz.Actor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actors[actor.ID] = actor
}

// SuspendOrganization marks an organization as suspended or active again.
// Organizations are active unless suspended.
func (d *MemoryDirectory) SuspendOrganization(orgID string, suspended bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.suspended[orgID] = suspended
}

// OrganizationActive reports whether the organization is not suspended
func (d *MemoryDirectory) OrganizationActive(_ context.Context, orgID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.suspended[orgID], nil
}

// FindActorByID returns a copy of the actor record, or (nil, nil) when absent
func (d *MemoryDirectory) FindActorByID(_ context.Context, id string) (*authz.Actor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	actor, ok := d.actors[id]
	if !ok {
		return nil, nil
	}
	return &actor, nil
}

// ListActorsByOrganization returns all non-deleted actors belonging to the
// organization, ordered by creation time
func (d *MemoryDirectory) ListActorsByOrganization(_ context.Context, orgID string) ([]*authz.Actor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var actors []*authz.Actor
	for _, actor := range d.actors {
		if actor.OrganizationID != orgID || actor.Deleted() {
			continue
		}
		a := actor
		actors = append(actors, &a)
	}
	sort.Slice(actors, func(i, j int) bool {
		return actors[i].CreatedAt.Before(actors[j].CreatedAt)
	})
	return actors, nil
}
