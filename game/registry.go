package game

import "github.com/lguibr/arcade/utils"

// RegistryEventType classifies entity removals reported by Tick.
type RegistryEventType uint8

const (
	// EventEscape is a target leaving the playfield unresolved.
	EventEscape RegistryEventType = iota + 1
	// EventMiss is a projectile leaving the playfield or expiring without a
	// hit.
	EventMiss
)

type RegistryEvent struct {
	Type   RegistryEventType
	Entity Entity
}

// Registry owns every entity. Iteration follows creation order and removal
// is deferred to Flush so that iteration stays stable.
type Registry struct {
	nextID EntityID
	order  []*Entity
	byID   map[EntityID]*Entity
	bounds utils.Rect
}

// NewRegistry creates a registry culling entities whose centre leaves bounds.
func NewRegistry(bounds utils.Rect) *Registry {
	return &Registry{byID: make(map[EntityID]*Entity), bounds: bounds}
}

func (r *Registry) Bounds() utils.Rect { return r.bounds }

// Spawn stores a copy of attrs as a new live entity of kind and returns its
// id.
func (r *Registry) Spawn(kind Kind, attrs Entity) EntityID {
	r.nextID++
	e := attrs.clone()
	e.ID = r.nextID
	e.Kind = kind
	e.Alive = true
	if e.Particle != nil && e.Particle.MaxLife == 0 {
		e.Particle.MaxLife = e.Life
		if e.Particle.Opacity == 0 {
			e.Particle.Opacity = 1
		}
	}
	r.order = append(r.order, &e)
	r.byID[e.ID] = &e
	return e.ID
}

// Get returns a live entity.
func (r *Registry) Get(id EntityID) (*Entity, bool) {
	e, ok := r.byID[id]
	if !ok || !e.Alive {
		return nil, false
	}
	return e, true
}

// ForEach visits live entities of kind in creation order. Entities spawned
// during the visit are not visited.
func (r *Registry) ForEach(kind Kind, fn func(e *Entity)) {
	n := len(r.order)
	for _, e := range r.order[:n] {
		if e.Alive && e.Kind == kind {
			fn(e)
		}
	}
}

// Remove schedules the entity for removal at the next Flush. It reports
// whether the entity was live.
func (r *Registry) Remove(id EntityID) bool {
	e, ok := r.byID[id]
	if !ok || !e.Alive {
		return false
	}
	e.Alive = false
	return true
}

// Count returns the number of live entities of kind.
func (r *Registry) Count(kind Kind) int {
	n := 0
	for _, e := range r.order {
		if e.Alive && e.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns the number of live entities.
func (r *Registry) Len() int {
	n := 0
	for _, e := range r.order {
		if e.Alive {
			n++
		}
	}
	return n
}

// Tick advances every live entity by dt, applies decay and culls expired
// or out-of-bounds entities.
func (r *Registry) Tick(dt float64) []RegistryEvent {
	var events []RegistryEvent
	n := len(r.order)
	for _, e := range r.order[:n] {
		if !e.Alive || e.Kind.gridSpace() {
			continue
		}

		e.Move(dt)
		if e.Target != nil && e.Target.Growth > 0 {
			grow := e.Target.Growth * dt
			e.X -= grow / 2
			e.W += grow
			e.H += grow
		}

		expired := false
		if e.HasLife {
			e.Life -= dt
			if e.Life <= 0 {
				e.Life = 0
				expired = true
			}
		}
		if e.Particle != nil && e.Particle.MaxLife > 0 {
			e.Particle.Opacity = utils.Clamp(e.Life/e.Particle.MaxLife, 0, 1)
		}

		cx, cy := e.Center()
		outside := !r.bounds.Contains(cx, cy)
		if !expired && !outside {
			continue
		}

		e.Alive = false
		switch {
		case e.Kind == KindTarget && outside:
			events = append(events, RegistryEvent{Type: EventEscape, Entity: e.clone()})
		case e.Kind == KindProjectile:
			events = append(events, RegistryEvent{Type: EventMiss, Entity: e.clone()})
		}
	}
	return events
}

// Flush drops entities removed since the last Flush.
func (r *Registry) Flush() {
	live := r.order[:0]
	for _, e := range r.order {
		if e.Alive {
			live = append(live, e)
			continue
		}
		delete(r.byID, e.ID)
	}
	for i := len(live); i < len(r.order); i++ {
		r.order[i] = nil
	}
	r.order = live
}

// Entities returns copies of every live entity in creation order.
func (r *Registry) Entities() []Entity {
	out := make([]Entity, 0, len(r.order))
	for _, e := range r.order {
		if e.Alive {
			out = append(out, e.clone())
		}
	}
	return out
}

// Reset removes every entity immediately.
func (r *Registry) Reset() {
	r.order = nil
	r.byID = make(map[EntityID]*Entity)
}

// restore replaces the registry contents, keeping ids and order.
func (r *Registry) restore(nextID EntityID, entities []Entity) {
	r.Reset()
	r.nextID = nextID
	for i := range entities {
		e := entities[i].clone()
		r.order = append(r.order, &e)
		r.byID[e.ID] = &e
	}
}
