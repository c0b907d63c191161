package game

import "sort"

// CollisionKey represents a unique overlap pair. Object1ID is the active
// object (a crosshair or projectile), Object2ID the passive one.
type CollisionKey struct {
	Object1ID EntityID
	Object2ID EntityID
}

// CollisionTracker remembers which overlaps are ongoing so that an action
// tied to an overlap starting fires only once until it ends and restarts.
type CollisionTracker struct {
	active map[CollisionKey]bool
}

func NewCollisionTracker() *CollisionTracker {
	return &CollisionTracker{active: make(map[CollisionKey]bool)}
}

// BeginCollision returns true when key was not already active.
func (ct *CollisionTracker) BeginCollision(key CollisionKey) bool {
	if ct.active[key] {
		return false
	}
	ct.active[key] = true
	return true
}

func (ct *CollisionTracker) EndCollision(key CollisionKey) {
	delete(ct.active, key)
}

func (ct *CollisionTracker) IsColliding(key CollisionKey) bool {
	return ct.active[key]
}

// ActiveFor returns the active keys whose Object1ID is id.
func (ct *CollisionTracker) ActiveFor(id EntityID) []CollisionKey {
	keys := make([]CollisionKey, 0)
	for key := range ct.active {
		if key.Object1ID == id {
			keys = append(keys, key)
		}
	}
	return keys
}

func (ct *CollisionTracker) ClearAll() {
	ct.active = make(map[CollisionKey]bool)
}

// Keys returns every active key ordered by Object1ID then Object2ID.
func (ct *CollisionTracker) Keys() []CollisionKey {
	keys := make([]CollisionKey, 0, len(ct.active))
	for key := range ct.active {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Object1ID != keys[j].Object1ID {
			return keys[i].Object1ID < keys[j].Object1ID
		}
		return keys[i].Object2ID < keys[j].Object2ID
	})
	return keys
}
