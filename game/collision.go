package game

import (
	"math"

	"github.com/lguibr/arcade/utils"
)

// CollisionEvent reports a projectile consuming a target.
type CollisionEvent struct {
	Target     Entity
	Projectile Entity
}

// AABBOverlap reports strict overlap of two boxes.
func AABBOverlap(a, b utils.Rect) bool {
	return a.Intersects(b)
}

// CircleOverlap reports whether two circles intersect.
func CircleOverlap(x1, y1, r1, x2, y2, r2 float64) bool {
	return utils.Distance(x1, y1, x2, y2) < r1+r2
}

// CircleIntersectsRect tests a circle against a box using the point of the
// box closest to the circle centre.
func CircleIntersectsRect(cx, cy, radius float64, rect utils.Rect) bool {
	if cx > rect.X && cx < rect.Right() && cy > rect.Y && cy < rect.Bottom() {
		return true
	}

	closestX := math.Min(math.Max(cx, rect.X), rect.Right())
	closestY := math.Min(math.Max(cy, rect.Y), rect.Bottom())

	return utils.Distance(cx, cy, closestX, closestY) < radius
}

// Overlaps picks the shape test matching both entities.
func Overlaps(a, b *Entity) bool {
	switch {
	case a.Radius > 0 && b.Radius > 0:
		return CircleOverlap(a.X, a.Y, a.Radius, b.X, b.Y, b.Radius)
	case a.Radius > 0:
		return CircleIntersectsRect(a.X, a.Y, a.Radius, b.Bounds())
	case b.Radius > 0:
		return CircleIntersectsRect(b.X, b.Y, b.Radius, a.Bounds())
	default:
		return AABBOverlap(a.Bounds(), b.Bounds())
	}
}

// BurstConfig shapes the particle explosion spawned on a hit.
type BurstConfig struct {
	Count int
	Speed float64
	Life  float64
	Size  float64
	Ay    float64
	Color [3]int
}

func DefaultBurst(count int) BurstConfig {
	return BurstConfig{Count: count, Speed: 2.5, Life: 30, Size: 3, Ay: 0.05, Color: [3]int{255, 200, 60}}
}

// SpawnBurst spawns Count particles evenly spread around (x, y).
func SpawnBurst(reg *Registry, cfg BurstConfig, x, y float64) {
	for i := 0; i < cfg.Count; i++ {
		angle := 2 * math.Pi * float64(i) / float64(cfg.Count)
		reg.Spawn(KindParticle, Entity{
			X:       x - cfg.Size/2,
			Y:       y - cfg.Size/2,
			W:       cfg.Size,
			H:       cfg.Size,
			Vx:      math.Cos(angle) * cfg.Speed,
			Vy:      math.Sin(angle) * cfg.Speed,
			Ay:      cfg.Ay,
			Life:    cfg.Life,
			HasLife: true,
			Particle: &ParticleData{
				Color:   cfg.Color,
				Opacity: 1,
			},
		})
	}
}

// Resolve tests every live projectile against every live target. A
// projectile consumes only the first target it overlaps in creation order;
// both are removed and a burst is spawned at the target's centre.
func Resolve(reg *Registry, burst BurstConfig) []CollisionEvent {
	var events []CollisionEvent
	reg.ForEach(KindProjectile, func(p *Entity) {
		var hit *Entity
		reg.ForEach(KindTarget, func(t *Entity) {
			if hit == nil && Overlaps(p, t) {
				hit = t
			}
		})
		if hit == nil {
			return
		}
		reg.Remove(p.ID)
		reg.Remove(hit.ID)
		cx, cy := hit.Center()
		SpawnBurst(reg, burst, cx, cy)
		events = append(events, CollisionEvent{Target: hit.clone(), Projectile: p.clone()})
	})
	return events
}
