package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/arcade/content"
	"github.com/lguibr/arcade/utils"
)

func TestAABBOverlap(t *testing.T) {
	a := utils.Rect{X: 0, Y: 0, W: 10, H: 10}
	assert.True(t, AABBOverlap(a, utils.Rect{X: 5, Y: 5, W: 10, H: 10}))
	assert.False(t, AABBOverlap(a, utils.Rect{X: 10, Y: 0, W: 10, H: 10}), "touching edges do not overlap")
	assert.False(t, AABBOverlap(a, utils.Rect{X: 20, Y: 20, W: 1, H: 1}))
}

func TestCircleCollisions(t *testing.T) {
	assert.True(t, CircleOverlap(0, 0, 5, 8, 0, 4))
	assert.False(t, CircleOverlap(0, 0, 5, 10, 0, 4))

	rect := utils.Rect{X: 10, Y: 10, W: 10, H: 10}
	assert.True(t, CircleIntersectsRect(15, 15, 1, rect), "centre inside")
	assert.True(t, CircleIntersectsRect(8, 15, 3, rect), "near the left edge")
	assert.False(t, CircleIntersectsRect(6, 6, 3, rect), "corner too far")
}

func TestResolve_SingleOverlap(t *testing.T) {
	reg := NewRegistry(utils.Rect{W: 500, H: 500})
	proj := reg.Spawn(KindProjectile, Entity{X: 100, Y: 100, W: 10, H: 10})
	target := reg.Spawn(KindTarget, Entity{X: 102, Y: 101, W: 10, H: 10, Target: &TargetData{Item: content.Item{Term: "t", Definition: "d"}}})

	events := Resolve(reg, DefaultBurst(4))
	require.Len(t, events, 1)
	assert.Equal(t, target, events[0].Target.ID)
	assert.Equal(t, proj, events[0].Projectile.ID)

	_, ok := reg.Get(proj)
	assert.False(t, ok)
	_, ok = reg.Get(target)
	assert.False(t, ok)
	assert.Equal(t, 4, reg.Count(KindParticle), "burst spawned at the target")

	reg.Flush()
	assert.Equal(t, 0, reg.Count(KindProjectile)+reg.Count(KindTarget))
}

func TestResolve_NoPiercing(t *testing.T) {
	reg := NewRegistry(utils.Rect{W: 500, H: 500})
	reg.Spawn(KindProjectile, Entity{X: 100, Y: 100, W: 10, H: 10})
	first := reg.Spawn(KindTarget, Entity{X: 101, Y: 101, W: 10, H: 10, Target: &TargetData{Filler: true}})
	second := reg.Spawn(KindTarget, Entity{X: 103, Y: 103, W: 10, H: 10, Target: &TargetData{Filler: true}})

	events := Resolve(reg, DefaultBurst(0))
	require.Len(t, events, 1)
	assert.Equal(t, first, events[0].Target.ID)
	_, ok := reg.Get(second)
	assert.True(t, ok)
}

func TestResolve_TwoProjectilesOneTarget(t *testing.T) {
	reg := NewRegistry(utils.Rect{W: 500, H: 500})
	reg.Spawn(KindProjectile, Entity{X: 100, Y: 100, W: 10, H: 10})
	reg.Spawn(KindProjectile, Entity{X: 101, Y: 100, W: 10, H: 10})
	reg.Spawn(KindTarget, Entity{X: 102, Y: 101, W: 10, H: 10, Target: &TargetData{Filler: true}})

	events := Resolve(reg, DefaultBurst(0))
	assert.Len(t, events, 1, "a consumed target cannot be hit twice")
	assert.Equal(t, 1, reg.Count(KindProjectile))
}

func TestResolve_CircleProjectile(t *testing.T) {
	reg := NewRegistry(utils.Rect{W: 500, H: 500})
	reg.Spawn(KindProjectile, Entity{X: 50, Y: 50, Radius: 4})
	reg.Spawn(KindTarget, Entity{X: 52, Y: 40, W: 10, H: 8, Target: &TargetData{Filler: true}})

	assert.Len(t, Resolve(reg, DefaultBurst(0)), 1)
}

func TestSpawnBurst_Deterministic(t *testing.T) {
	a := NewRegistry(utils.Rect{W: 100, H: 100})
	b := NewRegistry(utils.Rect{W: 100, H: 100})
	SpawnBurst(a, DefaultBurst(6), 50, 50)
	SpawnBurst(b, DefaultBurst(6), 50, 50)
	assert.Equal(t, a.Entities(), b.Entities())
}
