package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRotateVectorQuarterTurns(t *testing.T) {
	expected := [][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	for rotation, want := range expected {
		x, y := RotateVector(rotation, 1, 0)
		assert.Equal(t, want, [2]int{x, y}, "rotation %d", rotation)
	}

	x, y := RotateVector(-1, 1, 0)
	assert.Equal(t, [2]int{0, -1}, [2]int{x, y})
}

func TestMod(t *testing.T) {
	assert.Equal(t, 3, Mod(-1, 4))
	assert.Equal(t, 0, Mod(8, 4))
	assert.Equal(t, 1, Mod(5, 4))
}

func TestClampAndDistance(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-2, 0, 3))
	assert.Equal(t, 3.0, Clamp(9, 0, 3))
	assert.Equal(t, 1.5, Clamp(1.5, 0, 3))
	assert.InDelta(t, 5.0, Distance(0, 0, 3, 4), 1e-9)
}

func TestRectIntersects(t *testing.T) {
	a := Rect{X: 100, Y: 100, W: 10, H: 10}
	assert.True(t, a.Intersects(Rect{X: 102, Y: 101, W: 10, H: 10}))
	assert.False(t, a.Intersects(Rect{X: 110, Y: 100, W: 10, H: 10}), "touching edges do not overlap")
	assert.True(t, a.Contains(110, 110))
	cx, cy := a.Center()
	assert.Equal(t, 105.0, cx)
	assert.Equal(t, 105.0, cy)
}
