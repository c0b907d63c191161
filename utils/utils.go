package utils

import "math"

// MatrixesOfRotation holds the quarter-turn rotation matrices for 0, 90, 180
// and 270 degrees clockwise in screen coordinates (y grows downward).
var MatrixesOfRotation = NewMatrixesOfRotation()

func NewMatrixesOfRotation() [4][2][2]int {
	return [4][2][2]int{
		{{1, 0}, {0, 1}},
		{{0, -1}, {1, 0}},
		{{-1, 0}, {0, -1}},
		{{0, 1}, {-1, 0}},
	}
}

func TransformVector(tMatrix [2][2]int, x int, y int) (int, int) {
	return tMatrix[0][0]*x + tMatrix[0][1]*y, tMatrix[1][0]*x + tMatrix[1][1]*y
}

// RotateVector rotates (x, y) by rotation quarter turns. Negative rotations
// wrap.
func RotateVector(rotation int, x int, y int) (int, int) {
	return TransformVector(MatrixesOfRotation[Mod(rotation, 4)], x, y)
}

// Mod is the mathematical modulo: the result has the sign of m.
func Mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	W float64 `json:"w" msgpack:"w"`
	H float64 `json:"h" msgpack:"h"`
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

func (r Rect) Center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Contains reports whether the point lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.Right() && y >= r.Y && y <= r.Bottom()
}

// Intersects reports strict overlap; rectangles that only touch do not
// intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}
