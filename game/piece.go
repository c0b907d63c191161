package game

import (
	"fmt"

	"github.com/lguibr/arcade/utils"
)

// Point is a grid coordinate.
type Point struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

// Shape is a tetromino.
type Shape uint8

const (
	ShapeI Shape = iota
	ShapeO
	ShapeT
	ShapeS
	ShapeZ
	ShapeJ
	ShapeL
)

// Shapes lists every tetromino in bag order.
var Shapes = []Shape{ShapeI, ShapeO, ShapeT, ShapeS, ShapeZ, ShapeJ, ShapeL}

// shapeOffsets are cell offsets around the pivot in rotation 0.
var shapeOffsets = map[Shape][4]Point{
	ShapeI: {{-1, 0}, {0, 0}, {1, 0}, {2, 0}},
	ShapeO: {{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	ShapeT: {{-1, 0}, {0, 0}, {1, 0}, {0, -1}},
	ShapeS: {{-1, 0}, {0, 0}, {0, -1}, {1, -1}},
	ShapeZ: {{-1, -1}, {0, -1}, {0, 0}, {1, 0}},
	ShapeJ: {{-1, -1}, {-1, 0}, {0, 0}, {1, 0}},
	ShapeL: {{1, -1}, {-1, 0}, {0, 0}, {1, 0}},
}

var shapeColors = map[Shape][3]int{
	ShapeI: {0, 240, 240},
	ShapeO: {240, 240, 0},
	ShapeT: {160, 0, 240},
	ShapeS: {0, 240, 0},
	ShapeZ: {240, 0, 0},
	ShapeJ: {0, 0, 240},
	ShapeL: {240, 160, 0},
}

var shapeNames = map[Shape]string{
	ShapeI: "I", ShapeO: "O", ShapeT: "T", ShapeS: "S", ShapeZ: "Z", ShapeJ: "J", ShapeL: "L",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("shape(%d)", s)
}

func (s Shape) Color() [3]int { return shapeColors[s] }

// Piece is a tetromino placed at pivot (X, Y) with Rotation quarter turns
// clockwise.
type Piece struct {
	Shape    Shape `json:"shape" msgpack:"shape"`
	X        int   `json:"x" msgpack:"x"`
	Y        int   `json:"y" msgpack:"y"`
	Rotation int   `json:"rotation" msgpack:"rotation"`
}

// SpawnPiece places shape centred at the top of a grid of the given width
// with every cell on row 0 or below.
func SpawnPiece(shape Shape, columns int) Piece {
	p := Piece{Shape: shape, X: columns/2 - 1}
	minY := 0
	for _, c := range shapeOffsets[shape] {
		if c.Y < minY {
			minY = c.Y
		}
	}
	p.Y = -minY
	return p
}

// Cells returns the absolute cells the piece occupies.
func (p Piece) Cells() []Point {
	offsets := shapeOffsets[p.Shape]
	cells := make([]Point, 0, len(offsets))
	for _, o := range offsets {
		x, y := o.X, o.Y
		if p.Shape != ShapeO {
			x, y = utils.RotateVector(p.Rotation, o.X, o.Y)
		}
		cells = append(cells, Point{X: p.X + x, Y: p.Y + y})
	}
	return cells
}

// Moved returns the piece translated by (dx, dy).
func (p Piece) Moved(dx, dy int) Piece {
	p.X += dx
	p.Y += dy
	return p
}

// Rotated returns the piece turned by dir quarter turns.
func (p Piece) Rotated(dir int) Piece {
	p.Rotation = utils.Mod(p.Rotation+dir, 4)
	return p
}
