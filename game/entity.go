package game

import (
	"github.com/lguibr/arcade/content"
	"github.com/lguibr/arcade/utils"
)

// EntityID identifies an entity for the lifetime of a registry.
type EntityID uint64

// Kind is the entity discriminant.
type Kind uint8

const (
	KindProjectile Kind = iota
	KindTarget
	KindParticle
	KindFloatingText
	KindFallingPiece
	KindSettledCell
)

var kindNames = [...]string{
	KindProjectile:   "projectile",
	KindTarget:       "target",
	KindParticle:     "particle",
	KindFloatingText: "floatingText",
	KindFallingPiece: "fallingPiece",
	KindSettledCell:  "settledCell",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// gridSpace kinds live in grid coordinates and are never moved or culled by
// the registry.
func (k Kind) gridSpace() bool {
	return k == KindFallingPiece || k == KindSettledCell
}

// TargetData is carried by targets. Filler targets carry no content.
type TargetData struct {
	Item   content.Item `json:"item" msgpack:"item"`
	Filler bool         `json:"filler" msgpack:"filler"`
	Growth float64      `json:"growth,omitempty" msgpack:"growth"`
}

// ParticleData fades opacity linearly over the particle's life.
type ParticleData struct {
	Color   [3]int  `json:"color" msgpack:"color"`
	Opacity float64 `json:"opacity" msgpack:"opacity"`
	MaxLife float64 `json:"-" msgpack:"maxLife"`
}

type TextData struct {
	Text  string `json:"text" msgpack:"text"`
	Color [3]int `json:"color" msgpack:"color"`
}

// PieceData is the payload of the active falling piece.
type PieceData struct {
	Piece Piece        `json:"piece" msgpack:"piece"`
	Item  content.Item `json:"item" msgpack:"item"`
}

// Entity is any simulated dynamic object. Exactly one payload pointer is set
// for kinds that carry one.
type Entity struct {
	ID      EntityID `json:"id" msgpack:"id"`
	Kind    Kind     `json:"kind" msgpack:"kind"`
	X       float64  `json:"x" msgpack:"x"`
	Y       float64  `json:"y" msgpack:"y"`
	Vx      float64  `json:"vx" msgpack:"vx"`
	Vy      float64  `json:"vy" msgpack:"vy"`
	Ay      float64  `json:"ay,omitempty" msgpack:"ay"`
	W       float64  `json:"w" msgpack:"w"`
	H       float64  `json:"h" msgpack:"h"`
	Radius  float64  `json:"radius,omitempty" msgpack:"radius"`
	Life    float64  `json:"life,omitempty" msgpack:"life"`
	HasLife bool     `json:"-" msgpack:"hasLife"`
	Alive   bool     `json:"-" msgpack:"alive"`

	Target   *TargetData   `json:"target,omitempty" msgpack:"target"`
	Particle *ParticleData `json:"particle,omitempty" msgpack:"particle"`
	Text     *TextData     `json:"text,omitempty" msgpack:"text"`
	Piece    *PieceData    `json:"piece,omitempty" msgpack:"piece"`
	Cell     *CellData     `json:"cell,omitempty" msgpack:"cell"`
}

// Bounds returns the entity's bounding box. Circular entities use the box
// enclosing the circle centred on (X, Y).
func (e *Entity) Bounds() utils.Rect {
	if e.Radius > 0 {
		return utils.Rect{X: e.X - e.Radius, Y: e.Y - e.Radius, W: 2 * e.Radius, H: 2 * e.Radius}
	}
	return utils.Rect{X: e.X, Y: e.Y, W: e.W, H: e.H}
}

// Center returns the entity's centre point.
func (e *Entity) Center() (float64, float64) {
	if e.Radius > 0 {
		return e.X, e.Y
	}
	return e.X + e.W/2, e.Y + e.H/2
}

// Move integrates one step: position by velocity, then velocity by
// acceleration.
func (e *Entity) Move(dt float64) {
	e.X += e.Vx * dt
	e.Y += e.Vy * dt
	e.Vy += e.Ay * dt
}

// clone copies e including its payload.
func (e *Entity) clone() Entity {
	c := *e
	if e.Target != nil {
		t := *e.Target
		c.Target = &t
	}
	if e.Particle != nil {
		p := *e.Particle
		c.Particle = &p
	}
	if e.Text != nil {
		t := *e.Text
		c.Text = &t
	}
	if e.Piece != nil {
		p := *e.Piece
		c.Piece = &p
	}
	if e.Cell != nil {
		d := *e.Cell
		c.Cell = &d
	}
	return c
}

// HasContent reports whether a target carries a term/definition pair.
func (e *Entity) HasContent() bool {
	return e.Kind == KindTarget && e.Target != nil && !e.Target.Filler
}
