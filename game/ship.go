package game

import "github.com/lguibr/arcade/utils"

// Ship is a player-controlled box that moves inside the playfield: the
// shooter's cannon or the wave mode's crosshair.
type Ship struct {
	X        float64 `json:"x" msgpack:"x"`
	Y        float64 `json:"y" msgpack:"y"`
	Width    float64 `json:"width" msgpack:"width"`
	Height   float64 `json:"height" msgpack:"height"`
	Velocity float64 `json:"velocity" msgpack:"velocity"`
}

func (s *Ship) Rect() utils.Rect {
	return utils.Rect{X: s.X, Y: s.Y, W: s.Width, H: s.Height}
}

// Center returns the ship's centre point.
func (s *Ship) Center() (float64, float64) {
	return s.Rect().Center()
}

// Move displaces the ship by (dirX, dirY) times its velocity and dt,
// clamped to bounds.
func (s *Ship) Move(dirX, dirY, dt float64, bounds utils.Rect) {
	s.X = utils.Clamp(s.X+dirX*s.Velocity*dt, bounds.X, bounds.Right()-s.Width)
	s.Y = utils.Clamp(s.Y+dirY*s.Velocity*dt, bounds.Y, bounds.Bottom()-s.Height)
}

// CenterOn moves the ship so its centre is (x, y), clamped to bounds.
func (s *Ship) CenterOn(x, y float64, bounds utils.Rect) {
	s.X = utils.Clamp(x-s.Width/2, bounds.X, bounds.Right()-s.Width)
	s.Y = utils.Clamp(y-s.Height/2, bounds.Y, bounds.Bottom()-s.Height)
}

// direction converts held or pressed movement actions into a unit step.
func direction(in InputFrame) (float64, float64) {
	var dx, dy float64
	if in.Active(MoveLeft) {
		dx--
	}
	if in.Active(MoveRight) {
		dx++
	}
	if in.Active(MoveUp) {
		dy--
	}
	if in.Active(MoveDown) {
		dy++
	}
	return dx, dy
}
