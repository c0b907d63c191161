package game

import (
	"math"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/lguibr/arcade/content"
	"github.com/lguibr/arcade/utils"
)

type shooterState struct {
	Ship     Ship    `msgpack:"ship"`
	Cooldown float64 `msgpack:"cooldown"`
	Bombs    int     `msgpack:"bombs"`
}

// shooter is the scrolling shooter: a cannon at the bottom fires at falling
// targets labelled with terms.
type shooter struct {
	noQuiz
	w     *World
	cfg   utils.ShooterConfig
	state shooterState
}

func newShooter(w *World) *shooter {
	return &shooter{w: w, cfg: w.Cfg.Shooter}
}

func (m *shooter) Name() string { return utils.ModeShooter }

func (m *shooter) Setup() error {
	pf := m.w.Playfield
	m.state = shooterState{
		Ship: Ship{
			X:        pf.W/2 - m.cfg.ShipWidth/2,
			Y:        pf.H - m.cfg.ShipHeight - 4,
			Width:    m.cfg.ShipWidth,
			Height:   m.cfg.ShipHeight,
			Velocity: m.cfg.ShipSpeed,
		},
		Bombs: m.cfg.Bombs,
	}
	m.w.Director = NewDirector(m.cfg.Spawn, m.w.Items, false)
	return nil
}

func (m *shooter) HandleInput(in InputFrame, dt float64) {
	dx, _ := direction(in)
	m.state.Ship.Move(dx, 0, dt, m.w.Playfield)

	if m.state.Cooldown > 0 {
		m.state.Cooldown -= dt
	}
	if in.WasPressed(Fire) && m.state.Cooldown <= 0 {
		m.fire()
	}
	if in.WasPressed(Bomb) && m.state.Bombs > 0 {
		m.bomb()
	}
}

func (m *shooter) fire() {
	size := m.cfg.ProjectileSize
	cx, _ := m.state.Ship.Center()
	m.w.Registry.Spawn(KindProjectile, Entity{
		X:  cx - size/2,
		Y:  m.state.Ship.Y - size,
		W:  size,
		H:  size,
		Vy: -m.cfg.ProjectileSpeed,
	})
	m.state.Cooldown = m.cfg.FireCooldown
	m.w.Emit(CueFire, 0)
}

// bomb destroys every live target for flat points; the combo is untouched.
func (m *shooter) bomb() {
	m.state.Bombs--
	m.w.Emit(CueBomb, m.state.Bombs)
	m.w.Registry.ForEach(KindTarget, func(t *Entity) {
		m.w.Registry.Remove(t.ID)
		cx, cy := t.Center()
		SpawnBurst(m.w.Registry, m.w.Burst, cx, cy)
		m.w.Session.AddScore(m.w.Session.FillerPoints)
	})
}

func (m *shooter) CanSpawn() bool { return true }

func (m *shooter) Spawn(item content.Item, filler bool) error {
	pf := m.w.Playfield
	width, height := m.cfg.TargetWidth, m.cfg.TargetHeight
	x := m.w.RNG.Float64() * (pf.W - width)
	speed := m.cfg.TargetSpeed + m.cfg.TargetSpeedStep*float64(m.w.Session.Level-1)
	// enter from above without starting outside the cull bounds
	y := math.Max(-height, m.w.Registry.Bounds().Y)
	m.w.Registry.Spawn(KindTarget, Entity{
		X:      x,
		Y:      y,
		W:      width,
		H:      height,
		Vy:     speed,
		Target: &TargetData{Item: item, Filler: filler},
	})
	return nil
}

func (m *shooter) AfterTick(float64) {
	s := m.w.Session
	if m.cfg.PointsPerLevel > 0 {
		if level := 1 + s.Score/m.cfg.PointsPerLevel; level > s.Level {
			s.Level = level
			m.w.Emit(CueLevelUp, level)
		}
	}
	if s.Playing() && m.w.Director.Exhausted && m.w.Registry.Count(KindTarget) == 0 {
		_ = s.Complete()
	}
}

func (m *shooter) Decorate(snap *Snapshot) {
	r := m.state.Ship.Rect()
	snap.Player = &r
	snap.Bombs = m.state.Bombs
}

func (m *shooter) MarshalState() ([]byte, error) {
	return msgpack.Marshal(&m.state)
}

func (m *shooter) UnmarshalState(data []byte) error {
	return msgpack.Unmarshal(data, &m.state)
}
