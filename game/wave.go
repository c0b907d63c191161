package game

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/lguibr/arcade/content"
	"github.com/lguibr/arcade/utils"
)

const (
	crosshairSize = 24
	hitscanSize   = 4
)

type waveState struct {
	Crosshair   Ship              `msgpack:"crosshair"`
	Cooldown    float64           `msgpack:"cooldown"`
	Wave        int               `msgpack:"wave"`
	WaveSpawned int               `msgpack:"waveSpawned"`
	Quiz        *content.Question `msgpack:"quiz"`
	Locked      []CollisionKey    `msgpack:"locked"`
}

// wave is the first-person wave shooter: targets approach from the horizon
// growing as they come, the player aims a crosshair and fires hitscan shots.
// Between waves a true/false question pauses the round.
type wave struct {
	w       *World
	cfg     utils.WaveConfig
	state   waveState
	tracker *CollisionTracker
}

func newWave(w *World) *wave {
	return &wave{w: w, cfg: w.Cfg.Wave, tracker: NewCollisionTracker()}
}

func (m *wave) Name() string { return utils.ModeWave }

func (m *wave) Setup() error {
	pf := m.w.Playfield
	m.state = waveState{
		Crosshair: Ship{
			X:        pf.W/2 - crosshairSize/2,
			Y:        pf.H/2 - crosshairSize/2,
			Width:    crosshairSize,
			Height:   crosshairSize,
			Velocity: m.cfg.CrosshairSpeed,
		},
		Wave: 1,
	}
	m.tracker.ClearAll()
	// Without items every wave is a fixed set of neutral targets.
	m.w.Director = NewDirector(m.cfg.Spawn, m.w.Items, m.w.Items.Len() == 0)
	return nil
}

func (m *wave) HandleInput(in InputFrame, dt float64) {
	if in.HasAim {
		m.state.Crosshair.CenterOn(in.AimX, in.AimY, m.w.Playfield)
	}
	dx, dy := direction(in)
	m.state.Crosshair.Move(dx, dy, dt, m.w.Playfield)

	if m.state.Cooldown > 0 {
		m.state.Cooldown -= dt
	}
	if in.WasPressed(Fire) && m.state.Cooldown <= 0 {
		cx, cy := m.state.Crosshair.Center()
		m.w.Registry.Spawn(KindProjectile, Entity{
			X: cx - hitscanSize/2,
			Y: cy - hitscanSize/2,
			W: hitscanSize,
			H: hitscanSize,
		})
		m.state.Cooldown = m.cfg.FireCooldown
		m.w.Emit(CueFire, 0)
	}
}

func (m *wave) CanSpawn() bool {
	return m.state.Quiz == nil && m.state.WaveSpawned < m.cfg.WaveSize
}

func (m *wave) Spawn(item content.Item, filler bool) error {
	pf := m.w.Playfield
	size := m.cfg.TargetSize
	x := m.w.RNG.Float64() * (pf.W - size)
	speedUp := 1 + 0.1*float64(m.state.Wave-1)
	m.w.Registry.Spawn(KindTarget, Entity{
		X:      x,
		Y:      m.cfg.Horizon,
		W:      size,
		H:      size,
		Vx:     (pf.W/2 - x - size/2) * 0.002,
		Vy:     m.cfg.TargetSpeed * speedUp,
		Target: &TargetData{Item: item, Filler: filler, Growth: m.cfg.GrowthRate},
	})
	m.state.WaveSpawned++
	return nil
}

// AfterTick expires unspent hitscan shots, tracks crosshair lock-on and
// advances waves.
func (m *wave) AfterTick(float64) {
	reg := m.w.Registry
	reg.ForEach(KindProjectile, func(p *Entity) {
		reg.Remove(p.ID)
		m.w.Session.RecordMiss()
		m.w.Emit(CueMiss, 0)
	})

	m.trackLockOn()

	s := m.w.Session
	waveDone := m.state.WaveSpawned >= m.cfg.WaveSize || m.w.Director.Exhausted
	if !s.Playing() || !waveDone || reg.Count(KindTarget) > 0 {
		return
	}
	if q, ok := m.w.Questions.Next(); ok && q.Valid() {
		m.state.Quiz = &q
		_ = s.TogglePause()
		m.w.Emit(CueQuiz, m.state.Wave)
		return
	}
	if m.w.Director.Exhausted {
		_ = s.Complete()
		return
	}
	m.nextWave()
}

func (m *wave) trackLockOn() {
	const crosshairID EntityID = 0
	cross := m.state.Crosshair.Rect()
	live := make(map[EntityID]bool)
	m.w.Registry.ForEach(KindTarget, func(t *Entity) {
		key := CollisionKey{Object1ID: crosshairID, Object2ID: t.ID}
		if AABBOverlap(cross, t.Bounds()) {
			live[t.ID] = true
			if m.tracker.BeginCollision(key) {
				m.w.Emit(CueTargeted, int(t.ID))
			}
		}
	})
	for _, key := range m.tracker.ActiveFor(crosshairID) {
		if !live[key.Object2ID] {
			m.tracker.EndCollision(key)
		}
	}
	m.state.Locked = m.tracker.Keys()
}

func (m *wave) nextWave() {
	m.state.Wave++
	m.state.WaveSpawned = 0
	m.w.Session.Level = m.state.Wave
	m.w.Emit(CueLevelUp, m.state.Wave)
}

func (m *wave) QuizActive() bool { return m.state.Quiz != nil }

// Answer scores the pending question and resumes play with the next wave.
func (m *wave) Answer(answer bool) {
	q := m.state.Quiz
	if q == nil {
		return
	}
	m.state.Quiz = nil
	s := m.w.Session
	if err := s.TogglePause(); err != nil {
		return
	}
	if answer == q.Answer {
		s.ExtendCombo()
		s.ItemsCleared++
		m.w.Emit(CueCorrect, m.cfg.QuizBonus)
		s.AddScore(m.cfg.QuizBonus * m.state.Wave)
	} else {
		s.RecordMiss()
		m.w.Emit(CueWrong, 0)
	}
	if q.Explanation != "" {
		s.Reveal(q.Question, q.Explanation)
	}
	if s.Playing() {
		m.nextWave()
	}
}

func (m *wave) Decorate(snap *Snapshot) {
	r := m.state.Crosshair.Rect()
	snap.Player = &r
	snap.Wave = m.state.Wave
	if m.state.Quiz != nil {
		snap.Quiz = m.state.Quiz.Question
	}
	for _, key := range m.state.Locked {
		snap.Locked = append(snap.Locked, key.Object2ID)
	}
}

func (m *wave) MarshalState() ([]byte, error) {
	return msgpack.Marshal(&m.state)
}

func (m *wave) UnmarshalState(data []byte) error {
	if err := msgpack.Unmarshal(data, &m.state); err != nil {
		return err
	}
	m.tracker.ClearAll()
	for _, key := range m.state.Locked {
		m.tracker.BeginCollision(key)
	}
	return nil
}
