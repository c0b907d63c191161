package game

import (
	"errors"
	"math"

	"github.com/lguibr/arcade/content"
	"github.com/lguibr/arcade/utils"
)

// ErrSpawnBlocked is returned by a Spawner that cannot place a new entity,
// which ends the round.
var ErrSpawnBlocked = errors.New("spawn blocked")

// Spawner creates the entity for a pulled content item.
type Spawner interface {
	// CanSpawn gates spawning, for instance while a falling piece is live.
	CanSpawn() bool
	// Spawn creates an entity. filler is true when item carries no content.
	Spawn(item content.Item, filler bool) error
}

// SpawnOutcome describes what a director tick did.
type SpawnOutcome struct {
	Spawned   bool
	Filler    bool
	Exhausted bool
}

// Director schedules spawns on a countdown that shrinks with score and level.
type Director struct {
	Curve     utils.SpawnCurve             `msgpack:"curve"`
	Countdown float64                      `msgpack:"countdown"`
	WaveSet   bool                         `msgpack:"waveSet"`
	Spawned   int                          `msgpack:"spawned"`
	Exhausted bool                         `msgpack:"exhausted"`
	Queue     *content.Queue[content.Item] `msgpack:"-"`
}

// NewDirector creates a director whose first spawn happens one base
// interval after the round starts. A waveSet director spawns neutral filler
// instead of pulling content.
func NewDirector(curve utils.SpawnCurve, queue *content.Queue[content.Item], waveSet bool) *Director {
	return &Director{
		Curve:     curve,
		Countdown: curve.BaseInterval,
		WaveSet:   waveSet,
		Queue:     queue,
	}
}

// Interval returns max(Min, Base - PerScore*score - PerLevel*(level-1)).
func (d *Director) Interval(score, level int) float64 {
	c := d.Curve
	interval := c.BaseInterval - c.PerScore*float64(score) - c.PerLevel*float64(level-1)
	minimum := c.MinInterval
	if minimum <= 0 {
		minimum = 1
	}
	return math.Max(minimum, interval)
}

// Tick counts down by dt and spawns through sp when the countdown elapses.
// A blocked spawn ends the session.
func (d *Director) Tick(dt float64, s *Session, sp Spawner) SpawnOutcome {
	if !s.Playing() || d.Exhausted {
		return SpawnOutcome{Exhausted: d.Exhausted}
	}

	d.Countdown -= dt
	if d.Countdown > 0 {
		return SpawnOutcome{}
	}
	if !sp.CanSpawn() {
		d.Countdown = 0
		return SpawnOutcome{}
	}

	item, filler, ok := d.pull()
	if !ok {
		d.Exhausted = true
		return SpawnOutcome{Exhausted: true}
	}

	if err := sp.Spawn(item, filler); err != nil {
		if errors.Is(err, ErrSpawnBlocked) {
			_ = s.GameOver()
		}
		return SpawnOutcome{}
	}

	d.Spawned++
	d.Countdown += d.Interval(s.Score, s.Level)
	if d.Countdown <= 0 {
		d.Countdown = d.Interval(s.Score, s.Level)
	}
	return SpawnOutcome{Spawned: true, Filler: filler}
}

func (d *Director) pull() (content.Item, bool, bool) {
	if d.WaveSet {
		return content.Item{}, true, true
	}
	item, ok := d.Queue.Next()
	if !ok {
		return content.Item{}, false, false
	}
	if !item.Valid() {
		return content.Item{}, true, true
	}
	return item, false, true
}
