package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lguibr/arcade/utils"
)

// ErrSchedulerRunning is returned by Start on a scheduler that is already
// running.
var ErrSchedulerRunning = errors.New("scheduler already running")

// TickFunc receives the elapsed time since the previous tick in nominal
// frames.
type TickFunc func(dt float64)

// FrameSource delivers host frame timestamps.
type FrameSource interface {
	Frames() <-chan time.Time
	Stop()
}

// TickerSource is a FrameSource backed by time.Ticker.
type TickerSource struct {
	ticker *time.Ticker
}

func NewTickerSource(period time.Duration) *TickerSource {
	return &TickerSource{ticker: time.NewTicker(period)}
}

func (t *TickerSource) Frames() <-chan time.Time { return t.ticker.C }
func (t *TickerSource) Stop()                    { t.ticker.Stop() }

// Scheduler turns a stream of frame timestamps into bounded delta times.
// dt is never negative and never exceeds MaxDelta; the first tick after Start
// or Resync gets dt = 1. No tick is invoked after Stop.
type Scheduler struct {
	frame    time.Duration
	maxDelta float64

	mu      sync.Mutex
	tickFn  TickFunc
	running bool
	last    time.Time
	hasLast bool
	ticks   uint64
}

func NewScheduler(cfg utils.SchedulerConfig) *Scheduler {
	frame := cfg.FrameDuration
	if frame <= 0 {
		frame = time.Second / 60
	}
	maxDelta := cfg.MaxDelta
	if maxDelta < 1 {
		maxDelta = 1
	}
	return &Scheduler{frame: frame, maxDelta: maxDelta}
}

func (s *Scheduler) Start(fn TickFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSchedulerRunning
	}
	s.tickFn = fn
	s.running = true
	s.hasLast = false
	return nil
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.running = false
	s.tickFn = nil
	s.mu.Unlock()
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Ticks counts invocations since construction.
func (s *Scheduler) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Resync forgets the previous frame time so that the next tick starts fresh
// with dt = 1, for instance after the host stopped delivering frames.
func (s *Scheduler) Resync() {
	s.mu.Lock()
	s.hasLast = false
	s.mu.Unlock()
}

// Advance handles one host frame at time now and runs the tick callback.
func (s *Scheduler) Advance(now time.Time) (float64, bool) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return 0, false
	}
	dt := 1.0
	if s.hasLast {
		dt = s.clamp(float64(now.Sub(s.last)) / float64(s.frame))
	}
	if !s.hasLast || now.After(s.last) {
		s.last = now
	}
	s.hasLast = true
	fn := s.tickFn
	s.ticks++
	s.mu.Unlock()

	fn(dt)
	return dt, true
}

// Step runs the callback with a synthetic dt, clamped like a real frame.
func (s *Scheduler) Step(dt float64) bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return false
	}
	fn := s.tickFn
	s.ticks++
	s.mu.Unlock()

	fn(s.clamp(dt))
	return true
}

func (s *Scheduler) clamp(dt float64) float64 {
	return utils.Clamp(dt, 0, s.maxDelta)
}

// Run pumps frames from source until ctx is done or the scheduler stops.
// The first pumped frame gets dt = 1 however long ago the last tick was.
func (s *Scheduler) Run(ctx context.Context, source FrameSource) {
	defer source.Stop()
	s.Resync()
	frames := source.Frames()
	for {
		select {
		case <-ctx.Done():
			return
		case now, ok := <-frames:
			if !ok {
				return
			}
			if _, ticked := s.Advance(now); !ticked {
				return
			}
		}
	}
}
