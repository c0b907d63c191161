package game

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/lguibr/arcade/content"
	"github.com/lguibr/arcade/results"
	"github.com/lguibr/arcade/utils"
)

// Options configures a new Engine.
type Options struct {
	ID     string
	Mode   string
	Topic  string
	Seed   uint64
	Config utils.Config
	Logger *slog.Logger
	// OnResult is called exactly once when the round reaches a terminal
	// phase.
	OnResult func(results.RoundResult)
}

type loadResult struct {
	bundle content.Bundle
	err    error
}

// Engine owns one round: its scheduler, input router and simulation. All
// simulation state is mutated inside the tick callback only.
type Engine struct {
	id     string
	topic  string
	logger *slog.Logger

	world     *World
	mode      Mode
	scheduler *Scheduler
	router    *Router
	onResult  func(results.RoundResult)

	loaded     chan loadResult
	cancelLoad context.CancelFunc
	loadErr    error
	emitted    bool
	teardown   sync.Once
	result     *results.RoundResult
}

func NewEngine(opts Options) (*Engine, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Mode == "" {
		opts.Mode = utils.ModeShooter
	}

	world := newWorld(opts.Config, opts.Seed)
	mode, err := newMode(opts.Mode, world)
	if err != nil {
		return nil, err
	}

	bindings := opts.Config.Bindings(opts.Mode)
	if bindings == nil {
		bindings = utils.DefaultKeyBindings(opts.Mode)
	}
	router := NewRouter(RouterConfig{
		Bindings:       bindings,
		Gestures:       DefaultGestures(opts.Mode),
		TapThreshold:   opts.Config.Input.TapThreshold,
		SwipeThreshold: opts.Config.Input.SwipeThreshold,
		ClickAction:    Fire,
	})

	burst := opts.Config.Shooter.BurstSize
	if opts.Mode == utils.ModeWave {
		burst = opts.Config.Wave.BurstSize
	}
	world.Burst = DefaultBurst(burst)

	return &Engine{
		id:        opts.ID,
		topic:     opts.Topic,
		logger:    logger.With(slog.String("session", opts.ID), slog.String("mode", opts.Mode)),
		world:     world,
		mode:      mode,
		scheduler: NewScheduler(opts.Config.Scheduler),
		router:    router,
		onResult:  opts.OnResult,
		loaded:    make(chan loadResult, 1),
	}, nil
}

func (e *Engine) ID() string            { return e.id }
func (e *Engine) ModeName() string      { return e.mode.Name() }
func (e *Engine) Topic() string         { return e.topic }
func (e *Engine) Router() *Router       { return e.router }
func (e *Engine) Scheduler() *Scheduler { return e.scheduler }
func (e *Engine) Phase() Phase          { return e.world.Session.Phase }

// Session returns a copy of the session state.
func (e *Engine) Session() Session { return *e.world.Session.clone() }

// LoadError returns the error of a failed content fetch.
func (e *Engine) LoadError() error { return e.loadErr }

// Result returns the round result once emitted.
func (e *Engine) Result() (results.RoundResult, bool) {
	if e.result == nil {
		return results.RoundResult{}, false
	}
	return *e.result, true
}

// Begin enters loading, starts the scheduler and fetches content for the
// topic on a separate goroutine. The fetched bundle is applied by the first
// tick after it arrives; on failure the session falls back to menu.
func (e *Engine) Begin(ctx context.Context, source content.Source, timeout time.Duration) error {
	if err := e.world.Session.Transition(PhaseLoading); err != nil {
		return err
	}
	if err := e.scheduler.Start(e.tick); err != nil {
		return err
	}

	var (
		fetchCtx context.Context
		cancel   context.CancelFunc
	)
	if timeout > 0 {
		fetchCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		fetchCtx, cancel = context.WithCancel(ctx)
	}
	e.cancelLoad = cancel
	go func() {
		defer cancel()
		bundle, err := source.Fetch(fetchCtx, e.topic)
		e.loaded <- loadResult{bundle: bundle, err: err}
	}()
	return nil
}

// BeginWith starts a round from an already fetched bundle.
func (e *Engine) BeginWith(bundle content.Bundle) error {
	if err := e.world.Session.Transition(PhaseLoading); err != nil {
		return err
	}
	if err := e.scheduler.Start(e.tick); err != nil {
		return err
	}
	return e.applyContent(loadResult{bundle: bundle})
}

func (e *Engine) applyContent(res loadResult) error {
	s := e.world.Session
	if res.err != nil {
		e.loadErr = res.err
		e.logger.Warn("content fetch failed", slog.String("topic", e.topic), slog.String("error", res.err.Error()))
		_ = s.Transition(PhaseMenu)
		e.Teardown()
		return fmt.Errorf("load content: %w", res.err)
	}

	e.world.Items = content.NewQueue(res.bundle.Items, e.queuePolicy())
	e.world.Questions = content.NewQueue(res.bundle.Questions, content.NoRepeat)
	if err := e.mode.Setup(); err != nil {
		_ = s.Transition(PhaseMenu)
		e.Teardown()
		return fmt.Errorf("setup %s: %w", e.mode.Name(), err)
	}
	e.logger.Info("round started",
		slog.String("topic", e.topic),
		slog.Int("items", len(res.bundle.Items)),
		slog.Int("questions", len(res.bundle.Questions)))
	return s.Transition(PhasePlaying)
}

func (e *Engine) queuePolicy() content.Policy {
	switch e.mode.Name() {
	case utils.ModeShooter:
		return content.Policy(e.world.Cfg.Shooter.QueueMode)
	case utils.ModeFalling:
		return content.Policy(e.world.Cfg.Falling.QueueMode)
	}
	return content.Wrap
}

// Step runs one tick with a synthetic dt. It reports false once the
// scheduler has stopped.
func (e *Engine) Step(dt float64) bool {
	return e.scheduler.Step(dt)
}

// Advance runs one tick for a host frame at now.
func (e *Engine) Advance(now time.Time) bool {
	_, ticked := e.scheduler.Advance(now)
	return ticked
}

// Dispatch forwards a device event to the router.
func (e *Engine) Dispatch(ev Event) {
	e.router.Dispatch(ev)
}

func (e *Engine) tick(dt float64) {
	w := e.world
	s := w.Session
	w.Tick++
	w.cues = w.cues[:0]

	if s.Phase == PhaseLoading {
		select {
		case res := <-e.loaded:
			_ = e.applyContent(res)
		default:
		}
		return
	}

	in := e.router.Drain(s.Phase, e.mode.QuizActive())
	if e.mode.QuizActive() {
		switch {
		case in.WasPressed(AnswerTrue):
			e.mode.Answer(true)
		case in.WasPressed(AnswerFalse):
			e.mode.Answer(false)
		}
	} else if in.WasPressed(PauseToggle) {
		_ = s.TogglePause()
	}

	if s.Playing() {
		e.simulate(in, dt)
	}
	e.finish()
}

func (e *Engine) simulate(in InputFrame, dt float64) {
	w := e.world
	s := w.Session

	e.mode.HandleInput(in, dt)
	w.Director.Tick(dt, s, e.mode)

	for _, ev := range w.Registry.Tick(dt) {
		switch ev.Type {
		case EventEscape:
			s.RecordEscape()
			w.Emit(CueEscape, s.Health)
		case EventMiss:
			s.RecordMiss()
			w.Emit(CueMiss, 0)
		}
	}

	for _, hit := range Resolve(w.Registry, w.Burst) {
		points := s.RecordHit(hit.Target)
		cue := CueHit
		if !hit.Target.HasContent() {
			cue = CueFiller
		}
		w.Emit(cue, points)
		if points > 0 {
			cx, cy := hit.Target.Center()
			w.SpawnText("+"+strconv.Itoa(points), cx, cy, [3]int{255, 255, 255})
		}
	}

	e.mode.AfterTick(dt)
	s.AdvanceTime(dt)
	w.Registry.Flush()
}

// finish emits the result once a terminal phase is reached and tears the
// round down.
func (e *Engine) finish() {
	s := e.world.Session
	if !s.Phase.Terminal() || e.emitted {
		return
	}
	e.emitted = true
	result := s.Result(e.id, e.mode.Name(), e.topic)
	e.result = &result
	e.logger.Info("round ended",
		slog.String("outcome", string(result.Outcome)),
		slog.Int("score", result.Score),
		slog.Int("comboMax", result.ComboMax))
	e.Teardown()
	if e.onResult != nil {
		e.onResult(result)
	}
}

// Exit abandons the round and returns to menu. No result is emitted.
func (e *Engine) Exit() error {
	s := e.world.Session
	if s.Phase.Terminal() || s.Phase == PhaseMenu {
		e.Teardown()
		return nil
	}
	err := s.Transition(PhaseMenu)
	e.Teardown()
	return err
}

// Teardown stops the scheduler and unsubscribes device input. It is safe to
// call more than once.
func (e *Engine) Teardown() {
	e.teardown.Do(func() {
		e.scheduler.Stop()
		e.router.Unsubscribe()
		if e.cancelLoad != nil {
			e.cancelLoad()
		}
	})
}

// Cues returns the cues emitted during the last tick.
func (e *Engine) Cues() []Cue {
	return e.world.Cues()
}
