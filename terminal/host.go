package terminal

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lguibr/arcade/game"
	"github.com/lguibr/arcade/render"
)

// DefaultHold is how long a key counts as held after its last press or
// repeat. Terminals report no key-up, so releases are synthesised.
const DefaultHold = 300 * time.Millisecond

// RoundFactory returns a round that has already begun (loading or playing).
type RoundFactory func(ctx context.Context) (*game.Engine, error)

type HostOptions struct {
	Frame  time.Duration // redraw period, also the engine's frame source
	Hold   time.Duration
	Sound  *Sound // nil plays nothing
	Logger *slog.Logger
}

// Host drives rounds from a tcell screen: keys become router events, frames
// advance the engine and snapshots are drawn.
type Host struct {
	screen   tcell.Screen
	newRound RoundFactory
	opts     HostOptions
	logger   *slog.Logger

	round *game.Engine
	held  map[string]time.Time // key code -> release deadline
}

func NewHost(screen tcell.Screen, newRound RoundFactory, opts HostOptions) *Host {
	if opts.Frame <= 0 {
		opts.Frame = 16 * time.Millisecond
	}
	if opts.Hold <= 0 {
		opts.Hold = DefaultHold
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Host{
		screen:   screen,
		newRound: newRound,
		opts:     opts,
		logger:   opts.Logger,
		held:     make(map[string]time.Time),
	}
}

// Round returns the current round.
func (h *Host) Round() *game.Engine { return h.round }

// Run plays until the user quits or ctx is done. The caller owns the screen
// and calls Fini afterwards.
func (h *Host) Run(ctx context.Context) error {
	if err := h.restart(ctx); err != nil {
		return err
	}
	defer func() {
		if h.round != nil {
			h.round.Teardown()
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	frames := game.NewTickerSource(h.opts.Frame)
	defer frames.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !h.handleEvent(ctx, ev, time.Now()) {
				return nil
			}
		case now := <-frames.Frames():
			h.frameAt(now)
		}
	}
}

func (h *Host) restart(ctx context.Context) error {
	if h.round != nil {
		h.round.Teardown()
	}
	round, err := h.newRound(ctx)
	if err != nil {
		return err
	}
	h.round = round
	h.held = make(map[string]time.Time)
	return nil
}

// handleEvent reports false when the user asked to quit.
func (h *Host) handleEvent(ctx context.Context, ev tcell.Event, now time.Time) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if isQuit(ev) {
			return false
		}
		code, ok := KeyCode(ev)
		if !ok {
			return true
		}
		phase := h.round.Phase()
		if (phase.Terminal() || phase == game.PhaseMenu) && code == "Enter" {
			if err := h.restart(ctx); err != nil {
				h.logger.Error("restart round", slog.String("error", err.Error()))
				return false
			}
			return true
		}
		h.press(code, now)
	case *tcell.EventResize:
		h.screen.Sync()
	}
	return true
}

// press dispatches a key-down on the first press and extends the hold on
// repeats, so edge-triggered actions fire once per physical press.
func (h *Host) press(code string, now time.Time) {
	if _, held := h.held[code]; !held {
		h.round.Dispatch(game.KeyEvent{Code: code, Down: true})
	}
	h.held[code] = now.Add(h.opts.Hold)
}

func (h *Host) releaseExpired(now time.Time) {
	for code, until := range h.held {
		if !now.Before(until) {
			h.round.Dispatch(game.KeyEvent{Code: code, Down: false})
			delete(h.held, code)
		}
	}
}

func (h *Host) frameAt(now time.Time) {
	h.releaseExpired(now)
	if h.round.Advance(now) && h.opts.Sound != nil {
		h.opts.Sound.Play(h.round.Cues())
	}
	h.draw()
}

func (h *Host) draw() {
	h.screen.Clear()
	width, height := h.screen.Size()
	snap := h.round.Snapshot()

	hud := strings.Split(render.HUD(snap), "\n")
	switch {
	case snap.Phase.Terminal():
		hud = append(hud, "round over: Enter plays again, Ctrl+C quits")
	case snap.Phase == game.PhaseMenu:
		hud = append(hud, "menu: Enter starts a round, Ctrl+C quits")
	}
	hudStyle := tcell.StyleDefault.Foreground(tcell.ColorSilver)
	for y, line := range hud {
		h.drawText(0, y, line, hudStyle)
	}

	top := len(hud)
	frame := render.Rasterize(snap, width, height-top)
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			p := frame.Pixels[y][x]
			if p.Ch == 0 {
				continue
			}
			color := tcell.NewRGBColor(int32(p.Color[0]), int32(p.Color[1]), int32(p.Color[2]))
			h.screen.SetContent(x, y+top, p.Ch, nil, tcell.StyleDefault.Foreground(color))
		}
	}
	h.screen.Show()
}

func (h *Host) drawText(x, y int, text string, style tcell.Style) {
	for i, r := range []rune(text) {
		h.screen.SetContent(x+i, y, r, nil, style)
	}
}
