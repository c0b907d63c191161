package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lguibr/arcade/utils"
)

func newTestRouter(mode string) *Router {
	cfg := utils.DefaultConfig()
	return NewRouter(RouterConfig{
		Bindings:       utils.DefaultKeyBindings(mode),
		Gestures:       DefaultGestures(mode),
		TapThreshold:   cfg.Input.TapThreshold,
		SwipeThreshold: cfg.Input.SwipeThreshold,
		ClickAction:    Fire,
	})
}

func TestRouter_EdgeTriggeredFiresOncePerPress(t *testing.T) {
	r := newTestRouter(utils.ModeShooter)

	r.Dispatch(KeyEvent{Code: "Space", Down: true})
	r.Dispatch(KeyEvent{Code: "Space", Down: true}) // auto-repeat
	frame := r.Drain(PhasePlaying, false)
	assert.Equal(t, []Action{Fire}, frame.Pressed)

	r.Dispatch(KeyEvent{Code: "Space", Down: true})
	frame = r.Drain(PhasePlaying, false)
	assert.Empty(t, frame.Pressed, "still held, no new press")
	assert.False(t, frame.IsHeld(Fire), "fire is not level-triggered")

	r.Dispatch(KeyEvent{Code: "Space", Down: false})
	r.Dispatch(KeyEvent{Code: "Space", Down: true})
	frame = r.Drain(PhasePlaying, false)
	assert.True(t, frame.WasPressed(Fire))
}

func TestRouter_LevelTriggeredHeldEveryTick(t *testing.T) {
	r := newTestRouter(utils.ModeShooter)

	r.Dispatch(KeyEvent{Code: "ArrowLeft", Down: true})
	for i := 0; i < 3; i++ {
		frame := r.Drain(PhasePlaying, false)
		assert.True(t, frame.IsHeld(MoveLeft), "tick %d", i)
		assert.True(t, frame.Active(MoveLeft))
	}

	r.Dispatch(KeyEvent{Code: "ArrowLeft", Down: false})
	frame := r.Drain(PhasePlaying, false)
	assert.False(t, frame.Active(MoveLeft))
}

func TestRouter_NothingDeliveredUnlessPlaying(t *testing.T) {
	r := newTestRouter(utils.ModeShooter)

	for _, phase := range []Phase{PhaseMenu, PhaseLoading, PhaseRoundComplete, PhaseGameOver} {
		r.Dispatch(KeyEvent{Code: "Space", Down: true})
		r.Dispatch(KeyEvent{Code: "KeyP", Down: true})
		r.Dispatch(KeyEvent{Code: "ArrowLeft", Down: true})
		frame := r.Drain(phase, false)
		assert.Empty(t, frame.Pressed, phase.String())
		assert.Empty(t, frame.Held, phase.String())
		r.Dispatch(KeyEvent{Code: "Space"})
		r.Dispatch(KeyEvent{Code: "KeyP"})
		r.Dispatch(KeyEvent{Code: "ArrowLeft"})
		r.Drain(phase, false)
	}
}

func TestRouter_PausedOnlyDeliversUnpause(t *testing.T) {
	r := newTestRouter(utils.ModeWave)

	r.Dispatch(KeyEvent{Code: "Space", Down: true})
	r.Dispatch(KeyEvent{Code: "KeyP", Down: true})
	r.Dispatch(KeyEvent{Code: "KeyT", Down: true})
	r.Dispatch(KeyEvent{Code: "ArrowUp", Down: true})
	frame := r.Drain(PhasePaused, false)
	assert.Equal(t, []Action{PauseToggle}, frame.Pressed)
	assert.Empty(t, frame.Held)

	r.Dispatch(KeyEvent{Code: "KeyF", Down: true})
	frame = r.Drain(PhasePaused, true)
	assert.Equal(t, []Action{AnswerFalse}, frame.Pressed, "answers pass while a quiz is pending")
}

func TestRouter_UnboundKeysIgnored(t *testing.T) {
	r := newTestRouter(utils.ModeShooter)
	r.Dispatch(KeyEvent{Code: "KeyZ", Down: true})
	frame := r.Drain(PhasePlaying, false)
	assert.Empty(t, frame.Pressed)
	assert.Empty(t, frame.Held)
}

func TestRouter_PointerAimAndClick(t *testing.T) {
	r := newTestRouter(utils.ModeWave)

	r.Dispatch(PointerEvent{X: 40, Y: 50})
	frame := r.Drain(PhasePlaying, false)
	assert.True(t, frame.HasAim)
	assert.Equal(t, 40.0, frame.AimX)
	assert.Empty(t, frame.Pressed)

	r.Dispatch(PointerEvent{X: 60, Y: 70, Click: true})
	frame = r.Drain(PhasePlaying, false)
	assert.Equal(t, []Action{Fire}, frame.Pressed)
	assert.Equal(t, 70.0, frame.AimY)
}

func TestRouter_TouchGestures(t *testing.T) {
	testCases := []struct {
		name   string
		endX   float64
		endY   float64
		expect Action
	}{
		{"Tap", 103, 102, Rotate},
		{"SwipeDown", 100, 180, HardDrop},
		{"SwipeUp", 100, 40, Rotate},
		{"ShortDragIgnored", 120, 100, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(utils.ModeFalling)
			r.Dispatch(TouchEvent{ID: 1, X: 100, Y: 100})
			r.Dispatch(TouchEvent{ID: 1, X: tc.endX, Y: tc.endY, End: true})
			frame := r.Drain(PhasePlaying, false)
			if tc.expect == "" {
				assert.Empty(t, frame.Pressed)
				return
			}
			assert.Equal(t, []Action{tc.expect}, frame.Pressed)
		})
	}
}

func TestRouter_HorizontalDragActsAsHeldKey(t *testing.T) {
	r := newTestRouter(utils.ModeShooter)

	r.Dispatch(TouchEvent{ID: 7, X: 200, Y: 300})
	r.Dispatch(TouchEvent{ID: 7, X: 150, Y: 305})
	frame := r.Drain(PhasePlaying, false)
	assert.True(t, frame.WasPressed(MoveLeft))
	assert.True(t, frame.IsHeld(MoveLeft))

	frame = r.Drain(PhasePlaying, false)
	assert.True(t, frame.IsHeld(MoveLeft), "drag keeps moving while the finger stays down")

	r.Dispatch(TouchEvent{ID: 7, X: 140, Y: 305, End: true})
	frame = r.Drain(PhasePlaying, false)
	assert.Empty(t, frame.Pressed, "release after a drag is not a swipe")
	assert.False(t, frame.IsHeld(MoveLeft))
}

func TestRouter_UnsubscribeDropsEvents(t *testing.T) {
	r := newTestRouter(utils.ModeShooter)
	r.Dispatch(KeyEvent{Code: "Space", Down: true})
	r.Unsubscribe()
	r.Dispatch(KeyEvent{Code: "KeyB", Down: true})

	assert.False(t, r.Subscribed())
	assert.Empty(t, r.Drain(PhasePlaying, false).Pressed)
}

func TestRouter_StateRestore(t *testing.T) {
	r := newTestRouter(utils.ModeShooter)
	r.Dispatch(KeyEvent{Code: "ArrowRight", Down: true})
	r.Dispatch(TouchEvent{ID: 2, X: 10, Y: 10})
	r.Dispatch(PointerEvent{X: 5, Y: 6})
	r.Drain(PhasePlaying, false)

	copied := newTestRouter(utils.ModeShooter)
	copied.restore(r.state())

	assert.Equal(t, r.state(), copied.state())
	assert.True(t, copied.Drain(PhasePlaying, false).IsHeld(MoveRight))
}
