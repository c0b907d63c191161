package game

import (
	"math"
	"sort"
	"sync"

	"github.com/zyedidia/generic/mapset"

	"github.com/lguibr/arcade/utils"
)

// Action is a logical command produced by the Router.
type Action string

const (
	MoveLeft    Action = utils.ActionMoveLeft
	MoveRight   Action = utils.ActionMoveRight
	MoveUp      Action = utils.ActionMoveUp
	MoveDown    Action = utils.ActionMoveDown
	Fire        Action = utils.ActionFire
	Bomb        Action = utils.ActionBomb
	PauseToggle Action = utils.ActionPauseToggle
	Rotate      Action = utils.ActionRotate
	SoftDrop    Action = utils.ActionSoftDrop
	HardDrop    Action = utils.ActionHardDrop
	AnswerTrue  Action = utils.ActionAnswerTrue
	AnswerFalse Action = utils.ActionAnswerFalse
)

// levelTriggered actions are reported as held every tick while down.
var levelTriggered = map[Action]bool{
	MoveLeft:  true,
	MoveRight: true,
	MoveUp:    true,
	MoveDown:  true,
	SoftDrop:  true,
}

// Event is a raw device event.
type Event interface {
	inputEvent()
}

// KeyEvent uses DOM key codes ("ArrowLeft", "Space", "KeyB").
type KeyEvent struct {
	Code string `json:"code"`
	Down bool   `json:"down"`
}

type PointerEvent struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Click bool    `json:"click"`
}

// TouchEvent reports a touch start or move (End false) and its release.
type TouchEvent struct {
	ID  int     `json:"id"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	End bool    `json:"end"`
}

func (KeyEvent) inputEvent()     {}
func (PointerEvent) inputEvent() {}
func (TouchEvent) inputEvent()   {}

// Gestures maps touch gestures onto actions. Horizontal drags behave like a
// held key; taps and vertical swipes are single presses.
type Gestures struct {
	Tap        Action
	SwipeUp    Action
	SwipeDown  Action
	SwipeLeft  Action
	SwipeRight Action
}

func DefaultGestures(mode string) Gestures {
	switch mode {
	case utils.ModeFalling:
		return Gestures{Tap: Rotate, SwipeUp: Rotate, SwipeDown: HardDrop, SwipeLeft: MoveLeft, SwipeRight: MoveRight}
	case utils.ModeWave:
		return Gestures{Tap: Fire, SwipeUp: MoveUp, SwipeDown: MoveDown, SwipeLeft: MoveLeft, SwipeRight: MoveRight}
	default:
		return Gestures{Tap: Fire, SwipeUp: Fire, SwipeDown: Bomb, SwipeLeft: MoveLeft, SwipeRight: MoveRight}
	}
}

// InputFrame is the consistent view of intent consumed by one tick.
type InputFrame struct {
	Pressed []Action
	Held    []Action
	AimX    float64
	AimY    float64
	HasAim  bool
}

func (f InputFrame) WasPressed(a Action) bool {
	for _, p := range f.Pressed {
		if p == a {
			return true
		}
	}
	return false
}

func (f InputFrame) IsHeld(a Action) bool {
	for _, h := range f.Held {
		if h == a {
			return true
		}
	}
	return false
}

// Active reports a press this tick or a hold.
func (f InputFrame) Active(a Action) bool {
	return f.WasPressed(a) || f.IsHeld(a)
}

type touchTrack struct {
	startX, startY float64
	dragging       Action
}

// RouterConfig configures a Router for one mode.
type RouterConfig struct {
	Bindings       map[string]string
	Gestures       Gestures
	TapThreshold   float64
	SwipeThreshold float64
	ClickAction    Action
}

// Router buffers raw device events between ticks and turns them into
// debounced commands when drained.
type Router struct {
	cfg RouterConfig

	mu      sync.Mutex
	pending []Event
	closed  bool

	downKeys mapset.Set[string]
	touches  map[int]*touchTrack
	aimX     float64
	aimY     float64
	hasAim   bool
}

func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		cfg:      cfg,
		downKeys: mapset.New[string](),
		touches:  make(map[int]*touchTrack),
	}
}

// Dispatch buffers ev for the next Drain. It is safe to call from any
// goroutine. Events after Unsubscribe are discarded.
func (r *Router) Dispatch(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || ev == nil {
		return
	}
	r.pending = append(r.pending, ev)
}

// Unsubscribe ends the router's lifetime.
func (r *Router) Unsubscribe() {
	r.mu.Lock()
	r.closed = true
	r.pending = nil
	r.mu.Unlock()
}

func (r *Router) Subscribed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.closed
}

// Drain consumes every buffered event. While not playing only pauseToggle is
// delivered; while a quiz is pending, answers are delivered too.
func (r *Router) Drain(phase Phase, quizActive bool) InputFrame {
	r.mu.Lock()
	events := r.pending
	r.pending = nil
	r.mu.Unlock()

	var pressed []Action
	seen := mapset.New[Action]()
	press := func(a Action) {
		if a == "" || seen.Has(a) {
			return
		}
		seen.Put(a)
		pressed = append(pressed, a)
	}

	for _, ev := range events {
		switch e := ev.(type) {
		case KeyEvent:
			r.applyKey(e, press)
		case PointerEvent:
			r.aimX, r.aimY, r.hasAim = e.X, e.Y, true
			if e.Click {
				press(r.cfg.ClickAction)
			}
		case TouchEvent:
			r.applyTouch(e, press)
		}
	}

	frame := InputFrame{AimX: r.aimX, AimY: r.aimY, HasAim: r.hasAim}
	switch {
	case phase == PhasePlaying:
		frame.Pressed = pressed
		frame.Held = r.heldActions()
	case phase == PhasePaused:
		for _, a := range pressed {
			if a == PauseToggle || (quizActive && (a == AnswerTrue || a == AnswerFalse)) {
				frame.Pressed = append(frame.Pressed, a)
			}
		}
	}
	return frame
}

func (r *Router) applyKey(e KeyEvent, press func(Action)) {
	if e.Down {
		if r.downKeys.Has(e.Code) {
			return
		}
		r.downKeys.Put(e.Code)
		press(r.binding(e.Code))
		return
	}
	r.downKeys.Remove(e.Code)
}

func (r *Router) applyTouch(e TouchEvent, press func(Action)) {
	track, ok := r.touches[e.ID]
	if !ok {
		if e.End {
			return
		}
		r.touches[e.ID] = &touchTrack{startX: e.X, startY: e.Y}
		return
	}

	dx, dy := e.X-track.startX, e.Y-track.startY
	horizontal := math.Abs(dx) >= math.Abs(dy)

	if !e.End {
		if horizontal && math.Abs(dx) >= r.cfg.SwipeThreshold {
			action := r.cfg.Gestures.SwipeRight
			if dx < 0 {
				action = r.cfg.Gestures.SwipeLeft
			}
			if track.dragging != action {
				track.dragging = action
				press(action)
			}
		}
		return
	}

	delete(r.touches, e.ID)
	dist := math.Hypot(dx, dy)
	switch {
	case dist <= r.cfg.TapThreshold:
		press(r.cfg.Gestures.Tap)
	case track.dragging != "":
	case dist < r.cfg.SwipeThreshold:
	case horizontal && dx < 0:
		press(r.cfg.Gestures.SwipeLeft)
	case horizontal:
		press(r.cfg.Gestures.SwipeRight)
	case dy < 0:
		press(r.cfg.Gestures.SwipeUp)
	default:
		press(r.cfg.Gestures.SwipeDown)
	}
}

func (r *Router) binding(code string) Action {
	return Action(r.cfg.Bindings[code])
}

func (r *Router) heldActions() []Action {
	held := mapset.New[Action]()
	r.downKeys.Each(func(code string) {
		if a := r.binding(code); levelTriggered[a] {
			held.Put(a)
		}
	})
	for _, t := range r.touches {
		if levelTriggered[t.dragging] {
			held.Put(t.dragging)
		}
	}
	out := make([]Action, 0, held.Size())
	held.Each(func(a Action) { out = append(out, a) })
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type touchSnapshot struct {
	ID       int     `msgpack:"id"`
	StartX   float64 `msgpack:"startX"`
	StartY   float64 `msgpack:"startY"`
	Dragging Action  `msgpack:"dragging"`
}

// routerState is the part of the router that influences future frames.
type routerState struct {
	Down    []string        `msgpack:"down"`
	Touches []touchSnapshot `msgpack:"touches"`
	AimX    float64         `msgpack:"aimX"`
	AimY    float64         `msgpack:"aimY"`
	HasAim  bool            `msgpack:"hasAim"`
}

func (r *Router) state() routerState {
	st := routerState{AimX: r.aimX, AimY: r.aimY, HasAim: r.hasAim}
	r.downKeys.Each(func(code string) { st.Down = append(st.Down, code) })
	sort.Strings(st.Down)
	for id, t := range r.touches {
		st.Touches = append(st.Touches, touchSnapshot{ID: id, StartX: t.startX, StartY: t.startY, Dragging: t.dragging})
	}
	sort.Slice(st.Touches, func(i, j int) bool { return st.Touches[i].ID < st.Touches[j].ID })
	return st
}

func (r *Router) restore(st routerState) {
	r.downKeys = mapset.New[string]()
	for _, code := range st.Down {
		r.downKeys.Put(code)
	}
	r.touches = make(map[int]*touchTrack, len(st.Touches))
	for _, t := range st.Touches {
		r.touches[t.ID] = &touchTrack{startX: t.StartX, startY: t.StartY, dragging: t.Dragging}
	}
	r.aimX, r.aimY, r.hasAim = st.AimX, st.AimY, st.HasAim
}
