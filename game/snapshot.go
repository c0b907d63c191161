package game

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/lguibr/arcade/content"
	"github.com/lguibr/arcade/utils"
)

// Snapshot is the read-only view of one tick handed to renderers.
type Snapshot struct {
	SessionID    string      `json:"sessionId"`
	Mode         string      `json:"mode"`
	Tick         uint64      `json:"tick"`
	Phase        Phase       `json:"phase"`
	Score        int         `json:"score"`
	Combo        int         `json:"combo"`
	ComboMax     int         `json:"comboMax"`
	Health       int         `json:"health"`
	MaxHealth    int         `json:"maxHealth"`
	Level        int         `json:"level"`
	ItemsCleared int         `json:"itemsCleared"`
	Reveals      []Reveal    `json:"reveals"`
	Playfield    utils.Rect  `json:"playfield"`
	Entities     []Entity    `json:"entities"`
	Cues         []Cue       `json:"cues,omitempty"`
	Player       *utils.Rect `json:"player,omitempty"`
	Bombs        int         `json:"bombs,omitempty"`
	GridColumns  int         `json:"gridColumns,omitempty"`
	GridRows     int         `json:"gridRows,omitempty"`
	Lines        int         `json:"lines,omitempty"`
	Ghost        []Point     `json:"ghost,omitempty"`
	NextShape    *Shape      `json:"nextShape,omitempty"`
	Wave         int         `json:"wave,omitempty"`
	Quiz         string      `json:"quiz,omitempty"`
	Locked       []EntityID  `json:"locked,omitempty"`
}

// Snapshot captures the current registry and session state.
func (e *Engine) Snapshot() Snapshot {
	w := e.world
	s := w.Session
	snap := Snapshot{
		SessionID:    e.id,
		Mode:         e.mode.Name(),
		Tick:         w.Tick,
		Phase:        s.Phase,
		Score:        s.Score,
		Combo:        s.Combo,
		ComboMax:     s.ComboMax,
		Health:       s.Health,
		MaxHealth:    s.MaxHealth,
		Level:        s.Level,
		ItemsCleared: s.ItemsCleared,
		Reveals:      append([]Reveal(nil), s.Reveals...),
		Playfield:    w.Playfield,
		Entities:     w.Registry.Entities(),
		Cues:         w.Cues(),
	}
	if s.Phase != PhaseMenu && s.Phase != PhaseLoading {
		e.mode.Decorate(&snap)
	}
	return snap
}

const checkpointVersion = 1

// ErrCheckpointMismatch is returned when restoring a checkpoint taken from
// a different mode or format.
var ErrCheckpointMismatch = errors.New("checkpoint does not match engine")

type checkpoint struct {
	Version   int                `msgpack:"version"`
	ID        string             `msgpack:"id"`
	Mode      string             `msgpack:"mode"`
	Topic     string             `msgpack:"topic"`
	Tick      uint64             `msgpack:"tick"`
	Session   *Session           `msgpack:"session"`
	NextID    EntityID           `msgpack:"nextId"`
	Entities  []Entity           `msgpack:"entities"`
	Director  *Director          `msgpack:"director"`
	Items     []content.Item     `msgpack:"items"`
	Policy    content.Policy     `msgpack:"policy"`
	ItemsAt   [2]int             `msgpack:"itemsAt"`
	Questions []content.Question `msgpack:"questions"`
	AskedAt   [2]int             `msgpack:"askedAt"`
	Grid      Grid               `msgpack:"grid"`
	RNG       []byte             `msgpack:"rng"`
	ModeState []byte             `msgpack:"modeState"`
	Router    routerState        `msgpack:"router"`
}

// Checkpoint serialises the complete simulation. Restoring it into an
// engine built with the same options and feeding the same input yields the
// same trajectory.
func (e *Engine) Checkpoint() ([]byte, error) {
	w := e.world
	if w.Director == nil {
		return nil, fmt.Errorf("checkpoint: round has not started")
	}
	rng, err := w.pcg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("checkpoint rng: %w", err)
	}
	modeState, err := e.mode.MarshalState()
	if err != nil {
		return nil, fmt.Errorf("checkpoint mode: %w", err)
	}
	cp := checkpoint{
		Version:   checkpointVersion,
		ID:        e.id,
		Mode:      e.mode.Name(),
		Topic:     e.topic,
		Tick:      w.Tick,
		Session:   w.Session,
		NextID:    w.Registry.nextID,
		Entities:  w.Registry.Entities(),
		Director:  w.Director,
		Items:     w.Items.Items(),
		Policy:    w.Items.Policy(),
		Questions: w.Questions.Items(),
		Grid:      w.Grid,
		RNG:       rng,
		ModeState: modeState,
		Router:    e.router.state(),
	}
	cp.ItemsAt[0], cp.ItemsAt[1] = w.Items.Cursor()
	cp.AskedAt[0], cp.AskedAt[1] = w.Questions.Cursor()
	return msgpack.Marshal(&cp)
}

// Restore replaces the simulation with a checkpoint and resumes ticking.
func (e *Engine) Restore(data []byte) error {
	var cp checkpoint
	if err := msgpack.Unmarshal(data, &cp); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if cp.Version != checkpointVersion || cp.Mode != e.mode.Name() || cp.Session == nil || cp.Director == nil {
		return ErrCheckpointMismatch
	}

	w := e.world
	if err := w.pcg.UnmarshalBinary(cp.RNG); err != nil {
		return fmt.Errorf("restore rng: %w", err)
	}
	w.Tick = cp.Tick
	w.Session = cp.Session
	w.Registry.restore(cp.NextID, cp.Entities)
	w.Items = content.NewQueue(cp.Items, cp.Policy)
	w.Items.Seek(cp.ItemsAt[0], cp.ItemsAt[1])
	w.Questions = content.NewQueue(cp.Questions, content.NoRepeat)
	w.Questions.Seek(cp.AskedAt[0], cp.AskedAt[1])
	w.Director = cp.Director
	w.Director.Queue = w.Items
	w.Grid = cp.Grid
	if err := e.mode.UnmarshalState(cp.ModeState); err != nil {
		return fmt.Errorf("restore mode: %w", err)
	}
	e.router.restore(cp.Router)
	e.id, e.topic = cp.ID, cp.Topic

	if w.Session.Phase.Terminal() || e.scheduler.Running() {
		return nil
	}
	return e.scheduler.Start(e.tick)
}
