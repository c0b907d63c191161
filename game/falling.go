package game

import (
	"math"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/lguibr/arcade/content"
	"github.com/lguibr/arcade/utils"
)

const (
	// Ticks a movement key must be held before it auto-repeats, and the
	// repeat period after that.
	autoRepeatDelay  = 10
	autoRepeatPeriod = 3
)

type fallingState struct {
	PieceID  EntityID `msgpack:"pieceId"`
	Gravity  float64  `msgpack:"gravity"`
	Lines    int      `msgpack:"lines"`
	Bag      []Shape  `msgpack:"bag"`
	HeldFor  float64  `msgpack:"heldFor"`
	Repeated float64  `msgpack:"repeated"`
	SoftDrop bool     `msgpack:"softDrop"`

	// pieces whose item was already revealed by an earlier clear
	Revealed map[EntityID]bool `msgpack:"revealed"`
}

// falling is the falling-block puzzle. Each piece carries a content item
// whose definition is revealed when one of its rows clears.
type falling struct {
	noQuiz
	w     *World
	cfg   utils.FallingConfig
	table RewardTable
	state fallingState
}

func newFalling(w *World) *falling {
	return &falling{w: w, cfg: w.Cfg.Falling, table: RewardTable(w.Cfg.Falling.RewardTable)}
}

func (m *falling) Name() string { return utils.ModeFalling }

func (m *falling) Setup() error {
	m.w.Grid = NewGrid(m.cfg.Columns, m.cfg.Rows)
	m.w.Director = NewDirector(m.cfg.Spawn, m.w.Items, m.w.Items.Len() == 0)
	m.state = fallingState{}
	return nil
}

func (m *falling) piece() (*Entity, bool) {
	if m.state.PieceID == 0 {
		return nil, false
	}
	return m.w.Registry.Get(m.state.PieceID)
}

func (m *falling) CanSpawn() bool {
	_, live := m.piece()
	return !live
}

// nextShape draws from a shuffled bag of all seven shapes.
func (m *falling) nextShape() Shape {
	if len(m.state.Bag) == 0 {
		m.state.Bag = append([]Shape(nil), Shapes...)
		m.w.RNG.Shuffle(len(m.state.Bag), func(i, j int) {
			m.state.Bag[i], m.state.Bag[j] = m.state.Bag[j], m.state.Bag[i]
		})
	}
	shape := m.state.Bag[0]
	m.state.Bag = m.state.Bag[1:]
	return shape
}

func (m *falling) Spawn(item content.Item, filler bool) error {
	p := SpawnPiece(m.nextShape(), m.cfg.Columns)
	if !m.w.Grid.CanPlace(p, 0, 0, 0) {
		return ErrSpawnBlocked
	}
	if filler {
		item = content.Item{}
	}
	m.state.PieceID = m.w.Registry.Spawn(KindFallingPiece, Entity{
		X:     float64(p.X),
		Y:     float64(p.Y),
		W:     1,
		H:     1,
		Piece: &PieceData{Piece: p, Item: item},
	})
	m.state.Gravity = 0
	return nil
}

func (m *falling) HandleInput(in InputFrame, dt float64) {
	e, ok := m.piece()
	if !ok {
		return
	}
	p := e.Piece.Piece

	dx := 0
	switch {
	case in.WasPressed(MoveLeft):
		dx = -1
		m.state.HeldFor, m.state.Repeated = 0, 0
	case in.WasPressed(MoveRight):
		dx = 1
		m.state.HeldFor, m.state.Repeated = 0, 0
	case in.IsHeld(MoveLeft) != in.IsHeld(MoveRight):
		m.state.HeldFor += dt
		if m.state.HeldFor >= autoRepeatDelay {
			m.state.Repeated += dt
			if m.state.Repeated >= autoRepeatPeriod {
				m.state.Repeated -= autoRepeatPeriod
				dx = 1
				if in.IsHeld(MoveLeft) {
					dx = -1
				}
			}
		}
	default:
		m.state.HeldFor, m.state.Repeated = 0, 0
	}
	if dx != 0 && m.w.Grid.CanPlace(p, dx, 0, 0) {
		p = p.Moved(dx, 0)
	}

	if in.WasPressed(Rotate) {
		p, _ = m.w.Grid.RotateWithKick(p, 1, m.cfg.KickOffsets)
	}

	m.setPiece(e, p)

	if in.WasPressed(HardDrop) {
		rows := m.w.Grid.DropDistance(p)
		m.setPiece(e, p.Moved(0, rows))
		m.w.Session.AddScore(rows * m.cfg.HardDropPoints)
		m.lock(e)
		return
	}

	m.state.SoftDrop = in.IsHeld(SoftDrop) || in.WasPressed(SoftDrop)
}

func (m *falling) setPiece(e *Entity, p Piece) {
	e.Piece.Piece = p
	e.X, e.Y = float64(p.X), float64(p.Y)
}

// gravityInterval is the number of ticks per row at the current level.
func (m *falling) gravityInterval() float64 {
	if m.state.SoftDrop {
		return math.Max(m.cfg.MinGravityTicks, m.cfg.SoftDropTicks)
	}
	level := float64(m.w.Session.Level - 1)
	return math.Max(m.cfg.MinGravityTicks, m.cfg.GravityTicks-m.cfg.GravityPerLevel*level)
}

func (m *falling) AfterTick(dt float64) {
	if !m.w.Session.Playing() {
		return
	}
	e, ok := m.piece()
	if !ok {
		if m.w.Director.Exhausted {
			_ = m.w.Session.Complete()
		}
		return
	}
	m.state.Gravity += dt
	interval := m.gravityInterval()
	for m.state.Gravity >= interval {
		m.state.Gravity -= interval
		p := e.Piece.Piece
		if !m.w.Grid.CanPlace(p, 0, 1, 0) {
			m.lock(e)
			return
		}
		m.setPiece(e, p.Moved(0, 1))
		if m.state.SoftDrop {
			m.w.Session.AddScore(m.cfg.SoftDropPoints)
		}
	}
}

// unrevealed drops items whose piece already had a row cleared, so a piece
// spanning several clears counts once.
func (m *falling) unrevealed(result ClearResult) []content.Item {
	if m.state.Revealed == nil {
		m.state.Revealed = make(map[EntityID]bool)
	}
	var fresh []content.Item
	for i, item := range result.Items {
		id := result.Pieces[i]
		if m.state.Revealed[id] {
			continue
		}
		m.state.Revealed[id] = true
		fresh = append(fresh, item)
	}
	return fresh
}

// lock commits the piece, awards line rewards and extends or breaks the
// combo.
func (m *falling) lock(e *Entity) {
	s := m.w.Session
	data := CellData{Color: e.Piece.Piece.Shape.Color(), Item: e.Piece.Item, PieceID: e.ID}
	result, err := m.w.Grid.Commit(e.Piece.Piece, data)
	m.w.Registry.Remove(e.ID)
	m.state.PieceID = 0
	m.state.Gravity = 0
	m.state.SoftDrop = false
	if err != nil {
		_ = s.GameOver()
		return
	}
	m.w.Emit(CueLock, 0)

	cleared := result.Count()
	if cleared == 0 {
		s.RecordMiss()
		return
	}

	s.ExtendCombo()
	fresh := m.unrevealed(result)
	s.ItemsCleared += len(fresh)
	s.RevealItems(fresh)
	m.w.Emit(CueClear, cleared)
	s.AddScore(m.table.Award(cleared, s.Level))

	m.state.Lines += cleared
	if level := 1 + m.state.Lines/m.cfg.LinesPerLevel; level > s.Level {
		s.Level = level
		m.w.Emit(CueLevelUp, level)
	}
}

// Ghost returns where the active piece would land.
func (m *falling) ghost() (Piece, bool) {
	e, ok := m.piece()
	if !ok {
		return Piece{}, false
	}
	p := e.Piece.Piece
	return p.Moved(0, m.w.Grid.DropDistance(p)), true
}

func (m *falling) Decorate(snap *Snapshot) {
	snap.GridColumns = m.cfg.Columns
	snap.GridRows = m.cfg.Rows
	snap.Lines = m.state.Lines
	for _, cell := range m.w.Grid.OccupiedCells() {
		data := *cell.Data
		snap.Entities = append(snap.Entities, Entity{
			ID:   data.PieceID,
			Kind: KindSettledCell,
			X:    float64(cell.X),
			Y:    float64(cell.Y),
			W:    1,
			H:    1,
			Cell: &data,
		})
	}
	if g, ok := m.ghost(); ok {
		snap.Ghost = g.Cells()
	}
	if len(m.state.Bag) > 0 {
		next := m.state.Bag[0]
		snap.NextShape = &next
	}
}

func (m *falling) MarshalState() ([]byte, error) {
	return msgpack.Marshal(&m.state)
}

func (m *falling) UnmarshalState(data []byte) error {
	return msgpack.Unmarshal(data, &m.state)
}
