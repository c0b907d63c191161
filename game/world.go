package game

import (
	"math/rand/v2"

	"github.com/lguibr/arcade/content"
	"github.com/lguibr/arcade/utils"
)

// CueKind names a notable simulation event for hosts that play sounds or
// flash the screen.
type CueKind string

const (
	CueHit      CueKind = "hit"
	CueFiller   CueKind = "filler"
	CueEscape   CueKind = "escape"
	CueMiss     CueKind = "miss"
	CueFire     CueKind = "fire"
	CueBomb     CueKind = "bomb"
	CueLock     CueKind = "lock"
	CueClear    CueKind = "clear"
	CueLevelUp  CueKind = "levelUp"
	CueQuiz     CueKind = "quiz"
	CueCorrect  CueKind = "correct"
	CueWrong    CueKind = "wrong"
	CueTargeted CueKind = "targeted"
)

type Cue struct {
	Kind  CueKind `json:"kind"`
	Value int     `json:"value,omitempty"`
}

// World is the simulation state shared by the engine and the active mode.
type World struct {
	Cfg       utils.Config
	Playfield utils.Rect
	Registry  *Registry
	Session   *Session
	Director  *Director
	Grid      Grid
	Items     *content.Queue[content.Item]
	Questions *content.Queue[content.Question]
	Burst     BurstConfig
	RNG       *rand.Rand
	Tick      uint64

	pcg  *rand.PCG
	cues []Cue
}

func newWorld(cfg utils.Config, seed uint64) *World {
	pcg := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	playfield := utils.Rect{W: cfg.Playfield.Width, H: cfg.Playfield.Height}
	m := cfg.Playfield.Margin
	return &World{
		Cfg:       cfg,
		Playfield: playfield,
		Registry:  NewRegistry(utils.Rect{X: -m, Y: -m, W: playfield.W + 2*m, H: playfield.H + 2*m}),
		Session:   NewSession(cfg.Session),
		RNG:       rand.New(pcg),
		pcg:       pcg,
	}
}

// Emit records a cue for the current tick.
func (w *World) Emit(kind CueKind, value int) {
	w.cues = append(w.cues, Cue{Kind: kind, Value: value})
}

// Cues returns the cues emitted during the last tick.
func (w *World) Cues() []Cue {
	return append([]Cue(nil), w.cues...)
}

// SpawnText spawns a rising floating label centred on (x, y).
func (w *World) SpawnText(text string, x, y float64, color [3]int) {
	w.Registry.Spawn(KindFloatingText, Entity{
		X:       x,
		Y:       y,
		Vy:      -0.8,
		Life:    40,
		HasLife: true,
		Text:    &TextData{Text: text, Color: color},
	})
}
