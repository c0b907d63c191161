package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/lguibr/arcade/content"
	"github.com/lguibr/arcade/results"
	"github.com/lguibr/arcade/utils"
)

// ErrInvalidTransition is returned for a phase change the state machine does
// not allow.
var ErrInvalidTransition = errors.New("invalid phase transition")

// Phase is the discrete session state.
type Phase uint8

const (
	PhaseMenu Phase = iota
	PhaseLoading
	PhasePlaying
	PhasePaused
	PhaseRoundComplete
	PhaseGameOver
)

var phaseNames = [...]string{
	PhaseMenu:          "menu",
	PhaseLoading:       "loading",
	PhasePlaying:       "playing",
	PhasePaused:        "paused",
	PhaseRoundComplete: "roundComplete",
	PhaseGameOver:      "gameOver",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", p)
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Terminal reports whether the phase ends the session.
func (p Phase) Terminal() bool {
	return p == PhaseRoundComplete || p == PhaseGameOver
}

var transitions = map[Phase][]Phase{
	PhaseMenu:    {PhaseLoading},
	PhaseLoading: {PhasePlaying, PhaseMenu},
	PhasePlaying: {PhasePaused, PhaseRoundComplete, PhaseGameOver, PhaseMenu},
	PhasePaused:  {PhasePlaying, PhaseMenu},
}

// Reveal is one entry of the definitions feed shown to the player.
type Reveal struct {
	Term string `json:"term" msgpack:"term"`
	Text string `json:"text" msgpack:"text"`
}

// Session is one play-through: score, combo, health, level and phase.
type Session struct {
	Phase        Phase    `json:"phase" msgpack:"phase"`
	Score        int      `json:"score" msgpack:"score"`
	Combo        int      `json:"combo" msgpack:"combo"`
	ComboMax     int      `json:"comboMax" msgpack:"comboMax"`
	Health       int      `json:"health" msgpack:"health"`
	MaxHealth    int      `json:"maxHealth" msgpack:"maxHealth"`
	Level        int      `json:"level" msgpack:"level"`
	Threshold    int      `json:"threshold" msgpack:"threshold"`
	ItemsCleared int      `json:"itemsCleared" msgpack:"itemsCleared"`
	Elapsed      float64  `json:"elapsed" msgpack:"elapsed"`
	TimeLimit    float64  `json:"timeLimit" msgpack:"timeLimit"`
	Reveals      []Reveal `json:"reveals" msgpack:"reveals"`

	BasePoints   int `json:"-" msgpack:"basePoints"`
	FillerPoints int `json:"-" msgpack:"fillerPoints"`
	RevealLimit  int `json:"-" msgpack:"revealLimit"`
}

func NewSession(cfg utils.SessionConfig) *Session {
	return &Session{
		Phase:        PhaseMenu,
		Health:       cfg.Health,
		MaxHealth:    cfg.Health,
		Level:        1,
		Threshold:    cfg.ScoreThreshold,
		TimeLimit:    cfg.TimeLimit,
		BasePoints:   cfg.BasePoints,
		FillerPoints: cfg.FillerPoints,
		RevealLimit:  cfg.RevealLimit,
	}
}

// Transition moves the session to phase to.
func (s *Session) Transition(to Phase) error {
	for _, allowed := range transitions[s.Phase] {
		if allowed == to {
			s.Phase = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Phase, to)
}

// TogglePause flips between playing and paused.
func (s *Session) TogglePause() error {
	switch s.Phase {
	case PhasePlaying:
		return s.Transition(PhasePaused)
	case PhasePaused:
		return s.Transition(PhasePlaying)
	}
	return fmt.Errorf("%w: cannot toggle pause in %s", ErrInvalidTransition, s.Phase)
}

func (s *Session) Playing() bool { return s.Phase == PhasePlaying }

// RecordHit scores a resolved collision and returns the points awarded.
// Content-bearing targets score base*(combo+1) and extend the combo; filler
// scores flat points and leaves the combo alone.
func (s *Session) RecordHit(target Entity) int {
	if !s.Playing() {
		return 0
	}
	if !target.HasContent() {
		s.AddScore(s.FillerPoints)
		return s.FillerPoints
	}
	points := s.BasePoints * (s.Combo + 1)
	s.ExtendCombo()
	s.ItemsCleared++
	s.Reveal(target.Target.Item.Term, target.Target.Item.Definition)
	s.AddScore(points)
	return points
}

// RecordEscape applies the penalty for a target leaving the playfield.
func (s *Session) RecordEscape() {
	if !s.Playing() {
		return
	}
	s.Combo = 0
	if s.Health > 0 {
		s.Health--
	}
	if s.Health == 0 {
		s.Phase = PhaseGameOver
	}
}

// RecordMiss resets the combo.
func (s *Session) RecordMiss() {
	s.Combo = 0
}

func (s *Session) ExtendCombo() {
	s.Combo++
	if s.Combo > s.ComboMax {
		s.ComboMax = s.Combo
	}
}

// AddScore adds points and completes the round once the threshold is met.
// Negative amounts are ignored; score never decreases.
func (s *Session) AddScore(points int) {
	if points <= 0 {
		return
	}
	s.Score += points
	if s.Playing() && s.Threshold > 0 && s.Score >= s.Threshold {
		s.Phase = PhaseRoundComplete
	}
}

// Reveal queues a definition for display, keeping the newest RevealLimit.
func (s *Session) Reveal(term, text string) {
	s.Reveals = append(s.Reveals, Reveal{Term: term, Text: text})
	if s.RevealLimit > 0 && len(s.Reveals) > s.RevealLimit {
		s.Reveals = append([]Reveal(nil), s.Reveals[len(s.Reveals)-s.RevealLimit:]...)
	}
}

// RevealItems queues the definitions of cleared content.
func (s *Session) RevealItems(items []content.Item) {
	for _, item := range items {
		if item.Valid() {
			s.Reveal(item.Term, item.Definition)
		}
	}
}

// AdvanceTime accumulates play time and ends the round when the time limit
// elapses.
func (s *Session) AdvanceTime(dt float64) {
	if !s.Playing() {
		return
	}
	s.Elapsed += dt
	if s.TimeLimit > 0 && s.Elapsed >= s.TimeLimit {
		s.Phase = PhaseGameOver
	}
}

// Complete ends a playing round successfully.
func (s *Session) Complete() error {
	return s.Transition(PhaseRoundComplete)
}

// GameOver ends a playing round unsuccessfully.
func (s *Session) GameOver() error {
	return s.Transition(PhaseGameOver)
}

// Result summarises a terminal session.
func (s *Session) Result(sessionID, mode, topic string) results.RoundResult {
	outcome := results.OutcomeGameOver
	if s.Phase == PhaseRoundComplete {
		outcome = results.OutcomeComplete
	}
	return results.RoundResult{
		SessionID:      sessionID,
		Mode:           mode,
		Topic:          topic,
		Outcome:        outcome,
		Score:          s.Score,
		ComboMax:       s.ComboMax,
		ItemsCleared:   s.ItemsCleared,
		LivesRemaining: s.Health,
		Level:          s.Level,
		FinishedAt:     time.Now().UTC(),
	}
}

func (s *Session) clone() *Session {
	c := *s
	c.Reveals = append([]Reveal(nil), s.Reveals...)
	return &c
}
