package game

import (
	"fmt"

	"github.com/lguibr/arcade/utils"
)

// Mode specialises the engine for one game variant.
type Mode interface {
	Spawner
	Name() string
	// Setup prepares mode state once content is available.
	Setup() error
	// HandleInput applies the tick's commands before spawning and physics.
	HandleInput(in InputFrame, dt float64)
	// AfterTick runs after collisions resolve.
	AfterTick(dt float64)
	// QuizActive reports a pending quiz question.
	QuizActive() bool
	// Answer resolves a pending quiz question.
	Answer(answer bool)
	// Decorate adds mode-specific state to a render snapshot.
	Decorate(s *Snapshot)
	MarshalState() ([]byte, error)
	UnmarshalState(data []byte) error
}

func newMode(name string, w *World) (Mode, error) {
	switch name {
	case utils.ModeShooter:
		return newShooter(w), nil
	case utils.ModeFalling:
		return newFalling(w), nil
	case utils.ModeWave:
		return newWave(w), nil
	}
	return nil, fmt.Errorf("unknown mode %q", name)
}

// noQuiz is embedded by modes without quiz pauses.
type noQuiz struct{}

func (noQuiz) QuizActive() bool { return false }
func (noQuiz) Answer(bool)      {}
