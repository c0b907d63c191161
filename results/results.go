// Package results receives the outcome of finished rounds.
package results

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

//go:generate mockgen -destination=mock/mock_sink.go -package=resultsmock -source=results.go

// Outcome names the terminal phase a round ended in.
type Outcome string

const (
	OutcomeComplete Outcome = "roundComplete"
	OutcomeGameOver Outcome = "gameOver"
)

// RoundResult is emitted once per round on reaching a terminal phase.
type RoundResult struct {
	SessionID      string    `json:"sessionId"`
	Mode           string    `json:"mode"`
	Topic          string    `json:"topic,omitempty"`
	Outcome        Outcome   `json:"outcome"`
	Score          int       `json:"score"`
	ComboMax       int       `json:"comboMax"`
	ItemsCleared   int       `json:"itemsCleared"`
	LivesRemaining int       `json:"livesRemaining"`
	Level          int       `json:"level"`
	FinishedAt     time.Time `json:"finishedAt"`
}

// Completed reports whether the round ended by meeting its goal.
func (r RoundResult) Completed() bool {
	return r.Outcome == OutcomeComplete
}

// Sink consumes round results.
type Sink interface {
	Record(ctx context.Context, result RoundResult) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, result RoundResult) error

func (f SinkFunc) Record(ctx context.Context, result RoundResult) error {
	return f(ctx, result)
}

// LogSink writes results to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Record(_ context.Context, r RoundResult) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("round finished",
		slog.String("session", r.SessionID),
		slog.String("mode", r.Mode),
		slog.String("outcome", string(r.Outcome)),
		slog.Int("score", r.Score),
		slog.Int("comboMax", r.ComboMax),
		slog.Int("itemsCleared", r.ItemsCleared),
		slog.Int("livesRemaining", r.LivesRemaining))
	return nil
}

// Fanout records into every sink and joins their errors.
type Fanout []Sink

func (f Fanout) Record(ctx context.Context, r RoundResult) error {
	var errs []error
	for _, s := range f {
		if err := s.Record(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
