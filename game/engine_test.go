package game

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lguibr/arcade/content"
	contentmock "github.com/lguibr/arcade/content/mock"
	"github.com/lguibr/arcade/results"
	"github.com/lguibr/arcade/utils"
)

func testConfig() utils.Config {
	cfg := utils.DefaultConfig()
	cfg.Session.ScoreThreshold = 0
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type resultRecorder struct {
	results []results.RoundResult
}

func (r *resultRecorder) record(res results.RoundResult) {
	r.results = append(r.results, res)
}

func newTestEngine(t *testing.T, mode string, cfg utils.Config, rec *resultRecorder) *Engine {
	t.Helper()
	opts := Options{ID: "test", Mode: mode, Topic: "go", Seed: 7, Config: cfg, Logger: quietLogger()}
	if rec != nil {
		opts.OnResult = rec.record
	}
	e, err := NewEngine(opts)
	require.NoError(t, err)
	return e
}

func startedEngine(t *testing.T, mode string, cfg utils.Config, bundle content.Bundle, rec *resultRecorder) *Engine {
	t.Helper()
	e := newTestEngine(t, mode, cfg, rec)
	require.NoError(t, e.BeginWith(bundle))
	require.Equal(t, PhasePlaying, e.Phase())
	return e
}

func press(e *Engine, code string) {
	e.Dispatch(KeyEvent{Code: code, Down: true})
}

func release(e *Engine, code string) {
	e.Dispatch(KeyEvent{Code: code, Down: false})
}

func tap(e *Engine, code string) {
	press(e, code)
	release(e, code)
}

func TestNewEngine_RejectsInvalidConfig(t *testing.T) {
	cfg := utils.DefaultConfig()
	cfg.Session.Health = 0
	_, err := NewEngine(Options{Config: cfg})
	assert.Error(t, err)

	_, err = NewEngine(Options{Mode: "pinball", Config: utils.DefaultConfig()})
	assert.Error(t, err)
}

func TestEngine_BeginLoadsAsynchronously(t *testing.T) {
	e := newTestEngine(t, utils.ModeShooter, testConfig(), nil)
	require.NoError(t, e.Begin(context.Background(), content.NewStaticSource(content.Sample()), time.Second))
	assert.Equal(t, PhaseLoading, e.Phase())
	assert.True(t, e.Scheduler().Running())

	require.Eventually(t, func() bool {
		e.Step(1)
		return e.Phase() == PhasePlaying
	}, time.Second, time.Millisecond)
	assert.NoError(t, e.LoadError())
}

func TestEngine_FetchFailureReturnsToMenu(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := contentmock.NewMockSource(ctrl)
	source.EXPECT().Fetch(gomock.Any(), "go").Return(content.Bundle{}, content.ErrNotFound)

	rec := &resultRecorder{}
	e := newTestEngine(t, utils.ModeShooter, testConfig(), rec)
	require.NoError(t, e.Begin(context.Background(), source, time.Second))

	require.Eventually(t, func() bool {
		e.Step(1)
		return e.Phase() == PhaseMenu
	}, time.Second, time.Millisecond)

	assert.ErrorIs(t, e.LoadError(), content.ErrNotFound)
	assert.False(t, e.Scheduler().Running())
	assert.False(t, e.Router().Subscribed())
	assert.Empty(t, rec.results, "no partial round")
	assert.Empty(t, e.Snapshot().Entities)
}

func TestEngine_FetchTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := contentmock.NewMockSource(ctrl)
	source.EXPECT().Fetch(gomock.Any(), "go").DoAndReturn(func(ctx context.Context, topic string) (content.Bundle, error) {
		<-ctx.Done()
		return content.Bundle{}, ctx.Err()
	})

	e := newTestEngine(t, utils.ModeShooter, testConfig(), nil)
	require.NoError(t, e.Begin(context.Background(), source, 20*time.Millisecond))

	require.Eventually(t, func() bool {
		e.Step(1)
		return e.Phase() == PhaseMenu
	}, time.Second, time.Millisecond)
	assert.True(t, errors.Is(e.LoadError(), context.DeadlineExceeded))
}

func TestEngine_LastLifeEscapeEndsRoundSameTick(t *testing.T) {
	cfg := testConfig()
	cfg.Session.Health = 1
	cfg.Shooter.Spawn = utils.SpawnCurve{BaseInterval: 1, MinInterval: 1}
	cfg.Shooter.TargetSpeed = 400
	rec := &resultRecorder{}
	e := startedEngine(t, utils.ModeShooter, cfg, content.Sample(), rec)

	require.True(t, e.Step(1))
	assert.Equal(t, PhasePlaying, e.Phase())
	assert.Equal(t, 1, e.world.Registry.Count(KindTarget))

	require.True(t, e.Step(1))
	assert.Equal(t, PhaseGameOver, e.Phase())
	assert.Equal(t, 0, e.Session().Health)
	assert.Contains(t, e.Cues(), Cue{Kind: CueEscape, Value: 0})

	require.Len(t, rec.results, 1)
	assert.Equal(t, results.OutcomeGameOver, rec.results[0].Outcome)
	assert.Equal(t, 0, rec.results[0].LivesRemaining)

	assert.False(t, e.Step(1), "no tick after the round ends")
	assert.False(t, e.Router().Subscribed())
	assert.Len(t, rec.results, 1, "result emitted exactly once")

	res, ok := e.Result()
	require.True(t, ok)
	assert.Equal(t, rec.results[0], res)
}

func TestEngine_PauseFreezesSimulation(t *testing.T) {
	cfg := testConfig()
	cfg.Shooter.Spawn = utils.SpawnCurve{BaseInterval: 1, MinInterval: 1}
	e := startedEngine(t, utils.ModeShooter, cfg, content.Sample(), nil)

	e.Step(1)
	tap(e, "KeyP")
	e.Step(1)
	require.Equal(t, PhasePaused, e.Phase())
	frozen := e.Snapshot().Entities
	spawned := e.world.Director.Spawned

	press(e, "ArrowLeft")
	tap(e, "Space")
	for i := 0; i < 10; i++ {
		e.Step(1)
	}
	assert.Equal(t, frozen, e.Snapshot().Entities)
	assert.Equal(t, spawned, e.world.Director.Spawned)
	assert.Equal(t, 0, e.world.Registry.Count(KindProjectile), "fire is not delivered while paused")

	tap(e, "KeyP")
	e.Step(1)
	assert.Equal(t, PhasePlaying, e.Phase())
	assert.NotEqual(t, frozen, e.Snapshot().Entities)
}

func TestEngine_ExitReturnsToMenuWithoutResult(t *testing.T) {
	rec := &resultRecorder{}
	e := startedEngine(t, utils.ModeShooter, testConfig(), content.Sample(), rec)
	e.Step(1)

	require.NoError(t, e.Exit())
	assert.Equal(t, PhaseMenu, e.Phase())
	assert.False(t, e.Step(1))
	assert.False(t, e.Router().Subscribed())
	assert.Empty(t, rec.results)

	e.Teardown()
	assert.NoError(t, e.Exit(), "exiting twice is harmless")
}

func TestEngine_ThresholdCompletesRound(t *testing.T) {
	cfg := utils.DefaultConfig()
	cfg.Session.ScoreThreshold = 10
	rec := &resultRecorder{}
	e := startedEngine(t, utils.ModeShooter, cfg, content.Sample(), rec)

	ship := e.mode.(*shooter).state.Ship
	cx, _ := ship.Center()
	e.world.Registry.Spawn(KindTarget, Entity{
		X: cx - 32, Y: ship.Y - 30, W: 64, H: 20, Vy: 1,
		Target: &TargetData{Item: content.Item{Term: "t", Definition: "d"}},
	})
	tap(e, "Space")
	e.Step(1)

	assert.Equal(t, PhaseRoundComplete, e.Phase())
	require.Len(t, rec.results, 1)
	assert.True(t, rec.results[0].Completed())
	assert.Equal(t, 10, rec.results[0].Score)
}

func TestEngine_SnapshotBeforeStart(t *testing.T) {
	e := newTestEngine(t, utils.ModeFalling, testConfig(), nil)
	snap := e.Snapshot()
	assert.Equal(t, PhaseMenu, snap.Phase)
	assert.Zero(t, snap.GridColumns, "modes decorate only once a round runs")

	_, err := e.Checkpoint()
	assert.Error(t, err)
}

// inputScript drives a deterministic sequence of device events by tick.
func inputScript(mode string) func(e *Engine, tick int) {
	return func(e *Engine, tick int) {
		switch mode {
		case utils.ModeFalling:
			switch tick % 23 {
			case 0:
				tap(e, "Space")
			case 5, 11:
				tap(e, "ArrowUp")
			case 7:
				press(e, "ArrowLeft")
			case 19:
				release(e, "ArrowLeft")
			case 14:
				tap(e, "ArrowRight")
			}
		case utils.ModeWave:
			e.Dispatch(PointerEvent{X: float64(40 + (tick*7)%400), Y: 220 + float64(tick%90), Click: tick%6 == 0})
			if tick%50 == 0 {
				tap(e, "KeyT")
			}
		default:
			if tick%2 == 0 {
				press(e, "Space")
			} else {
				release(e, "Space")
			}
			switch tick % 60 {
			case 0:
				press(e, "ArrowLeft")
			case 20:
				release(e, "ArrowLeft")
			case 30:
				press(e, "ArrowRight")
			case 50:
				release(e, "ArrowRight")
			}
		}
	}
}

type trajectoryPoint struct {
	Score    int
	Combo    int
	Snapshot Snapshot
}

func runScript(e *Engine, script func(*Engine, int), from, to int) []trajectoryPoint {
	var out []trajectoryPoint
	for tick := from; tick < to; tick++ {
		script(e, tick)
		e.Step(1)
		snap := e.Snapshot()
		out = append(out, trajectoryPoint{Score: snap.Score, Combo: snap.Combo, Snapshot: snap})
	}
	return out
}

func TestEngine_CheckpointRestoreReplaysIdentically(t *testing.T) {
	for _, mode := range []string{utils.ModeShooter, utils.ModeFalling, utils.ModeWave} {
		t.Run(mode, func(t *testing.T) {
			cfg := testConfig()
			cfg.Session.Health = 50
			cfg.Shooter.Spawn = utils.SpawnCurve{BaseInterval: 15, MinInterval: 5, PerScore: 0.01}
			cfg.Shooter.TargetWidth = 300
			cfg.Shooter.TargetSpeed = 2
			cfg.Wave.Spawn = utils.SpawnCurve{BaseInterval: 10, MinInterval: 4}
			cfg.Wave.WaveSize = 3
			cfg.Wave.TargetSize = 40
			script := inputScript(mode)

			original := startedEngine(t, mode, cfg, content.Sample(), nil)
			runScript(original, script, 0, 120)
			data, err := original.Checkpoint()
			require.NoError(t, err)

			want := runScript(original, script, 120, 320)

			restored := newTestEngine(t, mode, cfg, nil)
			require.NoError(t, restored.Restore(data))
			got := runScript(restored, script, 120, 320)

			require.Equal(t, len(want), len(got))
			for i := range want {
				require.Equal(t, want[i].Score, got[i].Score, "score at tick %d", 120+i)
				require.Equal(t, want[i].Combo, got[i].Combo, "combo at tick %d", 120+i)
				require.Equal(t, want[i].Snapshot, got[i].Snapshot, "snapshot at tick %d", 120+i)
			}
		})
	}
}

func TestEngine_RestoreRejectsOtherMode(t *testing.T) {
	e := startedEngine(t, utils.ModeShooter, testConfig(), content.Sample(), nil)
	e.Step(1)
	data, err := e.Checkpoint()
	require.NoError(t, err)

	other := newTestEngine(t, utils.ModeWave, testConfig(), nil)
	assert.ErrorIs(t, other.Restore(data), ErrCheckpointMismatch)
	assert.Error(t, other.Restore([]byte("not msgpack")))
}
