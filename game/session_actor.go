package game

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/lguibr/arcade/bollywood"
	"github.com/lguibr/arcade/content"
	"github.com/lguibr/arcade/results"
	"github.com/lguibr/arcade/utils"
)

// SessionArgs configures a SessionActor.
type SessionArgs struct {
	ID         string
	Mode       string
	Topic      string
	Seed       uint64
	Config     utils.Config
	Source     content.Source
	Sink       results.Sink
	ManagerPID *bollywood.PID // receives SessionPhaseChanged and SessionEnded
	Logger     *slog.Logger
}

// SessionActor hosts one player's rounds. A ticker goroutine sends ticks to
// the actor so every engine call happens on the actor's goroutine.
type SessionActor struct {
	args   SessionArgs
	logger *slog.Logger

	selfPID        *bollywood.PID
	broadcasterPID *bollywood.PID
	ctx            context.Context
	cancel         context.CancelFunc

	ticker       FrameSource
	stopTickerCh chan struct{}

	client       Client
	round        *Engine
	rounds       int
	frames       uint64
	lastPhase    Phase
	lastScore    int
	pending      *results.RoundResult
	loadReported bool
	ended        bool
}

func NewSessionProducer(args SessionArgs) bollywood.Producer {
	if args.Logger == nil {
		args.Logger = slog.Default()
	}
	if args.Source == nil {
		args.Source = content.NewStaticSource(content.Sample())
	}
	return func() bollywood.Actor {
		return &SessionActor{
			args:         args,
			logger:       args.Logger.With(slog.String("session", args.ID)),
			stopTickerCh: make(chan struct{}),
		}
	}
}

func (a *SessionActor) Receive(ctx bollywood.Context) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic recovered in session",
				slog.String("pid", a.selfPID.String()),
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())))
			if ctx.RequestID() != "" {
				ctx.Reply(fmt.Errorf("session panicked: %v", r))
			}
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		a.ctx, a.cancel = context.WithCancel(context.Background())
		a.broadcasterPID = ctx.Engine().Spawn(bollywood.NewProps(NewBroadcasterProducer(a.selfPID, a.logger)))
		a.ticker = NewTickerSource(a.frameDuration())
		go a.runTickerLoop(ctx.Engine())

	case *sessionTick:
		a.handleTick(ctx, msg.at)

	case AttachClient:
		a.handleAttach(ctx, msg.Client)

	case DetachClient:
		a.handleClientGone(ctx, msg.Client)

	case ClientGone:
		a.handleClientGone(ctx, msg.Client)

	case StartRound:
		a.startRound(ctx, msg.Topic)

	case ExitRound:
		if a.round != nil {
			if err := a.round.Exit(); err != nil {
				a.logger.Warn("exit round", slog.String("error", err.Error()))
			}
			a.afterTick(ctx, true)
		}

	case InputMessage:
		if a.round != nil && msg.Event != nil {
			a.round.Dispatch(msg.Event)
		}

	case GetSessionStatus:
		ctx.Reply(a.status())

	case bollywood.Stopping:
		a.stopTicker()
		if a.round != nil {
			a.round.Teardown()
		}
		if a.cancel != nil {
			a.cancel()
		}
		if a.broadcasterPID != nil {
			ctx.Engine().Stop(a.broadcasterPID)
		}

	case bollywood.Stopped:

	default:
		a.logger.Warn("session received unknown message", slog.String("type", fmt.Sprintf("%T", msg)))
		if ctx.RequestID() != "" {
			ctx.Reply(fmt.Errorf("unknown message type: %T", msg))
		}
	}
}

func (a *SessionActor) frameDuration() time.Duration {
	if d := a.args.Config.Scheduler.FrameDuration; d > 0 {
		return d
	}
	return time.Second / 60
}

func (a *SessionActor) runTickerLoop(actors *bollywood.Engine) {
	frames := a.ticker.Frames()
	stop := a.stopTickerCh
	for {
		select {
		case <-stop:
			return
		case now := <-frames:
			actors.Send(a.selfPID, &sessionTick{at: now}, nil)
		}
	}
}

func (a *SessionActor) stopTicker() {
	if a.ticker == nil {
		return
	}
	a.ticker.Stop()
	close(a.stopTickerCh)
	a.ticker = nil
}

func (a *SessionActor) handleAttach(ctx bollywood.Context, client Client) {
	if client == nil {
		return
	}
	if a.client != nil && a.client != client {
		ctx.Engine().Send(a.broadcasterPID, RemoveClient{Client: a.client}, a.selfPID)
	}
	a.client = client
	ctx.Engine().Send(a.broadcasterPID, AddClient{Client: client}, a.selfPID)
	a.broadcast(ctx, NewSessionAssignedMessage(a.args.ID, a.args.Mode))
	a.logger.Info("client attached", slog.String("client", client.String()))
}

func (a *SessionActor) handleClientGone(ctx bollywood.Context, client Client) {
	if client == nil || client != a.client || a.ended {
		return
	}
	a.ended = true
	a.logger.Info("client gone", slog.String("client", client.String()))
	ctx.Engine().Send(a.broadcasterPID, RemoveClient{Client: client}, a.selfPID)
	if a.round != nil {
		_ = a.round.Exit()
	}
	if a.args.ManagerPID != nil {
		ctx.Engine().Send(a.args.ManagerPID, SessionEnded{ID: a.args.ID}, a.selfPID)
	} else {
		ctx.Engine().Stop(a.selfPID)
	}
}

// startRound replaces any running round with a fresh engine. Each round gets
// its own seed derived from the session seed.
func (a *SessionActor) startRound(ctx bollywood.Context, topic string) {
	if topic != "" {
		a.args.Topic = topic
	}
	if a.round != nil {
		_ = a.round.Exit()
	}

	round, err := NewEngine(Options{
		ID:     a.args.ID,
		Mode:   a.args.Mode,
		Topic:  a.args.Topic,
		Seed:   a.args.Seed + uint64(a.rounds),
		Config: a.args.Config,
		Logger: a.args.Logger,
		OnResult: func(r results.RoundResult) {
			a.pending = &r
		},
	})
	if err != nil {
		a.logger.Error("create round", slog.String("error", err.Error()))
		a.broadcast(ctx, NewErrorMessage(err))
		return
	}
	a.rounds++
	a.round = round
	a.pending = nil
	a.loadReported = false
	if err := round.Begin(a.ctx, a.args.Source, a.args.Config.Server.ContentTimeout); err != nil {
		a.logger.Error("begin round", slog.String("error", err.Error()))
		a.broadcast(ctx, NewErrorMessage(err))
		return
	}
	a.afterTick(ctx, true)
}

func (a *SessionActor) handleTick(ctx bollywood.Context, at time.Time) {
	if a.round == nil || !a.round.Advance(at) {
		return
	}
	a.frames++
	a.afterTick(ctx, false)
}

// afterTick pushes the frame when due, reports phase changes to the manager
// and delivers a pending result.
func (a *SessionActor) afterTick(ctx bollywood.Context, force bool) {
	round := a.round
	snap := round.Snapshot()

	changed := snap.Phase != a.lastPhase || snap.Score != a.lastScore
	if changed {
		a.lastPhase, a.lastScore = snap.Phase, snap.Score
		if a.args.ManagerPID != nil {
			ctx.Engine().Send(a.args.ManagerPID, SessionPhaseChanged{ID: a.args.ID, Phase: snap.Phase, Score: snap.Score}, a.selfPID)
		}
	}

	every := uint64(a.args.Config.Server.SnapshotEvery)
	if every == 0 {
		every = 1
	}
	if force || changed || len(snap.Cues) > 0 || a.frames%every == 0 {
		a.broadcast(ctx, NewSnapshotMessage(snap))
	}

	if err := round.LoadError(); err != nil && !a.loadReported {
		a.loadReported = true
		a.broadcast(ctx, NewErrorMessage(err))
	}

	if a.pending != nil {
		result := *a.pending
		a.pending = nil
		a.record(result)
		a.broadcast(ctx, NewResultMessage(result))
	}
}

func (a *SessionActor) record(result results.RoundResult) {
	if a.args.Sink == nil {
		return
	}
	timeout := a.args.Config.Server.AskTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(a.ctx, timeout)
	defer cancel()
	if err := a.args.Sink.Record(ctx, result); err != nil {
		a.logger.Error("record result", slog.String("error", err.Error()))
	}
}

func (a *SessionActor) broadcast(ctx bollywood.Context, payload interface{}) {
	if a.broadcasterPID == nil {
		return
	}
	ctx.Engine().Send(a.broadcasterPID, BroadcastCommand{Payload: payload}, a.selfPID)
}

func (a *SessionActor) status() SessionStatus {
	st := SessionStatus{
		Info: SessionInfo{
			ID:    a.args.ID,
			Mode:  a.args.Mode,
			Topic: a.args.Topic,
			Phase: PhaseMenu,
		},
	}
	if a.round != nil {
		st.Snapshot = a.round.Snapshot()
		st.Info.Phase = st.Snapshot.Phase
		st.Info.Score = st.Snapshot.Score
	}
	return st
}
