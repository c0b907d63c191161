package game

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lguibr/arcade/bollywood"
	"github.com/lguibr/arcade/content"
	"github.com/lguibr/arcade/results"
	"github.com/lguibr/arcade/utils"
)

// ErrTooManySessions is replied to CreateSessionRequest once MaxSessions
// sessions are live.
var ErrTooManySessions = errors.New("too many sessions")

// ErrUnknownMode is replied to CreateSessionRequest for an unsupported mode.
var ErrUnknownMode = errors.New("unknown mode")

type managedSession struct {
	info SessionInfo
	pid  *bollywood.PID
}

// ManagerArgs configures a SessionManagerActor.
type ManagerArgs struct {
	Config utils.Config
	Source content.Source
	Sink   results.Sink
	Logger *slog.Logger
	// Spawn overrides how session actors are created. Nil spawns a
	// SessionActor.
	Spawn func(engine *bollywood.Engine, args SessionArgs) *bollywood.PID
}

// SessionManagerActor creates, lists and retires sessions.
type SessionManagerActor struct {
	args     ManagerArgs
	logger   *slog.Logger
	sessions map[string]*managedSession
	mu       sync.RWMutex
	selfPID  *bollywood.PID
}

func NewSessionManagerProducer(args ManagerArgs) bollywood.Producer {
	if args.Logger == nil {
		args.Logger = slog.Default()
	}
	if args.Spawn == nil {
		args.Spawn = func(engine *bollywood.Engine, sa SessionArgs) *bollywood.PID {
			return engine.Spawn(bollywood.NewProps(NewSessionProducer(sa)))
		}
	}
	return func() bollywood.Actor {
		return &SessionManagerActor{
			args:     args,
			logger:   args.Logger.With(slog.String("component", "sessions")),
			sessions: make(map[string]*managedSession),
		}
	}
}

func (a *SessionManagerActor) Receive(ctx bollywood.Context) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic recovered in session manager",
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())))
			if ctx.RequestID() != "" {
				ctx.Reply(fmt.Errorf("session manager panicked: %v", r))
			}
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		a.logger.Info("session manager started", slog.Int("maxSessions", a.args.Config.Server.MaxSessions))

	case CreateSessionRequest:
		resp, err := a.handleCreate(ctx, msg)
		if ctx.RequestID() == "" {
			a.logger.Warn("CreateSessionRequest received without Ask")
			return
		}
		if err != nil {
			ctx.Reply(err)
			return
		}
		ctx.Reply(resp)

	case ListSessionsRequest:
		ctx.Reply(SessionListResponse{Sessions: a.list()})

	case SessionPhaseChanged:
		a.mu.Lock()
		if s, ok := a.sessions[msg.ID]; ok {
			s.info.Phase = msg.Phase
			s.info.Score = msg.Score
		}
		a.mu.Unlock()

	case SessionEnded:
		a.handleEnded(ctx, msg.ID)

	case bollywood.Stopping:
		a.mu.Lock()
		pids := make([]*bollywood.PID, 0, len(a.sessions))
		for _, s := range a.sessions {
			pids = append(pids, s.pid)
		}
		a.sessions = make(map[string]*managedSession)
		a.mu.Unlock()
		a.logger.Info("session manager stopping", slog.Int("sessions", len(pids)))
		for _, pid := range pids {
			ctx.Engine().Stop(pid)
		}

	case bollywood.Stopped:

	default:
		a.logger.Warn("session manager received unknown message", slog.String("type", fmt.Sprintf("%T", msg)))
		if ctx.RequestID() != "" {
			ctx.Reply(fmt.Errorf("unknown message type: %T", msg))
		}
	}
}

func (a *SessionManagerActor) handleCreate(ctx bollywood.Context, req CreateSessionRequest) (CreateSessionResponse, error) {
	mode := req.Mode
	if mode == "" {
		mode = utils.ModeShooter
	}
	switch mode {
	case utils.ModeShooter, utils.ModeFalling, utils.ModeWave:
	default:
		return CreateSessionResponse{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if limit := a.args.Config.Server.MaxSessions; limit > 0 && len(a.sessions) >= limit {
		a.logger.Warn("max sessions reached", slog.Int("max", limit))
		return CreateSessionResponse{}, ErrTooManySessions
	}

	seed := req.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	id := uuid.NewString()
	pid := a.args.Spawn(ctx.Engine(), SessionArgs{
		ID:         id,
		Mode:       mode,
		Topic:      req.Topic,
		Seed:       seed,
		Config:     a.args.Config,
		Source:     a.args.Source,
		Sink:       a.args.Sink,
		ManagerPID: a.selfPID,
		Logger:     a.args.Logger,
	})
	if pid == nil {
		return CreateSessionResponse{}, fmt.Errorf("spawn session %s: engine stopping", id)
	}

	a.sessions[id] = &managedSession{
		pid: pid,
		info: SessionInfo{
			ID:      id,
			Mode:    mode,
			Topic:   req.Topic,
			Phase:   PhaseMenu,
			Created: time.Now().UTC(),
		},
	}
	a.logger.Info("session created", slog.String("session", id), slog.String("mode", mode), slog.String("topic", req.Topic))
	return CreateSessionResponse{ID: id, PID: pid}, nil
}

func (a *SessionManagerActor) handleEnded(ctx bollywood.Context, id string) {
	a.mu.Lock()
	s, ok := a.sessions[id]
	delete(a.sessions, id)
	a.mu.Unlock()
	if !ok {
		return
	}
	a.logger.Info("session ended", slog.String("session", id))
	ctx.Engine().Stop(s.pid)
}

// list returns the live sessions oldest first.
func (a *SessionManagerActor) list() []SessionInfo {
	a.mu.RLock()
	infos := make([]SessionInfo, 0, len(a.sessions))
	for _, s := range a.sessions {
		infos = append(infos, s.info)
	}
	a.mu.RUnlock()
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].Created.Equal(infos[j].Created) {
			return infos[i].Created.Before(infos[j].Created)
		}
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// CreateSession asks the manager for a new session.
func CreateSession(engine *bollywood.Engine, managerPID *bollywood.PID, req CreateSessionRequest, timeout time.Duration) (CreateSessionResponse, error) {
	reply, err := engine.Ask(managerPID, req, timeout)
	if err != nil {
		return CreateSessionResponse{}, fmt.Errorf("create session: %w", err)
	}
	switch r := reply.(type) {
	case CreateSessionResponse:
		return r, nil
	case error:
		return CreateSessionResponse{}, r
	}
	return CreateSessionResponse{}, fmt.Errorf("create session: unexpected reply %T", reply)
}

// ListSessions asks the manager for the live sessions.
func ListSessions(engine *bollywood.Engine, managerPID *bollywood.PID, timeout time.Duration) ([]SessionInfo, error) {
	reply, err := engine.Ask(managerPID, ListSessionsRequest{}, timeout)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	switch r := reply.(type) {
	case SessionListResponse:
		return r.Sessions, nil
	case error:
		return nil, r
	}
	return nil, fmt.Errorf("list sessions: unexpected reply %T", reply)
}
