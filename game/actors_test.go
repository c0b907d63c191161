package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lguibr/arcade/bollywood"
	"github.com/lguibr/arcade/content"
	contentmock "github.com/lguibr/arcade/content/mock"
	"github.com/lguibr/arcade/results"
	resultsmock "github.com/lguibr/arcade/results/mock"
	"github.com/lguibr/arcade/utils"
)

const (
	actorWait   = 3 * time.Second
	actorPoll   = 5 * time.Millisecond
	askTimeout  = time.Second
	stopTimeout = 2 * time.Second
)

// --- Recording Client ---

type recordingClient struct {
	mu      sync.Mutex
	name    string
	sent    []interface{}
	closed  bool
	sendErr error
}

func (c *recordingClient) Send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, v)
	return nil
}

func (c *recordingClient) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *recordingClient) String() string { return c.name }

func (c *recordingClient) messages() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]interface{}(nil), c.sent...)
}

func (c *recordingClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func sentOf[T any](c *recordingClient) []T {
	var out []T
	for _, m := range c.messages() {
		if typed, ok := m.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// --- Mock Recorder Actor ---
// Captures every message sent to it.
type MockRecorderActor struct {
	mu       sync.Mutex
	received []interface{}
}

func (a *MockRecorderActor) Receive(ctx bollywood.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.received = append(a.received, ctx.Message())
}

func (a *MockRecorderActor) GetMessages() []interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]interface{}(nil), a.received...)
}

func receivedOf[T any](a *MockRecorderActor) []T {
	var out []T
	for _, m := range a.GetMessages() {
		if typed, ok := m.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

func spawnRecorder(engine *bollywood.Engine) (*MockRecorderActor, *bollywood.PID) {
	rec := &MockRecorderActor{}
	pid := engine.Spawn(bollywood.NewProps(func() bollywood.Actor { return rec }))
	return rec, pid
}

func actorConfig() utils.Config {
	cfg := testConfig()
	cfg.Scheduler.FrameDuration = 2 * time.Millisecond
	cfg.Server.SnapshotEvery = 1
	return cfg
}

// --- Client Messages ---

func TestClientMessage_Event(t *testing.T) {
	tests := []struct {
		name string
		msg  ClientMessage
		want Event
		ok   bool
	}{
		{"key", ClientMessage{Type: ClientKey, Code: "Space", Down: true}, KeyEvent{Code: "Space", Down: true}, true},
		{"key without code", ClientMessage{Type: ClientKey}, nil, false},
		{"pointer", ClientMessage{Type: ClientPointer, X: 10, Y: 20, Click: true}, PointerEvent{X: 10, Y: 20, Click: true}, true},
		{"touch", ClientMessage{Type: ClientTouch, ID: 2, X: 1, Y: 2, End: true}, TouchEvent{ID: 2, X: 1, Y: 2, End: true}, true},
		{"start is control", ClientMessage{Type: ClientStart}, nil, false},
		{"unknown", ClientMessage{Type: "gamepad"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := tt.msg.Event()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestIsClosedError(t *testing.T) {
	assert.False(t, IsClosedError(nil))
	assert.True(t, IsClosedError(io.EOF))
	assert.True(t, IsClosedError(fmt.Errorf("write: %w", io.EOF)))
	assert.True(t, IsClosedError(errors.New("write tcp: broken pipe")))
	assert.False(t, IsClosedError(errors.New("json: unsupported type")))
}

// --- Broadcaster ---

func TestBroadcaster_SendsToEveryClient(t *testing.T) {
	engine := bollywood.NewEngine(quietLogger())
	defer engine.Shutdown(stopTimeout)

	pid := engine.Spawn(bollywood.NewProps(NewBroadcasterProducer(nil, quietLogger())))
	a, b := &recordingClient{name: "a"}, &recordingClient{name: "b"}
	engine.Send(pid, AddClient{Client: a}, nil)
	engine.Send(pid, AddClient{Client: b}, nil)
	engine.Send(pid, BroadcastCommand{Payload: NewErrorMessage(errors.New("boom"))}, nil)

	require.Eventually(t, func() bool {
		return len(a.messages()) == 1 && len(b.messages()) == 1
	}, actorWait, actorPoll)

	engine.Send(pid, RemoveClient{Client: b}, nil)
	engine.Send(pid, BroadcastCommand{Payload: "second"}, nil)
	require.Eventually(t, func() bool { return len(a.messages()) == 2 }, actorWait, actorPoll)
	assert.Len(t, b.messages(), 1)
}

func TestBroadcaster_DropsClosedClientAndNotifiesSession(t *testing.T) {
	engine := bollywood.NewEngine(quietLogger())
	defer engine.Shutdown(stopTimeout)

	session, sessionPID := spawnRecorder(engine)
	pid := engine.Spawn(bollywood.NewProps(NewBroadcasterProducer(sessionPID, quietLogger())))

	gone := &recordingClient{name: "gone", sendErr: io.EOF}
	live := &recordingClient{name: "live"}
	engine.Send(pid, AddClient{Client: gone}, nil)
	engine.Send(pid, AddClient{Client: live}, nil)
	engine.Send(pid, BroadcastCommand{Payload: "frame"}, nil)

	require.Eventually(t, func() bool {
		return len(receivedOf[ClientGone](session)) == 1
	}, actorWait, actorPoll)
	assert.Same(t, gone, receivedOf[ClientGone](session)[0].Client.(*recordingClient))
	assert.Len(t, live.messages(), 1)
}

func TestBroadcaster_CloseAfterSend(t *testing.T) {
	engine := bollywood.NewEngine(quietLogger())
	defer engine.Shutdown(stopTimeout)

	pid := engine.Spawn(bollywood.NewProps(NewBroadcasterProducer(nil, quietLogger())))
	c := &recordingClient{name: "c"}
	engine.Send(pid, AddClient{Client: c}, nil)
	engine.Send(pid, BroadcastCommand{Payload: "bye", Close: true}, nil)

	require.Eventually(t, c.isClosed, actorWait, actorPoll)
	assert.Equal(t, []interface{}{"bye"}, c.messages())
}

// --- Session Actor ---

func spawnSession(t *testing.T, engine *bollywood.Engine, args SessionArgs) *bollywood.PID {
	t.Helper()
	if args.ID == "" {
		args.ID = "s-1"
	}
	if args.Mode == "" {
		args.Mode = utils.ModeShooter
	}
	if args.Topic == "" {
		args.Topic = "go"
	}
	args.Logger = quietLogger()
	pid := engine.Spawn(bollywood.NewProps(NewSessionProducer(args)))
	require.NotNil(t, pid)
	return pid
}

func TestSessionActor_RoundReachesResult(t *testing.T) {
	engine := bollywood.NewEngine(quietLogger())
	defer engine.Shutdown(stopTimeout)

	ctrl := gomock.NewController(t)
	sink := resultsmock.NewMockSink(ctrl)
	recorded := make(chan results.RoundResult, 1)
	sink.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r results.RoundResult) error {
		recorded <- r
		return nil
	}).Times(1)

	cfg := actorConfig()
	cfg.Session.TimeLimit = 20

	manager, managerPID := spawnRecorder(engine)
	pid := spawnSession(t, engine, SessionArgs{
		Seed:       3,
		Config:     cfg,
		Source:     content.NewStaticSource(content.Sample()),
		Sink:       sink,
		ManagerPID: managerPID,
	})

	client := &recordingClient{name: "player"}
	engine.Send(pid, AttachClient{Client: client}, nil)
	engine.Send(pid, StartRound{}, nil)

	var result results.RoundResult
	select {
	case result = <-recorded:
	case <-time.After(actorWait):
		t.Fatal("no result recorded")
	}
	assert.Equal(t, "s-1", result.SessionID)
	assert.Equal(t, results.OutcomeGameOver, result.Outcome)

	require.Eventually(t, func() bool { return len(sentOf[ResultMessage](client)) == 1 }, actorWait, actorPoll)

	assigned := sentOf[SessionAssignedMessage](client)
	require.Len(t, assigned, 1)
	assert.Equal(t, "s-1", assigned[0].SessionID)

	phases := map[Phase]bool{}
	for _, m := range sentOf[SnapshotMessage](client) {
		phases[m.Snapshot.Phase] = true
	}
	assert.True(t, phases[PhaseLoading])
	assert.True(t, phases[PhasePlaying])
	assert.True(t, phases[PhaseGameOver])

	require.Eventually(t, func() bool {
		for _, m := range receivedOf[SessionPhaseChanged](manager) {
			if m.Phase == PhaseGameOver {
				return true
			}
		}
		return false
	}, actorWait, actorPoll)
}

func TestSessionActor_FetchFailureReportsError(t *testing.T) {
	engine := bollywood.NewEngine(quietLogger())
	defer engine.Shutdown(stopTimeout)

	ctrl := gomock.NewController(t)
	source := contentmock.NewMockSource(ctrl)
	source.EXPECT().Fetch(gomock.Any(), "go").Return(content.Bundle{}, content.ErrNotFound)

	pid := spawnSession(t, engine, SessionArgs{Config: actorConfig(), Source: source})
	client := &recordingClient{name: "player"}
	engine.Send(pid, AttachClient{Client: client}, nil)
	engine.Send(pid, StartRound{}, nil)

	require.Eventually(t, func() bool { return len(sentOf[ErrorMessage](client)) == 1 }, actorWait, actorPoll)
	assert.Contains(t, sentOf[ErrorMessage](client)[0].Error, content.ErrNotFound.Error())

	reply, err := engine.Ask(pid, GetSessionStatus{}, askTimeout)
	require.NoError(t, err)
	status := reply.(SessionStatus)
	assert.Equal(t, PhaseMenu, status.Info.Phase)
	assert.Empty(t, sentOf[ResultMessage](client))
}

func TestSessionActor_InputAndExit(t *testing.T) {
	engine := bollywood.NewEngine(quietLogger())
	defer engine.Shutdown(stopTimeout)

	pid := spawnSession(t, engine, SessionArgs{Config: actorConfig()})
	engine.Send(pid, StartRound{}, nil)

	require.Eventually(t, func() bool {
		reply, err := engine.Ask(pid, GetSessionStatus{}, askTimeout)
		return err == nil && reply.(SessionStatus).Info.Phase == PhasePlaying
	}, actorWait, actorPoll)

	engine.Send(pid, InputMessage{Event: KeyEvent{Code: "KeyP", Down: true}}, nil)
	require.Eventually(t, func() bool {
		reply, err := engine.Ask(pid, GetSessionStatus{}, askTimeout)
		return err == nil && reply.(SessionStatus).Info.Phase == PhasePaused
	}, actorWait, actorPoll)

	engine.Send(pid, ExitRound{}, nil)
	require.Eventually(t, func() bool {
		reply, err := engine.Ask(pid, GetSessionStatus{}, askTimeout)
		return err == nil && reply.(SessionStatus).Info.Phase == PhaseMenu
	}, actorWait, actorPoll)
}

func TestSessionActor_ClientGoneEndsSession(t *testing.T) {
	engine := bollywood.NewEngine(quietLogger())
	defer engine.Shutdown(stopTimeout)

	manager, managerPID := spawnRecorder(engine)
	pid := spawnSession(t, engine, SessionArgs{Config: actorConfig(), ManagerPID: managerPID})
	client := &recordingClient{name: "player"}
	engine.Send(pid, AttachClient{Client: client}, nil)
	engine.Send(pid, DetachClient{Client: &recordingClient{name: "stranger"}}, nil)
	engine.Send(pid, DetachClient{Client: client}, nil)
	engine.Send(pid, DetachClient{Client: client}, nil)

	require.Eventually(t, func() bool { return len(receivedOf[SessionEnded](manager)) == 1 }, actorWait, actorPoll)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, receivedOf[SessionEnded](manager), 1)
	assert.Equal(t, "s-1", receivedOf[SessionEnded](manager)[0].ID)
}

// --- Session Manager ---

// stubSession stands in for SessionActor so manager tests run without tickers.
type stubSession struct {
	MockRecorderActor
	args SessionArgs
}

func setupManager(t *testing.T, maxSessions int) (*bollywood.Engine, *bollywood.PID, *sync.Map) {
	t.Helper()
	engine := bollywood.NewEngine(quietLogger())
	stubs := &sync.Map{}
	cfg := testConfig()
	cfg.Server.MaxSessions = maxSessions
	pid := engine.Spawn(bollywood.NewProps(NewSessionManagerProducer(ManagerArgs{
		Config: cfg,
		Logger: quietLogger(),
		Spawn: func(e *bollywood.Engine, args SessionArgs) *bollywood.PID {
			stub := &stubSession{args: args}
			stubs.Store(args.ID, stub)
			return e.Spawn(bollywood.NewProps(func() bollywood.Actor { return stub }))
		},
	})))
	require.NotNil(t, pid)
	return engine, pid, stubs
}

func TestSessionManager_CreateAndList(t *testing.T) {
	engine, pid, stubs := setupManager(t, 4)
	defer engine.Shutdown(stopTimeout)

	sessions, err := ListSessions(engine, pid, askTimeout)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	resp, err := CreateSession(engine, pid, CreateSessionRequest{Mode: utils.ModeFalling, Topic: "go", Seed: 9}, askTimeout)
	require.NoError(t, err)
	_, err = uuid.Parse(resp.ID)
	assert.NoError(t, err)
	require.NotNil(t, resp.PID)

	stub, ok := stubs.Load(resp.ID)
	require.True(t, ok)
	args := stub.(*stubSession).args
	assert.Equal(t, utils.ModeFalling, args.Mode)
	assert.Equal(t, uint64(9), args.Seed)
	assert.Equal(t, pid, args.ManagerPID)

	sessions, err = ListSessions(engine, pid, askTimeout)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, resp.ID, sessions[0].ID)
	assert.Equal(t, PhaseMenu, sessions[0].Phase)
}

func TestSessionManager_DefaultsAndRejections(t *testing.T) {
	engine, pid, _ := setupManager(t, 1)
	defer engine.Shutdown(stopTimeout)

	_, err := CreateSession(engine, pid, CreateSessionRequest{Mode: "pinball"}, askTimeout)
	assert.ErrorIs(t, err, ErrUnknownMode)

	resp, err := CreateSession(engine, pid, CreateSessionRequest{}, askTimeout)
	require.NoError(t, err)

	_, err = CreateSession(engine, pid, CreateSessionRequest{}, askTimeout)
	assert.ErrorIs(t, err, ErrTooManySessions)

	sessions, err := ListSessions(engine, pid, askTimeout)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, resp.ID, sessions[0].ID)
	assert.Equal(t, utils.ModeShooter, sessions[0].Mode)
}

func TestSessionManager_PhaseUpdatesAndEnd(t *testing.T) {
	engine, pid, stubs := setupManager(t, 2)
	defer engine.Shutdown(stopTimeout)

	resp, err := CreateSession(engine, pid, CreateSessionRequest{Mode: utils.ModeWave}, askTimeout)
	require.NoError(t, err)

	engine.Send(pid, SessionPhaseChanged{ID: resp.ID, Phase: PhasePlaying, Score: 40}, nil)
	require.Eventually(t, func() bool {
		sessions, err := ListSessions(engine, pid, askTimeout)
		return err == nil && len(sessions) == 1 && sessions[0].Phase == PhasePlaying && sessions[0].Score == 40
	}, actorWait, actorPoll)

	engine.Send(pid, SessionEnded{ID: resp.ID}, nil)
	require.Eventually(t, func() bool {
		sessions, err := ListSessions(engine, pid, askTimeout)
		return err == nil && len(sessions) == 0
	}, actorWait, actorPoll)

	stub, _ := stubs.Load(resp.ID)
	require.Eventually(t, func() bool {
		return len(receivedOf[bollywood.Stopping](&stub.(*stubSession).MockRecorderActor)) == 1
	}, actorWait, actorPoll)
}

func TestSessionManager_RealSessionLifecycle(t *testing.T) {
	engine := bollywood.NewEngine(quietLogger())
	defer engine.Shutdown(stopTimeout)

	cfg := actorConfig()
	managerPID := engine.Spawn(bollywood.NewProps(NewSessionManagerProducer(ManagerArgs{
		Config: cfg,
		Source: content.NewStaticSource(content.Sample()),
		Logger: quietLogger(),
	})))

	resp, err := CreateSession(engine, managerPID, CreateSessionRequest{Mode: utils.ModeShooter, Topic: "go", Seed: 1}, askTimeout)
	require.NoError(t, err)

	client := &recordingClient{name: "player"}
	engine.Send(resp.PID, AttachClient{Client: client}, nil)
	engine.Send(resp.PID, StartRound{}, nil)

	require.Eventually(t, func() bool {
		sessions, err := ListSessions(engine, managerPID, askTimeout)
		return err == nil && len(sessions) == 1 && sessions[0].Phase == PhasePlaying
	}, actorWait, actorPoll)

	engine.Send(resp.PID, DetachClient{Client: client}, nil)
	require.Eventually(t, func() bool {
		sessions, err := ListSessions(engine, managerPID, askTimeout)
		return err == nil && len(sessions) == 0
	}, actorWait, actorPoll)
}
