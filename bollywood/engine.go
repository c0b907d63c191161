package bollywood

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTimeout is returned by Ask when no reply arrives in time.
var ErrTimeout = errors.New("bollywood: ask timed out")

// ErrNotFound is returned by Ask when the target actor does not exist.
var ErrNotFound = errors.New("bollywood: actor not found")

// Engine manages the lifecycle and message dispatching for actors.
type Engine struct {
	pidCounter uint64
	reqCounter uint64
	actors     map[string]*process
	mu         sync.RWMutex
	pending    map[string]chan interface{}
	pendingMu  sync.Mutex
	stopping   atomic.Bool
	logger     *slog.Logger
}

// NewEngine creates a new actor engine. A nil logger falls back to
// slog.Default.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		actors:  make(map[string]*process),
		pending: make(map[string]chan interface{}),
		logger:  logger.With(slog.String("component", "bollywood")),
	}
}

func (e *Engine) nextPID() *PID {
	id := atomic.AddUint64(&e.pidCounter, 1)
	return &PID{ID: fmt.Sprintf("actor-%d", id)}
}

// Spawn creates and starts a new actor. It returns nil once the engine is
// shutting down.
func (e *Engine) Spawn(props *Props) *PID {
	if e.stopping.Load() {
		e.logger.Warn("engine is stopping, cannot spawn new actors")
		return nil
	}

	pid := e.nextPID()
	proc := newProcess(e, pid, props)

	e.mu.Lock()
	e.actors[pid.ID] = proc
	e.mu.Unlock()

	go proc.run()

	e.Send(pid, Started{}, nil)

	return pid
}

// Send delivers a message to the actor identified by pid.
func (e *Engine) Send(pid *PID, message interface{}, sender *PID) {
	e.send(pid, &messageEnvelope{Sender: sender, Message: message})
}

func (e *Engine) send(pid *PID, envelope *messageEnvelope) bool {
	if pid == nil {
		return false
	}
	if e.stopping.Load() && !isSystemMessage(envelope.Message) {
		return false
	}

	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()

	if !ok {
		return false
	}
	return proc.sendMessage(envelope)
}

// Ask sends message to pid and waits for the actor to call Context.Reply.
func (e *Engine) Ask(pid *PID, message interface{}, timeout time.Duration) (interface{}, error) {
	id := fmt.Sprintf("req-%d", atomic.AddUint64(&e.reqCounter, 1))
	replyCh := make(chan interface{}, 1)

	e.pendingMu.Lock()
	e.pending[id] = replyCh
	e.pendingMu.Unlock()
	defer func() {
		e.pendingMu.Lock()
		delete(e.pending, id)
		e.pendingMu.Unlock()
	}()

	if !e.send(pid, &messageEnvelope{Message: message, RequestID: id}) {
		return nil, fmt.Errorf("ask %s: %w", pid, ErrNotFound)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case reply := <-replyCh:
		return reply, nil
	case <-timer.C:
		return nil, ErrTimeout
	}
}

func (e *Engine) deliverReply(requestID string, response interface{}) {
	e.pendingMu.Lock()
	ch, ok := e.pending[requestID]
	e.pendingMu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- response:
	default:
	}
}

// Stop asks an actor to shut down. Stopping is delivered before the loop
// exits, even when the mailbox is full.
func (e *Engine) Stop(pid *PID) {
	if pid == nil {
		return
	}
	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()

	if ok {
		proc.requestStop()
	}
}

func (e *Engine) remove(pid *PID) {
	e.mu.Lock()
	delete(e.actors, pid.ID)
	e.mu.Unlock()
}

// ActorCount reports how many actors are currently registered.
func (e *Engine) ActorCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.actors)
}

// Shutdown stops all actors and waits up to timeout for them to terminate.
func (e *Engine) Shutdown(timeout time.Duration) {
	if !e.stopping.CompareAndSwap(false, true) {
		return
	}

	e.mu.RLock()
	pidsToStop := make([]*PID, 0, len(e.actors))
	for _, proc := range e.actors {
		pidsToStop = append(pidsToStop, proc.pid)
	}
	e.mu.RUnlock()

	e.logger.Info("engine shutdown initiated", slog.Int("actors", len(pidsToStop)))
	for _, pid := range pidsToStop {
		e.Stop(pid)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if e.ActorCount() == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if remaining := e.ActorCount(); remaining > 0 {
		e.logger.Warn("engine shutdown timeout", slog.Int("remaining", remaining))
		e.mu.Lock()
		e.actors = make(map[string]*process)
		e.mu.Unlock()
	}
	e.logger.Info("engine shutdown complete")
}
