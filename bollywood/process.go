package bollywood

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

type process struct {
	engine   *Engine
	pid      *PID
	actor    Actor
	mailbox  chan *messageEnvelope
	props    *Props
	stopCh   chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
}

func newProcess(engine *Engine, pid *PID, props *Props) *process {
	size := props.mailboxSize
	if size <= 0 {
		size = defaultMailboxSize
	}
	return &process{
		engine:  engine,
		pid:     pid,
		props:   props,
		mailbox: make(chan *messageEnvelope, size),
		stopCh:  make(chan struct{}),
	}
}

func (p *process) sendMessage(envelope *messageEnvelope) bool {
	if p.stopped.Load() && !isSystemMessage(envelope.Message) {
		return false
	}
	select {
	case p.mailbox <- envelope:
		return true
	default:
		p.engine.logger.Warn("mailbox full, dropping message",
			slog.String("pid", p.pid.ID),
			slog.String("type", typeName(envelope.Message)))
		return false
	}
}

func (p *process) requestStop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

func (p *process) run() {
	defer func() {
		if p.actor != nil {
			p.invokeReceive(&messageEnvelope{Message: Stopped{}})
		}
		p.engine.remove(p.pid)
	}()

	p.actor = p.props.Produce()
	if p.actor == nil {
		p.engine.logger.Error("producer returned nil actor", slog.String("pid", p.pid.ID))
		return
	}

	for {
		select {
		case <-p.stopCh:
			if p.stopped.CompareAndSwap(false, true) {
				p.invokeReceive(&messageEnvelope{Message: Stopping{}})
			}
			return
		case envelope := <-p.mailbox:
			switch envelope.Message.(type) {
			case Stopping:
				if p.stopped.CompareAndSwap(false, true) {
					p.invokeReceive(envelope)
				}
				p.requestStop()
				return
			case Stopped:
				continue
			}
			if p.stopped.Load() {
				continue
			}
			p.invokeReceive(envelope)
		}
	}
}

// invokeReceive runs Receive with panic recovery. A panicking actor keeps its
// mailbox; the message is dropped.
func (p *process) invokeReceive(envelope *messageEnvelope) {
	ctx := &context{
		engine:    p.engine,
		self:      p.pid,
		sender:    envelope.Sender,
		message:   envelope.Message,
		requestID: envelope.RequestID,
	}

	defer func() {
		if r := recover(); r != nil {
			p.engine.logger.Error("actor panicked",
				slog.String("pid", p.pid.ID),
				slog.String("type", typeName(envelope.Message)),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()
	p.actor.Receive(ctx)
}
