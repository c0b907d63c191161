package game

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/lguibr/arcade/bollywood"
)

// BroadcasterActor fans session frames out to the session's clients.
type BroadcasterActor struct {
	clients    map[Client]bool
	mu         sync.RWMutex
	selfPID    *bollywood.PID
	sessionPID *bollywood.PID // notified when a client turns out to be closed
	logger     *slog.Logger
}

func NewBroadcasterProducer(sessionPID *bollywood.PID, logger *slog.Logger) bollywood.Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return func() bollywood.Actor {
		return &BroadcasterActor{
			clients:    make(map[Client]bool),
			sessionPID: sessionPID,
			logger:     logger,
		}
	}
}

func (a *BroadcasterActor) Receive(ctx bollywood.Context) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic recovered in broadcaster",
				slog.String("pid", a.selfPID.String()),
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:

	case AddClient:
		if msg.Client != nil {
			a.mu.Lock()
			a.clients[msg.Client] = true
			a.mu.Unlock()
		}

	case RemoveClient:
		if msg.Client != nil {
			a.mu.Lock()
			delete(a.clients, msg.Client)
			a.mu.Unlock()
		}

	case BroadcastCommand:
		a.broadcast(ctx, msg.Payload)
		if msg.Close {
			a.closeAll()
		}

	case bollywood.Stopping:
		a.closeAll()

	case bollywood.Stopped:

	default:
		a.logger.Warn("broadcaster received unknown message", slog.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (a *BroadcasterActor) snapshotClients() []Client {
	a.mu.RLock()
	defer a.mu.RUnlock()
	list := make([]Client, 0, len(a.clients))
	for c := range a.clients {
		list = append(list, c)
	}
	return list
}

func (a *BroadcasterActor) broadcast(ctx bollywood.Context, payload interface{}) {
	clients := a.snapshotClients()
	if len(clients) == 0 {
		return
	}

	var gone []Client
	for _, c := range clients {
		if err := c.Send(payload); err != nil {
			if IsClosedError(err) {
				gone = append(gone, c)
			} else {
				a.logger.Warn("failed to write to client", slog.String("client", c.String()), slog.String("error", err.Error()))
			}
		}
	}
	if len(gone) == 0 {
		return
	}

	a.mu.Lock()
	for _, c := range gone {
		delete(a.clients, c)
	}
	a.mu.Unlock()
	if a.sessionPID != nil {
		for _, c := range gone {
			ctx.Engine().Send(a.sessionPID, ClientGone{Client: c}, a.selfPID)
		}
	}
}

func (a *BroadcasterActor) closeAll() {
	a.mu.Lock()
	clients := make([]Client, 0, len(a.clients))
	for c := range a.clients {
		clients = append(clients, c)
	}
	a.clients = make(map[Client]bool)
	a.mu.Unlock()

	for _, c := range clients {
		_ = c.Close()
	}
}

// ClientCount reports the registered clients.
func (a *BroadcasterActor) ClientCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.clients)
}
