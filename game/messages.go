package game

import (
	"time"

	"github.com/lguibr/arcade/bollywood"
	"github.com/lguibr/arcade/results"
)

// --- WebSocket Messages (Client -> Server) ---

// Client message types.
const (
	ClientKey     = "key"
	ClientPointer = "pointer"
	ClientTouch   = "touch"
	ClientStart   = "start"
	ClientExit    = "exit"
)

// ClientMessage is the single JSON shape clients send. Type selects which of
// the remaining fields are meaningful.
type ClientMessage struct {
	Type  string  `json:"type"`
	Code  string  `json:"code,omitempty"`
	Down  bool    `json:"down,omitempty"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Click bool    `json:"click,omitempty"`
	ID    int     `json:"id,omitempty"`
	End   bool    `json:"end,omitempty"`
	Topic string  `json:"topic,omitempty"`
}

// Event converts a device message into a router event. Control messages
// (start, exit) and unknown types report false.
func (m ClientMessage) Event() (Event, bool) {
	switch m.Type {
	case ClientKey:
		if m.Code == "" {
			return nil, false
		}
		return KeyEvent{Code: m.Code, Down: m.Down}, true
	case ClientPointer:
		return PointerEvent{X: m.X, Y: m.Y, Click: m.Click}, true
	case ClientTouch:
		return TouchEvent{ID: m.ID, X: m.X, Y: m.Y, End: m.End}, true
	}
	return nil, false
}

// --- WebSocket Messages (Server -> Client) ---

// SessionAssignedMessage is the first frame a client receives.
type SessionAssignedMessage struct {
	MessageType string `json:"messageType"` // "sessionAssigned"
	SessionID   string `json:"sessionId"`
	Mode        string `json:"mode"`
}

// SnapshotMessage carries one rendered tick.
type SnapshotMessage struct {
	MessageType string   `json:"messageType"` // "snapshot"
	Snapshot    Snapshot `json:"snapshot"`
}

// ResultMessage is sent once when a round ends.
type ResultMessage struct {
	MessageType string              `json:"messageType"` // "result"
	Result      results.RoundResult `json:"result"`
}

// ErrorMessage reports a failure the client can recover from, such as a
// content fetch that sent the session back to menu.
type ErrorMessage struct {
	MessageType string `json:"messageType"` // "error"
	Error       string `json:"error"`
}

func NewSessionAssignedMessage(id, mode string) SessionAssignedMessage {
	return SessionAssignedMessage{MessageType: "sessionAssigned", SessionID: id, Mode: mode}
}

func NewSnapshotMessage(snap Snapshot) SnapshotMessage {
	return SnapshotMessage{MessageType: "snapshot", Snapshot: snap}
}

func NewResultMessage(r results.RoundResult) ResultMessage {
	return ResultMessage{MessageType: "result", Result: r}
}

func NewErrorMessage(err error) ErrorMessage {
	return ErrorMessage{MessageType: "error", Error: err.Error()}
}

// --- Internal Actor Messages ---

// sessionTick is sent by the session's ticker goroutine to itself.
type sessionTick struct {
	at time.Time
}

// AttachClient hands a connected client to a session.
type AttachClient struct {
	Client Client
}

// DetachClient tells a session its client went away.
type DetachClient struct {
	Client Client
}

// InputMessage forwards one device event to a session.
type InputMessage struct {
	Event Event
}

// StartRound begins a new round. An empty Topic keeps the session's topic.
type StartRound struct {
	Topic string
}

// ExitRound abandons the current round.
type ExitRound struct{}

// GetSessionStatus asks a session for its current state (use with Ask).
type GetSessionStatus struct{}

// SessionStatus answers GetSessionStatus.
type SessionStatus struct {
	Info     SessionInfo
	Snapshot Snapshot
}

// AddClient registers a client with a broadcaster.
type AddClient struct {
	Client Client
}

// RemoveClient unregisters a client from a broadcaster.
type RemoveClient struct {
	Client Client
}

// BroadcastCommand sends Payload to every client of a broadcaster. When
// Close is set the broadcaster closes all clients afterwards.
type BroadcastCommand struct {
	Payload interface{}
	Close   bool
}

// ClientGone is sent by a broadcaster when a send found the client closed.
type ClientGone struct {
	Client Client
}

// --- Session Manager Messages ---

// CreateSessionRequest asks the manager to spawn a session (use with Ask).
type CreateSessionRequest struct {
	Mode  string
	Topic string
	Seed  uint64 // 0 picks a time-based seed
}

// CreateSessionResponse answers CreateSessionRequest.
type CreateSessionResponse struct {
	ID  string
	PID *bollywood.PID
}

// ListSessionsRequest asks for the live sessions (use with Ask).
type ListSessionsRequest struct{}

// SessionListResponse answers ListSessionsRequest.
type SessionListResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

// SessionInfo describes one live session.
type SessionInfo struct {
	ID      string    `json:"id"`
	Mode    string    `json:"mode"`
	Topic   string    `json:"topic"`
	Phase   Phase     `json:"phase"`
	Score   int       `json:"score"`
	Created time.Time `json:"created"`
}

// SessionPhaseChanged lets the manager keep its listing current.
type SessionPhaseChanged struct {
	ID    string
	Phase Phase
	Score int
}

// SessionEnded is sent by a session when its client is gone. The manager
// removes and stops it.
type SessionEnded struct {
	ID string
}
