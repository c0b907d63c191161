package bollywood

import "reflect"

const defaultMailboxSize = 1024

// Started is delivered once after the actor's goroutine starts.
type Started struct{}

// Stopping is delivered when the actor has been asked to stop. No user
// messages are processed after it.
type Stopping struct{}

// Stopped is the final message an actor receives.
type Stopped struct{}

type messageEnvelope struct {
	Sender    *PID
	Message   interface{}
	RequestID string
}

func isSystemMessage(message interface{}) bool {
	switch message.(type) {
	case Started, Stopping, Stopped:
		return true
	}
	return false
}

func typeName(v interface{}) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
