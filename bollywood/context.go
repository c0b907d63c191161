package bollywood

// Context is handed to Actor.Receive for every message.
type Context interface {
	Engine() *Engine
	Self() *PID
	Sender() *PID
	Message() interface{}
	// RequestID is non-empty when the message was sent with Engine.Ask.
	RequestID() string
	// Reply answers an Ask. It is a no-op for plain sends.
	Reply(response interface{})
}

type context struct {
	engine    *Engine
	self      *PID
	sender    *PID
	message   interface{}
	requestID string
}

func (c *context) Engine() *Engine      { return c.engine }
func (c *context) Self() *PID           { return c.self }
func (c *context) Sender() *PID         { return c.sender }
func (c *context) Message() interface{} { return c.message }
func (c *context) RequestID() string    { return c.requestID }

func (c *context) Reply(response interface{}) {
	if c.requestID == "" {
		return
	}
	c.engine.deliverReply(c.requestID, response)
}
