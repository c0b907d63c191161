package bollywood

// Actor processes messages sequentially as they arrive in its mailbox.
type Actor interface {
	Receive(ctx Context)
}

// Producer creates a fresh Actor instance for a spawned process.
type Producer func() Actor

// Props is the recipe used by Engine.Spawn.
type Props struct {
	producer    Producer
	mailboxSize int
}

// NewProps creates Props with the default mailbox size.
func NewProps(producer Producer) *Props {
	if producer == nil {
		panic("bollywood: producer cannot be nil")
	}
	return &Props{producer: producer, mailboxSize: defaultMailboxSize}
}

// WithMailboxSize overrides the mailbox capacity.
func (p *Props) WithMailboxSize(size int) *Props {
	if size > 0 {
		p.mailboxSize = size
	}
	return p
}

// Produce creates a new actor instance using the configured producer.
func (p *Props) Produce() Actor {
	return p.producer()
}
