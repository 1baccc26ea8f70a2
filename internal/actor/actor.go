// Package actor is a small entity runtime: every process owns an unbounded FIFO
// inbox drained by a single goroutine, so a receiver never observes two messages
// at once. Processes address each other by path through a shared System.
package actor

// Ref addresses a process. Tell never blocks.
type Ref interface {
	Tell(msg any, sender Ref)
	Path() string
}

// Context accompanies every message handed to a Receiver.
type Context struct {
	Self   Ref
	Sender Ref
	System *System
}

// Reply sends msg back to the sender of the current message, if there is one.
func (c Context) Reply(msg any) {
	if c.Sender != nil {
		c.Sender.Tell(msg, c.Self)
	}
}

// Receiver handles one message at a time. A returned error discards the
// receiver instance; the runtime builds a fresh one from the process factory.
type Receiver interface {
	Receive(ctx Context, msg any) error
}

// Recoverer is implemented by receivers that rebuild their state (for example
// from a journal) before handling the first message.
type Recoverer interface {
	Recover(ctx Context) error
}

// Factory builds a receiver for a process. It is called again after every failure.
type Factory func() Receiver
