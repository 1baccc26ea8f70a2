package actor

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type envelope struct {
	msg    any
	sender Ref
}

type process struct {
	path    string
	system  *System
	factory Factory

	mu      sync.Mutex
	queue   []envelope
	stopped bool
	wake    chan struct{}
	done    chan struct{}

	// owned by the run goroutine
	receiver  Receiver
	recovered bool
}

func newProcess(path string, system *System, factory Factory) *process {
	return &process{
		path:    path,
		system:  system,
		factory: factory,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (p *process) Path() string { return p.path }

func (p *process) Tell(msg any, sender Ref) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.system.deadLetter(p.path, msg)
		return
	}
	p.queue = append(p.queue, envelope{msg: msg, sender: sender})
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *process) stop() {
	p.mu.Lock()
	p.stopped = true
	p.queue = nil
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *process) run() {
	defer close(p.done)
	for {
		env, ok := p.next()
		if !ok {
			return
		}
		p.handle(env)
	}
}

func (p *process) next() (envelope, bool) {
	for {
		p.mu.Lock()
		if p.stopped {
			p.mu.Unlock()
			return envelope{}, false
		}
		if len(p.queue) > 0 {
			env := p.queue[0]
			p.queue[0] = envelope{}
			p.queue = p.queue[1:]
			p.mu.Unlock()
			return env, true
		}
		p.mu.Unlock()
		<-p.wake
	}
}

func (p *process) handle(env envelope) {
	if !p.ensureRecovered() {
		p.system.deadLetter(p.path, env.msg)
		return
	}

	ctx := Context{Self: p, Sender: env.sender, System: p.system}
	if err := p.invoke(ctx, env.msg); err != nil {
		p.system.logger.Error("entity failed, restarting",
			zap.String("path", p.path),
			zap.String("message", fmt.Sprintf("%T", env.msg)),
			zap.Error(err),
		)
		p.receiver = nil
		p.ensureRecovered()
	}
}

// ensureRecovered builds the receiver and runs its recovery hook when needed.
// A failed recovery leaves the process without a receiver; the next message retries.
func (p *process) ensureRecovered() bool {
	if p.receiver == nil {
		p.receiver = p.factory()
		p.recovered = false
	}
	if p.recovered {
		return true
	}

	if r, ok := p.receiver.(Recoverer); ok {
		err := safeCall(func() error {
			return r.Recover(Context{Self: p, System: p.system})
		})
		if err != nil {
			p.system.logger.Error("entity recovery failed",
				zap.String("path", p.path),
				zap.Error(err),
			)
			p.receiver = nil
			return false
		}
	}
	p.recovered = true
	return true
}

func (p *process) invoke(ctx Context, msg any) error {
	return safeCall(func() error {
		return p.receiver.Receive(ctx, msg)
	})
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}
