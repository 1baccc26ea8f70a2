package actor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Ask sends msg to target and waits for the first reply or for ctx to expire.
// Replies arriving after the deadline are discarded.
func Ask(ctx context.Context, target Ref, msg any) (any, error) {
	p := &promise{
		path:  "/temp/" + uuid.NewString(),
		reply: make(chan any, 1),
	}
	target.Tell(msg, p)

	select {
	case v := <-p.reply:
		return v, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("ask %T: %w", msg, ctx.Err())
	}
}

type promise struct {
	path  string
	reply chan any
}

func (p *promise) Path() string { return p.path }

func (p *promise) Tell(msg any, _ Ref) {
	select {
	case p.reply <- msg:
	default:
	}
}
