package actor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type echo struct{}

func (echo) Receive(ctx Context, msg any) error {
	ctx.Reply(msg)
	return nil
}

type recorder struct {
	mu   sync.Mutex
	seen []int
}

func (r *recorder) Receive(_ Context, msg any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, msg.(int))
	return nil
}

func (r *recorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.seen...)
}

func TestAsk_ReturnsReply(t *testing.T) {
	sys := NewSystem(zap.NewNop())
	defer sys.Shutdown()

	ref, err := sys.Spawn("/user/echo", func() Receiver { return echo{} })
	require.NoError(t, err)

	reply, err := Ask(context.Background(), ref, "ping")
	require.NoError(t, err)
	assert.Equal(t, "ping", reply)
}

func TestAsk_TimesOut(t *testing.T) {
	sys := NewSystem(zap.NewNop())
	defer sys.Shutdown()

	rec := &recorder{}
	ref, err := sys.Spawn("/user/silent", func() Receiver { return rec })
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = Ask(ctx, ref, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProcess_PreservesOrder(t *testing.T) {
	sys := NewSystem(zap.NewNop())
	defer sys.Shutdown()

	rec := &recorder{}
	ref, err := sys.Spawn("/user/order", func() Receiver { return rec })
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		ref.Tell(i, nil)
	}

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 500 }, time.Second, 5*time.Millisecond)
	seen := rec.snapshot()
	for i := range seen {
		assert.Equal(t, i, seen[i])
	}
}

func TestSpawn_RejectsDuplicatePath(t *testing.T) {
	sys := NewSystem(zap.NewNop())
	defer sys.Shutdown()

	_, err := sys.Spawn("/user/a", func() Receiver { return echo{} })
	require.NoError(t, err)
	_, err = sys.Spawn("/user/a", func() Receiver { return echo{} })
	assert.ErrorIs(t, err, ErrAlreadyExists)

	first := sys.GetOrSpawn("/user/b", func() Receiver { return echo{} })
	second := sys.GetOrSpawn("/user/b", func() Receiver { return echo{} })
	assert.Same(t, first, second)
}

type flaky struct {
	builds    *atomic.Int32
	recovered bool
}

func (f *flaky) Recover(Context) error {
	f.recovered = true
	return nil
}

func (f *flaky) Receive(ctx Context, msg any) error {
	switch msg {
	case "fail":
		return errors.New("journal unavailable")
	case "panic":
		panic("boom")
	default:
		ctx.Reply(f.builds.Load())
		return nil
	}
}

func TestProcess_RebuildsReceiverAfterFailure(t *testing.T) {
	sys := NewSystem(zap.NewNop())
	defer sys.Shutdown()

	var builds atomic.Int32
	ref, err := sys.Spawn("/user/flaky", func() Receiver {
		builds.Add(1)
		return &flaky{builds: &builds}
	})
	require.NoError(t, err)

	v, err := Ask(context.Background(), ref, "get")
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)

	ref.Tell("fail", nil)
	v, err = Ask(context.Background(), ref, "get")
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)

	ref.Tell("panic", nil)
	v, err = Ask(context.Background(), ref, "get")
	require.NoError(t, err)
	assert.Equal(t, int32(3), v)
}

func TestSelect_SpawnsUnderRegisteredPrefix(t *testing.T) {
	sys := NewSystem(zap.NewNop())
	defer sys.Shutdown()

	var names []string
	var mu sync.Mutex
	sys.HandlePrefix("/user/accounts/", func(name string) Factory {
		mu.Lock()
		names = append(names, name)
		mu.Unlock()
		return func() Receiver { return echo{} }
	})

	reply, err := Ask(context.Background(), sys.Select("/user/accounts/42"), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", reply)
	assert.Equal(t, []string{"42"}, names)
	assert.Equal(t, []string{"/user/accounts/42"}, sys.Children("/user/accounts/"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = Ask(ctx, sys.Select("/user/unknown/1"), "hi")
	assert.Error(t, err)
}

func TestScheduleOnce_DeliversAndCancels(t *testing.T) {
	sys := NewSystem(zap.NewNop())
	defer sys.Shutdown()

	rec := &recorder{}
	ref, err := sys.Spawn("/user/timer", func() Receiver { return rec })
	require.NoError(t, err)

	sys.ScheduleOnce(5*time.Millisecond, ref, 1)
	cancel := sys.ScheduleOnce(5*time.Millisecond, ref, 2)
	cancel()

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []int{1}, rec.snapshot())
}

func TestShutdown_RejectsNewProcesses(t *testing.T) {
	sys := NewSystem(zap.NewNop())
	sys.Shutdown()

	_, err := sys.Spawn("/user/late", func() Receiver { return echo{} })
	assert.ErrorIs(t, err, ErrSystemClosed)
	assert.Nil(t, sys.GetOrSpawn("/user/late", func() Receiver { return echo{} }))
}
