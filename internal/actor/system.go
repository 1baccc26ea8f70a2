package actor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrAlreadyExists = errors.New("actor: path already in use")
	ErrSystemClosed  = errors.New("actor: system is shut down")
)

// PathFactory builds a factory for a process whose path starts with a registered prefix.
// name is the path with the prefix removed. Returning nil refuses the path.
type PathFactory func(name string) Factory

// System is the registry of live processes.
type System struct {
	logger *zap.Logger

	mu       sync.RWMutex
	procs    map[string]*process
	prefixes map[string]PathFactory
	closed   bool
}

func NewSystem(logger *zap.Logger) *System {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &System{
		logger:   logger,
		procs:    make(map[string]*process),
		prefixes: make(map[string]PathFactory),
	}
}

// Logger returns the logger shared by every process of the system.
func (s *System) Logger() *zap.Logger {
	return s.logger
}

// Spawn starts a new process at path. It fails if the path is taken.
func (s *System) Spawn(path string, factory Factory) (Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSystemClosed
	}
	if _, ok := s.procs[path]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, path)
	}
	return s.startLocked(path, factory), nil
}

// GetOrSpawn returns the process at path, starting it with factory when absent.
// It returns nil only after Shutdown.
func (s *System) GetOrSpawn(path string, factory Factory) Ref {
	s.mu.RLock()
	p, ok := s.procs[path]
	s.mu.RUnlock()
	if ok {
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if p, ok := s.procs[path]; ok {
		return p
	}
	return s.startLocked(path, factory)
}

func (s *System) startLocked(path string, factory Factory) *process {
	p := newProcess(path, s, factory)
	s.procs[path] = p
	go p.run()
	return p
}

// Lookup returns the live process at path.
func (s *System) Lookup(path string) (Ref, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.procs[path]
	if !ok {
		return nil, false
	}
	return p, true
}

// HandlePrefix registers a factory used to start processes on demand when a
// selection addresses an unknown path under prefix.
func (s *System) HandlePrefix(prefix string, factory PathFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefixes[prefix] = factory
}

// Select returns a logical reference to path. The path is resolved on every Tell,
// so the reference survives process restarts.
func (s *System) Select(path string) Ref {
	return &selection{system: s, path: path}
}

// Children returns the paths of live processes under prefix, sorted.
func (s *System) Children(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var paths []string
	for path := range s.procs {
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// Stop terminates the process at path. Pending messages are dropped.
func (s *System) Stop(path string) {
	s.mu.Lock()
	p, ok := s.procs[path]
	if ok {
		delete(s.procs, path)
	}
	s.mu.Unlock()
	if ok {
		p.stop()
		<-p.done
	}
}

// ScheduleOnce delivers msg to target after d. The returned function cancels the timer.
func (s *System) ScheduleOnce(d time.Duration, target Ref, msg any) func() {
	t := time.AfterFunc(d, func() {
		target.Tell(msg, nil)
	})
	return func() { t.Stop() }
}

// Shutdown stops every process and waits for in-flight messages to finish.
func (s *System) Shutdown() {
	s.mu.Lock()
	s.closed = true
	procs := make([]*process, 0, len(s.procs))
	for _, p := range s.procs {
		procs = append(procs, p)
	}
	s.procs = make(map[string]*process)
	s.mu.Unlock()

	for _, p := range procs {
		p.stop()
	}
	for _, p := range procs {
		<-p.done
	}
}

func (s *System) resolve(path string) Ref {
	if ref, ok := s.Lookup(path); ok {
		return ref
	}

	s.mu.RLock()
	var (
		factory PathFactory
		best    string
	)
	for prefix, f := range s.prefixes {
		if strings.HasPrefix(path, prefix) && len(prefix) > len(best) {
			factory, best = f, prefix
		}
	}
	s.mu.RUnlock()
	if factory == nil {
		return nil
	}
	f := factory(strings.TrimPrefix(path, best))
	if f == nil {
		return nil
	}
	return s.GetOrSpawn(path, f)
}

func (s *System) deadLetter(path string, msg any) {
	s.logger.Debug("dead letter",
		zap.String("path", path),
		zap.String("message", fmt.Sprintf("%T", msg)),
	)
}

type selection struct {
	system *System
	path   string
}

func (sel *selection) Path() string { return sel.path }

func (sel *selection) Tell(msg any, sender Ref) {
	ref := sel.system.resolve(sel.path)
	if ref == nil {
		sel.system.deadLetter(sel.path, msg)
		return
	}
	ref.Tell(msg, sender)
}
