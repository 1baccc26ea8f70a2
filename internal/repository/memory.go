package repository

import (
	"context"
	"sync"
)

// MemoryJournal keeps streams in process memory. State is lost on exit.
type MemoryJournal struct {
	mu      sync.RWMutex
	streams map[string][]Record
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{streams: make(map[string][]Record)}
}

func (j *MemoryJournal) Append(_ context.Context, persistenceID string, records []Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	stream := j.streams[persistenceID]
	if err := checkSequence(persistenceID, int64(len(stream)), records); err != nil {
		return err
	}
	j.streams[persistenceID] = append(stream, records...)
	return nil
}

func (j *MemoryJournal) Replay(ctx context.Context, persistenceID string, fromSeq int64, fn func(Record) error) error {
	j.mu.RLock()
	stream := append([]Record(nil), j.streams[persistenceID]...)
	j.mu.RUnlock()

	for _, r := range stream {
		if r.SequenceNr < fromSeq {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (j *MemoryJournal) HighestSequenceNr(_ context.Context, persistenceID string) (int64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return int64(len(j.streams[persistenceID])), nil
}

func (j *MemoryJournal) Ping(context.Context) error { return nil }

// MemorySnapshotStore keeps the latest snapshot per id in process memory.
type MemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{snapshots: make(map[string]Snapshot)}
}

func (s *MemorySnapshotStore) Save(_ context.Context, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.PersistenceID] = snapshot
	return nil
}

func (s *MemorySnapshotStore) Latest(_ context.Context, persistenceID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[persistenceID]
	if !ok {
		return Snapshot{}, ErrSnapshotNotFound
	}
	return snap, nil
}
