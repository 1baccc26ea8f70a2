package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayo6706/transfer-saga/internal/codec"
)

// EventStore encodes domain values through a codec registry and keeps them in a
// journal and a snapshot store.
type EventStore struct {
	journal   Journal
	snapshots SnapshotStore
	codec     *codec.Registry
	now       func() time.Time
}

func NewEventStore(journal Journal, snapshots SnapshotStore, registry *codec.Registry) *EventStore {
	if registry == nil {
		registry = codec.Default
	}
	return &EventStore{
		journal:   journal,
		snapshots: snapshots,
		codec:     registry,
		now:       time.Now,
	}
}

// Persist appends events after sequence number seq. It returns the new highest sequence number.
func (s *EventStore) Persist(ctx context.Context, persistenceID string, seq int64, events ...any) (int64, error) {
	records := make([]Record, 0, len(events))
	now := s.now().UTC()
	for i, ev := range events {
		name, payload, err := s.codec.Encode(ev)
		if err != nil {
			return seq, err
		}
		records = append(records, Record{
			PersistenceID: persistenceID,
			SequenceNr:    seq + int64(i) + 1,
			Type:          name,
			Payload:       payload,
			CreatedAt:     now,
		})
	}
	if err := s.journal.Append(ctx, persistenceID, records); err != nil {
		return seq, fmt.Errorf("persist %s: %w", persistenceID, err)
	}
	return seq + int64(len(events)), nil
}

// SaveSnapshot stores state as the snapshot of persistenceID taken at seq.
func (s *EventStore) SaveSnapshot(ctx context.Context, persistenceID string, seq int64, state any) error {
	name, payload, err := s.codec.Encode(state)
	if err != nil {
		return err
	}
	return s.snapshots.Save(ctx, Snapshot{
		PersistenceID: persistenceID,
		SequenceNr:    seq,
		Type:          name,
		Payload:       payload,
		CreatedAt:     s.now().UTC(),
	})
}

// Recovery receives the decoded snapshot and events of an entity during Recover.
type Recovery struct {
	Snapshot func(state any) error
	Event    func(event any) error
}

// Recover loads the latest snapshot, if any, then replays the journal tail.
// It returns the highest sequence number seen. A snapshot newer than the journal
// fails recovery with ErrSnapshotAhead.
func (s *EventStore) Recover(ctx context.Context, persistenceID string, r Recovery) (int64, error) {
	var seq int64

	snap, err := s.snapshots.Latest(ctx, persistenceID)
	switch {
	case errors.Is(err, ErrSnapshotNotFound):
	case err != nil:
		return 0, fmt.Errorf("load snapshot %s: %w", persistenceID, err)
	default:
		state, err := s.codec.Decode(snap.Type, snap.Payload)
		if err != nil {
			return 0, err
		}
		if err := r.Snapshot(state); err != nil {
			return 0, err
		}
		seq = snap.SequenceNr
	}

	highest, err := s.journal.HighestSequenceNr(ctx, persistenceID)
	if err != nil {
		return 0, fmt.Errorf("read highest sequence %s: %w", persistenceID, err)
	}
	if highest < seq {
		return 0, fmt.Errorf("%w: %s snapshot at %d, journal ends at %d", ErrSnapshotAhead, persistenceID, seq, highest)
	}

	err = s.journal.Replay(ctx, persistenceID, seq+1, func(rec Record) error {
		ev, err := s.codec.Decode(rec.Type, rec.Payload)
		if err != nil {
			return err
		}
		if err := r.Event(ev); err != nil {
			return fmt.Errorf("apply %s #%d: %w", rec.Type, rec.SequenceNr, err)
		}
		seq = rec.SequenceNr
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("replay %s: %w", persistenceID, err)
	}
	return seq, nil
}

// Ping reports whether the journal is reachable.
func (s *EventStore) Ping(ctx context.Context) error {
	if p, ok := s.journal.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
