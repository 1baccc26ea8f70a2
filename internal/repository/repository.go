package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSequenceConflict is returned when appended records do not continue the stream.
	ErrSequenceConflict = errors.New("journal: sequence number conflict")
	// ErrSnapshotNotFound is returned when an entity has no snapshot yet.
	ErrSnapshotNotFound = errors.New("snapshot: not found")
	ErrSnapshotAhead    = errors.New("snapshot: newer than journal")
)

// Record is one persisted event of an entity stream.
type Record struct {
	PersistenceID string          `json:"persistence_id"`
	SequenceNr    int64           `json:"sequence_nr"`
	Type          string          `json:"type"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Snapshot is the latest saved state of an entity. SequenceNr is the sequence
// number of the last event folded into the state.
type Snapshot struct {
	PersistenceID string          `json:"persistence_id"`
	SequenceNr    int64           `json:"sequence_nr"`
	Type          string          `json:"type"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Journal is an append-only event log partitioned by persistence id.
type Journal interface {
	// Append stores records atomically. The first record must carry the sequence
	// number following the current highest one, and the rest must be consecutive.
	Append(ctx context.Context, persistenceID string, records []Record) error
	// Replay calls fn for each record with SequenceNr >= fromSeq, in order.
	Replay(ctx context.Context, persistenceID string, fromSeq int64, fn func(Record) error) error
	HighestSequenceNr(ctx context.Context, persistenceID string) (int64, error)
}

// SnapshotStore keeps one snapshot per persistence id. Save replaces the previous one.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Latest(ctx context.Context, persistenceID string) (Snapshot, error)
}

// Pinger is implemented by backends that can report their availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

func checkSequence(persistenceID string, highest int64, records []Record) error {
	for i, r := range records {
		if r.PersistenceID != persistenceID {
			return fmt.Errorf("journal: record for %q appended to %q", r.PersistenceID, persistenceID)
		}
		if want := highest + int64(i) + 1; r.SequenceNr != want {
			return fmt.Errorf("%w: %s expected %d, got %d", ErrSequenceConflict, persistenceID, want, r.SequenceNr)
		}
	}
	return nil
}
