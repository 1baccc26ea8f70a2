package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const journalSchema = `
CREATE TABLE IF NOT EXISTS journal (
	persistence_id TEXT        NOT NULL,
	sequence_nr    BIGINT      NOT NULL,
	event_type     TEXT        NOT NULL,
	payload        JSONB       NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (persistence_id, sequence_nr)
)`

// Store is the Postgres journal. Appends for one entity run in a single transaction,
// and the primary key rejects a second writer for the same sequence number.
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a journal around a pgx connection pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Migrate creates the journal table when it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, journalSchema); err != nil {
		return fmt.Errorf("create journal table: %w", err)
	}
	return nil
}

// RunInTx executes fn within a database transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, persistenceID string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	err := s.RunInTx(ctx, func(tx pgx.Tx) error {
		var highest int64
		err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(sequence_nr), 0) FROM journal WHERE persistence_id = $1`,
			persistenceID,
		).Scan(&highest)
		if err != nil {
			return fmt.Errorf("read highest sequence: %w", err)
		}
		if err := checkSequence(persistenceID, highest, records); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, r := range records {
			batch.Queue(
				`INSERT INTO journal (persistence_id, sequence_nr, event_type, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
				r.PersistenceID, r.SequenceNr, r.Type, []byte(r.Payload), r.CreatedAt,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrSequenceConflict, persistenceID)
		}
		return err
	}
	return nil
}

func (s *Store) Replay(ctx context.Context, persistenceID string, fromSeq int64, fn func(Record) error) error {
	rows, err := s.db.Query(ctx, `
		SELECT persistence_id, sequence_nr, event_type, payload, created_at
		FROM journal
		WHERE persistence_id = $1 AND sequence_nr >= $2
		ORDER BY sequence_nr
	`, persistenceID, fromSeq)
	if err != nil {
		return fmt.Errorf("replay %s: %w", persistenceID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r       Record
			payload []byte
		)
		if err := rows.Scan(&r.PersistenceID, &r.SequenceNr, &r.Type, &payload, &r.CreatedAt); err != nil {
			return fmt.Errorf("scan journal row: %w", err)
		}
		r.Payload = payload
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) HighestSequenceNr(ctx context.Context, persistenceID string) (int64, error) {
	var highest int64
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_nr), 0) FROM journal WHERE persistence_id = $1`,
		persistenceID,
	).Scan(&highest)
	if err != nil {
		return 0, fmt.Errorf("read highest sequence: %w", err)
	}
	return highest, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
