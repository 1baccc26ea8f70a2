package repository

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// appendFile is the part of *os.File that Append writes through.
type appendFile interface {
	Write(p []byte) (int, error)
	Sync() error
	Close() error
}

// FileJournal stores one JSON-lines file per persistence id.
type FileJournal struct {
	dir  string
	open func(path string) (appendFile, error)

	mu      sync.Mutex
	highest map[string]int64
}

func NewFileJournal(dir string) (*FileJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	return &FileJournal{dir: dir, open: openAppend, highest: make(map[string]int64)}, nil
}

func openAppend(path string) (appendFile, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func (j *FileJournal) path(persistenceID string) (string, error) {
	if persistenceID == "" || strings.ContainsAny(persistenceID, `/\`) || persistenceID != filepath.Base(persistenceID) {
		return "", fmt.Errorf("journal: invalid persistence id %q", persistenceID)
	}
	return filepath.Join(j.dir, persistenceID+".jsonl"), nil
}

func (j *FileJournal) Append(ctx context.Context, persistenceID string, records []Record) (err error) {
	path, err := j.path(persistenceID)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	// the file may hold a partial write now; rescan and repair it on the next call
	defer func() {
		if err != nil {
			delete(j.highest, persistenceID)
		}
	}()

	highest, err := j.highestLocked(ctx, persistenceID, path)
	if err != nil {
		return err
	}
	if err := checkSequence(persistenceID, highest, records); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode record %d: %w", r.SequenceNr, err)
		}
	}

	f, err := j.open(path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("write journal: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync journal: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}

	if len(records) > 0 {
		j.highest[persistenceID] = records[len(records)-1].SequenceNr
	}
	return nil
}

// highestLocked scans the file once per id and cuts it back to its last complete
// record, so the file always ends with a newline before the next append.
func (j *FileJournal) highestLocked(ctx context.Context, persistenceID, path string) (int64, error) {
	if h, ok := j.highest[persistenceID]; ok {
		return h, nil
	}
	var h int64
	valid, err := scanFile(ctx, path, func(r Record) error {
		h = r.SequenceNr
		return nil
	})
	if err != nil {
		return 0, err
	}
	if info, statErr := os.Stat(path); statErr == nil && info.Size() > valid {
		if err := os.Truncate(path, valid); err != nil {
			return 0, fmt.Errorf("truncate journal: %w", err)
		}
	}
	j.highest[persistenceID] = h
	return h, nil
}

func (j *FileJournal) Replay(ctx context.Context, persistenceID string, fromSeq int64, fn func(Record) error) error {
	path, err := j.path(persistenceID)
	if err != nil {
		return err
	}
	_, err = scanFile(ctx, path, func(r Record) error {
		if r.SequenceNr < fromSeq {
			return nil
		}
		return fn(r)
	})
	return err
}

func (j *FileJournal) HighestSequenceNr(ctx context.Context, persistenceID string) (int64, error) {
	path, err := j.path(persistenceID)
	if err != nil {
		return 0, err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.highestLocked(ctx, persistenceID, path)
}

// Ping checks that the journal directory is still reachable.
func (j *FileJournal) Ping(context.Context) error {
	_, err := os.Stat(j.dir)
	return err
}

// scanFile reads newline-terminated records and returns the byte length of the
// valid prefix. A missing file is an empty stream. Bytes after the last newline
// are a torn write and never count as a record. An undecodable last line is
// skipped as well; an undecodable line followed by more data is an error.
func scanFile(ctx context.Context, path string, fn func(Record) error) (int64, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	rd := bufio.NewReaderSize(f, 64*1024)
	var (
		offset int64
		valid  int64
		torn   error
	)
	for {
		if err := ctx.Err(); err != nil {
			return valid, err
		}
		raw, err := rd.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if torn != nil && len(bytes.TrimSpace(raw)) > 0 {
				return valid, torn
			}
			return valid, nil
		}
		if err != nil {
			return valid, fmt.Errorf("read journal: %w", err)
		}
		offset += int64(len(raw))
		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			if torn == nil {
				valid = offset
			}
			continue
		}
		if torn != nil {
			return valid, torn
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			torn = fmt.Errorf("decode journal %s: %w", filepath.Base(path), err)
			continue
		}
		if err := fn(r); err != nil {
			return valid, err
		}
		valid = offset
	}
}

// FileSnapshotStore writes one JSON file per persistence id, replacing it atomically.
type FileSnapshotStore struct {
	dir string
}

func NewFileSnapshotStore(dir string) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileSnapshotStore{dir: dir}, nil
}

func (s *FileSnapshotStore) path(persistenceID string) (string, error) {
	if persistenceID == "" || strings.ContainsAny(persistenceID, `/\`) || persistenceID != filepath.Base(persistenceID) {
		return "", fmt.Errorf("snapshot: invalid persistence id %q", persistenceID)
	}
	return filepath.Join(s.dir, persistenceID+".json"), nil
}

func (s *FileSnapshotStore) Save(_ context.Context, snapshot Snapshot) error {
	path, err := s.path(snapshot.PersistenceID)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(s.dir, snapshot.PersistenceID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	tmp := f.Name()
	if err := json.NewEncoder(f).Encode(snapshot); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func (s *FileSnapshotStore) Latest(_ context.Context, persistenceID string) (Snapshot, error) {
	path, err := s.path(persistenceID)
	if err != nil {
		return Snapshot{}, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var snap Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
