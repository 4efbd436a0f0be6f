// Package wal implements the write-ahead log the wal augmentation appends
// to before any mutation reaches a storage adapter, and replays during
// recovery.
package wal

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Op identifies the kind of mutation a record describes.
type Op uint8

const (
	OpAddNoun Op = iota
	OpUpdateNoun
	OpDeleteNoun
	OpAddVerb
	OpDeleteVerb
)

// Record is a single WAL entry: a monotonic sequence number, the operation,
// a hash of its parameters (for idempotent replay / dedup), and the params
// themselves.
type Record struct {
	Seq        uint64          `json:"seq"`
	Op         Op              `json:"op"`
	ParamsHash string          `json:"params_hash"`
	Timestamp  time.Time       `json:"timestamp"`
	Params     json.RawMessage `json:"params"`
}

// HashParams returns the content hash recorded alongside params, so a
// replayed record can be matched against an already-applied one.
func HashParams(params []byte) string {
	sum := sha256.Sum256(params)
	return hex.EncodeToString(sum[:])
}

// WAL is a single append-only segment file.
type WAL struct {
	mu     sync.RWMutex
	file   *os.File
	writer *bufio.Writer
	path   string
	offset int64
	seq    uint64
	closed bool
}

// Open opens or creates the WAL segment at path.
func Open(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("wal: open: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("wal: stat: %w", err)
	}

	w := &WAL{
		file:   file,
		writer: bufio.NewWriter(file),
		path:   path,
		offset: stat.Size(),
	}

	existing, err := w.Read()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("wal: replay existing segment: %w", err)
	}
	if len(existing) > 0 {
		w.seq = existing[len(existing)-1].Seq
	}

	return w, nil
}

// Append writes a new record for op with the given JSON-encodable params,
// fsyncing before returning so the append is durable.
func (w *WAL) Append(ctx context.Context, op Op, params any) (*Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, fmt.Errorf("wal: closed")
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("wal: marshal params: %w", err)
	}

	w.seq++
	record := &Record{
		Seq:        w.seq,
		Op:         op,
		ParamsHash: HashParams(paramsJSON),
		Timestamp:  time.Now(),
		Params:     paramsJSON,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("wal: marshal record: %w", err)
	}

	if err := binary.Write(w.writer, binary.LittleEndian, uint32(len(data))); err != nil {
		return nil, fmt.Errorf("wal: write length prefix: %w", err)
	}
	if _, err := w.writer.Write(data); err != nil {
		return nil, fmt.Errorf("wal: write record: %w", err)
	}
	if err := w.writer.Flush(); err != nil {
		return nil, fmt.Errorf("wal: flush: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return nil, fmt.Errorf("wal: fsync: %w", err)
	}

	w.offset += int64(4 + len(data))
	return record, nil
}

// Read reads every record currently in the segment, in sequence order, for
// recovery replay.
func (w *WAL) Read() ([]*Record, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	file, err := os.Open(w.path)
	if err != nil {
		return nil, fmt.Errorf("wal: open for read: %w", err)
	}
	defer file.Close()

	var records []*Record
	reader := bufio.NewReader(file)
	for {
		var length uint32
		if err := binary.Read(reader, binary.LittleEndian, &length); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("wal: read length prefix: %w", err)
		}

		data := make([]byte, length)
		if _, err := io.ReadFull(reader, data); err != nil {
			return nil, fmt.Errorf("wal: read record: %w", err)
		}

		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("wal: decode record: %w", err)
		}
		records = append(records, &record)
	}
	return records, nil
}

// Truncate empties the segment, for use after a successful checkpoint.
func (w *WAL) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("wal: closed")
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("wal: close before truncate: %w", err)
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("wal: recreate: %w", err)
	}

	w.file = file
	w.writer = bufio.NewWriter(file)
	w.offset = 0
	return nil
}

// Close flushes and closes the segment.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	var firstErr error
	if err := w.writer.Flush(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.file.Sync(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	w.closed = true
	return firstErr
}
