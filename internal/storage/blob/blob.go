// Package blob implements a content-addressed, refcounted blob store used
// by the VFS collaborator for large opaque payloads that don't belong
// inline in a noun or verb's metadata.
package blob

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Hash is a lowercase hex-encoded SHA-256 digest identifying a blob.
type Hash string

type meta struct {
	RefCount int `json:"ref_count"`
	Size     int `json:"size"`
}

// Store is a directory-backed content-addressed blob store.
type Store struct {
	mu       sync.Mutex
	basePath string
}

// New creates a blob store rooted at basePath.
func New(basePath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(basePath, "blobs"), 0o755); err != nil {
		return nil, fmt.Errorf("blob: create base dir: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

func hashOf(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

func (s *Store) blobPath(h Hash) string {
	prefix := string(h)[:2]
	return filepath.Join(s.basePath, "blobs", prefix, string(h))
}

// Put stores data, returning its content hash. If the blob already exists
// its refcount is incremented instead of rewriting the payload.
func (s *Store) Put(data []byte) (Hash, error) {
	h := hashOf(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.blobPath(h)
	metaPath := path + ".meta"

	if existing, err := s.readMeta(metaPath); err == nil {
		existing.RefCount++
		return h, s.writeMeta(metaPath, existing)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("blob: create shard dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o444); err != nil {
		return "", fmt.Errorf("blob: write payload: %w", err)
	}
	if err := s.writeMeta(metaPath, &meta{RefCount: 1, Size: len(data)}); err != nil {
		return "", fmt.Errorf("blob: write meta: %w", err)
	}
	return h, nil
}

// Get reads the payload for h.
func (s *Store) Get(h Hash) ([]byte, error) {
	data, err := os.ReadFile(s.blobPath(h))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("blob: %s not found", h)
	}
	return data, err
}

// Release decrements h's refcount, deleting the blob once it reaches zero.
func (s *Store) Release(h Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.blobPath(h)
	metaPath := path + ".meta"

	m, err := s.readMeta(metaPath)
	if err != nil {
		return fmt.Errorf("blob: %s has no refcount record: %w", h, err)
	}

	m.RefCount--
	if m.RefCount <= 0 {
		_ = os.Remove(path)
		return os.Remove(metaPath)
	}
	return s.writeMeta(metaPath, m)
}

func (s *Store) readMeta(path string) (*meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) writeMeta(path string, m *meta) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
