// Package cow implements the copy-on-write commit DAG the VFS collaborator
// uses to snapshot corpus state without copying unchanged data.
package cow

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/brainygraph/brainygraph/internal/storage/blob"
)

// NullHash is the sentinel hash representing "no parent" — the root of the
// commit DAG. It is the 64-zero digest, not a well-formed SHA-256 hash of
// any content, so it never collides with a real commit or tree hash.
const NullHash blob.Hash = "0000000000000000000000000000000000000000000000000000000000000000"

var hashPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// IsNullHash reports whether h is the NULL_HASH sentinel.
func IsNullHash(h blob.Hash) bool { return h == NullHash }

// IsValidHash reports whether h is a well-formed, non-null SHA-256 digest.
func IsValidHash(h blob.Hash) bool {
	return !IsNullHash(h) && hashPattern.MatchString(string(h))
}

// Commit is one node in the copy-on-write DAG: a content hash for the tree
// it captures, a parent (or NullHash), and a timestamp.
type Commit struct {
	Hash      blob.Hash `json:"hash"`
	Parent    blob.Hash `json:"parent"`
	TreeHash  blob.Hash `json:"tree_hash"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// DAG stores commits content-addressed in a blob.Store.
type DAG struct {
	blobs *blob.Store
	head  blob.Hash
}

// New creates a DAG backed by blobs, starting with no head commit.
func New(blobs *blob.Store) *DAG {
	return &DAG{blobs: blobs, head: NullHash}
}

// Commit records a new commit pointing at treeHash, parented on the
// current head, and advances head to it.
func (d *DAG) Commit(treeHash blob.Hash, message string, at time.Time) (*Commit, error) {
	if !IsValidHash(treeHash) {
		return nil, fmt.Errorf("cow: invalid tree hash %q", treeHash)
	}

	c := &Commit{Parent: d.head, TreeHash: treeHash, Message: message, CreatedAt: at}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("cow: marshal commit: %w", err)
	}
	h, err := d.blobs.Put(data)
	if err != nil {
		return nil, fmt.Errorf("cow: store commit: %w", err)
	}
	c.Hash = h
	d.head = h
	return c, nil
}

// Head returns the current head commit hash, or NullHash if no commit has
// been made yet.
func (d *DAG) Head() blob.Hash { return d.head }

// Load reads a commit by hash.
func (d *DAG) Load(h blob.Hash) (*Commit, error) {
	if IsNullHash(h) {
		return nil, fmt.Errorf("cow: cannot load null commit")
	}
	data, err := d.blobs.Get(h)
	if err != nil {
		return nil, fmt.Errorf("cow: load commit: %w", err)
	}
	var c Commit
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("cow: decode commit: %w", err)
	}
	c.Hash = h
	return &c, nil
}

// History walks back from head to the root, returning commits newest-first.
func (d *DAG) History() ([]*Commit, error) {
	var history []*Commit
	cursor := d.head
	for !IsNullHash(cursor) {
		c, err := d.Load(cursor)
		if err != nil {
			return nil, err
		}
		history = append(history, c)
		cursor = c.Parent
	}
	return history, nil
}
