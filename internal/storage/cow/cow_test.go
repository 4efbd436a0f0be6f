package cow

import (
	"testing"
	"time"

	"github.com/brainygraph/brainygraph/internal/storage/blob"
)

func newTestDAG(t *testing.T) (*DAG, *blob.Store) {
	t.Helper()
	store, err := blob.New(t.TempDir())
	if err != nil {
		t.Fatalf("blob.New: unexpected error: %v", err)
	}
	return New(store), store
}

func TestIsNullHash(t *testing.T) {
	if !IsNullHash(NullHash) {
		t.Error("NullHash should report as null")
	}
	if IsNullHash(blob.Hash("a")) {
		t.Error("non-empty hash should not report as null")
	}
}

func TestIsValidHash(t *testing.T) {
	valid := blob.Hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	if !IsValidHash(valid) {
		t.Errorf("expected %q to be a valid hash", valid)
	}
	if IsValidHash(NullHash) {
		t.Error("NullHash is the root sentinel, not a valid content hash")
	}
	if IsValidHash(blob.Hash("not-hex")) {
		t.Error("expected a non-hex string to be rejected")
	}
	if IsValidHash(blob.Hash("abcd")) {
		t.Error("expected a too-short hash to be rejected")
	}
}

func TestDAG_CommitAdvancesHeadAndLoads(t *testing.T) {
	dag, store := newTestDAG(t)
	treeHash, err := store.Put([]byte("tree contents"))
	if err != nil {
		t.Fatalf("Put: unexpected error: %v", err)
	}

	c, err := dag.Commit(treeHash, "initial", time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Commit: unexpected error: %v", err)
	}
	if dag.Head() != c.Hash {
		t.Errorf("Head() = %v, want %v", dag.Head(), c.Hash)
	}
	if c.Parent != NullHash {
		t.Errorf("first commit Parent = %v, want NullHash", c.Parent)
	}

	loaded, err := dag.Load(c.Hash)
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if loaded.TreeHash != treeHash {
		t.Errorf("loaded TreeHash = %v, want %v", loaded.TreeHash, treeHash)
	}
}

func TestDAG_CommitRejectsInvalidTreeHash(t *testing.T) {
	dag, _ := newTestDAG(t)
	if _, err := dag.Commit(blob.Hash("not-a-hash"), "bad", time.Unix(0, 0)); err == nil {
		t.Fatal("expected Commit to reject an invalid tree hash")
	}
}

func TestDAG_HistoryWalksNewestFirst(t *testing.T) {
	dag, store := newTestDAG(t)
	tree1, _ := store.Put([]byte("v1"))
	tree2, _ := store.Put([]byte("v2"))

	first, err := dag.Commit(tree1, "first", time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Commit 1: unexpected error: %v", err)
	}
	second, err := dag.Commit(tree2, "second", time.Unix(1, 0))
	if err != nil {
		t.Fatalf("Commit 2: unexpected error: %v", err)
	}

	history, err := dag.History()
	if err != nil {
		t.Fatalf("History: unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("History length = %d, want 2", len(history))
	}
	if history[0].Hash != second.Hash || history[1].Hash != first.Hash {
		t.Errorf("History order = [%v, %v], want newest-first [%v, %v]",
			history[0].Hash, history[1].Hash, second.Hash, first.Hash)
	}
}
