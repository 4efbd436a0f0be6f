package brainygraph

import (
	"context"

	"github.com/brainygraph/brainygraph/internal/storage/blob"
)

// BlobHash identifies a stored blob by the SHA-256 digest of its payload.
type BlobHash = blob.Hash

// PutBlob stores data content-addressed, returning its hash. Storing the
// same bytes twice increments a reference count rather than duplicating
// the payload on disk.
func (e *Engine) PutBlob(ctx context.Context, data []byte) (BlobHash, error) {
	if err := e.ensureOpen(); err != nil {
		return "", err
	}
	if err := e.checkMode(true, false, false); err != nil {
		return "", err
	}

	h, err := e.blobs.Put(data)
	if err != nil {
		return "", newError(KindResource, "PutBlob", "failed to write blob", err)
	}
	return h, nil
}

// GetBlob reads the payload previously stored under hash.
func (e *Engine) GetBlob(ctx context.Context, hash BlobHash) ([]byte, error) {
	if err := e.ensureOpen(); err != nil {
		return nil, err
	}
	if err := e.checkMode(false, false, true); err != nil {
		return nil, err
	}

	data, err := e.blobs.Get(hash)
	if err != nil {
		return nil, newError(KindNotFound, "GetBlob", "blob not found", err)
	}
	return data, nil
}

// ReleaseBlob decrements hash's reference count, reclaiming the payload
// once no noun or verb metadata references it any longer.
func (e *Engine) ReleaseBlob(ctx context.Context, hash BlobHash) error {
	if err := e.ensureOpen(); err != nil {
		return err
	}
	if err := e.checkMode(true, false, false); err != nil {
		return err
	}

	if err := e.blobs.Release(hash); err != nil {
		return newError(KindNotFound, "ReleaseBlob", "blob has no refcount record", err)
	}
	return nil
}
