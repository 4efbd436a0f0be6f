// Package storage defines the durable-storage contract the engine depends
// on and the shared request/response shapes every adapter speaks.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Pagination mirrors the engine's pagination contract: callers may supply
// an offset/limit pair, a cursor, or nothing (meaning "first page").
type Pagination struct {
	Offset int
	Limit  int
	Cursor string
}

// ListOptions bundles pagination with an optional metadata filter
// expression (opaque to the adapter; see internal/metadata.Filter).
type ListOptions struct {
	Pagination Pagination
	Filter     any
}

// ListResult is returned by GetNouns/GetVerbs. Adapters may leave
// TotalCount unset; callers must not assume it is present.
type ListResult struct {
	Items      []any
	TotalCount *int
	HasMore    bool
	NextCursor string
}

// ChangeOp identifies the kind of mutation a Change record describes.
type ChangeOp string

const (
	ChangeAdd    ChangeOp = "add"
	ChangeUpdate ChangeOp = "update"
	ChangeDelete ChangeOp = "delete"
)

// Change is one entry in an adapter's change log, used by the engine to
// reconcile in-memory index state after a gap (e.g. a distributed read
// replica catching up).
type Change struct {
	Operation  ChangeOp
	EntityType string
	EntityID   uuid.UUID
	Data       any
	Timestamp  time.Time
}

// StorageStatus reports coarse adapter health for GetStatistics.
type StorageStatus struct {
	Healthy      bool
	BytesOnDisk  int64
	OpenHandles  int
	LastError    string
	LastSyncedAt time.Time
}

// Adapter is the storage collaborator contract. The default implementation
// is internal/storage/fsadapter; callers may supply their own for a remote
// or in-memory store so long as every invariant below holds.
type Adapter interface {
	SaveNoun(ctx context.Context, entityType string, id uuid.UUID, vector []float32, metadata map[string]any) error
	GetNoun(ctx context.Context, id uuid.UUID) (vector []float32, metadata map[string]any, entityType string, found bool, err error)
	GetNouns(ctx context.Context, opts ListOptions) (ListResult, error)
	DeleteNoun(ctx context.Context, id uuid.UUID) error

	SaveVerb(ctx context.Context, verbType string, id, source, target uuid.UUID, weight float32, metadata map[string]any) error
	GetVerb(ctx context.Context, id uuid.UUID) (source, target uuid.UUID, weight float32, metadata map[string]any, verbType string, found bool, err error)
	GetVerbs(ctx context.Context, opts ListOptions) (ListResult, error)
	DeleteVerb(ctx context.Context, id uuid.UUID) error

	SaveMetadata(ctx context.Context, id uuid.UUID, metadata map[string]any) error
	GetMetadata(ctx context.Context, id uuid.UUID) (map[string]any, error)
	SaveVerbMetadata(ctx context.Context, id uuid.UUID, metadata map[string]any) error
	GetVerbMetadata(ctx context.Context, id uuid.UUID) (map[string]any, error)

	Clear(ctx context.Context) error
	GetStorageStatus(ctx context.Context) (StorageStatus, error)

	SaveStatistics(ctx context.Context, snapshot map[string]any) error
	GetStatistics(ctx context.Context) (map[string]any, error)
	IncrementStatistic(ctx context.Context, key string, delta int64) error
	DecrementStatistic(ctx context.Context, key string, delta int64) error
	UpdateHNSWIndexSize(ctx context.Context, nounCount, verbCount int) error
	FlushStatisticsToStorage(ctx context.Context) error

	TrackFieldNames(ctx context.Context, entityType string, fields []string) error
	GetAvailableFieldNames(ctx context.Context, entityType string) ([]string, error)
	GetStandardFieldMappings(ctx context.Context) (map[string]string, error)

	// GetChangesSince is optional: adapters that don't support distributed
	// reads may return ErrUnsupported.
	GetChangesSince(ctx context.Context, since time.Time, limit int) ([]Change, error)

	Close() error
}
