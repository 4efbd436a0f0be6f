package brainygraph

import (
	"time"

	"github.com/brainygraph/brainygraph/internal/metadata"
)

const (
	fieldPlaceholder = "_brainy.isPlaceholder"
	fieldCreator     = "_brainy.creatorService"
)

// Namespace splits the reserved _brainy.* subtree out of a free-form
// metadata map into a typed record, leaving the caller's own fields
// untouched in the returned map.
func Namespace(meta map[string]any) (SystemMetadata, map[string]any) {
	sys := SystemMetadata{}
	rest := make(map[string]any, len(meta))

	for k, v := range meta {
		switch k {
		case metadata.SystemDeleted:
			sys.Deleted, _ = v.(bool)
		case metadata.SystemDeletedAt:
			if t, ok := v.(time.Time); ok {
				sys.DeletedAt = &t
			}
		case fieldPlaceholder:
			sys.IsPlaceholder, _ = v.(bool)
		case fieldCreator:
			sys.CreatorService, _ = v.(string)
		default:
			rest[k] = v
		}
	}
	return sys, rest
}

// tombstone returns meta with the soft-delete fields set, preserving
// every other entry untouched.
func tombstone(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta)+2)
	for k, v := range meta {
		out[k] = v
	}
	out[metadata.SystemDeleted] = true
	out[metadata.SystemDeletedAt] = time.Now()
	return out
}

// mergeMetadata overlays updates onto base, preserving any _brainy.*
// entry in base that updates does not explicitly override — callers
// updating a noun's free-form metadata must never accidentally clear
// its soft-delete or placeholder state.
func mergeMetadata(base, updates map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(updates))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range updates {
		out[k] = v
	}
	return out
}
