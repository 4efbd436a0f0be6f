// Package planner implements the triple-intelligence query planner: it
// fuses vector similarity, metadata predicates, and graph traversal into
// a single ranked, paginated result set.
package planner

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// MaxLimit is the hard ceiling on a single query's result limit.
const MaxLimit = 10000

type cursorPayload struct {
	Offset    int       `json:"offset"`
	Timestamp time.Time `json:"timestamp"`
}

// EncodeCursor renders offset and the query's as-of timestamp as an
// opaque base64-JSON pagination token.
func EncodeCursor(offset int, at time.Time) string {
	data, err := json.Marshal(cursorPayload{Offset: offset, Timestamp: at})
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor parses a cursor token. A malformed or empty token degrades
// to offset 0 with ok=false rather than erroring, matching the contract
// that cursor decoding failures never fail a query outright.
func DecodeCursor(token string) (offset int, at time.Time, ok bool) {
	if token == "" {
		return 0, time.Time{}, false
	}
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, time.Time{}, false
	}
	var payload cursorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, time.Time{}, false
	}
	return payload.Offset, payload.Timestamp, true
}
