// Package stats tracks per-type entity counts, HNSW index size, the
// field-name registry, and throttling telemetry that getStatistics
// aggregates for callers.
package stats

import (
	"sort"
	"sync"
	"sync/atomic"
)

// NounTypeCount and VerbTypeCount are the fixed cardinalities of the
// noun-type and verb-type enums. A dedicated fixed-size array keeps
// per-type counts at a constant 284 bytes regardless of corpus size,
// instead of a map keyed by type name.
const (
	NounTypeCount = 31
	VerbTypeCount = 40
)

// Counters holds atomic, relaxed-increment counters for noun and verb
// type cardinalities plus aggregate totals. Safe for concurrent use; a
// periodic flush takes a snapshot via Snapshot rather than serializing
// every increment.
type Counters struct {
	nounCounts [NounTypeCount]uint32
	verbCounts [VerbTypeCount]uint32

	hnswNodeCount uint64
	metadataCount uint64

	mu          sync.Mutex
	fieldNames  map[string]int
	standardMap map[string]string
}

// NewCounters creates an empty counter set.
func NewCounters() *Counters {
	return &Counters{
		fieldNames:  make(map[string]int),
		standardMap: make(map[string]string),
	}
}

// IncrementNoun bumps the counter for nounType, ignoring out-of-range
// indices rather than panicking — a caller passing an unrecognized
// ordinal should not crash a write path.
func (c *Counters) IncrementNoun(nounType int) {
	if nounType < 0 || nounType >= NounTypeCount {
		return
	}
	atomic.AddUint32(&c.nounCounts[nounType], 1)
}

// DecrementNoun mirrors IncrementNoun for hard deletes during cleanup.
func (c *Counters) DecrementNoun(nounType int) {
	if nounType < 0 || nounType >= NounTypeCount {
		return
	}
	atomic.AddUint32(&c.nounCounts[nounType], ^uint32(0))
}

// IncrementVerb and DecrementVerb mirror the noun counters for verb types.
func (c *Counters) IncrementVerb(verbType int) {
	if verbType < 0 || verbType >= VerbTypeCount {
		return
	}
	atomic.AddUint32(&c.verbCounts[verbType], 1)
}

func (c *Counters) DecrementVerb(verbType int) {
	if verbType < 0 || verbType >= VerbTypeCount {
		return
	}
	atomic.AddUint32(&c.verbCounts[verbType], ^uint32(0))
}

// UpdateHNSWIndexSize records the current node count of the HNSW graph.
func (c *Counters) UpdateHNSWIndexSize(n uint64) {
	atomic.StoreUint64(&c.hnswNodeCount, n)
}

// IncrementMetadataCount/DecrementMetadataCount track the number of
// metadata records held by the index.
func (c *Counters) IncrementMetadataCount() { atomic.AddUint64(&c.metadataCount, 1) }
func (c *Counters) DecrementMetadataCount() { atomic.AddUint64(&c.metadataCount, ^uint64(0)) }

// TrackFieldName increments the occurrence count of a metadata field
// name, building the registry getAvailableFieldNames reports from.
func (c *Counters) TrackFieldName(field string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fieldNames[field]++
}

// AvailableFieldNames returns every tracked field name, sorted for
// deterministic output.
func (c *Counters) AvailableFieldNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.fieldNames))
	for name := range c.fieldNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetStandardFieldMapping records that an ecosystem field alias (e.g.
// "name") maps onto a canonical metadata field.
func (c *Counters) SetStandardFieldMapping(alias, canonical string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.standardMap[alias] = canonical
}

// StandardFieldMappings returns a copy of the alias-to-canonical map.
func (c *Counters) StandardFieldMappings() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.standardMap))
	for k, v := range c.standardMap {
		out[k] = v
	}
	return out
}

// Snapshot is the point-in-time aggregate getStatistics returns.
type Snapshot struct {
	NounCounts       [NounTypeCount]uint32
	VerbCounts       [VerbTypeCount]uint32
	TotalNouns       uint64
	TotalVerbs       uint64
	HNSWNodeCount    uint64
	MetadataCount    uint64
	AvailableFields  []string
	StandardMappings map[string]string
}

// Snapshot reads every counter without halting concurrent increments;
// the result may be off by a handful of relaxed increments racing the
// read, which is acceptable for a reporting endpoint.
func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		HNSWNodeCount: atomic.LoadUint64(&c.hnswNodeCount),
		MetadataCount: atomic.LoadUint64(&c.metadataCount),
	}
	for i := range c.nounCounts {
		v := atomic.LoadUint32(&c.nounCounts[i])
		s.NounCounts[i] = v
		s.TotalNouns += uint64(v)
	}
	for i := range c.verbCounts {
		v := atomic.LoadUint32(&c.verbCounts[i])
		s.VerbCounts[i] = v
		s.TotalVerbs += uint64(v)
	}
	s.AvailableFields = c.AvailableFieldNames()
	s.StandardMappings = c.StandardFieldMappings()
	return s
}
