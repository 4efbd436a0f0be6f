// Package throttle implements write-pressure backoff and hourly-bucketed
// throttle statistics, adapted from a circuit-breaker state machine into a
// backoff controller for internal write pressure rather than an external
// service dependency.
package throttle

import (
	"sort"
	"sync"
	"time"
)

const (
	baseBackoff  = 1000 * time.Millisecond
	maxBackoff   = 30000 * time.Millisecond
	resetAfter   = 60 * time.Second
	bucketCount  = 24
)

// Bucket counts throttle events for one hour-of-day slot, by reason.
type Bucket struct {
	Hour   int            `json:"hour"`
	Counts map[string]int `json:"counts"`
}

// Controller tracks exponential backoff per service and records bucketed
// throttle events for getStatistics reporting.
type Controller struct {
	mu sync.Mutex

	failures        map[string]int
	lastFailureAt   map[string]time.Time
	lastSuccessAt   map[string]time.Time
	buckets         map[string][bucketCount]Bucket
}

// NewController creates an empty throttle controller.
func NewController() *Controller {
	return &Controller{
		failures:      make(map[string]int),
		lastFailureAt: make(map[string]time.Time),
		lastSuccessAt: make(map[string]time.Time),
		buckets:       make(map[string][bucketCount]Bucket),
	}
}

// Backoff returns the delay the caller should wait before retrying
// service. It is 0 for a service with no recorded failures (RecordSuccess
// resets the count) and while its last success is less than resetAfter old;
// otherwise it starts at baseBackoff and doubles with each further recorded
// failure, capped at maxBackoff.
func (c *Controller) Backoff(service string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.lastSuccessAt[service]; ok && time.Since(last) < resetAfter {
		return 0
	}

	n := c.failures[service]
	if n == 0 {
		return 0
	}

	delay := baseBackoff
	for i := 1; i < n; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// RecordFailure records a failed attempt for service and reason, bumping
// its backoff level and incrementing the current hour's bucket.
func (c *Controller) RecordFailure(service, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failures[service]++
	c.lastFailureAt[service] = time.Now()
	c.bumpBucketLocked(service, reason)
}

// RecordSuccess resets service's backoff level.
func (c *Controller) RecordSuccess(service string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failures[service] = 0
	c.lastSuccessAt[service] = time.Now()
}

// Stats returns the 24 hourly buckets recorded for service.
func (c *Controller) Stats(service string) [bucketCount]Bucket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buckets[service]
}

// Services lists every service name with recorded failure or bucket
// history, sorted for deterministic reporting.
func (c *Controller) Services() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[string]struct{})
	for svc := range c.failures {
		seen[svc] = struct{}{}
	}
	for svc := range c.buckets {
		seen[svc] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for svc := range seen {
		names = append(names, svc)
	}
	sort.Strings(names)
	return names
}

func (c *Controller) bumpBucketLocked(service, reason string) {
	hour := time.Now().Hour()
	buckets, ok := c.buckets[service]
	if !ok {
		for i := range buckets {
			buckets[i] = Bucket{Hour: i, Counts: make(map[string]int)}
		}
	}
	if buckets[hour].Counts == nil {
		buckets[hour] = Bucket{Hour: hour, Counts: make(map[string]int)}
	}
	buckets[hour].Counts[reason]++
	c.buckets[service] = buckets
}
