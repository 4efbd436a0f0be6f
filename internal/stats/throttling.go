package stats

import "github.com/brainygraph/brainygraph/internal/storage/throttle"

// ServiceThrottle is one service's recorded backoff bucket history.
type ServiceThrottle struct {
	Service string
	Buckets [24]throttle.Bucket
}

// WithThrottling is the aggregate getStatisticsWithThrottling() returns:
// the counter snapshot plus every service's throttle bucket history.
type WithThrottling struct {
	Snapshot
	Services []ServiceThrottle
}

// Aggregate composes a Counters snapshot with a throttle.Controller's
// per-service bucket history, filtered to a single service when one is
// requested.
func Aggregate(counters *Counters, ctrl *throttle.Controller, service string) WithThrottling {
	out := WithThrottling{Snapshot: counters.Snapshot()}

	names := ctrl.Services()
	if service != "" {
		names = filterService(names, service)
	}
	for _, name := range names {
		out.Services = append(out.Services, ServiceThrottle{
			Service: name,
			Buckets: ctrl.Stats(name),
		})
	}
	return out
}

func filterService(names []string, service string) []string {
	for _, n := range names {
		if n == service {
			return []string{n}
		}
	}
	return nil
}
