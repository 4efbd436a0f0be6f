package brainygraph

import (
	"fmt"
	"time"

	"github.com/brainygraph/brainygraph/internal/embed"
	"github.com/brainygraph/brainygraph/internal/util"
	"github.com/rs/zerolog"
)

// Mode gates which operations the engine accepts.
type Mode int

const (
	// ModeReadWrite accepts both reads and writes.
	ModeReadWrite Mode = iota
	// ModeReadOnly rejects every mutating operation.
	ModeReadOnly
	// ModeWriteOnly rejects search operations, optionally permitting
	// direct id-based lookups when AllowDirectReads is set.
	ModeWriteOnly
	// ModeFrozen rejects the same operations as ModeReadOnly (every
	// mutating operation, statistics flushes included) and reports
	// ErrFrozen instead of ErrReadOnly.
	ModeFrozen
)

// Config holds every construction-time setting the engine consults.
type Config struct {
	StoragePath string
	Dimension   int
	Metric      util.DistanceMetric

	HNSWM              int
	HNSWEfConstruction int
	HNSWEfSearch       int

	Mode                   Mode
	AllowDirectReads       bool
	AutoCreateMissingNouns bool

	Embedder embed.Embedder

	HotCacheCapacity int
	WarmCacheTTL     time.Duration

	WALEnabled          bool
	ConnPoolConcurrency int
	RegistryCapacity    int
	RegistryTTL         time.Duration
	BatchMaxSize        int
	BatchMaxWait        time.Duration
	DedupWindow         time.Duration
	DedupMaxKeys        int

	CleanupInterval time.Duration
	CleanupMaxAge   time.Duration

	GetTimeout    time.Duration
	AddTimeout    time.Duration
	DeleteTimeout time.Duration

	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	MetricsEnabled bool
	Log            zerolog.Logger
}

func defaultConfig() *Config {
	return &Config{
		StoragePath:         "./data",
		Dimension:           384,
		Metric:              util.CosineDistance,
		HNSWM:               16,
		HNSWEfConstruction:  200,
		HNSWEfSearch:        50,
		Mode:                ModeReadWrite,
		HotCacheCapacity:    1000,
		WarmCacheTTL:        time.Hour,
		WALEnabled:          true,
		ConnPoolConcurrency: 16,
		RegistryCapacity:    100000,
		RegistryTTL:         5 * time.Minute,
		BatchMaxSize:        1000,
		BatchMaxWait:        100 * time.Millisecond,
		DedupWindow:         5 * time.Second,
		DedupMaxKeys:        1000,
		CleanupInterval:     15 * time.Minute,
		CleanupMaxAge:       time.Hour,
		GetTimeout:          30 * time.Second,
		AddTimeout:          60 * time.Second,
		DeleteTimeout:       30 * time.Second,
		MaxRetries:          3,
		InitialDelay:        time.Second,
		MaxDelay:            10 * time.Second,
		Multiplier:          2,
		MetricsEnabled:      true,
		Log:                 zerolog.Nop(),
	}
}

func (c *Config) validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive")
	}
	return nil
}

// Option configures the engine at construction time.
type Option func(*Config) error

// WithStoragePath sets the directory the filesystem storage adapter
// persists entities under.
func WithStoragePath(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return fmt.Errorf("storage path cannot be empty")
		}
		c.StoragePath = path
		return nil
	}
}

// WithDimension sets the vector dimension every noun and verb vector
// must match, validated at New() time against the configured embedder's
// probe output.
func WithDimension(dim int) Option {
	return func(c *Config) error {
		if dim <= 0 {
			return fmt.Errorf("dimension must be positive")
		}
		c.Dimension = dim
		return nil
	}
}

// WithMetric sets the HNSW distance function.
func WithMetric(metric util.DistanceMetric) Option {
	return func(c *Config) error {
		c.Metric = metric
		return nil
	}
}

// WithHNSW configures the HNSW graph's tuning parameters.
func WithHNSW(m, efConstruction, efSearch int) Option {
	return func(c *Config) error {
		if m <= 0 || efConstruction <= 0 || efSearch <= 0 {
			return fmt.Errorf("HNSW parameters must be positive")
		}
		c.HNSWM = m
		c.HNSWEfConstruction = efConstruction
		c.HNSWEfSearch = efSearch
		return nil
	}
}

// WithEmbedder supplies the embedding collaborator used when addNoun or
// addVerb is called without a vector already attached.
func WithEmbedder(embedder embed.Embedder) Option {
	return func(c *Config) error {
		c.Embedder = embedder
		return nil
	}
}

// WithMode sets the engine's read/write mode. Mode holds a single value,
// so ModeReadOnly and ModeWriteOnly cannot be set together; a later
// WithMode replaces an earlier one.
func WithMode(mode Mode) Option {
	return func(c *Config) error {
		c.Mode = mode
		return nil
	}
}

// WithAllowDirectReads permits id-based lookups to bypass the HNSW index
// while in write-only mode.
func WithAllowDirectReads(allow bool) Option {
	return func(c *Config) error {
		c.AllowDirectReads = allow
		return nil
	}
}

// WithAutoCreateMissingNouns enables placeholder creation of a verb's
// missing endpoints instead of rejecting the verb.
func WithAutoCreateMissingNouns(enabled bool) Option {
	return func(c *Config) error {
		c.AutoCreateMissingNouns = enabled
		return nil
	}
}

// WithCache configures the hot-tier item capacity and warm-tier TTL.
func WithCache(hotCapacity int, warmTTL time.Duration) Option {
	return func(c *Config) error {
		if hotCapacity <= 0 {
			return fmt.Errorf("hot cache capacity must be positive")
		}
		c.HotCacheCapacity = hotCapacity
		c.WarmCacheTTL = warmTTL
		return nil
	}
}

// WithWAL enables or disables write-ahead logging, primarily for
// disabling durability overhead under test mode.
func WithWAL(enabled bool) Option {
	return func(c *Config) error {
		c.WALEnabled = enabled
		return nil
	}
}

// WithConnPoolConcurrency bounds concurrent outbound storage operations.
func WithConnPoolConcurrency(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("connection pool concurrency must be positive")
		}
		c.ConnPoolConcurrency = n
		return nil
	}
}

// WithCleanup configures the soft-delete reclamation interval and age
// threshold.
func WithCleanup(interval, maxAge time.Duration) Option {
	return func(c *Config) error {
		if interval <= 0 || maxAge <= 0 {
			return fmt.Errorf("cleanup interval and max age must be positive")
		}
		c.CleanupInterval = interval
		c.CleanupMaxAge = maxAge
		return nil
	}
}

// WithRetryPolicy configures the exponential backoff applied to
// transient failures.
func WithRetryPolicy(maxRetries int, initialDelay, maxDelay time.Duration, multiplier float64) Option {
	return func(c *Config) error {
		if maxRetries < 0 || multiplier <= 1 {
			return fmt.Errorf("invalid retry policy")
		}
		c.MaxRetries = maxRetries
		c.InitialDelay = initialDelay
		c.MaxDelay = maxDelay
		c.Multiplier = multiplier
		return nil
	}
}

// WithMetrics enables or disables Prometheus metrics registration.
func WithMetrics(enabled bool) Option {
	return func(c *Config) error {
		c.MetricsEnabled = enabled
		return nil
	}
}

// WithLogger sets the structured logger every engine component logs
// through.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Config) error {
		c.Log = log
		return nil
	}
}
