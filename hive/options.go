package hive

import (
	"io"
	"log/slog"
)

const (
	// DefaultMaxDepth bounds key nesting during tree construction.
	DefaultMaxDepth = 512
	// DefaultLookupCacheSize is the number of Find results kept.
	DefaultLookupCacheSize = 1024
)

// Option configures Decode and Open.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	maxDepth  int
	cacheSize int
}

func defaultOptions() options {
	return options{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxDepth:  DefaultMaxDepth,
		cacheSize: DefaultLookupCacheSize,
	}
}

// WithLogger routes decoder diagnostics to l. Events are logged at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxDepth sets the deepest key nesting expanded; deeper keys are kept
// but not expanded, and a DepthLimit anomaly is recorded. Values below 1
// are ignored.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithLookupCacheSize sets the number of path lookups Find caches. Zero
// disables caching.
func WithLookupCacheSize(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.cacheSize = n
		}
	}
}
