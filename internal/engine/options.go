package engine

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/tablegraph/internal/termmap"
)

// RowErrorPolicy decides what happens when a single row fails to resolve.
type RowErrorPolicy int

const (
	// FailFast aborts the entity map on the first failing row.
	FailFast RowErrorPolicy = iota

	// SkipRow drops the failing row, logs it at warn level and continues.
	// Errors that are not tied to a row (unavailable sources, row limits,
	// cancellation) still abort.
	SkipRow
)

// String returns the policy name.
func (p RowErrorPolicy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case SkipRow:
		return "skip-row"
	default:
		return "unknown"
	}
}

// DefaultIndexCacheSize is the default number of parent row indexes kept
// during one Resolve call.
const DefaultIndexCacheSize = 64

// Option configures a Resolver.
type Option func(*Resolver)

// WithRowErrorPolicy sets how row-level failures are handled.
//
// Default: FailFast
func WithRowErrorPolicy(p RowErrorPolicy) Option {
	return func(r *Resolver) {
		r.rowPolicy = p
	}
}

// WithMaxRows bounds the rows pulled per entity map.
//
// Default: 0 (unlimited)
// Exceeding the limit fails the entity map with ROW_LIMIT_EXCEEDED.
func WithMaxRows(n int) Option {
	return func(r *Resolver) {
		r.maxRows = n
	}
}

// WithParallelism sets how many entity maps Resolve runs concurrently.
//
// Default: 1
func WithParallelism(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// WithRowWorkers sets how many workers resolve the rows of one entity map.
// Rows are handed to workers through an unbuffered channel.
//
// Default: 1 (rows resolved inline, in source order)
func WithRowWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.rowWorkers = n
		}
	}
}

// WithBestEffort makes Resolve record per-entity-map failures in
// Result.Errors and keep going instead of failing the whole run.
func WithBestEffort() Option {
	return func(r *Resolver) {
		r.bestEffort = true
	}
}

// WithLogger sets the structured logger.
//
// Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics registers the resolver's collectors with reg.
// Registration failures are reported by New.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(r *Resolver) {
		r.registerer = reg
	}
}

// WithBlankGenerator sets the blank node label generator.
//
// Default: termmap.NewUUIDGenerator() (fresh run ID per resolver)
func WithBlankGenerator(g termmap.BlankGenerator) Option {
	return func(r *Resolver) {
		if g != nil {
			r.blanks = g
		}
	}
}

// WithIndexCacheSize sets how many parent row indexes one Resolve call
// keeps.
//
// Default: DefaultIndexCacheSize
func WithIndexCacheSize(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.indexCacheSize = n
		}
	}
}
