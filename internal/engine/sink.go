package engine

import (
	"errors"
	"slices"
	"sync"

	"github.com/roach88/tablegraph/internal/rdf"
)

var errSinkClosed = errors.New("sink closed")

// Emitter receives the triples produced for one row as a single batch.
// row is the zero-based index of the row within its entity map.
type Emitter func(row int, triples []rdf.Triple) error

// batch is the output of one row.
type batch struct {
	row     int
	triples []rdf.Triple
}

// Sink is a thread-safe, append-only triple buffer.
//
// Row workers append whole batches, so a row's triples are never split
// or interleaved with another row's. Triples returns batches ordered by
// row index, which makes the output independent of worker scheduling.
type Sink struct {
	mu      sync.Mutex
	batches []batch
	count   int
	closed  bool
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{
		batches: make([]batch, 0, 64),
	}
}

// Append adds one row's triples.
// Thread-safe: may be called from any goroutine.
// Returns false if the sink is closed.
func (s *Sink) Append(row int, triples []rdf.Triple) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if len(triples) == 0 {
		return true
	}
	s.batches = append(s.batches, batch{row: row, triples: triples})
	s.count += len(triples)
	return true
}

// Emit is an Emitter appending to the sink.
func (s *Sink) Emit(row int, triples []rdf.Triple) error {
	if !s.Append(row, triples) {
		return errSinkClosed
	}
	return nil
}

// Len returns the number of buffered triples.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Close stops the sink from accepting more batches.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Triples returns every buffered triple, batches ordered by row index.
// The returned slice is a copy.
func (s *Sink) Triples() []rdf.Triple {
	s.mu.Lock()
	ordered := slices.Clone(s.batches)
	n := s.count
	s.mu.Unlock()

	slices.SortStableFunc(ordered, func(a, b batch) int {
		return a.row - b.row
	})
	out := make([]rdf.Triple, 0, n)
	for _, b := range ordered {
		out = append(out, b.triples...)
	}
	return out
}
