package engine

import "sync/atomic"

// Counter counts rows across the workers of a run.
//
// Counts come from the rows pulled, never from wall time, so runs over the
// same data report the same numbers. Safe for concurrent use.
type Counter struct {
	n atomic.Int64
}

// Inc counts one and returns the new total. Each concurrent caller sees a
// distinct value.
func (c *Counter) Inc() int64 {
	return c.n.Add(1)
}

// Load returns the total without counting.
func (c *Counter) Load() int64 {
	return c.n.Load()
}
