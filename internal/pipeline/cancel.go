package pipeline

import "sync/atomic"

// CancelToken is spec.md §5's shared, single-set cancellation flag: reads
// are lock-free, writes happen once. A page checks it when it starts, before
// its LLM call and again after that call returns; an in-flight LLM call is
// allowed to finish but its result is discarded
// (spec.md §8 invariant 9).
type CancelToken struct {
	flag atomic.Bool
}

// NewCancelToken returns an unset token.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel sets the token. Safe to call more than once or concurrently.
func (c *CancelToken) Cancel() {
	c.flag.Store(true)
}

// Cancelled reports whether the token has been set.
func (c *CancelToken) Cancelled() bool {
	return c.flag.Load()
}
