package service

import (
	"sync"
	"time"

	"github.com/sangkips/billdesk/pkg/apperror"
)

// Snapshot is an immutable view of one cached collection
type Snapshot[T any] struct {
	Data      T         `json:"data"`
	Loading   bool      `json:"loading"`
	Error     string    `json:"error,omitempty"`
	Term      string    `json:"term,omitempty"`
	NoResults bool      `json:"no_results"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// collection holds one server-owned list. Every fetch takes a sequence
// number and only the latest issued one may write.
type collection[T any] struct {
	mu        sync.RWMutex
	value     T
	seq       uint64
	loading   bool
	err       string
	term      string
	noResults bool
	updatedAt time.Time

	clone func(T) T
	count func(T) int
}

func newCollection[T any](clone func(T) T, count func(T) int) *collection[T] {
	return &collection[T]{clone: clone, count: count}
}

// begin issues a sequence number and marks the collection loading
func (c *collection[T]) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.loading = true
	return c.seq
}

// finish applies the outcome of fetch seq. It reports false, leaving the
// collection untouched, when a newer fetch has been issued since.
func (c *collection[T]) finish(seq uint64, term string, value T, err error, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		return false
	}
	c.loading = false
	if err != nil {
		c.err = apperror.GetAppError(err).Message
		return true
	}
	c.value = value
	c.err = ""
	c.term = term
	c.noResults = term != "" && c.count(value) == 0
	c.updatedAt = now
	return true
}

// lastTerm is the term of the data currently held
func (c *collection[T]) lastTerm() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.term
}

func (c *collection[T]) snapshot() Snapshot[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot[T]{
		Data:      c.clone(c.value),
		Loading:   c.loading,
		Error:     c.err,
		Term:      c.term,
		NoResults: c.noResults,
		UpdatedAt: c.updatedAt,
	}
	if s.NoResults {
		s.Message = "no results for " + c.term
	}
	return s
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func countSlice[T any](in []T) int {
	return len(in)
}
