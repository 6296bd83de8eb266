package service

import (
	"sync"

	"github.com/sangkips/billdesk/pkg/apperror"
)

// SubmissionGuard rejects a mutation while an identical one is in flight
type SubmissionGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewSubmissionGuard() *SubmissionGuard {
	return &SubmissionGuard{inflight: make(map[string]struct{})}
}

// Acquire marks key as in flight. The returned release must be called once
// the mutation finishes.
func (g *SubmissionGuard) Acquire(key string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inflight[key]; busy {
		return nil, apperror.ErrSubmissionInProgress
	}
	g.inflight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}, nil
}

// InFlight reports whether key is currently held
func (g *SubmissionGuard) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inflight[key]
	return busy
}
