// Package loader runs asynchronous loads whose results are applied only while
// they are still wanted: the owning scope is open and no newer load has
// started since.
package loader

import (
	"context"
	"errors"
	"sync"
)

// Status represents the state of the latest load of a scope.
type Status string

const (
	StatusIdle    Status = "IDLE"
	StatusLoading Status = "LOADING"
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
)

// ErrStale is returned by Run when the result arrived after the scope was
// closed or a newer load began. The result is discarded.
var ErrStale = errors.New("load result no longer relevant")

// Scope owns a sequence of loads. Each Begin supersedes the previous one and
// Close supersedes all of them.
type Scope struct {
	name string

	mu      sync.Mutex
	gen     uint64
	closed  bool
	status  Status
	lastErr error
}

// NewScope creates an open, idle scope.
func NewScope(name string) *Scope {
	return &Scope{name: name, status: StatusIdle}
}

// Name returns the scope name.
func (s *Scope) Name() string {
	return s.name
}

// Ticket identifies one load within a scope.
type Ticket struct {
	scope *Scope
	gen   uint64
}

// Begin starts a new load and marks the scope loading.
func (s *Scope) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if !s.closed {
		s.status = StatusLoading
		s.lastErr = nil
	}
	return Ticket{scope: s, gen: s.gen}
}

// Close marks the scope dead. Loads still in flight will not be applied.
func (s *Scope) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Status returns the state of the latest load.
func (s *Scope) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the error of the latest load if it failed.
func (s *Scope) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Scope) relevant(gen uint64) bool {
	return !s.closed && s.gen == gen
}

// Relevant reports whether the ticket's load is still the one the scope
// wants.
func (t Ticket) Relevant() bool {
	t.scope.mu.Lock()
	defer t.scope.mu.Unlock()
	return t.scope.relevant(t.gen)
}

// Run fetches a value and hands it to apply if the load is still relevant
// when fetch returns. apply runs with the scope locked, so a concurrent Close
// or Begin waits for it; it must not call back into the scope.
func Run[T any](ctx context.Context, s *Scope, fetch func(context.Context) (T, error), apply func(T) error) error {
	ticket := s.Begin()
	if !ticket.Relevant() {
		return ErrStale
	}

	v, err := fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.relevant(ticket.gen) {
		return ErrStale
	}
	if err != nil {
		s.status = StatusError
		s.lastErr = err
		return err
	}
	if err := apply(v); err != nil {
		s.status = StatusError
		s.lastErr = err
		return err
	}
	s.status = StatusSuccess
	return nil
}
