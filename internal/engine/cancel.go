package engine

import (
	"sync"

	"github.com/google/uuid"
)

// Canceler is the cancel capability of an in-flight statement.
type Canceler interface {
	Cancel() error
}

// CancelStack delivers external interrupts to the statement currently
// executing. The execution goroutine pushes a handle before executing and
// releases it on every exit path; an interrupt deliverer may invoke
// CancelCurrent from any goroutine at any time. Nested statement execution
// (a contained cursor materialized mid-result) does not push a handle;
// only the outermost statement is cancellable per invocation.
type CancelStack struct {
	mu      sync.Mutex
	handles []cancelHandle
}

type cancelHandle struct {
	id     uuid.UUID
	target Canceler
}

// NewCancelStack creates an empty stack.
func NewCancelStack() *CancelStack {
	return &CancelStack{}
}

// Push binds the cancel capability to the statement entering execution and
// returns the release func. The release must run on every exit path
// (defer it immediately); it is idempotent.
func (s *CancelStack) Push(target Canceler) func() {
	id := uuid.New()
	s.mu.Lock()
	s.handles = append(s.handles, cancelHandle{id: id, target: target})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := len(s.handles) - 1; i >= 0; i-- {
			if s.handles[i].id == id {
				s.handles = append(s.handles[:i], s.handles[i+1:]...)
				return
			}
		}
	}
}

// CancelCurrent invokes the topmost handle's cancel capability. It reports
// false when no statement is executing. Cancellation surfaces through the
// execution loop's normal failure path, not here.
func (s *CancelStack) CancelCurrent() bool {
	s.mu.Lock()
	var target Canceler
	if n := len(s.handles); n > 0 {
		target = s.handles[n-1].target
	}
	s.mu.Unlock()

	if target == nil {
		return false
	}
	_ = target.Cancel()
	return true
}

// Depth reports how many handles are on the stack.
func (s *CancelStack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}
