package di

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/lightestnight/di/errorx"
)

// scope owns the scoped services it resolved and the disposables it
// captured. The root scope belongs to the container itself.
type scope struct {
	container *container
	isRoot    bool

	mu          sync.Mutex
	entries     map[planKey]*scopedEntry
	disposables []Disposable
	disposed    atomic.Bool
}

func newScope(c *container, isRoot bool) *scope {
	return &scope{
		container: c,
		isRoot:    isRoot,
		entries:   make(map[planKey]*scopedEntry),
	}
}

// scopedEntry holds one scoped service of a scope.
type scopedEntry struct {
	mu    sync.Mutex
	built bool
	value any
}

func (s *scope) entry(key planKey) *scopedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &scopedEntry{}
		s.entries[key] = e
	}
	return e
}

func (s *scope) Get(serviceType reflect.Type) (any, error) {
	if s.disposed.Load() {
		return nil, &errorx.ObjectDisposedError{Message: fmt.Sprintf("the scope resolving '%v' is disposed", serviceType)}
	}
	return s.container.get(serviceType, s)
}

func (s *scope) Container() Container {
	return s
}

func (s *scope) CreateScope() Scope {
	return s.container.CreateScope()
}

// Dispose disposes the captured services in reverse order of creation.
// Disposing the root scope disposes the container.
func (s *scope) Dispose() {
	s.mu.Lock()
	if s.disposed.Swap(true) {
		s.mu.Unlock()
		return
	}
	disposables := s.disposables
	s.disposables = nil
	s.mu.Unlock()

	if s.isRoot {
		s.container.disposed.Store(true)
	}

	for i := len(disposables) - 1; i >= 0; i-- {
		disposables[i].Dispose()
	}
}

// capture records v for disposal when it is Disposable. A service built
// after the scope was disposed is disposed at once.
func (s *scope) capture(v any) error {
	d, ok := v.(Disposable)
	if !ok || v == any(s) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed.Load() {
		d.Dispose()
		return fmt.Errorf("capture disposable service '%v', scope disposed", reflect.TypeOf(v))
	}
	s.disposables = append(s.disposables, d)
	return nil
}
