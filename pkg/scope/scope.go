package scope

import (
	"sync"
	"sync/atomic"
)

var idCounter uint64

// Scope represents one mounted component: it owns child scopes, cleanup
// functions and the values it provides to its descendants.
//
// Scopes form a hierarchy that mirrors the component tree: a provider scope
// contains an elements scope, which contains one scope per widget. Disposing
// a scope unmounts everything below it.
type Scope struct {
	id   uint64
	name string

	// parent is nil for a root scope.
	parent *Scope

	children   []*Scope
	childrenMu sync.Mutex

	// cleanups run in reverse registration order on Dispose.
	cleanups   []func()
	cleanupsMu sync.Mutex

	// values are provided to this scope and its descendants.
	values   map[any]any
	valuesMu sync.RWMutex

	disposed atomic.Bool
}

// New creates a scope under parent. A nil parent creates a root scope.
func New(parent *Scope) *Scope {
	return NewNamed(parent, "")
}

// NewNamed creates a named scope under parent. Names only appear in logs.
func NewNamed(parent *Scope, name string) *Scope {
	s := &Scope{
		id:     atomic.AddUint64(&idCounter, 1),
		name:   name,
		parent: parent,
	}
	if parent != nil {
		if parent.Disposed() {
			// Mounting under an unmounted parent leaves the child dead on arrival.
			s.disposed.Store(true)
			return s
		}
		parent.addChild(s)
	}
	return s
}

// ID returns the unique identifier for this scope.
func (s *Scope) ID() uint64 {
	return s.id
}

// Name returns the scope name given at creation.
func (s *Scope) Name() string {
	return s.name
}

// Parent returns the parent scope, or nil for a root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Disposed reports whether the scope has been disposed.
func (s *Scope) Disposed() bool {
	return s.disposed.Load()
}

func (s *Scope) addChild(child *Scope) {
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()
	s.children = append(s.children, child)
}

func (s *Scope) removeChild(child *Scope) {
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()

	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// Children returns a snapshot of the live child scopes.
func (s *Scope) Children() []*Scope {
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()
	return append([]*Scope(nil), s.children...)
}

// OnCleanup registers fn to run when the scope is disposed.
// If the scope is already disposed, fn runs immediately.
func (s *Scope) OnCleanup(fn func()) {
	if s.disposed.Load() {
		fn()
		return
	}

	s.cleanupsMu.Lock()
	defer s.cleanupsMu.Unlock()
	s.cleanups = append(s.cleanups, fn)
}

// Set stores a value on this scope.
func (s *Scope) Set(key, value any) {
	s.valuesMu.Lock()
	defer s.valuesMu.Unlock()

	if s.values == nil {
		s.values = make(map[any]any)
	}
	s.values[key] = value
}

// Lookup retrieves a value from this scope or the nearest ancestor that
// provides it. A nil scope finds nothing.
func (s *Scope) Lookup(key any) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		cur.valuesMu.RLock()
		v, ok := cur.values[key]
		cur.valuesMu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// Dispose disposes this scope and all its children, then runs cleanups.
// Children are disposed in reverse order (last created first) and cleanups
// run in reverse registration order. Dispose is idempotent.
func (s *Scope) Dispose() {
	if s.disposed.Swap(true) {
		return
	}

	if s.parent != nil {
		s.parent.removeChild(s)
	}

	s.childrenMu.Lock()
	children := s.children
	s.children = nil
	s.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	s.cleanupsMu.Lock()
	cleanups := s.cleanups
	s.cleanups = nil
	s.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}
