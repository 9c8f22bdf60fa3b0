package reactive

import (
	"reflect"
	"sync"
)

// Signal is a reactive value container. Subscribers are notified after the
// value changes according to the signal's equality function.
type Signal[T any] struct {
	id uint64

	// value is the current signal value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal decides whether Set changes the value. Nil means DeepEqual.
	equal func(T, T) bool

	// subs are the listeners subscribed to this signal.
	subs  []Listener
	subMu sync.RWMutex
}

// NewSignal creates a new signal with the given initial value.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		id:    nextID(),
		value: initial,
	}
}

// WithEquals returns the signal configured with a custom equality function.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.id
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the signal's value and notifies subscribers if it changed.
// It reports whether the value changed.
func (s *Signal[T]) Set(value T) bool {
	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return changed
}

// Update atomically reads and updates the signal's value.
// The function receives the current value and returns the new value.
func (s *Signal[T]) Update(fn func(T) T) bool {
	s.mu.Lock()
	newValue := fn(s.value)
	changed := !s.equals(s.value, newValue)
	if changed {
		s.value = newValue
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return changed
}

// Subscribe registers fn to be called with the current value after every
// change. Inside a Batch, fn runs once when the outermost batch ends.
// The returned function removes the subscription; it is safe to call twice.
func (s *Signal[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	l := &funcListener{id: nextID()}
	l.fn = func() { fn(s.Get()) }
	s.subscribe(l)

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(l) })
	}
}

// Subscribers returns the number of active subscriptions.
func (s *Signal[T]) Subscribers() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subs)
}

func (s *Signal[T]) subscribe(l Listener) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for _, existing := range s.subs {
		if existing.ID() == lid {
			return
		}
	}
	s.subs = append(s.subs, l)
}

func (s *Signal[T]) unsubscribe(l Listener) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for i, existing := range s.subs {
		if existing.ID() == lid {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// notify copies the subscriber list and notifies outside of any lock.
// Inside a batch the listeners are queued instead.
func (s *Signal[T]) notify() {
	s.subMu.RLock()
	subs := make([]Listener, len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()

	if st := currentBatch(); st != nil && st.depth > 0 {
		st.pending = append(st.pending, subs...)
		return
	}
	for _, sub := range subs {
		sub.MarkDirty()
	}
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return DeepEqual(a, b)
}

// DeepEqual reports whether a and b are deeply equal. Numbers compare by
// value whatever their Go type, so options built in Go ({"fontSize": 14})
// equal the same options decoded from JSON ({"fontSize": 14.0}). Nil and
// empty maps or slices are equal.
func DeepEqual[T any](a, b T) bool {
	return reflect.DeepEqual(normalize(any(a)), normalize(any(b)))
}

// normalize rewrites numbers as float64 and string-keyed maps and slices
// as map[string]any and []any, recursively. Other values are returned as is.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = normalize(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

// Identity compares by interface identity. Use it for signals that hold
// handles, where two distinct objects with equal fields must still differ.
// Dynamic types must be comparable (pointers, usually).
func Identity[T any](a, b T) bool {
	return any(a) == any(b)
}
