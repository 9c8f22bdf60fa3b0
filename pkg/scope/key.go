package scope

// Key is a typed handle for values provided through the scope tree.
// Keys compare by identity, so each package declares its own.
type Key[T any] struct {
	name string
}

// NewKey creates a key. The name is used in diagnostics only.
func NewKey[T any](name string) *Key[T] {
	return &Key[T]{name: name}
}

// String returns the key name.
func (k *Key[T]) String() string {
	return k.name
}

// Provide makes v available to s and its descendants.
func (k *Key[T]) Provide(s *Scope, v T) {
	s.Set(k, v)
}

// Inject returns the value provided by the nearest ancestor of s (including s).
func (k *Key[T]) Inject(s *Scope) (T, bool) {
	var zero T
	v, ok := s.Lookup(k)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
