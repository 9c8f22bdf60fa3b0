package reactive

import "sync/atomic"

// Listener is anything that can be notified when a signal changes.
type Listener interface {
	// MarkDirty notifies the listener that a signal it watches has changed.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication during batch processing.
	ID() uint64
}

// globalIDCounter is the source of unique IDs for signals and listeners.
var globalIDCounter uint64

// nextID returns the next unique ID. IDs are monotonically increasing and
// never reused.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// funcListener adapts a plain callback to Listener.
type funcListener struct {
	id uint64
	fn func()
}

func (l *funcListener) MarkDirty() { l.fn() }
func (l *funcListener) ID() uint64 { return l.id }
