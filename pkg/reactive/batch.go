package reactive

// Batch groups multiple signal updates into a single notification phase.
// All signal updates within fn are collected, deduplicated per listener,
// and each affected listener is notified once when the batch completes.
//
// Batches can be nested. Notifications only fire when the outermost batch
// completes. Batches are scoped to the calling goroutine.
//
// Example:
//
//	reactive.Batch(func() {
//	    options.Set(sdk.Options{"hidePostalCode": true})
//	    options.Set(sdk.Options{"hidePostalCode": true, "disabled": true})
//	})
//	// The controller pushes one update with the final options.
func Batch(fn func()) {
	enterBatch()

	defer func() {
		if pending, done := leaveBatch(); done {
			notifyUnique(pending)
		}
	}()

	fn()
}

// notifyUnique deduplicates listeners by ID and notifies each once.
func notifyUnique(listeners []Listener) {
	if len(listeners) == 0 {
		return
	}

	seen := make(map[uint64]bool, len(listeners))
	for _, l := range listeners {
		id := l.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		l.MarkDirty()
	}
}
