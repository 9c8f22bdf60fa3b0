package reactive

import (
	"runtime"
	"sync"
)

// batchState holds per-goroutine batch bookkeeping.
type batchState struct {
	depth   int
	pending []Listener
}

// batchStates maps goroutine IDs to their batch state.
var batchStates sync.Map

// getGoroutineID returns the current goroutine's ID.
// Parsing the stack header is slow but only happens on Set and Batch.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

func currentBatch() *batchState {
	gid := getGoroutineID()
	if st, ok := batchStates.Load(gid); ok {
		return st.(*batchState)
	}
	return nil
}

func enterBatch() {
	gid := getGoroutineID()
	st, _ := batchStates.LoadOrStore(gid, &batchState{})
	st.(*batchState).depth++
}

// leaveBatch decrements the depth and returns the pending listeners when the
// outermost batch ends.
func leaveBatch() ([]Listener, bool) {
	gid := getGoroutineID()
	v, ok := batchStates.Load(gid)
	if !ok {
		return nil, false
	}
	st := v.(*batchState)
	st.depth--
	if st.depth > 0 {
		return nil, false
	}
	batchStates.Delete(gid)
	return st.pending, true
}
