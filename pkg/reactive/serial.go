package reactive

import "sync"

// Serial runs scheduled functions one at a time, in scheduling order, and
// never while the scheduler holds its own lock.
//
// The usual pattern is to decide a state transition under a mutex, Schedule
// its publication while still holding it, release the mutex, then Flush:
//
//	e.mu.Lock()
//	e.gen++
//	e.pub.Schedule(func() { e.state.Set(next) })
//	e.mu.Unlock()
//	e.pub.Flush()
//
// Subscribers run from Flush, so they may call back into the owner. A
// function scheduled from inside a running one, or by another goroutine
// while a Flush is draining, is run by the draining goroutine after the
// current one returns.
type Serial struct {
	mu      sync.Mutex
	pending []func()
	running bool
}

// Schedule queues fn. It does not run it.
func (s *Serial) Schedule(fn func()) {
	s.mu.Lock()
	s.pending = append(s.pending, fn)
	s.mu.Unlock()
}

// Flush runs queued functions until the queue is empty. It returns at once
// when another Flush is already draining the queue.
func (s *Serial) Flush() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	for len(s.pending) > 0 {
		fn := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()
		s.run(fn)
		s.mu.Lock()
	}
	s.running = false
	s.mu.Unlock()
}

// run executes fn and clears the draining flag if fn panics, so a
// panicking subscriber does not stall every later publication.
func (s *Serial) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			panic(r)
		}
	}()
	fn()
}
