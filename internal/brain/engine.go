package brain

import "sync"

// EngineHandle models the native LLM engine's process-wide initialization,
// shared by every Chatter instance. init runs on the first Acquire,
// teardown runs on the last Release, guarded by a mutex.
type EngineHandle struct {
	mu       sync.Mutex
	refs     int
	init     func() error
	teardown func()
	initErr  error
}

// NewEngineHandle builds a handle around the given init/teardown hooks.
// Either may be nil.
func NewEngineHandle(init func() error, teardown func()) *EngineHandle {
	return &EngineHandle{init: init, teardown: teardown}
}

// Acquire increments the reference count, running init on every
// transition from 0 to 1 references (so again after a full release). A
// failed init leaves the count unchanged and is retried on the next
// Acquire.
func (h *EngineHandle) Acquire() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.refs == 0 && h.init != nil {
		h.initErr = h.init()
	}
	if h.initErr == nil {
		h.refs++
	}
	return h.initErr
}

// Release decrements the reference count, running teardown exactly once
// when the last reference is released.
func (h *EngineHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.refs == 0 {
		return
	}
	h.refs--
	if h.refs == 0 && h.teardown != nil {
		h.teardown()
	}
}

// Refs reports the current reference count, for diagnostics and tests.
func (h *EngineHandle) Refs() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refs
}
