package fsm

import "sync"

// Observer is notified after a successful transition. It is invoked after
// the state lock has been released, so an observer may safely call back
// into Dispatch without deadlocking.
type Observer func(from, to State, event Event, note string)

// Machine is the pipeline's single source of truth for its current phase.
// Dispatch is safe to call from any goroutine; reads of the current state
// are atomic snapshots taken under a short-lived lock.
type Machine struct {
	mu       sync.Mutex
	state    State
	observer Observer
}

// New creates a machine in the Boot state with the given observer.
// observer may be nil.
func New(observer Observer) *Machine {
	return &Machine{state: Boot, observer: observer}
}

// State returns an atomic snapshot of the current phase.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Dispatch atomically applies event to the current state per the transition
// table and, on a successful transition, notifies the observer after the
// lock is released. It returns whether a transition occurred.
func (m *Machine) Dispatch(event Event, note string) bool {
	m.mu.Lock()
	from := m.state
	to, ok := next(from, event)
	if ok {
		m.state = to
	}
	m.mu.Unlock()

	if ok && m.observer != nil {
		m.observer(from, to, event, note)
	}
	return ok
}
