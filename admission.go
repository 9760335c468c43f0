package framerelay

import (
	"sync"
)

// DefaultCapacity is the number of slots a server offers unless configured otherwise.
const DefaultCapacity = 8

// Admission tracks how many connection slots are in use.
// All counter updates go through one mutex, so concurrent admits and releases
// never lose updates and the counter stays within [0, capacity].
type Admission struct {
	mu       sync.Mutex
	capacity int
	used     int
}

// NewAdmission creates an admission controller with the given number of slots.
// A non-positive capacity selects DefaultCapacity.
func NewAdmission(capacity int) *Admission {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Admission{capacity: capacity}
}

// TryAdmit takes a slot if one is free. It has no effect when it returns false.
func (a *Admission) TryAdmit() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.used >= a.capacity {
		return false
	}
	a.used++
	return true
}

// Release frees a slot. The counter never drops below zero.
// Prefer Acquire, whose Slot guards against releasing twice.
func (a *Admission) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.used > 0 {
		a.used--
	}
}

// Acquire takes a slot and returns a ticket for it, or ErrAdmissionRejected.
func (a *Admission) Acquire() (*Slot, error) {
	if !a.TryAdmit() {
		return nil, ErrAdmissionRejected
	}
	return &Slot{admission: a}, nil
}

// Used returns the number of occupied slots.
func (a *Admission) Used() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// Capacity returns the total number of slots.
func (a *Admission) Capacity() int {
	return a.capacity
}

// Available returns the number of free slots.
func (a *Admission) Available() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capacity - a.used
}

// Slot is one admitted connection's claim on the server capacity.
type Slot struct {
	admission *Admission
	once      sync.Once
}

// Release returns the slot to its controller. Only the first call has an effect.
func (s *Slot) Release() {
	s.once.Do(s.admission.Release)
}
