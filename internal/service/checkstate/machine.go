package checkstate

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/attendance"
)

type State string

const (
	StateCheckedOut    State = "CHECKED_OUT"
	StateCheckedIn     State = "CHECKED_IN"
	StateTransitioning State = "TRANSITIONING"
)

// CommitFunc performs the backend call for the requested state. checkIn is
// true for a check-in and false for a check-out.
type CommitFunc func(ctx context.Context, checkIn bool) error

// Machine tracks one employee's confirmed check state. The state only flips
// after the backend acknowledges the corresponding call.
type Machine struct {
	mu            sync.Mutex
	checkedIn     bool
	transitioning bool
}

func NewMachine(checkedIn bool) *Machine {
	return &Machine{checkedIn: checkedIn}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.transitioning:
		return StateTransitioning
	case m.checkedIn:
		return StateCheckedIn
	default:
		return StateCheckedOut
	}
}

// CheckedIn returns the last confirmed state, ignoring any in-flight toggle.
func (m *Machine) CheckedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkedIn
}

func (m *Machine) Transitioning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitioning
}

// Sync applies a state fetched from the backend. It is ignored while a
// toggle is in flight and reports whether it was applied.
func (m *Machine) Sync(checkedIn bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.transitioning {
		return false
	}
	m.checkedIn = checkedIn
	return true
}

// Toggle requests the opposite of the confirmed state through commit.
// A toggle while another is in flight fails with ErrCheckInProgress and
// commit is not called. On commit failure the prior state is kept.
func (m *Machine) Toggle(ctx context.Context, commit CommitFunc) (bool, error) {
	m.mu.Lock()
	if m.transitioning {
		checkedIn := m.checkedIn
		m.mu.Unlock()
		return checkedIn, attendance.ErrCheckInProgress
	}
	target := !m.checkedIn
	m.transitioning = true
	m.mu.Unlock()

	err := commit(ctx, target)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitioning = false
	if err != nil {
		return m.checkedIn, err
	}
	m.checkedIn = target
	return target, nil
}
