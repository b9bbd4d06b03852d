package purchase

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vitwit/crosspay/types"
)

// State is a step of one purchase attempt.
type State string

const (
	StateIdle                 State = "idle"
	StateValidating           State = "validating"
	StateApproving            State = "approving"
	StateSubmitting           State = "submitting"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateConfirmed            State = "confirmed"
	StateFailed               State = "failed"
)

// ErrInvalidTransition is returned for a transition missing from the table.
// It always indicates a bug in the caller.
var ErrInvalidTransition = errors.New("invalid purchase state transition")

var transitions = map[State][]State{
	StateIdle:                 {StateValidating},
	StateValidating:           {StateApproving, StateSubmitting, StateFailed},
	StateApproving:            {StateSubmitting, StateFailed},
	StateSubmitting:           {StateAwaitingConfirmation, StateFailed},
	StateAwaitingConfirmation: {StateConfirmed, StateFailed},
	StateConfirmed:            {StateIdle},
	StateFailed:               {StateIdle},
}

func (s State) IsTerminal() bool {
	return s == StateConfirmed || s == StateFailed
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

// Attempt is one run through the purchase state machine.
type Attempt struct {
	ID        string
	Kind      types.PaymentKind
	StartedAt time.Time

	mu      sync.Mutex
	state   State
	history []State
}

func newAttempt(kind types.PaymentKind) *Attempt {
	return &Attempt{
		ID:        uuid.NewString(),
		Kind:      kind,
		StartedAt: time.Now(),
		state:     StateIdle,
		history:   []State{StateIdle},
	}
}

func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// History lists every state the attempt went through, oldest first.
func (a *Attempt) History() []State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.history)
}

// Advance moves the attempt to the next state.
func (a *Attempt) Advance(to State) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !CanTransition(a.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.state, to)
	}
	a.state = to
	a.history = append(a.history, to)
	return nil
}
