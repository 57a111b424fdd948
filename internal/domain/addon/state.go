package addon

import (
	"errors"
	"fmt"
	"slices"
)

// State is a step of the addon lifecycle.
type State string

const (
	StateIdle        State = "idle"
	StateUpdatable   State = "updatable"
	StateDownloading State = "downloading"
	StateUnpacking   State = "unpacking"
	StateFingerprint State = "fingerprint"
	StateCompleted   State = "completed"
	StateIgnored     State = "ignored"
	StateRetry       State = "retry"
	StateError       State = "error"
)

// ErrInvalidTransition is returned when a state change is not allowed.
var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[State][]State{
	StateIdle:        {StateUpdatable, StateDownloading, StateIgnored, StateFingerprint},
	StateUpdatable:   {StateIdle, StateDownloading, StateIgnored, StateFingerprint},
	StateDownloading: {StateUnpacking, StateRetry, StateError},
	StateUnpacking:   {StateFingerprint, StateRetry, StateError},
	StateFingerprint: {StateCompleted, StateRetry, StateError},
	StateCompleted:   {StateIdle, StateUpdatable, StateDownloading},
	StateIgnored:     {StateIdle, StateUpdatable},
	StateRetry:       {StateDownloading, StateIdle, StateUpdatable, StateError},
	StateError:       {StateIdle, StateUpdatable, StateDownloading, StateRetry},
}

// CanTransition reports whether from -> to is allowed. Staying in the same
// state always is.
func CanTransition(from, to State) bool {
	return from == to || slices.Contains(transitions[from], to)
}

// Stable reports whether s is kept between refresh cycles.
func (s State) Stable() bool {
	return s == StateIdle || s == StateUpdatable
}

func (s State) String() string { return string(s) }

func transitionError(from, to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
