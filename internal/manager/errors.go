package manager

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSelection = errors.New("manager: invalid selection")
	ErrUnknownTracker   = errors.New("manager: unknown tracker")
	ErrUnknownSetting   = errors.New("manager: unknown setting")
	ErrInvalidSetting   = errors.New("manager: invalid setting value")
	ErrInvalidPage      = errors.New("manager: invalid page")
	ErrInvalidSort      = errors.New("manager: invalid sort order")
	ErrPersistence      = errors.New("manager: persistence failure")
	ErrNotLoaded        = errors.New("manager: store was not loaded, changes are disabled")
)

// PersistenceError wraps a store failure. In-memory state is unchanged when
// it is returned from a mutation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("manager: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
