package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("storage: not found")
	ErrTxDone        = errors.New("storage: transaction already finished")
	ErrUnknownDriver = errors.New("storage: unknown driver")
)

const (
	DriverSQLite = "sqlite"
	DriverDiskv  = "diskv"
)

// Store is the transactional key space behind the tracker manager. Load seeds
// defaults for any missing top-level key.
type Store interface {
	Load(ctx context.Context, defaults map[string]float64) (State, error)
	Begin(ctx context.Context) (Tx, error)
	Close() error
}

// Tx groups the writes of one mutation. Nothing is visible to Load until
// Commit returns nil.
type Tx interface {
	PutTracker(in Tracker) error
	DeleteTracker(id int64) error
	PutSettings(settings map[string]float64) error
	PutNextID(next int64) error
	Commit() error
	Abort() error
}

// Open picks the backend by driver name and prepares it at path.
func Open(driver, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		return OpenSQLite(path)
	case DriverDiskv:
		return OpenDiskv(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
