// Package storage defines the versioned-store abstraction that persists note
// records. The core never talks to a version-control backend directly: it
// writes whole records and asks the store to record a descriptive change,
// leaving branching, merging, and sync to the backend itself.
package storage

// Change is one entry in the store's change log.
type Change struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Store is the adapter contract for the external versioned store.
type Store interface {
	// Init prepares the store for use, creating it if absent.
	Init() error
	// ReadAll returns every raw note record in the current snapshot.
	ReadAll() ([][]byte, error)
	// Write persists a single record atomically under the given id.
	Write(id string, data []byte) error
	// RecordChange appends one descriptive entry to the store's history.
	// Callers invoke it after a successful Write so history reads as an
	// audit log of logical note operations.
	RecordChange(description string) error
	// History returns the change log entries that touched the given note,
	// newest first.
	History(id string) ([]Change, error)
	// Changes returns up to limit entries of the whole-store change log,
	// newest first. limit <= 0 means no limit.
	Changes(limit int) ([]Change, error)
}
