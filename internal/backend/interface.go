package backend

import (
	"context"

	"tally/internal/store"
)

// Backend is an opened expense store together with its health check.
type Backend struct {
	Type  Type
	Store store.ExpenseStore

	// Ready reports whether the store can serve requests.
	Ready func(context.Context) error
}

// Close releases the store.
func (b *Backend) Close() error {
	if b == nil || b.Store == nil {
		return nil
	}
	return b.Store.Close()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Backend, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Memory specific; an empty SeedFile starts with no data.
	SeedFile string
}

// Type represents the type of backend
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
