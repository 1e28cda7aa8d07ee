// Package registry provides durable storage for declared instances.
//
// The registry holds declared configuration only (name, port, ephemeral flag,
// creation time). Runtime status is never written here; the container engine is
// the sole source of truth for liveness and the two are reconciled read-only at
// query time.
package registry

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for registry operations.
var (
	ErrNotFound      = errors.New("instance not found")
	ErrAlreadyExists = errors.New("instance already exists")
	ErrLockTimeout   = errors.New("failed to acquire registry lock")
)

// Instance is a persisted instance record.
//
// Paths are intentionally absent: they are derived from Name and the
// configured base directory so the registry file stays portable.
type Instance struct {
	Name      string    `json:"name"`
	Port      int       `json:"port"`
	Ephemeral bool      `json:"ephemeral"`
	CreatedAt time.Time `json:"created_at"`
}

// Store provides persistent storage for instance records.
//
//go:generate go run github.com/matryer/moq@latest -pkg mocks -out mocks/store.go . Store
type Store interface {
	// Get retrieves an instance by name.
	// Returns ErrNotFound if not found.
	Get(ctx context.Context, name string) (*Instance, error)

	// Upsert creates or replaces the instance record keyed by its name.
	Upsert(ctx context.Context, inst Instance) error

	// Remove deletes an instance record by name.
	// Returns ErrNotFound if not found.
	Remove(ctx context.Context, name string) error

	// List returns all instance records sorted by name.
	List(ctx context.Context) ([]Instance, error)
}
