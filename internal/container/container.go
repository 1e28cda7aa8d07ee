// Package container provides an abstraction over container engine operations.
package container

import (
	"context"
	"errors"
	"io"
	"time"
)

// Sentinel errors for container operations.
var (
	ErrNotFound      = errors.New("container not found")
	ErrAlreadyExists = errors.New("container already exists")
	ErrTimeout       = errors.New("container operation timed out")
	ErrNoParser      = errors.New("engine has no parser configured")
)

// Status represents the container state.
type Status string

// Status constants represent possible container states.
const (
	StatusAbsent  Status = "absent"
	StatusCreated Status = "created"
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusError   Status = "error"
)

// CLI status strings used by container engines.
const (
	cliStatusCreated    = "created"
	cliStatusRunning    = "running"
	cliStatusRestarting = "restarting"
	cliStatusExited     = "exited"
	cliStatusPaused     = "paused"
	cliStatusStopped    = "stopped"
	cliStatusDead       = "dead"
	cliStatusRemoving   = "removing"
)

// Container holds container metadata.
type Container struct {
	ID        string
	Name      string
	Image     string
	Port      int // Host port published for the instance service port
	Status    Status
	CreatedAt time.Time
}

// Mount defines a host-to-container volume mount.
type Mount struct {
	Source   string // Host path (directory or file)
	Target   string // Container path
	ReadOnly bool
}

// CreateConfig configures container creation. Instance configuration reaches
// the container through the mounted env file, never through engine -e flags.
type CreateConfig struct {
	Name        string   // Container name (required)
	Image       string   // OCI image reference (required)
	Port        int      // Host port to publish (required)
	ServicePort int      // Container-internal service port (default 80)
	Mounts      []Mount  // Volume mounts
	AutoRemove  bool     // Remove the container when it exits (ephemeral instances)
	Flags       []string // Extra engine-specific flags
}

// ListFilter filters container listings.
type ListFilter struct {
	NamePrefix string // Filter by name prefix (empty = all)
}

// Engine provides container lifecycle operations.
//
// Only one concrete engine exists (the local Docker runtime) but the interface
// is engine-agnostic so a substitute engine or a test fake can stand in
// without touching the orchestration layer.
//
//go:generate go run github.com/matryer/moq@latest -pkg mocks -out mocks/engine.go . Engine
type Engine interface {
	// Create builds and creates a container without starting it.
	// Returns ErrAlreadyExists if a container with the same name exists.
	Create(ctx context.Context, cfg *CreateConfig) (*Container, error)

	// Start starts a created or stopped container.
	// No-op if already running.
	// Returns ErrNotFound if the container doesn't exist.
	Start(ctx context.Context, name string) error

	// Stop stops a running container gracefully, escalating to forced
	// termination after the engine's configured grace period.
	// No-op if already stopped.
	// Returns ErrNotFound if the container doesn't exist.
	Stop(ctx context.Context, name string) error

	// Remove deletes a container. The container must be stopped first.
	// Returns ErrNotFound if the container doesn't exist.
	Remove(ctx context.Context, name string) error

	// Inspect retrieves container information by name or ID.
	// Returns ErrNotFound if the container doesn't exist.
	Inspect(ctx context.Context, name string) (*Container, error)

	// Logs streams container log lines to out until ctx is cancelled.
	// Each call attaches fresh from engine-retained history; there is no
	// saved offset.
	Logs(ctx context.Context, name string, out io.Writer) error

	// List returns all containers matching the filter, running or not.
	List(ctx context.Context, filter ListFilter) ([]Container, error)
}
