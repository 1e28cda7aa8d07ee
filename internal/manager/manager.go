// Package manager provides high-level instance lifecycle orchestration.
//
// It sequences the registry, port allocator, workspace materializer and
// container engine behind a single facade used by both the CLI and the web
// API so errors and semantics stay consistent between the two.
package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/daemon-zero/dzman/internal/container"
	"github.com/daemon-zero/dzman/internal/ports"
	"github.com/daemon-zero/dzman/internal/registry"
	"github.com/daemon-zero/dzman/internal/slogger"
	"github.com/daemon-zero/dzman/internal/workspace"
)

// containerNamePrefix is the prefix for all managed containers.
const containerNamePrefix = "daemon-zero-"

// Sentinel errors for instance operations.
var (
	ErrNotFound      = errors.New("instance not found")
	ErrAlreadyExists = errors.New("instance already exists")
)

// registryStore is the internal interface for registry operations.
type registryStore interface {
	Get(ctx context.Context, name string) (*registry.Instance, error)
	Upsert(ctx context.Context, inst registry.Instance) error
	Remove(ctx context.Context, name string) error
	List(ctx context.Context) ([]registry.Instance, error)
}

// containerEngine is the internal interface for container engine operations.
type containerEngine interface {
	Create(ctx context.Context, cfg *container.CreateConfig) (*container.Container, error)
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
	Inspect(ctx context.Context, name string) (*container.Container, error)
	Logs(ctx context.Context, name string, out io.Writer) error
	List(ctx context.Context, filter container.ListFilter) ([]container.Container, error)
}

// Instance is the caller-facing view of one instance: declared configuration
// from the registry joined with live status from the engine.
type Instance struct {
	Name        string           `json:"name"`
	Port        int              `json:"port"`
	Ephemeral   bool             `json:"ephemeral"`
	CreatedAt   time.Time        `json:"created_at"`
	Status      container.Status `json:"status"`
	ContainerID string           `json:"container_id,omitempty"`
}

// StartOptions configures instance start.
type StartOptions struct {
	Ephemeral bool // Only honored on first creation; existing instances keep their flag
	Port      int  // Preferred host port (0 = auto-assign)
}

// Config configures the Manager.
type Config struct {
	Image       string            // OCI image for instance containers
	Env         map[string]string // Manager-held config written to each instance .env
	EngineFlags []string          // Extra flags passed through to the engine
	PurgeOnStop bool              // Purge ephemeral workspace/memory on stop (not only on delete)
}

// Manager orchestrates instance lifecycle operations.
type Manager struct {
	store  registryStore
	engine containerEngine
	mat    *workspace.Materializer
	alloc  *ports.Allocator
	cfg    Config

	locks   *nameLocks
	allocMu chan struct{} // Serializes port allocation across instance names
}

// NewManager creates a new instance manager.
func NewManager(store registryStore, engine containerEngine, mat *workspace.Materializer, alloc *ports.Allocator, cfg Config) *Manager {
	return &Manager{
		store:   store,
		engine:  engine,
		mat:     mat,
		alloc:   alloc,
		cfg:     cfg,
		locks:   newNameLocks(),
		allocMu: make(chan struct{}, 1),
	}
}

// List returns all registered instances with their live status.
// A failing status query degrades that one instance to StatusError rather
// than aborting the whole listing.
func (m *Manager) List(ctx context.Context) ([]Instance, error) {
	entries, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list registry: %w", err)
	}

	instances := make([]Instance, 0, len(entries))
	for i := range entries {
		instances = append(instances, m.joinStatus(ctx, &entries[i]))
	}
	return instances, nil
}

// Get retrieves one instance with its live status.
func (m *Manager) Get(ctx context.Context, name string) (*Instance, error) {
	if err := workspace.ValidateName(name); err != nil {
		return nil, err
	}

	entry, err := m.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get registry entry: %w", err)
	}

	inst := m.joinStatus(ctx, entry)
	return &inst, nil
}

// Start creates the instance if absent, then starts it. Starting a running
// instance is a no-op returning success.
func (m *Manager) Start(ctx context.Context, name string, opts StartOptions) (*Instance, error) {
	if err := workspace.ValidateName(name); err != nil {
		return nil, err
	}

	unlock := m.locks.lock(name)
	defer unlock()

	entry, err := m.store.Get(ctx, name)
	if err != nil {
		if !errors.Is(err, registry.ErrNotFound) {
			return nil, fmt.Errorf("get registry entry: %w", err)
		}
		return m.startNew(ctx, name, opts)
	}

	return m.startExisting(ctx, entry)
}

// startNew allocates resources and creates a brand-new instance.
// Caller holds the per-name lock.
func (m *Manager) startNew(ctx context.Context, name string, opts StartOptions) (*Instance, error) {
	entry, err := m.allocateAndRecord(ctx, name, opts)
	if err != nil {
		return nil, err
	}

	// Cleanup on failure so a half-created instance doesn't occupy the name
	// and its port forever.
	cleanup := func() {
		_ = m.store.Remove(ctx, name) //nolint:errcheck // best-effort cleanup
	}

	paths, err := m.mat.Ensure(name, m.cfg.Env)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("materialize instance: %w", err)
	}

	c, err := m.engine.Create(ctx, m.createConfig(entry, paths))
	if err != nil {
		if errors.Is(err, container.ErrAlreadyExists) {
			// A container with this name predates the registry entry (for
			// example from a previous installation). Adopt it rather than
			// failing the start.
			slogger.L(ctx).Info("adopting existing container", "name", name)
		} else {
			cleanup()
			return nil, fmt.Errorf("create container: %w", err)
		}
	}

	if err := m.engine.Start(ctx, m.containerName(name)); err != nil {
		cleanup()
		return nil, fmt.Errorf("start container: %w", err)
	}

	inst := Instance{
		Name:      entry.Name,
		Port:      entry.Port,
		Ephemeral: entry.Ephemeral,
		CreatedAt: entry.CreatedAt,
		Status:    container.StatusRunning,
	}
	if c != nil {
		inst.ContainerID = c.ID
	}
	return &inst, nil
}

// startExisting starts an already-registered instance, recreating the
// container from stored config if the engine has lost it.
// Caller holds the per-name lock.
func (m *Manager) startExisting(ctx context.Context, entry *registry.Instance) (*Instance, error) {
	cname := m.containerName(entry.Name)

	c, err := m.engine.Inspect(ctx, cname)
	switch {
	case errors.Is(err, container.ErrNotFound):
		// Container lost (engine pruned, ephemeral auto-removed): recreate
		// from the stored configuration, keeping the original port.
		paths, ensureErr := m.mat.Ensure(entry.Name, m.cfg.Env)
		if ensureErr != nil {
			return nil, fmt.Errorf("materialize instance: %w", ensureErr)
		}
		if _, createErr := m.engine.Create(ctx, m.createConfig(entry, paths)); createErr != nil {
			return nil, fmt.Errorf("recreate container: %w", createErr)
		}
	case err != nil:
		return nil, fmt.Errorf("inspect container: %w", err)
	case c.Status == container.StatusRunning:
		// Already running: no-op success.
		inst := Instance{
			Name:        entry.Name,
			Port:        entry.Port,
			Ephemeral:   entry.Ephemeral,
			CreatedAt:   entry.CreatedAt,
			Status:      container.StatusRunning,
			ContainerID: c.ID,
		}
		return &inst, nil
	default:
		// Created or stopped: refresh the env file so configuration edits
		// made since the last stop take effect on this start.
		if _, ensureErr := m.mat.Ensure(entry.Name, m.cfg.Env); ensureErr != nil {
			return nil, fmt.Errorf("materialize instance: %w", ensureErr)
		}
	}

	if err := m.engine.Start(ctx, cname); err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	inst := m.joinStatus(ctx, entry)
	inst.Status = container.StatusRunning
	return &inst, nil
}

// Restart stops the instance, then starts it again. An unregistered name is
// created by the start leg, so restart doubles as start for a fresh name.
func (m *Manager) Restart(ctx context.Context, name string, opts StartOptions) (*Instance, error) {
	if err := m.Stop(ctx, name); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return m.Start(ctx, name, opts)
}

// Stop gracefully stops an instance's container. Stopping an already-stopped
// instance is a no-op. For ephemeral instances the workspace and memory
// directories are purged when the purge-on-stop policy is active.
func (m *Manager) Stop(ctx context.Context, name string) error {
	if err := workspace.ValidateName(name); err != nil {
		return err
	}

	unlock := m.locks.lock(name)
	defer unlock()

	entry, err := m.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get registry entry: %w", err)
	}

	if err := m.engine.Stop(ctx, m.containerName(name)); err != nil {
		// A missing container is already as stopped as it gets.
		if !errors.Is(err, container.ErrNotFound) {
			return fmt.Errorf("stop container: %w", err)
		}
	}

	if entry.Ephemeral && m.cfg.PurgeOnStop {
		// Data only; the registry entry and its port assignment survive so a
		// future start is stable.
		if err := m.mat.PurgeEphemeral(name); err != nil {
			return fmt.Errorf("purge ephemeral data: %w", err)
		}
	}

	return nil
}

// Delete removes the instance's container and registry entry. With purgeData
// the persisted directories are removed too; the purge runs strictly after
// confirmed container removal and before the registry entry goes away, so a
// failure at any step leaves a retryable state.
func (m *Manager) Delete(ctx context.Context, name string, purgeData bool) error {
	if err := workspace.ValidateName(name); err != nil {
		return err
	}

	unlock := m.locks.lock(name)
	defer unlock()

	if _, err := m.store.Get(ctx, name); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get registry entry: %w", err)
	}

	cname := m.containerName(name)

	// Stop first; remove requires a stopped container.
	if err := m.engine.Stop(ctx, cname); err != nil && !errors.Is(err, container.ErrNotFound) {
		return fmt.Errorf("stop container: %w", err)
	}

	if err := m.engine.Remove(ctx, cname); err != nil && !errors.Is(err, container.ErrNotFound) {
		// Registry entry intentionally survives so the removal can be retried.
		return fmt.Errorf("remove container: %w", err)
	}

	if purgeData {
		if err := m.mat.Purge(name); err != nil {
			return fmt.Errorf("purge instance data: %w", err)
		}
	}

	if err := m.store.Remove(ctx, name); err != nil && !errors.Is(err, registry.ErrNotFound) {
		return fmt.Errorf("remove registry entry: %w", err)
	}

	return nil
}

// Logs streams the instance's container logs to out until ctx is cancelled.
// The per-name lock is only held while the container's identity is confirmed,
// never for the duration of the stream.
func (m *Manager) Logs(ctx context.Context, name string, out io.Writer) error {
	if err := workspace.ValidateName(name); err != nil {
		return err
	}

	unlock := m.locks.lock(name)
	if _, err := m.store.Get(ctx, name); err != nil {
		unlock()
		if errors.Is(err, registry.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get registry entry: %w", err)
	}

	cname := m.containerName(name)
	if _, err := m.engine.Inspect(ctx, cname); err != nil {
		unlock()
		if errors.Is(err, container.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("inspect container: %w", err)
	}
	unlock()

	return m.engine.Logs(ctx, cname, out)
}

// ReadEnv returns the instance's current .env configuration.
func (m *Manager) ReadEnv(ctx context.Context, name string) (map[string]string, error) {
	if _, err := m.Get(ctx, name); err != nil {
		return nil, err
	}
	return m.mat.ReadEnv(name)
}

// WriteEnv replaces the instance's .env configuration. Takes effect on the
// next start.
func (m *Manager) WriteEnv(ctx context.Context, name string, env map[string]string) error {
	if _, err := m.Get(ctx, name); err != nil {
		return err
	}

	unlock := m.locks.lock(name)
	defer unlock()
	return m.mat.WriteEnv(name, env)
}

// Orphans returns containers carrying the managed name prefix that have no
// registry entry, such as leftovers from a previous installation or a
// registry file that was deleted by hand. Reported only, never touched.
func (m *Manager) Orphans(ctx context.Context) ([]container.Container, error) {
	entries, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list registry: %w", err)
	}

	registered := make(map[string]bool, len(entries))
	for _, e := range entries {
		registered[m.containerName(e.Name)] = true
	}

	containers, err := m.engine.List(ctx, container.ListFilter{NamePrefix: containerNamePrefix})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	var orphans []container.Container
	for _, c := range containers {
		if !registered[c.Name] {
			orphans = append(orphans, c)
		}
	}
	return orphans, nil
}

// Exists reports whether a name is registered. Used for unique random name
// generation.
func (m *Manager) Exists(ctx context.Context, name string) bool {
	_, err := m.store.Get(ctx, name)
	return err == nil
}

// allocateAndRecord assigns a port and persists the new registry entry as one
// critical section, so two concurrent starts for different new names cannot
// race to the same free port.
func (m *Manager) allocateAndRecord(ctx context.Context, name string, opts StartOptions) (*registry.Instance, error) {
	select {
	case m.allocMu <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-m.allocMu }()

	entries, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list registry: %w", err)
	}

	taken := make(map[int]bool, len(entries))
	for _, e := range entries {
		taken[e.Port] = true
	}

	port, err := m.alloc.Allocate(taken, opts.Port)
	if err != nil {
		return nil, err
	}

	entry := registry.Instance{
		Name:      name,
		Port:      port,
		Ephemeral: opts.Ephemeral,
		CreatedAt: time.Now(),
	}
	if err := m.store.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("record instance: %w", err)
	}

	return &entry, nil
}

// joinStatus merges a registry entry with live engine status.
func (m *Manager) joinStatus(ctx context.Context, entry *registry.Instance) Instance {
	inst := Instance{
		Name:      entry.Name,
		Port:      entry.Port,
		Ephemeral: entry.Ephemeral,
		CreatedAt: entry.CreatedAt,
	}

	c, err := m.engine.Inspect(ctx, m.containerName(entry.Name))
	switch {
	case errors.Is(err, container.ErrNotFound):
		inst.Status = container.StatusAbsent
	case err != nil:
		// Status queries fail soft; one bad instance must not break listing.
		inst.Status = container.StatusError
	default:
		inst.Status = c.Status
		inst.ContainerID = c.ID
	}

	return inst
}

// createConfig builds the engine create declaration for an instance.
// Ephemeral instances run with auto-remove instead of a restart policy, so
// they never resurrect after a host or daemon restart.
func (m *Manager) createConfig(entry *registry.Instance, paths workspace.Paths) *container.CreateConfig {
	mounts := []container.Mount{
		{Source: paths.Config, Target: "/a0/config"},
		{Source: paths.Workspace, Target: "/a0/usr/projects"},
		{Source: paths.EnvFile, Target: "/a0/.env"},
		{Source: paths.Tmp, Target: "/a0/tmp"},
	}
	if !entry.Ephemeral {
		// Memory and knowledge only persist for non-ephemeral instances.
		mounts = append(mounts,
			container.Mount{Source: paths.Memory, Target: "/a0/memory"},
			container.Mount{Source: paths.Knowledge, Target: "/a0/knowledge"},
		)
	}

	return &container.CreateConfig{
		Name:       m.containerName(entry.Name),
		Image:      m.cfg.Image,
		Port:       entry.Port,
		Mounts:     mounts,
		AutoRemove: entry.Ephemeral,
		Flags:      m.cfg.EngineFlags,
	}
}

// containerName returns the engine-level container name for an instance.
func (m *Manager) containerName(name string) string {
	return containerNamePrefix + name
}

// ContainerNamePrefix returns the prefix applied to all managed containers.
func ContainerNamePrefix() string {
	return containerNamePrefix
}
