package manager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemon-zero/dzman/internal/container"
	containermocks "github.com/daemon-zero/dzman/internal/container/mocks"
	"github.com/daemon-zero/dzman/internal/ports"
	"github.com/daemon-zero/dzman/internal/registry"
	registrymocks "github.com/daemon-zero/dzman/internal/registry/mocks"
	"github.com/daemon-zero/dzman/internal/workspace"
)

// newTestManager wires a manager with the given mocks, a real materializer in
// a temp dir and a probe-less allocator.
func newTestManager(t *testing.T, store registry.Store, engine container.Engine) *Manager {
	t.Helper()
	mat := workspace.NewMaterializer(t.TempDir())
	alloc := &ports.Allocator{Base: 50080, Span: 100}
	return NewManager(store, engine, mat, alloc, Config{
		Image:       "daemon-zero",
		Env:         map[string]string{"API_KEY": "secret"},
		PurgeOnStop: true,
	})
}

func TestManager_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("creates new instance with base port", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return nil, registry.ErrNotFound
			},
			ListFunc: func(ctx context.Context) ([]registry.Instance, error) {
				return nil, nil
			},
			UpsertFunc: func(ctx context.Context, inst registry.Instance) error {
				return nil
			},
		}
		engine := &containermocks.EngineMock{
			CreateFunc: func(ctx context.Context, cfg *container.CreateConfig) (*container.Container, error) {
				return &container.Container{ID: "abc123", Name: cfg.Name, Status: container.StatusCreated}, nil
			},
			StartFunc: func(ctx context.Context, name string) error {
				return nil
			},
		}

		mgr := newTestManager(t, store, engine)
		inst, err := mgr.Start(ctx, "alpha", StartOptions{})

		require.NoError(t, err)
		assert.Equal(t, "alpha", inst.Name)
		assert.Equal(t, 50080, inst.Port)
		assert.Equal(t, container.StatusRunning, inst.Status)
		assert.Equal(t, "abc123", inst.ContainerID)

		// Registry persisted before the engine call
		require.Len(t, store.UpsertCalls(), 1)
		assert.Equal(t, 50080, store.UpsertCalls()[0].Inst.Port)

		// Container declaration carries name, image, port and mounts
		require.Len(t, engine.CreateCalls(), 1)
		cfg := engine.CreateCalls()[0].Cfg
		assert.Equal(t, "daemon-zero-alpha", cfg.Name)
		assert.Equal(t, "daemon-zero", cfg.Image)
		assert.Equal(t, 50080, cfg.Port)
		targets := make([]string, 0, len(cfg.Mounts))
		for _, m := range cfg.Mounts {
			targets = append(targets, m.Target)
		}
		assert.Contains(t, targets, "/a0/config")
		assert.Contains(t, targets, "/a0/memory")
		assert.Contains(t, targets, "/a0/knowledge")
		assert.Contains(t, targets, "/a0/.env")
		assert.Contains(t, targets, "/a0/tmp")
		assert.False(t, cfg.AutoRemove, "persistent instances carry a restart policy, not auto-remove")

		require.Len(t, engine.StartCalls(), 1)
		assert.Equal(t, "daemon-zero-alpha", engine.StartCalls()[0].Name)
	})

	t.Run("second instance gets next free port", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return nil, registry.ErrNotFound
			},
			ListFunc: func(ctx context.Context) ([]registry.Instance, error) {
				return []registry.Instance{{Name: "alpha", Port: 50080}}, nil
			},
			UpsertFunc: func(ctx context.Context, inst registry.Instance) error {
				return nil
			},
		}
		engine := &containermocks.EngineMock{
			CreateFunc: func(ctx context.Context, cfg *container.CreateConfig) (*container.Container, error) {
				return &container.Container{ID: "def456"}, nil
			},
			StartFunc: func(ctx context.Context, name string) error { return nil },
		}

		mgr := newTestManager(t, store, engine)
		inst, err := mgr.Start(ctx, "beta", StartOptions{})

		require.NoError(t, err)
		assert.Equal(t, 50081, inst.Port)
	})

	t.Run("ephemeral instance skips memory and knowledge mounts", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return nil, registry.ErrNotFound
			},
			ListFunc:   func(ctx context.Context) ([]registry.Instance, error) { return nil, nil },
			UpsertFunc: func(ctx context.Context, inst registry.Instance) error { return nil },
		}
		engine := &containermocks.EngineMock{
			CreateFunc: func(ctx context.Context, cfg *container.CreateConfig) (*container.Container, error) {
				return &container.Container{ID: "abc"}, nil
			},
			StartFunc: func(ctx context.Context, name string) error { return nil },
		}

		mgr := newTestManager(t, store, engine)
		_, err := mgr.Start(ctx, "tmp", StartOptions{Ephemeral: true})

		require.NoError(t, err)
		cfg := engine.CreateCalls()[0].Cfg
		for _, m := range cfg.Mounts {
			assert.NotEqual(t, "/a0/memory", m.Target)
			assert.NotEqual(t, "/a0/knowledge", m.Target)
		}
		assert.True(t, cfg.AutoRemove, "ephemeral containers must auto-remove instead of restarting")
		assert.True(t, store.UpsertCalls()[0].Inst.Ephemeral)
	})

	t.Run("running instance is a no-op", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return &registry.Instance{Name: "alpha", Port: 50080}, nil
			},
		}
		engine := &containermocks.EngineMock{
			InspectFunc: func(ctx context.Context, name string) (*container.Container, error) {
				return &container.Container{ID: "abc123", Status: container.StatusRunning}, nil
			},
		}

		mgr := newTestManager(t, store, engine)
		inst, err := mgr.Start(ctx, "alpha", StartOptions{})

		require.NoError(t, err)
		assert.Equal(t, container.StatusRunning, inst.Status)
		assert.Empty(t, engine.StartCalls(), "running instance must not be started again")
	})

	t.Run("stopped instance restarts on same port", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return &registry.Instance{Name: "alpha", Port: 50083}, nil
			},
		}
		engine := &containermocks.EngineMock{
			InspectFunc: func(ctx context.Context, name string) (*container.Container, error) {
				return &container.Container{ID: "abc123", Status: container.StatusStopped, Port: 50083}, nil
			},
			StartFunc: func(ctx context.Context, name string) error { return nil },
		}

		mgr := newTestManager(t, store, engine)
		inst, err := mgr.Start(ctx, "alpha", StartOptions{})

		require.NoError(t, err)
		assert.Equal(t, 50083, inst.Port, "stopped instance keeps its port assignment")
		require.Len(t, engine.StartCalls(), 1)
		assert.Empty(t, engine.CreateCalls(), "existing container must not be recreated")
	})

	t.Run("recreates lost container from stored config", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return &registry.Instance{Name: "alpha", Port: 50080}, nil
			},
		}
		inspectCount := 0
		engine := &containermocks.EngineMock{
			InspectFunc: func(ctx context.Context, name string) (*container.Container, error) {
				inspectCount++
				if inspectCount == 1 {
					return nil, container.ErrNotFound
				}
				return &container.Container{ID: "new123", Status: container.StatusRunning}, nil
			},
			CreateFunc: func(ctx context.Context, cfg *container.CreateConfig) (*container.Container, error) {
				assert.Equal(t, 50080, cfg.Port)
				return &container.Container{ID: "new123"}, nil
			},
			StartFunc: func(ctx context.Context, name string) error { return nil },
		}

		mgr := newTestManager(t, store, engine)
		inst, err := mgr.Start(ctx, "alpha", StartOptions{})

		require.NoError(t, err)
		assert.Equal(t, container.StatusRunning, inst.Status)
		require.Len(t, engine.CreateCalls(), 1)
	})

	t.Run("rejects invalid name before any side effect", func(t *testing.T) {
		store := &registrymocks.StoreMock{}
		engine := &containermocks.EngineMock{}

		mgr := newTestManager(t, store, engine)
		for _, name := range []string{"", "../escape", "a/b"} {
			_, err := mgr.Start(ctx, name, StartOptions{})
			assert.ErrorIs(t, err, workspace.ErrInvalidName, "name %q", name)
		}

		assert.Empty(t, store.GetCalls())
		assert.Empty(t, engine.CreateCalls())
	})

	t.Run("surfaces port exhaustion", func(t *testing.T) {
		taken := make([]registry.Instance, 100)
		for i := range taken {
			taken[i] = registry.Instance{Name: fmt.Sprintf("i%d", i), Port: 50080 + i}
		}
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return nil, registry.ErrNotFound
			},
			ListFunc: func(ctx context.Context) ([]registry.Instance, error) {
				return taken, nil
			},
		}

		mgr := newTestManager(t, store, &containermocks.EngineMock{})
		_, err := mgr.Start(ctx, "overflow", StartOptions{})

		assert.ErrorIs(t, err, ports.ErrExhausted)
	})

	t.Run("cleans up registry entry on create failure", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return nil, registry.ErrNotFound
			},
			ListFunc:   func(ctx context.Context) ([]registry.Instance, error) { return nil, nil },
			UpsertFunc: func(ctx context.Context, inst registry.Instance) error { return nil },
			RemoveFunc: func(ctx context.Context, name string) error { return nil },
		}
		engine := &containermocks.EngineMock{
			CreateFunc: func(ctx context.Context, cfg *container.CreateConfig) (*container.Container, error) {
				return nil, errors.New("engine unavailable")
			},
		}

		mgr := newTestManager(t, store, engine)
		_, err := mgr.Start(ctx, "alpha", StartOptions{})

		require.Error(t, err)
		require.Len(t, store.RemoveCalls(), 1)
		assert.Equal(t, "alpha", store.RemoveCalls()[0].Name)
	})

	t.Run("concurrent starts for new names get distinct ports", func(t *testing.T) {
		// Real store so allocation bookkeeping is exercised end to end.
		store := registry.NewStore(filepath.Join(t.TempDir(), "registry.json"))
		engine := &containermocks.EngineMock{
			CreateFunc: func(ctx context.Context, cfg *container.CreateConfig) (*container.Container, error) {
				return &container.Container{ID: cfg.Name}, nil
			},
			StartFunc: func(ctx context.Context, name string) error { return nil },
		}
		mgr := newTestManager(t, store, engine)

		const n = 8
		results := make([]*Instance, n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = mgr.Start(ctx, fmt.Sprintf("inst-%d", i), StartOptions{})
			}(i)
		}
		wg.Wait()

		seen := make(map[int]string, n)
		for i, inst := range results {
			require.NoError(t, errs[i])
			require.NotNil(t, inst)
			prev, dup := seen[inst.Port]
			assert.False(t, dup, "port %d allocated to both %s and %s", inst.Port, prev, inst.Name)
			seen[inst.Port] = inst.Name
		}
	})
}

func TestManager_Stop(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ErrNotFound for unregistered instance", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return nil, registry.ErrNotFound
			},
		}

		mgr := newTestManager(t, store, &containermocks.EngineMock{})
		err := mgr.Stop(ctx, "ghost")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("stop is idempotent when container is already gone", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return &registry.Instance{Name: "alpha", Port: 50080}, nil
			},
		}
		engine := &containermocks.EngineMock{
			StopFunc: func(ctx context.Context, name string) error {
				return container.ErrNotFound
			},
		}

		mgr := newTestManager(t, store, engine)
		err := mgr.Stop(ctx, "alpha")

		assert.NoError(t, err)
	})

	t.Run("purges ephemeral workspace and memory but keeps registry entry", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return &registry.Instance{Name: "tmp", Port: 50080, Ephemeral: true}, nil
			},
		}
		engine := &containermocks.EngineMock{
			StopFunc: func(ctx context.Context, name string) error { return nil },
		}

		base := t.TempDir()
		mat := workspace.NewMaterializer(base)
		_, err := mat.Ensure("tmp", nil)
		require.NoError(t, err)

		mgr := NewManager(store, engine, mat, &ports.Allocator{Base: 50080, Span: 10}, Config{
			Image:       "daemon-zero",
			PurgeOnStop: true,
		})

		require.NoError(t, mgr.Stop(ctx, "tmp"))

		assert.NoDirExists(t, filepath.Join(base, "tmp", "workspace"))
		assert.NoDirExists(t, filepath.Join(base, "tmp", "memory"))
		assert.DirExists(t, filepath.Join(base, "tmp", "config"))
		assert.Empty(t, store.RemoveCalls(), "registry entry must survive ephemeral stop")
	})

	t.Run("keeps ephemeral data when purge-on-stop is off", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return &registry.Instance{Name: "tmp", Port: 50080, Ephemeral: true}, nil
			},
		}
		engine := &containermocks.EngineMock{
			StopFunc: func(ctx context.Context, name string) error { return nil },
		}

		base := t.TempDir()
		mat := workspace.NewMaterializer(base)
		_, err := mat.Ensure("tmp", nil)
		require.NoError(t, err)

		mgr := NewManager(store, engine, mat, &ports.Allocator{Base: 50080, Span: 10}, Config{
			Image: "daemon-zero",
		})

		require.NoError(t, mgr.Stop(ctx, "tmp"))

		assert.DirExists(t, filepath.Join(base, "tmp", "workspace"))
	})
}

func TestManager_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ErrNotFound for unregistered instance", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return nil, registry.ErrNotFound
			},
		}

		mgr := newTestManager(t, store, &containermocks.EngineMock{})
		err := mgr.Delete(ctx, "ghost", false)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("removes container then registry entry", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return &registry.Instance{Name: "alpha", Port: 50080}, nil
			},
			RemoveFunc: func(ctx context.Context, name string) error { return nil },
		}
		engine := &containermocks.EngineMock{
			StopFunc:   func(ctx context.Context, name string) error { return nil },
			RemoveFunc: func(ctx context.Context, name string) error { return nil },
		}

		mgr := newTestManager(t, store, engine)
		require.NoError(t, mgr.Delete(ctx, "alpha", false))

		require.Len(t, engine.RemoveCalls(), 1)
		assert.Equal(t, "daemon-zero-alpha", engine.RemoveCalls()[0].Name)
		require.Len(t, store.RemoveCalls(), 1)
	})

	t.Run("keeps registry entry when container removal fails", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return &registry.Instance{Name: "alpha", Port: 50080}, nil
			},
		}
		engine := &containermocks.EngineMock{
			StopFunc: func(ctx context.Context, name string) error { return nil },
			RemoveFunc: func(ctx context.Context, name string) error {
				return errors.New("device busy")
			},
		}

		base := t.TempDir()
		mat := workspace.NewMaterializer(base)
		_, err := mat.Ensure("alpha", nil)
		require.NoError(t, err)

		mgr := NewManager(store, engine, mat, &ports.Allocator{Base: 50080, Span: 10}, Config{Image: "daemon-zero"})
		err = mgr.Delete(ctx, "alpha", true)

		require.Error(t, err)
		assert.Empty(t, store.RemoveCalls(), "registry entry must outlive a failed removal")
		assert.DirExists(t, filepath.Join(base, "alpha", "workspace"), "data must never be purged before confirmed removal")
	})

	t.Run("purges data only when requested", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return &registry.Instance{Name: "alpha", Port: 50080}, nil
			},
			RemoveFunc: func(ctx context.Context, name string) error { return nil },
		}
		engine := &containermocks.EngineMock{
			StopFunc:   func(ctx context.Context, name string) error { return nil },
			RemoveFunc: func(ctx context.Context, name string) error { return nil },
		}

		base := t.TempDir()
		mat := workspace.NewMaterializer(base)
		paths, err := mat.Ensure("alpha", nil)
		require.NoError(t, err)
		marker := filepath.Join(paths.Workspace, "keep.txt")
		require.NoError(t, os.WriteFile(marker, []byte("data"), 0644))

		mgr := NewManager(store, engine, mat, &ports.Allocator{Base: 50080, Span: 10}, Config{Image: "daemon-zero"})

		// Without --data the workspace survives delete
		require.NoError(t, mgr.Delete(ctx, "alpha", false))
		assert.FileExists(t, marker)

		// With --data everything goes
		require.NoError(t, mgr.Delete(ctx, "alpha", true))
		assert.NoDirExists(t, paths.Root)
	})
}

func TestManager_List(t *testing.T) {
	ctx := context.Background()

	t.Run("joins registry entries with live status", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			ListFunc: func(ctx context.Context) ([]registry.Instance, error) {
				return []registry.Instance{
					{Name: "alpha", Port: 50080},
					{Name: "beta", Port: 50081},
					{Name: "gamma", Port: 50082},
				}, nil
			},
		}
		engine := &containermocks.EngineMock{
			InspectFunc: func(ctx context.Context, name string) (*container.Container, error) {
				switch name {
				case "daemon-zero-alpha":
					return &container.Container{ID: "a1", Status: container.StatusRunning}, nil
				case "daemon-zero-beta":
					return nil, container.ErrNotFound
				default:
					return nil, errors.New("engine flake")
				}
			},
		}

		mgr := newTestManager(t, store, engine)
		instances, err := mgr.List(ctx)

		require.NoError(t, err)
		require.Len(t, instances, 3)
		assert.Equal(t, container.StatusRunning, instances[0].Status)
		assert.Equal(t, container.StatusAbsent, instances[1].Status)
		assert.Equal(t, container.StatusError, instances[2].Status, "engine failure degrades to error status")
	})
}

func TestManager_Logs(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ErrNotFound when container is absent", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return &registry.Instance{Name: "alpha", Port: 50080}, nil
			},
		}
		engine := &containermocks.EngineMock{
			InspectFunc: func(ctx context.Context, name string) (*container.Container, error) {
				return nil, container.ErrNotFound
			},
		}

		mgr := newTestManager(t, store, engine)
		err := mgr.Logs(ctx, "alpha", &bytes.Buffer{})

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("streams without holding the per-name lock", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return &registry.Instance{Name: "alpha", Port: 50080}, nil
			},
		}
		streaming := make(chan struct{})
		release := make(chan struct{})
		engine := &containermocks.EngineMock{
			InspectFunc: func(ctx context.Context, name string) (*container.Container, error) {
				return &container.Container{ID: "a1", Status: container.StatusRunning}, nil
			},
			LogsFunc: func(ctx context.Context, name string, out io.Writer) error {
				close(streaming)
				<-release
				return nil
			},
			StopFunc: func(ctx context.Context, name string) error { return nil },
		}

		mgr := newTestManager(t, store, engine)

		done := make(chan error, 1)
		go func() {
			done <- mgr.Logs(ctx, "alpha", &bytes.Buffer{})
		}()

		<-streaming
		// A stop for the same name must not be blocked by the log stream.
		stopDone := make(chan error, 1)
		go func() { stopDone <- mgr.Stop(ctx, "alpha") }()

		select {
		case err := <-stopDone:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("stop blocked behind an active log stream")
		}

		close(release)
		assert.NoError(t, <-done)
	})
}

func TestManager_PortStability(t *testing.T) {
	ctx := context.Background()

	// start -> stop -> start reuses the same port, driven through a real
	// registry store.
	store := registry.NewStore(filepath.Join(t.TempDir(), "registry.json"))

	status := container.StatusAbsent
	engine := &containermocks.EngineMock{
		CreateFunc: func(ctx context.Context, cfg *container.CreateConfig) (*container.Container, error) {
			status = container.StatusCreated
			return &container.Container{ID: "c1", Port: cfg.Port, Status: status}, nil
		},
		StartFunc: func(ctx context.Context, name string) error {
			status = container.StatusRunning
			return nil
		},
		StopFunc: func(ctx context.Context, name string) error {
			status = container.StatusStopped
			return nil
		},
		InspectFunc: func(ctx context.Context, name string) (*container.Container, error) {
			if status == container.StatusAbsent {
				return nil, container.ErrNotFound
			}
			return &container.Container{ID: "c1", Status: status}, nil
		},
	}

	mgr := newTestManager(t, store, engine)

	first, err := mgr.Start(ctx, "alpha", StartOptions{})
	require.NoError(t, err)

	require.NoError(t, mgr.Stop(ctx, "alpha"))

	second, err := mgr.Start(ctx, "alpha", StartOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.Port, second.Port, "port must be stable across stop/start")
}

func TestManager_Restart(t *testing.T) {
	ctx := context.Background()

	t.Run("stops then starts on the same port", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return &registry.Instance{Name: "alpha", Port: 50083}, nil
			},
		}
		engine := &containermocks.EngineMock{
			StopFunc: func(ctx context.Context, name string) error { return nil },
			InspectFunc: func(ctx context.Context, name string) (*container.Container, error) {
				return &container.Container{ID: "c1", Status: container.StatusStopped}, nil
			},
			StartFunc: func(ctx context.Context, name string) error { return nil },
		}

		mgr := newTestManager(t, store, engine)
		inst, err := mgr.Restart(ctx, "alpha", StartOptions{})

		require.NoError(t, err)
		assert.Equal(t, 50083, inst.Port)
		require.Len(t, engine.StopCalls(), 1)
		require.Len(t, engine.StartCalls(), 1)
	})

	t.Run("unregistered name is created by the start leg", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return nil, registry.ErrNotFound
			},
			ListFunc:   func(ctx context.Context) ([]registry.Instance, error) { return nil, nil },
			UpsertFunc: func(ctx context.Context, inst registry.Instance) error { return nil },
		}
		engine := &containermocks.EngineMock{
			CreateFunc: func(ctx context.Context, cfg *container.CreateConfig) (*container.Container, error) {
				return &container.Container{ID: "new1"}, nil
			},
			StartFunc: func(ctx context.Context, name string) error { return nil },
		}

		mgr := newTestManager(t, store, engine)
		inst, err := mgr.Restart(ctx, "fresh", StartOptions{})

		require.NoError(t, err)
		assert.Equal(t, 50080, inst.Port)
		assert.Empty(t, engine.StopCalls(), "nothing to stop for a fresh name")
	})

	t.Run("stop failure aborts the restart", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
				return &registry.Instance{Name: "alpha", Port: 50080}, nil
			},
		}
		engine := &containermocks.EngineMock{
			StopFunc: func(ctx context.Context, name string) error {
				return errors.New("engine unavailable")
			},
		}

		mgr := newTestManager(t, store, engine)
		_, err := mgr.Restart(ctx, "alpha", StartOptions{})

		require.Error(t, err)
		assert.Empty(t, engine.StartCalls())
	})
}

func TestManager_Orphans(t *testing.T) {
	ctx := context.Background()

	t.Run("reports prefixed containers without registry entries", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			ListFunc: func(ctx context.Context) ([]registry.Instance, error) {
				return []registry.Instance{{Name: "alpha", Port: 50080}}, nil
			},
		}
		engine := &containermocks.EngineMock{
			ListFunc: func(ctx context.Context, filter container.ListFilter) ([]container.Container, error) {
				assert.Equal(t, "daemon-zero-", filter.NamePrefix)
				return []container.Container{
					{ID: "a1", Name: "daemon-zero-alpha", Status: container.StatusRunning},
					{ID: "g1", Name: "daemon-zero-ghost", Status: container.StatusStopped},
				}, nil
			},
		}

		mgr := newTestManager(t, store, engine)
		orphans, err := mgr.Orphans(ctx)

		require.NoError(t, err)
		require.Len(t, orphans, 1)
		assert.Equal(t, "daemon-zero-ghost", orphans[0].Name)
	})

	t.Run("empty when every container is registered", func(t *testing.T) {
		store := &registrymocks.StoreMock{
			ListFunc: func(ctx context.Context) ([]registry.Instance, error) {
				return []registry.Instance{{Name: "alpha", Port: 50080}}, nil
			},
		}
		engine := &containermocks.EngineMock{
			ListFunc: func(ctx context.Context, filter container.ListFilter) ([]container.Container, error) {
				return []container.Container{
					{ID: "a1", Name: "daemon-zero-alpha", Status: container.StatusRunning},
				}, nil
			},
		}

		mgr := newTestManager(t, store, engine)
		orphans, err := mgr.Orphans(ctx)

		require.NoError(t, err)
		assert.Empty(t, orphans)
	})
}
