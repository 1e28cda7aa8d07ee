package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemon-zero/dzman/internal/container"
	containermocks "github.com/daemon-zero/dzman/internal/container/mocks"
	"github.com/daemon-zero/dzman/internal/manager"
	"github.com/daemon-zero/dzman/internal/ports"
	"github.com/daemon-zero/dzman/internal/registry"
	registrymocks "github.com/daemon-zero/dzman/internal/registry/mocks"
	"github.com/daemon-zero/dzman/internal/workspace"
)

func newLogsManager(t *testing.T, logsErr error) *manager.Manager {
	t.Helper()
	store := &registrymocks.StoreMock{
		GetFunc: func(ctx context.Context, name string) (*registry.Instance, error) {
			return &registry.Instance{Name: name, Port: 50080}, nil
		},
	}
	engine := &containermocks.EngineMock{
		InspectFunc: func(ctx context.Context, name string) (*container.Container, error) {
			return &container.Container{ID: "c1", Status: container.StatusRunning}, nil
		},
		LogsFunc: func(ctx context.Context, name string, out io.Writer) error {
			return logsErr
		},
	}
	mat := workspace.NewMaterializer(t.TempDir())
	alloc := &ports.Allocator{Base: 50080, Span: 100}
	return manager.NewManager(store, engine, mat, alloc, manager.Config{Image: "daemon-zero"})
}

func TestStreamLogs(t *testing.T) {
	t.Run("cancellation ends the stream cleanly", func(t *testing.T) {
		mgr := newLogsManager(t, context.Canceled)

		var out bytes.Buffer
		err := streamLogs(context.Background(), mgr, "alpha", &out)

		assert.NoError(t, err)
	})

	t.Run("engine failures are reported", func(t *testing.T) {
		mgr := newLogsManager(t, errors.New("engine unavailable"))

		var out bytes.Buffer
		err := streamLogs(context.Background(), mgr, "alpha", &out)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "stream logs")
	})
}
