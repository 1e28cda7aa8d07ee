package cmd

import (
	"context"
	"errors"

	"github.com/daemon-zero/dzman/internal/manager"
)

// defaultInstanceName is used when start is invoked without a name.
const defaultInstanceName = "default"

func requireManager(ctx context.Context) (*manager.Manager, error) {
	mgr := ManagerFromContext(ctx)
	if mgr == nil {
		return nil, errors.New("instance manager not initialized")
	}
	return mgr, nil
}
