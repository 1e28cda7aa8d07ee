package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daemon-zero/dzman/internal/container"
)

func TestPrintOrphans(t *testing.T) {
	t.Run("silent when nothing is orphaned", func(t *testing.T) {
		var out bytes.Buffer
		printOrphans(&out, nil)
		assert.Empty(t, out.String())
	})

	t.Run("lists orphaned containers with status", func(t *testing.T) {
		var out bytes.Buffer
		printOrphans(&out, []container.Container{
			{Name: "daemon-zero-ghost", Status: container.StatusStopped},
		})

		assert.Contains(t, out.String(), "Orphaned containers")
		assert.Contains(t, out.String(), "daemon-zero-ghost")
		assert.Contains(t, out.String(), "stopped")
	})
}
