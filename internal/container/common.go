package container

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/daemon-zero/dzman/internal/exec"
)

// containerParser parses engine CLI output into Container values.
// Split out so a future engine variant only has to supply its own parser.
type containerParser interface {
	parseInspect(data []byte) (*Container, error)
	parseList(data []byte) ([]Container, error)
}

// baseEngine provides shared plumbing for CLI-driven container engines.
type baseEngine struct {
	exec       exec.Executor
	binaryName string
	parser     containerParser
}

// cliError formats an error from a container CLI, including stderr if available.
func cliError(operation string, result *exec.Result, err error) error {
	if result != nil {
		stderr := strings.TrimSpace(string(result.Stderr))
		if stderr != "" {
			return fmt.Errorf("%s: %s", operation, stderr)
		}
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// buildCreateArgs constructs the common container create arguments.
func buildCreateArgs(cfg *CreateConfig) []string {
	args := []string{"create", "--name", cfg.Name}

	if cfg.AutoRemove {
		args = append(args, "--rm")
	} else {
		args = append(args, "--restart=unless-stopped")
	}

	servicePort := cfg.ServicePort
	if servicePort == 0 {
		servicePort = 80
	}
	args = append(args, "-p", fmt.Sprintf("%d:%d", cfg.Port, servicePort))

	args = append(args, cfg.Flags...)

	for _, m := range cfg.Mounts {
		mountSpec := fmt.Sprintf("%s:%s", m.Source, m.Target)
		if m.ReadOnly {
			mountSpec += ":ro"
		}
		args = append(args, "-v", mountSpec)
	}

	return append(args, cfg.Image)
}

// parseContainerStatus converts CLI status strings to Status constants.
func parseContainerStatus(cliStatus string) Status {
	switch strings.ToLower(cliStatus) {
	case cliStatusCreated:
		return StatusCreated
	case cliStatusRunning, cliStatusRestarting:
		return StatusRunning
	case cliStatusExited, cliStatusPaused, cliStatusStopped:
		return StatusStopped
	case cliStatusDead, cliStatusRemoving:
		return StatusError
	default:
		return StatusError
	}
}

// parsePort extracts the host port from a CLI port binding value ("50080").
func parsePort(hostPort string) int {
	p, err := strconv.Atoi(strings.TrimSpace(hostPort))
	if err != nil {
		return 0
	}
	return p
}

// isAlreadyExistsError checks if stderr indicates the container name is taken.
func isAlreadyExistsError(stderr string) bool {
	return strings.Contains(stderr, "already in use") || strings.Contains(stderr, "already exists")
}

// isNotFoundError checks if stderr indicates container not found.
func isNotFoundError(stderr string) bool {
	return strings.Contains(stderr, "no such") ||
		strings.Contains(stderr, "no container") ||
		strings.Contains(stderr, "not found")
}
