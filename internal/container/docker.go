package container

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/daemon-zero/dzman/internal/exec"
)

// DefaultStopTimeout bounds graceful stop before the engine escalates to
// forced termination.
const DefaultStopTimeout = 10 * time.Second

// DockerConfig holds Docker-specific engine configuration.
type DockerConfig struct {
	// StopTimeout is the grace period passed to `docker stop`.
	// Zero means DefaultStopTimeout.
	StopTimeout time.Duration
}

// dockerEngine implements Engine using the Docker CLI.
type dockerEngine struct {
	baseEngine
	config DockerConfig
}

// dockerParser implements containerParser for Docker JSON output.
type dockerParser struct{}

// NewDockerEngine creates an Engine using the Docker CLI.
func NewDockerEngine(e exec.Executor, cfg DockerConfig) Engine {
	if cfg.StopTimeout == 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	return &dockerEngine{
		baseEngine: baseEngine{
			exec:       e,
			binaryName: "docker",
			parser:     &dockerParser{},
		},
		config: cfg,
	}
}

func (d *dockerEngine) Create(ctx context.Context, cfg *CreateConfig) (*Container, error) {
	args := buildCreateArgs(cfg)

	result, err := d.exec.Run(ctx, &exec.RunOptions{Name: d.binaryName, Args: args})
	if err != nil {
		if result != nil && isAlreadyExistsError(string(result.Stderr)) {
			return nil, ErrAlreadyExists
		}
		return nil, cliError("create container", result, err)
	}

	return &Container{
		ID:     strings.TrimSpace(string(result.Stdout)),
		Name:   cfg.Name,
		Image:  cfg.Image,
		Port:   cfg.Port,
		Status: StatusCreated,
	}, nil
}

func (d *dockerEngine) Start(ctx context.Context, name string) error {
	// `docker start` on an already-running container succeeds, which gives us
	// the required no-op semantics for free.
	result, err := d.exec.Run(ctx, &exec.RunOptions{
		Name: d.binaryName,
		Args: []string{"start", name},
	})
	if err != nil {
		if result != nil && isNotFoundError(string(result.Stderr)) {
			return ErrNotFound
		}
		return cliError("start container", result, err)
	}
	return nil
}

func (d *dockerEngine) Stop(ctx context.Context, name string) error {
	timeoutSecs := int(d.config.StopTimeout.Seconds())
	result, err := d.exec.Run(ctx, &exec.RunOptions{
		Name: d.binaryName,
		Args: []string{"stop", "-t", fmt.Sprintf("%d", timeoutSecs), name},
	})
	if err != nil {
		if result != nil && isNotFoundError(string(result.Stderr)) {
			return ErrNotFound
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: stop %s", ErrTimeout, name)
		}
		return cliError("stop container", result, err)
	}
	return nil
}

func (d *dockerEngine) Remove(ctx context.Context, name string) error {
	result, err := d.exec.Run(ctx, &exec.RunOptions{
		Name: d.binaryName,
		Args: []string{"rm", name},
	})
	if err != nil {
		if result != nil && isNotFoundError(string(result.Stderr)) {
			return ErrNotFound
		}
		return cliError("remove container", result, err)
	}
	return nil
}

func (d *dockerEngine) Inspect(ctx context.Context, name string) (*Container, error) {
	result, err := d.exec.Run(ctx, &exec.RunOptions{
		Name: d.binaryName,
		Args: []string{"inspect", "--type", "container", name},
	})
	if err != nil {
		if result != nil && isNotFoundError(string(result.Stderr)) {
			return nil, ErrNotFound
		}
		return nil, cliError("inspect container", result, err)
	}

	if d.parser == nil {
		return nil, ErrNoParser
	}
	return d.parser.parseInspect(result.Stdout)
}

func (d *dockerEngine) Logs(ctx context.Context, name string, out io.Writer) error {
	result, err := d.exec.Run(ctx, &exec.RunOptions{
		Name:   d.binaryName,
		Args:   []string{"logs", "--follow", name},
		Stdout: out,
		Stderr: out, // Container stderr is part of the log stream
	})
	if err != nil {
		// Caller cancellation terminates the follow; that's a clean exit.
		if ctx.Err() != nil {
			return nil
		}
		if result != nil && isNotFoundError(string(result.Stderr)) {
			return ErrNotFound
		}
		return cliError("stream logs", result, err)
	}
	return nil
}

func (d *dockerEngine) List(ctx context.Context, filter ListFilter) ([]Container, error) {
	args := []string{"ps", "-a", "--format", "json"}
	if filter.NamePrefix != "" {
		args = append(args, "--filter", "name=^"+filter.NamePrefix)
	}

	result, err := d.exec.Run(ctx, &exec.RunOptions{Name: d.binaryName, Args: args})
	if err != nil {
		return nil, cliError("list containers", result, err)
	}

	if d.parser == nil {
		return nil, ErrNoParser
	}
	return d.parser.parseList(result.Stdout)
}

// dockerInspect represents the JSON output of `docker inspect`.
type dockerInspect struct {
	ID      string `json:"Id"`
	Name    string `json:"Name"`
	Created string `json:"Created"`
	State   struct {
		Status string `json:"Status"`
	} `json:"State"`
	Config struct {
		Image string `json:"Image"`
	} `json:"Config"`
	HostConfig struct {
		PortBindings map[string][]struct {
			HostIP   string `json:"HostIp"`
			HostPort string `json:"HostPort"`
		} `json:"PortBindings"`
	} `json:"HostConfig"`
}

func (d *dockerInspect) toContainer() *Container {
	status := parseContainerStatus(d.State.Status)

	// Remove leading "/" from name if present (Docker uses /container-name)
	name := strings.TrimPrefix(d.Name, "/")

	// Docker uses RFC3339Nano format, fall back to RFC3339
	createdAt, err := time.Parse(time.RFC3339Nano, d.Created)
	if err != nil {
		createdAt, err = time.Parse(time.RFC3339, d.Created)
		if err != nil {
			createdAt = time.Time{}
		}
	}

	// Port bindings survive stop/start, unlike NetworkSettings, so the host
	// port is readable for stopped containers too.
	port := 0
	for _, bindings := range d.HostConfig.PortBindings {
		if len(bindings) > 0 {
			port = parsePort(bindings[0].HostPort)
			break
		}
	}

	return &Container{
		ID:        d.ID,
		Name:      name,
		Image:     d.Config.Image,
		Port:      port,
		Status:    status,
		CreatedAt: createdAt,
	}
}

// parseInspect parses the JSON output of `docker inspect`.
func (p *dockerParser) parseInspect(data []byte) (*Container, error) {
	var infos []dockerInspect
	if err := json.Unmarshal(data, &infos); err != nil {
		return nil, fmt.Errorf("parse container info: %w", err)
	}

	if len(infos) == 0 {
		return nil, ErrNotFound
	}

	return infos[0].toContainer(), nil
}

// dockerListItem represents a single item in `docker ps --format json` output.
// Note: Docker outputs one JSON object per line (NDJSON), not an array.
type dockerListItem struct {
	ID    string `json:"ID"`
	Names string `json:"Names"`
	Image string `json:"Image"`
	State string `json:"State"`
	Ports string `json:"Ports"` // e.g. "0.0.0.0:50080->80/tcp"
}

func (d *dockerListItem) toContainer() Container {
	return Container{
		ID:     d.ID,
		Name:   d.Names,
		Image:  d.Image,
		Port:   parsePublishedPort(d.Ports),
		Status: parseContainerStatus(d.State),
	}
}

// parsePublishedPort extracts the host port from a `docker ps` Ports column
// value such as "0.0.0.0:50080->80/tcp, [::]:50080->80/tcp".
func parsePublishedPort(ports string) int {
	for _, part := range strings.Split(ports, ",") {
		part = strings.TrimSpace(part)
		arrow := strings.Index(part, "->")
		if arrow < 0 {
			continue
		}
		host := part[:arrow]
		colon := strings.LastIndex(host, ":")
		if colon < 0 {
			continue
		}
		if p := parsePort(host[colon+1:]); p != 0 {
			return p
		}
	}
	return 0
}

// parseList parses the JSON output of `docker ps --format json`.
// Docker outputs NDJSON (newline-delimited JSON), one object per line.
func (p *dockerParser) parseList(data []byte) ([]Container, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "[]" {
		return []Container{}, nil
	}

	lines := strings.Split(trimmed, "\n")
	containers := make([]Container, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var item dockerListItem
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return nil, fmt.Errorf("parse container list item: %w", err)
		}
		containers = append(containers, item.toContainer())
	}

	return containers, nil
}
