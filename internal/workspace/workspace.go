// Package workspace materializes on-disk prerequisites for instances:
// per-instance data directories and the .env configuration file mounted into
// the container.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

// Sentinel errors for workspace operations.
var (
	ErrInvalidName = errors.New("invalid instance name")
)

const dirMode = 0755

// Subdirectories created for every instance.
var subdirs = []string{"config", "workspace", "memory", "knowledge", "config/tmp"}

// nameRe matches container- and filesystem-safe instance names.
var nameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// Paths holds the resolved on-disk locations for one instance.
type Paths struct {
	Root      string // Instance base directory
	Config    string // Mounted at /a0/config
	Workspace string // Mounted at /a0/usr/projects
	Memory    string // Mounted at /a0/memory
	Knowledge string // Mounted at /a0/knowledge
	EnvFile   string // Mounted at /a0/.env
	Tmp       string // Mounted at /a0/tmp
}

// ValidateName rejects names that are unsafe to use as a directory or
// container name. Name is used verbatim to build filesystem paths, so this is
// a hard precondition for every operation, checked before any side effect.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q contains path separators or traversal", ErrInvalidName, name)
	}
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%w: %q (allowed: alphanumerics, dots, underscores, dashes)", ErrInvalidName, name)
	}
	return nil
}

// Materializer ensures instance directories and env files exist under a fixed
// base directory.
type Materializer struct {
	baseDir string
}

// NewMaterializer creates a Materializer rooted at baseDir.
func NewMaterializer(baseDir string) *Materializer {
	return &Materializer{baseDir: baseDir}
}

// PathsFor derives the instance's paths from its name. It does not touch the
// filesystem; the name must already be validated.
func (m *Materializer) PathsFor(name string) Paths {
	root := filepath.Join(m.baseDir, name)
	return Paths{
		Root:      root,
		Config:    filepath.Join(root, "config"),
		Workspace: filepath.Join(root, "workspace"),
		Memory:    filepath.Join(root, "memory"),
		Knowledge: filepath.Join(root, "knowledge"),
		EnvFile:   filepath.Join(root, "config", ".env"),
		Tmp:       filepath.Join(root, "config", "tmp"),
	}
}

// Ensure creates the instance's directories if missing and fully rewrites its
// .env file from env. Idempotent, safe to call on every start; rewriting the
// env file on each call means configuration edits take effect on the next
// start and stale keys are dropped automatically.
func (m *Materializer) Ensure(name string, env map[string]string) (Paths, error) {
	if err := ValidateName(name); err != nil {
		return Paths{}, err
	}

	paths := m.PathsFor(name)
	for _, d := range subdirs {
		if err := os.MkdirAll(filepath.Join(paths.Root, d), dirMode); err != nil {
			return Paths{}, fmt.Errorf("create instance directory: %w", err)
		}
	}

	if err := m.WriteEnv(name, env); err != nil {
		return Paths{}, err
	}

	return paths, nil
}

// ReadEnv returns the instance's current .env contents.
// A missing file reads as an empty map.
func (m *Materializer) ReadEnv(name string) (map[string]string, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	path := m.PathsFor(name).EnvFile
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]string{}, nil
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return env, nil
}

// WriteEnv replaces the instance's .env file with env. The file is always
// fully rewritten, never diffed.
func (m *Materializer) WriteEnv(name string, env map[string]string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	paths := m.PathsFor(name)
	if err := os.MkdirAll(paths.Config, dirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if env == nil {
		env = map[string]string{}
	}
	if err := godotenv.Write(env, paths.EnvFile); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}
	return nil
}

// Purge removes the instance's entire data directory. Irreversible.
func (m *Materializer) Purge(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.RemoveAll(m.PathsFor(name).Root); err != nil {
		return fmt.Errorf("purge instance data: %w", err)
	}
	return nil
}

// PurgeEphemeral removes only the data an ephemeral instance must not retain
// across runs: workspace and memory. Config and knowledge survive so the
// instance keeps its identity and settings.
func (m *Materializer) PurgeEphemeral(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	paths := m.PathsFor(name)
	for _, d := range []string{paths.Workspace, paths.Memory} {
		if err := os.RemoveAll(d); err != nil {
			return fmt.Errorf("purge ephemeral data: %w", err)
		}
	}
	return nil
}
