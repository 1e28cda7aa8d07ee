// Package cmd implements the dzman CLI commands using Cobra.
// It provides commands for managing DZ instances: start, stop, delete,
// list, logs, plus the web API server and configuration management.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daemon-zero/dzman/internal/config"
	"github.com/daemon-zero/dzman/internal/container"
	dzexec "github.com/daemon-zero/dzman/internal/exec"
	"github.com/daemon-zero/dzman/internal/manager"
	"github.com/daemon-zero/dzman/internal/ports"
	"github.com/daemon-zero/dzman/internal/registry"
	"github.com/daemon-zero/dzman/internal/slogger"
	"github.com/daemon-zero/dzman/internal/workspace"
)

// engineBinary is the container engine binary every command needs.
const engineBinary = "docker"

// mgr is the instance manager, initialized in PersistentPreRunE.
var mgr *manager.Manager

// appConfig holds the loaded application configuration.
var appConfig *config.Config

// configLoader is used for configuration get/set.
var configLoader *config.Loader

// verbosity counts -v occurrences for log level selection.
var verbosity int

var rootCmd = &cobra.Command{
	Use:   "dzman",
	Short: "Manage isolated DZ agent instances",
	Long: `dzman runs and manages multiple isolated DZ agent instances on one host.

Each instance gets its own container, a stable host port and a private
directory tree for configuration, workspace, memory and knowledge.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Logger first so everything downstream can use it
		logger := slogger.New(slogger.Config{Verbosity: verbosity})
		ctx := slogger.WithLogger(cmd.Context(), logger)

		if err := checkDependencies(); err != nil {
			return err
		}

		if err := initManager(); err != nil {
			return err
		}

		// Store dependencies in context for subcommands
		ctx = WithConfig(ctx, appConfig)
		ctx = WithLoader(ctx, configLoader)
		ctx = WithManager(ctx, mgr)
		cmd.SetContext(ctx)

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v info, -vv debug)")
}

func initConfig() {
	loader, err := config.NewLoader()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
		return
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		return
	}

	appConfig = cfg
	configLoader = loader
}

// checkDependencies verifies that the container engine binary is available.
func checkDependencies() error {
	if _, err := dzexec.New().LookPath(engineBinary); err != nil {
		return errors.New("missing required dependency: " + engineBinary)
	}
	return nil
}

// initManager initializes the instance manager with all dependencies.
func initManager() error {
	cfg := appConfig
	if cfg == nil {
		// Config failed to load; fall back to built-in defaults so read-only
		// commands still work.
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("get home directory: %w", err)
		}
		loader := config.NewLoaderAt(os.DevNull, home)
		fallback, err := loader.Load()
		if err != nil {
			return fmt.Errorf("load default config: %w", err)
		}
		cfg = fallback
	}

	executor := dzexec.New()
	store := registry.NewStore(cfg.Storage.Registry)
	engine := container.NewDockerEngine(executor, container.DockerConfig{
		StopTimeout: cfg.Engine.StopTimeout,
	})
	mat := workspace.NewMaterializer(cfg.Storage.DataDir)
	alloc := ports.NewAllocator(cfg.Ports.Base, cfg.Ports.Span)

	mgr = manager.NewManager(store, engine, mat, alloc, manager.Config{
		Image:       cfg.Image,
		Env:         cfg.Env,
		EngineFlags: cfg.Engine.Flags,
		PurgeOnStop: cfg.Ephemeral.PurgeOnStop,
	})

	return nil
}
