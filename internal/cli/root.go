// Package cli implements the cloudsync command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ning0612/cloudsync/internal/config"
	"github.com/Ning0612/cloudsync/internal/domain"
	"github.com/Ning0612/cloudsync/internal/logger"
	"github.com/Ning0612/cloudsync/internal/registry"
	"github.com/Ning0612/cloudsync/internal/store"
)

// Version is set at build time
var Version = "dev"

// Exit codes
const (
	ExitOK       = 0
	ExitError    = 1
	ExitInvalid  = 2
	ExitNotFound = 3
	ExitCapacity = 4
	ExitRemote   = 5
)

// app carries what the commands share for one invocation
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	verbose    bool
	jsonOutput bool

	cfg   *config.Config
	store store.Store
	reg   *registry.Registry
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cloudsync",
		Short: "Manage folder sync configurations for Google Drive and OneDrive",
		Long: `cloudsync pairs local folders with cloud folders.

Browse local and remote folder trees, then save up to 10 sync
configurations, each with its own sync mode.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output in JSON format")

	root.AddCommand(a.configCmd())
	root.AddCommand(a.browseCmd())
	root.AddCommand(a.authCmd())
	return root
}

// setup loads the configuration and starts logging
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := cfg.LoggerConfig()
	if a.verbose {
		logCfg.Level = logger.LevelDebug
	}
	if err := logger.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Component("cli").Debug("command started", "command", cmd.CommandPath(), "store", cfg.Store.Backend)
	return nil
}

// registry opens the configured store on first use
func (a *app) registry() (*registry.Registry, error) {
	if a.reg != nil {
		return a.reg, nil
	}
	st, err := store.Open(a.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a.store = st
	a.reg = registry.New(st)
	return a.reg, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := store.Close(a.store); err != nil {
			logger.Component("cli").Warn("failed to close store", "error", err)
		}
	}
	logger.Shutdown()
}

// run executes args and returns the exit code
func (a *app) run(ctx context.Context, args []string) int {
	defer a.close()

	root := a.rootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(a.errOut, "Error:", err)
		return exitCode(err)
	}
	return ExitOK
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, domain.ErrCapacityExceeded):
		return ExitCapacity
	case errors.Is(err, domain.ErrInvalidConfig), errors.Is(err, domain.ErrConfigInvalid),
		errors.Is(err, domain.ErrConfigNotFound), errors.Is(err, domain.ErrUnknownProvider):
		return ExitInvalid
	case errors.Is(err, domain.ErrRemoteListing):
		return ExitRemote
	}
	return ExitError
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newApp(os.Stdin, os.Stdout, os.Stderr).run(ctx, os.Args[1:])
}
