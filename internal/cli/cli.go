// Package cli provides the command-line interface for esql.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/canonica-labs/esql/internal/config"
	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/observability"
	"github.com/canonica-labs/esql/internal/storage"
)

// Exit codes
const (
	ExitSuccess     = 0
	ExitValidation  = 1
	ExitParse       = 2
	ExitTransport   = 3
	ExitUnsupported = 4
	ExitInternal    = 5
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Options configure a CLI. Zero values use the process streams and the
// profile store named in the configuration.
type Options struct {
	Out   io.Writer
	Err   io.Writer
	In    io.Reader
	Store *storage.ProfileStore
}

// CLI holds the command-line interface state.
type CLI struct {
	rootCmd *cobra.Command
	cfg     *config.Config

	out   io.Writer
	err   io.Writer
	in    io.Reader
	store *storage.ProfileStore
	close func() error

	logger    *zap.Logger
	reqLogger observability.RequestLogger

	// Global flags
	configPath  string
	profileName string
	endpoint    string
	username    string
	password    string
	version     string
	jsonOutput  bool
	quiet       bool
	debug       bool
}

// New creates a CLI on the process streams.
func New() *CLI {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a CLI with injected streams and store.
func NewWithOptions(opts Options) *CLI {
	c := &CLI{out: opts.Out, err: opts.Err, in: opts.In, store: opts.Store}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.err == nil {
		c.err = os.Stderr
	}
	if c.in == nil {
		c.in = os.Stdin
	}
	c.rootCmd = c.newRootCmd()
	return c
}

// Execute runs the CLI with os.Args and returns the process exit code.
func (c *CLI) Execute() int {
	return c.ExecuteArgs(os.Args[1:])
}

// ExecuteArgs runs the CLI with args and returns the process exit code.
func (c *CLI) ExecuteArgs(args []string) int {
	c.rootCmd.SetArgs(args)
	err := c.rootCmd.Execute()
	c.shutdown()
	if err == nil {
		return ExitSuccess
	}
	c.printError(err)
	return exitCode(err)
}

func exitCode(err error) int {
	switch cerrors.CodeOf(err) {
	case cerrors.CodeValidation:
		return ExitValidation
	case cerrors.CodeParse:
		return ExitParse
	case cerrors.CodeTransport:
		return ExitTransport
	case cerrors.CodeUnsupported:
		return ExitUnsupported
	default:
		return ExitInternal
	}
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "esql",
		Short: "esql - SQL and structured queries for Elasticsearch",
		Long: `esql talks to Elasticsearch clusters from 5.x to 8.x.

It provides:
  • SQL-Lite statements compiled to the query DSL
  • Index, document, template and ILM management
  • One client shape across cluster generations

Connections are stored as profiles; passwords live in the OS keyring.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}
	cmd.SetOut(c.out)
	cmd.SetErr(c.err)
	cmd.SetIn(c.in)

	// Global flags
	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.esql/config.yaml)")
	cmd.PersistentFlags().StringVarP(&c.profileName, "profile", "p", "", "connection profile")
	cmd.PersistentFlags().StringVar(&c.endpoint, "endpoint", "", "cluster endpoint, bypassing profiles")
	cmd.PersistentFlags().StringVar(&c.username, "username", "", "basic auth user for --endpoint")
	cmd.PersistentFlags().StringVar(&c.password, "password", "", "basic auth password for --endpoint")
	cmd.PersistentFlags().StringVar(&c.version, "es-version", "", "cluster version, skipping detection")
	cmd.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "machine-readable JSON output")
	cmd.PersistentFlags().BoolVar(&c.quiet, "quiet", false, "suppress non-essential output")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "log every request")

	cmd.AddCommand(c.newProfileCmd())
	cmd.AddCommand(c.newInfoCmd())
	cmd.AddCommand(c.newHealthCmd())
	cmd.AddCommand(c.newIndicesCmd())
	cmd.AddCommand(c.newMappingCmd())
	cmd.AddCommand(c.newAllocationCmd())
	cmd.AddCommand(c.newSQLCmd())
	cmd.AddCommand(c.newSearchCmd())
	cmd.AddCommand(c.newBrowseCmd())
	cmd.AddCommand(c.newBulkCmd())
	cmd.AddCommand(c.newIndexCmd())
	cmd.AddCommand(c.newDocCmd())
	cmd.AddCommand(c.newTemplateCmd())
	cmd.AddCommand(c.newIlmCmd())
	cmd.AddCommand(c.newRequestCmd())
	cmd.AddCommand(c.newDoctorCmd())
	cmd.AddCommand(c.newVersionCmd())

	return cmd
}

func (c *CLI) initConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	logCfg := cfg.Logging
	if c.debug {
		logCfg.Level = "debug"
	}
	logger, err := observability.NewLogger(logCfg)
	if err != nil {
		return err
	}
	c.logger = logger
	c.reqLogger = observability.NewZapLogger(logger)
	return nil
}

// profiles returns the profile store, opening it on first use.
func (c *CLI) profiles(ctx context.Context) (*storage.ProfileStore, error) {
	if c.store != nil {
		return c.store, nil
	}
	repo, err := storage.OpenSQLite(ctx, c.cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	secrets, err := storage.OpenKeyring(c.cfg.Storage.Keyring)
	if err != nil {
		repo.Close()
		return nil, err
	}
	c.store = storage.NewProfileStore(repo, secrets)
	c.close = repo.Close
	return c.store, nil
}

func (c *CLI) shutdown() {
	if c.close != nil {
		if err := c.close(); err != nil && c.logger != nil {
			c.logger.Warn("failed to close profile store", zap.Error(err))
		}
		c.close = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

// Helper functions for output

func (c *CLI) printf(format string, args ...any) {
	if !c.quiet {
		fmt.Fprintf(c.out, format, args...)
	}
}

func (c *CLI) println(args ...any) {
	if !c.quiet {
		fmt.Fprintln(c.out, args...)
	}
}

func (c *CLI) errorf(format string, args ...any) {
	fmt.Fprintf(c.err, format, args...)
}
