package cli

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/restormel-dev/restormel/internal/config"
	"github.com/restormel-dev/restormel/internal/logging"
)

var version = "1.0.0"

// ErrFindings is returned by audit when findings are configured to fail the run.
var ErrFindings = errors.New("findings detected")

// Execute builds the root command tree and runs the CLI.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI with ctx available to every command.
func ExecuteContext(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// globals carries state shared by every subcommand.
type globals struct {
	loader   *config.Loader
	logLevel string
}

func (g *globals) logger(w io.Writer) (zerolog.Logger, error) {
	return logging.New(w, g.logLevel, false)
}

func newRootCmd() *cobra.Command {
	g := &globals{loader: &config.Loader{ConfigPath: config.DefaultConfigPath}}
	rootOpts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "restormel",
		Short:         "Security audit for JavaScript and TypeScript projects",
		Long: `Restormel scans JavaScript and TypeScript sources for likely secrets and
dangerous browser APIs. Run without a subcommand it audits the current
directory using the configuration file and RESTORMEL_* environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeAudit(cmd, g, config.Overrides{}, false)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	rootCmd.SetVersionTemplate("restormel version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&rootOpts.ConfigPath, "config", config.DefaultConfigPath, "Path to restormel.config.yml (optional)")
	rootCmd.PersistentFlags().StringVar(&rootOpts.LogLevel, "log-level", logging.DefaultLevel, "Diagnostic log level (debug, info, warn, error)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if rootOpts.ConfigPath != "" {
			g.loader.ConfigPath = rootOpts.ConfigPath
		}
		g.logLevel = rootOpts.LogLevel
	}

	rootCmd.AddCommand(
		newAuditCmd(g),
		newInitCmd(g),
		newDoctorCmd(g, nil),
		newReportCmd(),
	)

	return rootCmd
}

type rootOptions struct {
	ConfigPath string
	LogLevel   string
}
