package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/restormel-dev/restormel/internal/config"
)

func newInitCmd(g *globals) *cobra.Command {
	flags := &runtimeFlagSet{}
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Validate configuration and write a default restormel.config.yml",
		Long: `The init subcommand validates the merged configuration and writes it to
restormel.config.yml. Runtime flags given to init are persisted in the file.
An existing file is kept unless --force is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := flags.toOverrides(cmd.Flags())
			cfg, err := g.loader.Load(overrides)
			if err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			if _, err := cfg.Catalog(); err != nil {
				return err
			}

			path := g.loader.ConfigPath
			if path == "" {
				path = config.DefaultConfigPath
			}

			if _, err := os.Stat(path); err == nil && !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration looks good. Using existing %s\n", path)
				return nil
			}

			if err := config.WriteFile(path, config.FileFrom(cfg)); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	bindRuntimeFlags(cmd, flags)
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")

	return cmd
}
