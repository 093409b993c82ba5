package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/restormel-dev/restormel/internal/config"
)

// runtimeFlagSet tracks shared audit/init/doctor flags before they are converted into config overrides.
type runtimeFlagSet struct {
	extensions     string
	ignore         string
	format         string
	failOnFindings bool
	workers        int
	color          string
	summaryFile    string
}

func bindRuntimeFlags(cmd *cobra.Command, flags *runtimeFlagSet) {
	cmd.Flags().StringVar(&flags.extensions, "ext", "", "Comma-separated file extensions to scan (overrides config)")
	cmd.Flags().StringVar(&flags.ignore, "ignore", "", "Comma-separated directory or file names to skip (overrides config; empty to skip nothing)")
	cmd.Flags().StringVar(&flags.format, "format", "", "Output format: text or json")
	cmd.Flags().BoolVar(&flags.failOnFindings, "fail-on-findings", false, "Exit non-zero when any file is flagged")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, fmt.Sprintf("Number of files scanned in parallel (1-%d)", config.MaxWorkers))
	cmd.Flags().StringVar(&flags.color, "color", "", "Colour output: auto, always, or never")
	cmd.Flags().StringVar(&flags.summaryFile, "summary-file", "", "Optional path for a JSON copy of the report")
}

func (f runtimeFlagSet) toOverrides(fs *pflag.FlagSet) config.Overrides {
	ov := config.Overrides{}
	if fs.Changed("ext") {
		ov.Extensions = config.ParseList(f.extensions)
	}

	if fs.Changed("ignore") {
		ov.Ignore = config.ParseList(f.ignore)
		ov.IgnoreSet = true
	}

	if fs.Changed("format") {
		ov.Format = f.format
	}

	if fs.Changed("fail-on-findings") {
		ov.FailOnFindings = &f.failOnFindings
	}

	if fs.Changed("workers") {
		ov.Workers = f.workers
		ov.WorkersSet = true
	}

	if fs.Changed("color") {
		ov.Color = f.color
	}

	if fs.Changed("summary-file") {
		ov.SummaryFile = f.summaryFile
	}

	return ov
}
