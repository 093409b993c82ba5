package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/restormel-dev/restormel/internal/config"
	"github.com/restormel-dev/restormel/internal/events"
	"github.com/restormel-dev/restormel/internal/report"
	"github.com/restormel-dev/restormel/internal/scanner"
	"github.com/restormel-dev/restormel/internal/walker"
)

func newAuditCmd(g *globals) *cobra.Command {
	flags := &runtimeFlagSet{}
	var emitEvents bool

	cmd := &cobra.Command{
		Use:   "audit [dir]",
		Short: "Scan a project for likely secrets and dangerous browser APIs",
		Long: `The audit subcommand walks dir (default: the current directory), scans every
matching source file for secret-shaped strings and dangerous APIs such as eval
or innerHTML, and prints a summary. Findings are advisory and
do not change the exit status unless --fail-on-findings is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := flags.toOverrides(cmd.Flags())
			if len(args) == 1 {
				overrides.Root = args[0]
			}
			return executeAudit(cmd, g, overrides, emitEvents)
		},
	}

	bindRuntimeFlags(cmd, flags)
	cmd.Flags().BoolVar(&emitEvents, "events", false, "Stream NDJSON progress events to stderr")

	return cmd
}

// executeAudit runs one audit with the merged configuration and writes the
// report to cmd's output streams.
func executeAudit(cmd *cobra.Command, g *globals, overrides config.Overrides, emitEvents bool) error {
	cfg, err := g.loader.Load(overrides)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := g.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		return err
	}

	root, err := walker.ResolveRoot(cfg.Root)
	if err != nil {
		return err
	}

	emitter := events.Discard()
	if emitEvents {
		emitter = events.NewEmitter(cmd.ErrOrStderr())
	}
	log = log.With().Str("run", emitter.RunID()).Logger()

	if err := emitter.Emit(events.Event{Type: events.TypeAuditStart, Message: "Starting audit", Fields: map[string]interface{}{
		"root":       root,
		"extensions": cfg.Extensions,
		"ignore":     cfg.Ignore,
		"workers":    cfg.Workers,
	}}); err != nil {
		return err
	}

	walked, err := walker.Walk(cfg.WalkConfig(root), log)
	if err != nil {
		return err
	}
	log.Debug().Int("files", len(walked.Files)).Msg("walk complete")

	onSkip := func(s report.SkippedFile) {
		if err := emitter.Emit(events.Event{Type: events.TypeFileSkipped, Fields: map[string]interface{}{"path": s.Path, "reason": s.Reason}}); err != nil {
			log.Warn().Err(err).Msg("emit event")
		}
	}

	agg := &report.Aggregator{
		Scanner: scanner.New(catalog),
		Workers: cfg.Workers,
		Logger:  log,
		OnSkip:  onSkip,
	}

	rep, err := agg.Aggregate(cmd.Context(), walked.Files, root)
	if err != nil {
		return fmt.Errorf("audit %s: %w", root, err)
	}
	recordWalkSkips(&rep, walked.Skipped, onSkip)

	if err := writeReport(cmd, cfg, rep); err != nil {
		return err
	}

	if cfg.SummaryFile != "" {
		if err := writeSummary(cfg.SummaryFile, rep); err != nil {
			return err
		}
	}

	if err := emitter.Emit(events.Event{Type: events.TypeAuditFinished, Message: "Audit complete", Fields: map[string]interface{}{
		"filesScanned":     rep.FilesScanned,
		"totalSecretCount": rep.TotalSecretCount,
		"flaggedFiles":     len(rep.FlaggedFiles),
		"skipped":          len(rep.Skipped),
	}}); err != nil {
		return err
	}

	if cfg.FailOnFindings && rep.HasFindings() {
		return fmt.Errorf("%w: %d flagged file(s)", ErrFindings, len(rep.FlaggedFiles))
	}
	return nil
}

// recordWalkSkips adds entries the walker could not read to rep and reports
// each through onSkip, as the aggregator does for unreadable files.
func recordWalkSkips(rep *report.Report, skipped []walker.Skipped, onSkip func(report.SkippedFile)) {
	for _, s := range skipped {
		entry := rep.AddSkipped(s.Path, s.Err)
		if onSkip != nil {
			onSkip(entry)
		}
	}
}

func writeReport(cmd *cobra.Command, cfg config.RuntimeConfig, rep report.Report) error {
	out := cmd.OutOrStdout()
	if cfg.Format == config.FormatJSON {
		return report.RenderJSON(out, rep)
	}
	return report.Render(out, rep, report.Style{Color: useColor(cfg.Color, out)})
}

func writeSummary(path string, rep report.Report) error {
	f, err := createOutputFile(path)
	if err != nil {
		return err
	}
	if err := report.RenderJSON(f, rep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
