package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/restormel-dev/restormel/internal/events"
	"github.com/restormel-dev/restormel/internal/report"
)

func newReportCmd() *cobra.Command {
	var inputPath string
	var summaryPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize a saved JSON audit report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return errors.New("--input is required")
			}

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return err
			}

			var rep report.Report
			if err := json.Unmarshal(data, &rep); err != nil {
				return fmt.Errorf("decode %s: %w", inputPath, err)
			}

			stats := reportStats(rep)
			stats["input"] = inputPath
			stats["sizeBytes"] = len(data)
			stats["generatedAt"] = time.Now().UTC().Format(time.RFC3339)

			emitter := events.NewEmitter(cmd.OutOrStdout())
			if err := emitter.Emit(events.Event{Type: events.TypeReport, Message: "Report generated", Fields: stats}); err != nil {
				return err
			}

			if summaryPath != "" {
				if err := writeReportSummary(summaryPath, stats); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Summary written to %s\n", summaryPath)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Path to a JSON audit report (audit --format json or --summary-file)")
	cmd.Flags().StringVar(&summaryPath, "summary-file", "", "Optional path to store summary JSON")
	if err := cmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}

	return cmd
}

func reportStats(rep report.Report) map[string]interface{} {
	byPattern := map[string]int{}
	for _, f := range rep.FlaggedFiles {
		for _, name := range f.DangerousNames {
			byPattern[name]++
		}
	}

	return map[string]interface{}{
		"root":             rep.Root,
		"filesScanned":     rep.FilesScanned,
		"totalSecretCount": rep.TotalSecretCount,
		"flaggedFiles":     len(rep.FlaggedFiles),
		"dangerousFiles":   len(rep.DangerousFiles()),
		"dangerousByName":  byPattern,
		"skipped":          len(rep.Skipped),
	}
}

func writeReportSummary(path string, stats map[string]interface{}) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	if err := ensureOutputDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
