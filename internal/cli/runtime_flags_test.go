package cli

import (
	"reflect"
	"testing"

	"github.com/spf13/cobra"

	"github.com/restormel-dev/restormel/internal/config"
)

func TestRuntimeFlagSetToOverrides(t *testing.T) {
	yes := true

	tests := []struct {
		name     string
		args     []string
		expected config.Overrides
	}{
		{
			name:     "no flags changed returns empty overrides",
			expected: config.Overrides{},
		},
		{
			name:     "extensions are split",
			args:     []string{"--ext", ".ts,.vue"},
			expected: config.Overrides{Extensions: []string{".ts", ".vue"}},
		},
		{
			name:     "ignore list",
			args:     []string{"--ignore=vendor,coverage"},
			expected: config.Overrides{Ignore: []string{"vendor", "coverage"}, IgnoreSet: true},
		},
		{
			name:     "empty ignore list is still an override",
			args:     []string{"--ignore", ""},
			expected: config.Overrides{IgnoreSet: true},
		},
		{
			name:     "format",
			args:     []string{"--format", "json"},
			expected: config.Overrides{Format: "json"},
		},
		{
			name:     "fail on findings",
			args:     []string{"--fail-on-findings"},
			expected: config.Overrides{FailOnFindings: &yes},
		},
		{
			name:     "workers",
			args:     []string{"--workers", "4"},
			expected: config.Overrides{Workers: 4, WorkersSet: true},
		},
		{
			name:     "color and summary file",
			args:     []string{"--color", "never", "--summary-file", "out/audit.json"},
			expected: config.Overrides{Color: "never", SummaryFile: "out/audit.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}
			flags := &runtimeFlagSet{}
			bindRuntimeFlags(cmd, flags)

			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}

			got := flags.toOverrides(cmd.Flags())
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("toOverrides() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}
