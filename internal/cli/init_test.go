package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/restormel-dev/restormel/internal/config"
)

func runInit(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newInitCmd(&globals{loader: &config.Loader{ConfigPath: configPath}})
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestInitCommandWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultConfigPath)

	out, err := runInit(t, path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Wrote "+path) {
		t.Fatalf("unexpected output: %s", out)
	}

	cfg, err := config.Loader{ConfigPath: path}.Load(config.Overrides{})
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("written config invalid: %v", err)
	}
}

func TestInitCommandKeepsExistingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultConfigPath)
	original := []byte("format: json\n")
	if err := os.WriteFile(path, original, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := runInit(t, path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Configuration looks good") {
		t.Fatalf("unexpected output: %s", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(data, original) {
		t.Fatalf("existing config should be untouched, got %q", data)
	}
}

func TestInitCommandForceWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultConfigPath)
	if err := os.WriteFile(path, []byte("format: json\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := runInit(t, path, "--force", "--ext", "ts,vue"); err != nil {
		t.Fatalf("init --force: %v", err)
	}

	cfg, err := config.Loader{ConfigPath: path}.Load(config.Overrides{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Format != config.FormatJSON {
		t.Fatalf("force should keep settings from the existing file, got format %s", cfg.Format)
	}
	if len(cfg.Extensions) != 2 || cfg.Extensions[1] != ".vue" {
		t.Fatalf("expected extensions override to be persisted, got %v", cfg.Extensions)
	}
}

func TestInitCommandRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultConfigPath)
	if _, err := runInit(t, path, "--workers", "0"); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("no file should be written for an invalid configuration")
	}
}

func TestInitCommandPersistsRuntimeFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(config.RuntimeConfig) bool
	}{
		{name: "ext", args: []string{"--ext", "mjs"}, check: func(c config.RuntimeConfig) bool {
			return len(c.Extensions) == 1 && c.Extensions[0] == ".mjs"
		}},
		{name: "ignore", args: []string{"--ignore", "vendor"}, check: func(c config.RuntimeConfig) bool {
			return len(c.Ignore) == 1 && c.Ignore[0] == "vendor"
		}},
		{name: "empty ignore", args: []string{"--ignore", ""}, check: func(c config.RuntimeConfig) bool {
			return len(c.Ignore) == 0
		}},
		{name: "format", args: []string{"--format", "json"}, check: func(c config.RuntimeConfig) bool {
			return c.Format == config.FormatJSON
		}},
		{name: "fail-on-findings", args: []string{"--fail-on-findings"}, check: func(c config.RuntimeConfig) bool {
			return c.FailOnFindings
		}},
		{name: "workers", args: []string{"--workers", "4"}, check: func(c config.RuntimeConfig) bool {
			return c.Workers == 4
		}},
		{name: "color", args: []string{"--color", "never"}, check: func(c config.RuntimeConfig) bool {
			return c.Color == config.ColorNever
		}},
		{name: "summary-file", args: []string{"--summary-file", "out/audit.json"}, check: func(c config.RuntimeConfig) bool {
			return c.SummaryFile == "out/audit.json"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), config.DefaultConfigPath)
			if _, err := runInit(t, path, tt.args...); err != nil {
				t.Fatalf("init %v: %v", tt.args, err)
			}

			cfg, err := config.Loader{ConfigPath: path}.Load(config.Overrides{})
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if !tt.check(cfg) {
				t.Fatalf("init %v was not persisted, reloaded %+v", tt.args, cfg)
			}
		})
	}
}
