package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/restormel-dev/restormel/internal/patterns"
	"github.com/restormel-dev/restormel/internal/walker"
)

const (
	DefaultConfigPath = "restormel.config.yml"

	// MaxWorkers caps the size of the file scanning pool.
	MaxWorkers = 64

	envRoot           = "RESTORMEL_ROOT"
	envExtensions     = "RESTORMEL_EXTENSIONS"
	envIgnore         = "RESTORMEL_IGNORE"
	envFormat         = "RESTORMEL_FORMAT"
	envFailOnFindings = "RESTORMEL_FAIL_ON_FINDINGS"
	envWorkers        = "RESTORMEL_WORKERS"
	envColor          = "RESTORMEL_COLOR"
	envSummaryFile    = "RESTORMEL_SUMMARY_FILE"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Colour modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Loader merges configuration coming from files, environment variables, and CLI flags.
type Loader struct {
	ConfigPath string
}

// RuntimeConfig contains the fully merged settings used by the audit commands.
type RuntimeConfig struct {
	Root              string
	Extensions        []string
	Ignore            []string
	Format            string
	FailOnFindings    bool
	Workers           int
	Color             string
	SummaryFile       string
	SecretPatterns    []string
	DangerousPatterns []patterns.Rule
}

// Overrides captures values coming from the config file, env vars, or CLI flags.
// IgnoreSet applies Ignore even when it is empty, which clears the default set.
type Overrides struct {
	Root              string
	Extensions        []string
	Ignore            []string
	IgnoreSet         bool
	Format            string
	FailOnFindings    *bool
	Workers           int
	WorkersSet        bool
	Color             string
	SummaryFile       string
	SecretPatterns    []string
	DangerousPatterns []patterns.Rule
}

// File is the on-disk YAML shape of restormel.config.yml.
type File struct {
	Root              string          `yaml:"root,omitempty"`
	Extensions        stringList      `yaml:"extensions,omitempty"`
	Ignore            *stringList     `yaml:"ignore,omitempty"`
	Format            string          `yaml:"format,omitempty"`
	FailOnFindings    *bool           `yaml:"failOnFindings,omitempty"`
	Workers           *int            `yaml:"workers,omitempty"`
	Color             string          `yaml:"color,omitempty"`
	SummaryFile       string          `yaml:"summaryFile,omitempty"`
	SecretPatterns    []string        `yaml:"secretPatterns,omitempty"`
	DangerousPatterns []patterns.Rule `yaml:"dangerousPatterns,omitempty"`
}

// DefaultRuntimeConfig returns the baseline configuration when no overrides are provided.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Root:       ".",
		Extensions: walker.DefaultExtensions(),
		Ignore:     walker.DefaultIgnore(),
		Format:     FormatText,
		Workers:    1,
		Color:      ColorAuto,
	}
}

// DefaultFile returns the YAML document written by `restormel init`.
func DefaultFile() File {
	return FileFrom(DefaultRuntimeConfig())
}

// FileFrom returns the YAML document that reloads as cfg. The default root is
// left implicit.
func FileFrom(cfg RuntimeConfig) File {
	fail := cfg.FailOnFindings
	workers := cfg.Workers
	ignore := stringList(append([]string{}, cfg.Ignore...))
	f := File{
		Extensions:        append(stringList{}, cfg.Extensions...),
		Ignore:            &ignore,
		Format:            cfg.Format,
		FailOnFindings:    &fail,
		Workers:           &workers,
		Color:             cfg.Color,
		SummaryFile:       cfg.SummaryFile,
		SecretPatterns:    cfg.SecretPatterns,
		DangerousPatterns: cfg.DangerousPatterns,
	}
	if cfg.Root != DefaultRuntimeConfig().Root {
		f.Root = cfg.Root
	}
	return f
}

// Load resolves the final runtime configuration.
func (l Loader) Load(override Overrides) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()
	path := l.ConfigPath
	if path == "" {
		path = DefaultConfigPath
	}

	if fileExists(path) {
		fileOv, err := loadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg.apply(fileOv)
	}

	envOv, err := overridesFromEnv()
	if err != nil {
		return cfg, err
	}
	cfg.apply(envOv)
	cfg.apply(override)

	return cfg, nil
}

// Validate ensures the config is usable by the audit command.
func (c RuntimeConfig) Validate() error {
	if c.Root == "" {
		return errors.New("root directory cannot be empty")
	}

	if len(c.Extensions) == 0 {
		return errors.New("at least one file extension must be specified")
	}

	if c.Workers < 1 || c.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d (got %d)", MaxWorkers, c.Workers)
	}

	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("unsupported format %q (want text or json)", c.Format)
	}

	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("unsupported color mode %q (want auto, always, or never)", c.Color)
	}

	return nil
}

// Catalog compiles the built-in patterns plus any configured extensions.
func (c RuntimeConfig) Catalog() (patterns.Catalog, error) {
	return patterns.Compile(c.SecretPatterns, c.DangerousPatterns)
}

// WalkConfig returns the walker settings for root.
func (c RuntimeConfig) WalkConfig(root string) walker.Config {
	return walker.Config{
		RootDir:           root,
		AllowedExtensions: c.Extensions,
		IgnoredNames:      c.Ignore,
	}
}

func (c *RuntimeConfig) apply(src Overrides) {
	if src.Root != "" {
		c.Root = src.Root
	}

	if len(src.Extensions) > 0 {
		c.Extensions = NormalizeExtensions(src.Extensions)
	}

	if src.IgnoreSet {
		c.Ignore = cleanList(src.Ignore)
	}

	if src.Format != "" {
		c.Format = strings.ToLower(strings.TrimSpace(src.Format))
	}

	if src.FailOnFindings != nil {
		c.FailOnFindings = *src.FailOnFindings
	}

	if src.WorkersSet {
		c.Workers = src.Workers
	}

	if src.Color != "" {
		c.Color = strings.ToLower(strings.TrimSpace(src.Color))
	}

	if src.SummaryFile != "" {
		c.SummaryFile = src.SummaryFile
	}

	if len(src.SecretPatterns) > 0 {
		c.SecretPatterns = append(c.SecretPatterns, src.SecretPatterns...)
	}

	if len(src.DangerousPatterns) > 0 {
		c.DangerousPatterns = append(c.DangerousPatterns, src.DangerousPatterns...)
	}
}

func loadFromFile(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, err
	}

	var raw File
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Overrides{}, err
	}

	over := Overrides{
		Root:              raw.Root,
		Extensions:        raw.Extensions,
		Format:            raw.Format,
		FailOnFindings:    raw.FailOnFindings,
		Color:             raw.Color,
		SummaryFile:       raw.SummaryFile,
		SecretPatterns:    raw.SecretPatterns,
		DangerousPatterns: raw.DangerousPatterns,
	}

	if raw.Ignore != nil {
		over.Ignore = *raw.Ignore
		over.IgnoreSet = true
	}

	if raw.Workers != nil {
		over.Workers = *raw.Workers
		over.WorkersSet = true
	}

	return over, nil
}

// WriteFile marshals f as YAML to path.
func WriteFile(path string, f File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func overridesFromEnv() (Overrides, error) {
	ov := Overrides{}

	if value := os.Getenv(envRoot); value != "" {
		ov.Root = value
	}

	if value := os.Getenv(envExtensions); value != "" {
		ov.Extensions = ParseList(value)
	}

	if value, ok := os.LookupEnv(envIgnore); ok {
		ov.Ignore = ParseList(value)
		ov.IgnoreSet = true
	}

	if value := os.Getenv(envFormat); value != "" {
		ov.Format = value
	}

	if value := os.Getenv(envFailOnFindings); value != "" {
		parsed := strings.EqualFold(value, "true") || value == "1"
		ov.FailOnFindings = &parsed
	}

	if value := os.Getenv(envWorkers); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return ov, fmt.Errorf("%s: %w", envWorkers, err)
		}
		ov.Workers = parsed
		ov.WorkersSet = true
	}

	if value := os.Getenv(envColor); value != "" {
		ov.Color = value
	}

	if value := os.Getenv(envSummaryFile); value != "" {
		ov.SummaryFile = value
	}

	return ov, nil
}

// ParseList splits comma, whitespace, or newline separated input.
func ParseList(input string) []string {
	return splitOnDelimiters(input, []rune{',', '\n', '\r', ' ', '\t'})
}

// NormalizeExtensions trims entries and ensures each starts with a dot.
func NormalizeExtensions(values []string) []string {
	var out []string
	for _, v := range cleanList(values) {
		if !strings.HasPrefix(v, ".") {
			v = "." + v
		}
		out = append(out, v)
	}
	return out
}

func splitOnDelimiters(input string, delims []rune) []string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}

	separator := func(r rune) bool {
		for _, d := range delims {
			if r == d {
				return true
			}
		}
		return false
	}

	return cleanList(strings.FieldsFunc(trimmed, separator))
}

func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		candidate := strings.TrimSpace(v)
		if candidate != "" {
			out = append(out, candidate)
		}
	}
	return out
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// stringList enables YAML fields that can be specified as a scalar or sequence.
type stringList []string

func (s *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var out []string
		for _, node := range value.Content {
			out = append(out, strings.TrimSpace(node.Value))
		}
		*s = cleanList(out)
	case yaml.ScalarNode:
		*s = ParseList(value.Value)
	default:
		return fmt.Errorf("unsupported YAML type for list")
	}
	return nil
}
