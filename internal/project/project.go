package project

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Kind distinguishes an empty folder from an existing JavaScript project.
type Kind string

const (
	KindNew      Kind = "new"
	KindExisting Kind = "existing"
)

// PackageManager names a JavaScript package manager.
type PackageManager string

const (
	NPM  PackageManager = "npm"
	PNPM PackageManager = "pnpm"
	Yarn PackageManager = "yarn"
)

// Locator resolves and queries package manager binaries.
type Locator interface {
	EnsureBinary(name string) (string, error)
	Version(ctx context.Context, name string) (string, error)
}

// PathLocator looks binaries up on PATH.
type PathLocator struct{}

// NewLocator returns the default PATH-based locator.
func NewLocator() Locator {
	return PathLocator{}
}

// EnsureBinary verifies that the binary is discoverable on PATH.
func (PathLocator) EnsureBinary(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s binary not found: %w", name, err)
	}
	return path, nil
}

// Version runs `<name> --version` and returns its trimmed output.
func (PathLocator) Version(ctx context.Context, name string) (string, error) {
	// name is one of the PackageManager constants, never user input.
	cmd := exec.CommandContext(ctx, name, "--version") // #nosec G204
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}

	version := strings.TrimSpace(string(output))
	if version == "" {
		return "unknown", nil
	}
	return version, nil
}

// DetectKind reports KindNew when dir has no package.json or an empty one.
func DetectKind(dir string) Kind {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return KindNew
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return KindNew
	}
	return KindExisting
}

// DetectPackageManager picks the package manager from the lockfile present in
// dir, falling back to npm.
func DetectPackageManager(dir string) PackageManager {
	if fileExists(filepath.Join(dir, "pnpm-lock.yaml")) {
		return PNPM
	}
	if fileExists(filepath.Join(dir, "yarn.lock")) {
		return Yarn
	}
	return NPM
}

// AuditScript returns the "audit" entry of package.json scripts, if any.
func AuditScript(dir string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return "", false
	}

	var pkg struct {
		Scripts map[string]string `json:"scripts"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", false
	}

	script, ok := pkg.Scripts["audit"]
	return script, ok && script != ""
}

// Inspection summarizes what Inspect learned about a directory.
type Inspection struct {
	Dir            string
	Kind           Kind
	PackageManager PackageManager
	BinaryPath     string
	BinaryErr      error
	AuditScript    string
}

// Inspect gathers read-only facts about the project in dir.
func Inspect(dir string, loc Locator) Inspection {
	in := Inspection{
		Dir:            dir,
		Kind:           DetectKind(dir),
		PackageManager: DetectPackageManager(dir),
	}
	in.BinaryPath, in.BinaryErr = loc.EnsureBinary(string(in.PackageManager))
	in.AuditScript, _ = AuditScript(dir)
	return in
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
