package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultExtensions lists the file suffixes scanned when none are configured.
func DefaultExtensions() []string {
	return []string{".ts", ".tsx", ".js", ".jsx"}
}

// DefaultIgnore lists the basenames that are never descended into.
func DefaultIgnore() []string {
	return []string{"node_modules", ".next", ".git", "dist", "build"}
}

// Config describes a single tree walk.
type Config struct {
	RootDir           string
	AllowedExtensions []string
	IgnoredNames      []string
}

// Skipped records an entry that could not be read during the walk.
type Skipped struct {
	Path string
	Err  error
}

func (s Skipped) Error() string {
	return s.Path + ": " + s.Err.Error()
}

// Result is the outcome of a walk. Files holds absolute paths in
// depth-first, lexical order.
type Result struct {
	Files   []string
	Skipped []Skipped
}

// Walk enumerates the files under cfg.RootDir whose names end with one of the
// allowed extensions. Entries whose basename is in the ignore set are skipped
// at any depth. A missing root yields an empty result.
func Walk(cfg Config, log zerolog.Logger) (Result, error) {
	var result Result

	root, err := ResolveRoot(cfg.RootDir)
	if err != nil {
		return result, err
	}

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("root", root).Msg("root directory does not exist; nothing to scan")
			return result, nil
		}
		return result, fmt.Errorf("stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return result, fmt.Errorf("root %s is not a directory", root)
	}

	ignore := make(map[string]struct{}, len(cfg.IgnoredNames))
	for _, name := range cfg.IgnoredNames {
		ignore[name] = struct{}{}
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			log.Warn().Err(walkErr).Str("path", path).Msg("skipping unreadable entry")
			result.Skipped = append(result.Skipped, Skipped{Path: path, Err: walkErr})
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}

		if path == root {
			return nil
		}

		if _, skip := ignore[d.Name()]; skip {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if hasAllowedExtension(d.Name(), cfg.AllowedExtensions) {
			result.Files = append(result.Files, path)
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("walk %s: %w", root, err)
	}

	return result, nil
}

// ResolveRoot returns the absolute form of dir with symlinks evaluated, so a
// root reached through a link is walked as the directory it points to. A
// missing dir is returned in absolute form without error.
func ResolveRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve root %s: %w", dir, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return abs, nil
		}
		return "", fmt.Errorf("resolve root %s: %w", dir, err)
	}
	return resolved, nil
}

func hasAllowedExtension(name string, extensions []string) bool {
	for _, ext := range extensions {
		if ext != "" && strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
