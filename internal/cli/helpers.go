package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/restormel-dev/restormel/internal/config"
)

func ensureOutputDir(path string) error {
	if path == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	return os.MkdirAll(path, 0o755)
}

// createOutputFile opens path for writing, creating parent directories.
func createOutputFile(path string) (*os.File, error) {
	if err := ensureOutputDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return os.Create(path)
}

// useColor resolves a colour mode against the writer the report goes to.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}

	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
