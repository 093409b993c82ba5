package scanner

import (
	"fmt"
	"os"
	"strings"

	"github.com/restormel-dev/restormel/internal/patterns"
)

// Occurrence locates the first hit of a dangerous pattern within a file.
type Occurrence struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

// Result is the per-file outcome of a scan.
type Result struct {
	SecretCount    int
	DangerousNames []string
	Occurrences    []Occurrence
}

// Flagged reports whether the file has any finding worth listing.
func (r Result) Flagged() bool {
	return r.SecretCount > 0 || len(r.DangerousNames) > 0
}

// FileAccessError is returned when a file cannot be read.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("read file %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}

// Scanner applies a pattern catalog to file contents. It holds no mutable
// state and may be shared across goroutines.
type Scanner struct {
	catalog patterns.Catalog
}

// New creates a Scanner for the given catalog.
func New(catalog patterns.Catalog) *Scanner {
	return &Scanner{catalog: catalog}
}

// ScanFile reads the file at path and scans its contents.
func (s *Scanner) ScanFile(path string) (Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Result{}, &FileAccessError{Path: path, Err: err}
	}
	return s.ScanContent(string(content)), nil
}

// ScanContent counts every non-overlapping secret match and records which
// dangerous patterns appear at least once, in catalog order.
func (s *Scanner) ScanContent(content string) Result {
	var res Result

	for _, re := range s.catalog.Secrets() {
		res.SecretCount += len(re.FindAllStringIndex(content, -1))
	}

	for _, d := range s.catalog.Dangerous() {
		loc := d.Regex.FindStringIndex(content)
		if loc == nil {
			continue
		}
		res.DangerousNames = append(res.DangerousNames, d.Name)
		res.Occurrences = append(res.Occurrences, Occurrence{
			Name: d.Name,
			Line: strings.Count(content[:loc[0]], "\n") + 1,
		})
	}

	return res
}
