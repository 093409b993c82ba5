package report

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/restormel-dev/restormel/internal/scanner"
)

// FlaggedFile is a scanned file with at least one finding.
type FlaggedFile struct {
	Path           string               `json:"path"`
	SecretCount    int                  `json:"secretCount"`
	DangerousNames []string             `json:"dangerousNames"`
	Occurrences    []scanner.Occurrence `json:"occurrences,omitempty"`
}

// SkippedFile is a path that could not be read during the audit.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report is the aggregate outcome of one audit run.
type Report struct {
	Root             string        `json:"root"`
	FilesScanned     int           `json:"filesScanned"`
	TotalSecretCount int           `json:"totalSecretCount"`
	FlaggedFiles     []FlaggedFile `json:"flaggedFiles"`
	Skipped          []SkippedFile `json:"skipped,omitempty"`
}

// HasFindings reports whether any file was flagged.
func (r Report) HasFindings() bool {
	return r.TotalSecretCount > 0 || len(r.FlaggedFiles) > 0
}

// DangerousFiles returns the flagged files that contain dangerous patterns.
func (r Report) DangerousFiles() []FlaggedFile {
	var out []FlaggedFile
	for _, f := range r.FlaggedFiles {
		if len(f.DangerousNames) > 0 {
			out = append(out, f)
		}
	}
	return out
}

// AddSkipped records a path that was not scanned and returns the entry.
func (r *Report) AddSkipped(path string, err error) SkippedFile {
	skipped := SkippedFile{Path: RelPath(r.Root, path), Reason: err.Error()}
	r.Skipped = append(r.Skipped, skipped)
	return skipped
}

// FileScanner scans a single file.
type FileScanner interface {
	ScanFile(path string) (scanner.Result, error)
}

// Aggregator folds per-file scan results into a Report.
type Aggregator struct {
	Scanner FileScanner
	// Workers bounds parallel file scans. Values below 2 scan sequentially.
	Workers int
	Logger  zerolog.Logger
	// OnSkip, when set, is called for every file that could not be read.
	OnSkip func(SkippedFile)
}

type outcome struct {
	result scanner.Result
	err    error
}

// Aggregate scans files and folds the results in the order given. Files that
// cannot be read are recorded in Report.Skipped and do not stop the run.
func (a *Aggregator) Aggregate(ctx context.Context, files []string, root string) (Report, error) {
	rep := Report{Root: root, FlaggedFiles: []FlaggedFile{}}

	outcomes, err := a.scanAll(ctx, files)
	if err != nil {
		return Report{}, err
	}

	for i, path := range files {
		o := outcomes[i]
		rel := RelPath(root, path)
		if o.err != nil {
			skipped := SkippedFile{Path: rel, Reason: o.err.Error()}
			a.Logger.Warn().Err(o.err).Str("path", rel).Msg("skipping file")
			rep.Skipped = append(rep.Skipped, skipped)
			if a.OnSkip != nil {
				a.OnSkip(skipped)
			}
			continue
		}

		rep.FilesScanned++
		rep.TotalSecretCount += o.result.SecretCount
		if !o.result.Flagged() {
			continue
		}

		names := o.result.DangerousNames
		if names == nil {
			names = []string{}
		}
		rep.FlaggedFiles = append(rep.FlaggedFiles, FlaggedFile{
			Path:           rel,
			SecretCount:    o.result.SecretCount,
			DangerousNames: names,
			Occurrences:    o.result.Occurrences,
		})
	}

	return rep, nil
}

func (a *Aggregator) scanAll(ctx context.Context, files []string) ([]outcome, error) {
	outcomes := make([]outcome, len(files))

	if a.Workers < 2 {
		for i, path := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, err := a.Scanner.ScanFile(path)
			outcomes[i] = outcome{result: res, err: err}
		}
		return outcomes, nil
	}

	var wg sync.WaitGroup
	jobs := make(chan int)

	for w := 0; w < a.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := a.Scanner.ScanFile(files[i])
				outcomes[i] = outcome{result: res, err: err}
			}
		}()
	}

	var cancelled error
feed:
	for i := range files {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}
	return outcomes, nil
}

// RelPath returns path relative to root using forward slashes, or path
// unchanged when no relative form exists.
func RelPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
