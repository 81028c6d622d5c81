// Package batch colorizes many files at once: a folder scan, a bounded
// worker pool that isolates per-file failures, and an inbox watcher.
package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"colorizer/imageio"
)

// OutputPrefix is prepended to every colorized file name.
const OutputPrefix = "colorized_"

// Batch errors
var (
	ErrNoInputs    = errors.New("batch: no supported images")
	ErrSkipped     = errors.New("batch: item skipped after cancellation")
	ErrUnsupported = errors.New("batch: unsupported file extension")
)

// Job is one file to colorize. Name is the file name the output is derived
// from; when empty the base name of Input is used.
type Job struct {
	Input string
	Name  string
}

// ItemResult is the outcome of one job.
type ItemResult struct {
	Input    string        `json:"input"`
	Output   string        `json:"output,omitempty"`
	Success  bool          `json:"success"`
	Degraded bool          `json:"degraded,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`

	// Err is the underlying error for callers that need errors.Is.
	Err error `json:"-"`
}

// Report summarizes a batch run.
type Report struct {
	Items          []ItemResult  `json:"items"`
	ProcessedCount int           `json:"processed_count"`
	TotalCount     int           `json:"total_count"`
	DegradedCount  int           `json:"degraded_count"`
	OutputDir      string        `json:"output_dir"`
	Duration       time.Duration `json:"duration"`
}

// FailedCount returns the number of unsuccessful items.
func (r Report) FailedCount() int {
	return r.TotalCount - r.ProcessedCount
}

// Progress is reported after each job finishes.
type Progress struct {
	Completed int        `json:"completed"`
	Total     int        `json:"total"`
	Item      ItemResult `json:"item"`
}

// OutputName returns the colorized file name for an input name.
// This is a pure function with no side effects.
func OutputName(name string) string {
	return OutputPrefix + filepath.Base(name)
}

// OutputDirName returns the timestamped folder name for a batch run.
// This is a pure function with no side effects.
func OutputDirName(now time.Time) string {
	return "colorized_batch_" + now.Format("20060102_150405")
}

// Scan lists supported images directly inside dir, sorted by name.
// Previously colorized outputs are skipped.
func Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageio.IsSupportedExt(e.Name()) || strings.HasPrefix(e.Name(), OutputPrefix) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputs, dir)
	}
	return files, nil
}

// JobsFor wraps plain paths as jobs.
func JobsFor(paths []string) []Job {
	jobs := make([]Job, len(paths))
	for i, p := range paths {
		jobs[i] = Job{Input: p}
	}
	return jobs
}
