package colornet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"colorizer/core"

	"go.uber.org/zap"
)

// Fetcher downloads missing model files from a base URL. Each file is
// requested as <baseURL>/<file name>, resumed when a partial copy exists,
// and verified against its registered checksum.
type Fetcher struct {
	baseURL    string
	dir        string
	checksums  Checksums
	client     *http.Client
	logger     *zap.Logger
	maxRetries int
	retryDelay time.Duration

	// OnProgress, when set, receives download progress per file name.
	OnProgress func(name string, p core.ProgressInfo)
}

// FetcherOption is a functional option for configuring Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the HTTP client used for downloads.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithMaxRetries sets the number of download attempts per file.
func WithMaxRetries(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxRetries = n
		}
	}
}

// WithRetryDelay sets the delay before the second attempt; it doubles after that.
func WithRetryDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.retryDelay = d
		}
	}
}

// NewFetcher creates a fetcher for the model files in dir.
//
// Default behavior:
//   - 3 attempts per file with exponential backoff (2s, 4s)
//   - no client timeout; the context bounds each download
func NewFetcher(baseURL, dir string, checksums Checksums, logger *zap.Logger, opts ...FetcherOption) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{
		baseURL:    baseURL,
		dir:        dir,
		checksums:  checksums,
		client:     &http.Client{},
		logger:     logger,
		maxRetries: 3,
		retryDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Missing returns the base names of model files that are absent or empty.
func (f *Fetcher) Missing() []string {
	var missing []string
	for _, path := range FilesIn(f.dir).Paths() {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.Size() == 0 {
			missing = append(missing, filepath.Base(path))
		}
	}
	return missing
}

// Ensure downloads every missing model file and returns the names fetched.
// Files already present are left untouched.
func (f *Fetcher) Ensure(ctx context.Context) ([]string, error) {
	missing := f.Missing()
	if len(missing) == 0 {
		return nil, nil
	}
	if f.baseURL == "" {
		return nil, fmt.Errorf("%w: missing %v", ErrNoModelSource, missing)
	}
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return nil, fmt.Errorf("create model directory: %w", err)
	}

	var fetched []string
	for _, name := range missing {
		if err := f.fetch(ctx, name); err != nil {
			return fetched, err
		}
		fetched = append(fetched, name)
	}
	return fetched, nil
}

// fetch downloads one file with retries.
func (f *Fetcher) fetch(ctx context.Context, name string) error {
	url := f.baseURL + "/" + name
	dest := filepath.Join(f.dir, name)

	var lastErr error
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		if attempt > 1 {
			delay := f.retryDelay * time.Duration(1<<(attempt-2))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		f.logger.Info("downloading model file",
			zap.String("file", name),
			zap.String("url", url),
			zap.Int("attempt", attempt))

		start := time.Now()
		result, err := core.Download(ctx, core.DownloadOptions{
			URL:        url,
			DestPath:   dest,
			HTTPClient: f.client,
			Resume:     true,
			OnProgress: func(p core.ProgressInfo) {
				if f.OnProgress != nil {
					f.OnProgress(name, p)
				}
			},
		})
		if err == nil {
			err = f.checksums.VerifyFile(dest)
			if errors.Is(err, ErrModelCorrupted) {
				// A corrupt file must not be resumed on the next attempt.
				_ = os.Remove(dest)
			}
		}
		if err == nil {
			f.logger.Info("model file ready",
				zap.String("file", name),
				zap.String("size", core.FormatBytes(result.TotalBytes)),
				zap.Bool("resumed", result.Resumed),
				zap.Duration("duration", time.Since(start)))
			return nil
		}

		lastErr = err
		if !retryable(err) {
			break
		}
		f.logger.Warn("model download attempt failed",
			zap.String("file", name),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return fmt.Errorf("%w: %s: %w", ErrDownloadFailed, name, lastErr)
}

// retryable reports whether another attempt could succeed.
// Cancellation and checksum mismatches are final.
func retryable(err error) bool {
	return !errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded) &&
		!errors.Is(err, ErrModelCorrupted)
}
