package core

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// ProgressInfo reports how much of a download has arrived.
type ProgressInfo struct {
	// Downloaded bytes so far, including any resumed prefix
	Downloaded int64
	// Total bytes to download (0 if unknown)
	Total int64
}

// Percent returns completion in 0-100, or -1 when the total is unknown.
func (p ProgressInfo) Percent() float64 {
	if p.Total <= 0 {
		return -1
	}
	return float64(p.Downloaded) / float64(p.Total) * 100
}

// DownloadOptions configures the download behavior.
type DownloadOptions struct {
	// URL to download from
	URL string
	// DestPath is the local file path to save to
	DestPath string
	// HTTPClient is the HTTP client to use (creates default if nil)
	HTTPClient *http.Client
	// OnProgress is called periodically with progress updates (optional)
	OnProgress func(ProgressInfo)
	// Resume continues a partial file at DestPath with a Range request
	Resume bool
}

// DownloadResult contains information about a completed download.
type DownloadResult struct {
	// BytesDownloaded is the number of bytes downloaded in this session
	BytesDownloaded int64
	// TotalBytes is the total file size (from server)
	TotalBytes int64
	// Resumed indicates whether the download was resumed from a partial file
	Resumed bool
	// Path is the final file path
	Path string
}

// progressEvery is the number of bytes between progress callbacks.
const progressEvery = 256 * 1024

// Download fetches opts.URL into opts.DestPath. Cancellation is through ctx.
// When resuming, a 206 response appends to the partial file and a 200
// response restarts it.
func Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("download: URL is required")
	}
	if opts.DestPath == "" {
		return nil, fmt.Errorf("download: DestPath is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{} // No timeout for large downloads; ctx handles cancellation
	}

	if err := os.MkdirAll(filepath.Dir(opts.DestPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	var resumeFrom int64
	if opts.Resume {
		if info, err := os.Stat(opts.DestPath); err == nil {
			resumeFrom = info.Size()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if resumeFrom > 0 {
		req.Header.Set("Range", BuildRangeHeader(resumeFrom))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	result := &DownloadResult{Path: opts.DestPath}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC

	switch resp.StatusCode {
	case http.StatusOK:
		resumeFrom = 0
		result.TotalBytes = resp.ContentLength

	case http.StatusPartialContent:
		result.Resumed = true
		flags = os.O_WRONLY | os.O_APPEND
		if _, _, total, perr := ParseContentRange(resp.Header.Get("Content-Range")); perr == nil && total > 0 {
			result.TotalBytes = total
		} else if resp.ContentLength > 0 {
			result.TotalBytes = resumeFrom + resp.ContentLength
		}

	case http.StatusRequestedRangeNotSatisfiable:
		// The partial file is already complete.
		result.Resumed = true
		result.TotalBytes = resumeFrom
		return result, nil

	default:
		return nil, fmt.Errorf("unexpected status code: %s", resp.Status)
	}

	file, err := os.OpenFile(opts.DestPath, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open destination file: %w", err)
	}
	defer file.Close()

	reader := &progressReader{
		reader:     resp.Body,
		info:       ProgressInfo{Downloaded: resumeFrom, Total: result.TotalBytes},
		onProgress: opts.OnProgress,
	}
	n, err := io.Copy(file, reader)
	result.BytesDownloaded = n
	if err != nil {
		return result, fmt.Errorf("download interrupted: %w", err)
	}
	if err := file.Sync(); err != nil {
		return result, fmt.Errorf("failed to sync file: %w", err)
	}
	if opts.OnProgress != nil {
		opts.OnProgress(reader.info)
	}
	return result, nil
}

// progressReader wraps an io.Reader to report download progress.
type progressReader struct {
	reader     io.Reader
	info       ProgressInfo
	onProgress func(ProgressInfo)
	lastReport int64
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.info.Downloaded += int64(n)
		if r.onProgress != nil && r.info.Downloaded-r.lastReport >= progressEvery {
			r.onProgress(r.info)
			r.lastReport = r.info.Downloaded
		}
	}
	return n, err
}
