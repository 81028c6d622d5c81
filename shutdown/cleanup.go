package shutdown

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// CleanupUploads returns a Func that removes files in uploadDir last
// modified more than maxAge ago. maxAge <= 0 removes every file.
// Subdirectories are left alone. Failures are logged, never returned, so a
// stuck file cannot block the rest of shutdown.
func CleanupUploads(logger *zap.Logger, uploadDir string, maxAge time.Duration) Func {
	return func(ctx context.Context) error {
		removed, failed := pruneDir(ctx, logger, uploadDir, maxAge, time.Now())
		if removed > 0 || failed > 0 {
			logger.Info("upload cleanup complete",
				zap.String("directory", uploadDir),
				zap.Int("removed", removed),
				zap.Int("failed", failed))
		}
		return nil
	}
}

func pruneDir(ctx context.Context, logger *zap.Logger, dir string, maxAge time.Duration, now time.Time) (removed, failed int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("cannot list upload directory", zap.String("directory", dir), zap.Error(err))
		}
		return 0, 0
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			logger.Warn("cleanup interrupted", zap.Int("removed", removed))
			return removed, failed
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if maxAge > 0 {
			info, err := entry.Info()
			if err != nil || now.Sub(info.ModTime()) < maxAge {
				continue
			}
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			failed++
			logger.Warn("failed to remove upload", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, failed
}
