// Package ingest brings receipt images into the local scratch directory.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mbalogun/receipt2ledger/constants"
	"github.com/mbalogun/receipt2ledger/internal/common"
)

// Downloader fetches a remote file by its id into dest.
type Downloader interface {
	Download(ctx context.Context, fileID, dest string) error
}

// Ingestor validates the extension and downloads the image into Dir.
type Ingestor struct {
	dir    string
	dl     Downloader
	logger *slog.Logger
}

func NewIngestor(dir string, dl Downloader, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{dir: dir, dl: dl, logger: logger}
}

// Ingest downloads the file identified by fileID into the scratch directory.
// The extension comes from filename; a name without one gets the default.
// Unsupported extensions fail before any network or disk activity.
func (i *Ingestor) Ingest(ctx context.Context, fileID, filename string) (string, error) {
	ext := constants.NormalizeExt(filepath.Ext(filename))
	if ext == "" {
		ext = constants.DefaultImageExt
	}
	if !constants.IsSupportedImageExt(ext) {
		return "", fmt.Errorf("%w: .%s", common.ErrUnsupportedExtension, ext)
	}

	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	dest := filepath.Join(i.dir, fileID+"."+ext)
	if err := i.dl.Download(ctx, fileID, dest); err != nil {
		return "", fmt.Errorf("download %s: %w", fileID, err)
	}

	i.logger.Info("ingest.download.ok", "file_id", fileID, "path", dest)
	return dest, nil
}

// Cleanup removes a scratch file. Failures are logged, never surfaced:
// a leftover temp file must not fail the pipeline.
func (i *Ingestor) Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		i.logger.Warn("ingest.cleanup_failed", "path", path, "error", err)
		return
	}
	i.logger.Debug("ingest.cleanup.ok", "path", path)
}
