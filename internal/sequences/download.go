package sequences

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/plasmidtools/addgene-scraper/internal/fetch"
	"github.com/plasmidtools/addgene-scraper/internal/models"
)

// FileName is the deterministic on-disk name for a downloaded sequence.
func FileName(plasmidID int, format models.SequenceFormat) string {
	return fmt.Sprintf("plasmid_%d_%s.%s", plasmidID, format, format.Extension())
}

// Downloader transfers a resolved sequence file to disk.
type Downloader struct {
	resolver *Resolver
	fetcher  *fetch.Client
	logger   *slog.Logger
}

func NewDownloader(resolver *Resolver, fetcher *fetch.Client, logger *slog.Logger) *Downloader {
	return &Downloader{resolver: resolver, fetcher: fetcher, logger: logger}
}

// Download resolves the sequence URL and writes the file into destDir,
// creating the directory if needed. It always returns a DownloadResult;
// failures set Success=false with a message instead of returning an error,
// and never leave a partial file behind.
func (d *Downloader) Download(ctx context.Context, plasmidID int, format models.SequenceFormat, destDir string) models.DownloadResult {
	result := models.DownloadResult{PlasmidID: plasmidID, Format: format}

	info, err := d.resolver.Resolve(ctx, plasmidID, format)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to resolve sequence info: %v", err)
		return result
	}
	if !info.Available {
		result.ErrorMessage = fmt.Sprintf("sequence for plasmid %d is not available in %s format", plasmidID, format)
		return result
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to create download directory: %v", err)
		return result
	}

	data, err := d.fetcher.GetBytes(ctx, info.DownloadURL)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to download sequence: %v", err)
		return result
	}

	path := filepath.Join(destDir, FileName(plasmidID, format))
	if err := writeAtomic(path, data); err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to write sequence file: %v", err)
		return result
	}

	d.logger.Info("sequence downloaded",
		"plasmid_id", plasmidID, "format", format, "path", path, "bytes", len(data))

	result.Success = true
	result.FilePath = path
	result.FileSize = int64(len(data))
	return result
}

// writeAtomic writes through a temp file and renames, so a failed transfer
// never leaves a partial file at the target path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
