package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/vvka-141/ndlsync/internal/archive"
	"github.com/vvka-141/ndlsync/internal/checksum"
	"github.com/vvka-141/ndlsync/internal/files/filesystem"
	"github.com/vvka-141/ndlsync/internal/progress"
	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

// ProgressReporter creates a progress tracker per download.
type ProgressReporter interface {
	Track(label string, total int64) progress.Tracker
}

// partSuffix marks an extraction in progress; only complete files carry the canonical name.
const partSuffix = ".part"

// DownloadService fetches vendor exports into the data directory.
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type DownloadService struct {
	exporter ndlsync.Exporter
	dataDir  filesystem.DataDir
	reporter ProgressReporter
	logger   ndlsync.Logger
}

// NewDownloadService creates a DownloadService. Panics on nil dependencies.
func NewDownloadService(
	exporter ndlsync.Exporter,
	dataDir filesystem.DataDir,
	reporter ProgressReporter,
	logger ndlsync.Logger,
) *DownloadService {
	if exporter == nil {
		panic("exporter cannot be nil")
	}
	if dataDir == nil {
		panic("dataDir cannot be nil")
	}
	if reporter == nil {
		panic("reporter cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &DownloadService{
		exporter: exporter,
		dataDir:  dataDir,
		reporter: reporter,
		logger:   logger,
	}
}

// Run downloads datasets in order. Datasets whose CSV already exists are
// skipped without contacting the vendor. The first failure aborts the run.
func (s *DownloadService) Run(ctx context.Context, datasets []string) (*ndlsync.DownloadSummary, error) {
	summary := &ndlsync.DownloadSummary{}

	for _, dataset := range datasets {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		name := ndlsync.FileName(dataset)
		exists, err := s.dataDir.Exists(name)
		if err != nil {
			return summary, fmt.Errorf("%s: checking %s: %w", dataset, s.dataDir.Path(name), err)
		}
		if exists {
			s.logger.Info("%s already exists – skipping", s.dataDir.Path(name))
			summary.Skipped = append(summary.Skipped, dataset)
			continue
		}

		if err := s.downloadOne(ctx, dataset, name); err != nil {
			return summary, err
		}
		summary.Downloaded = append(summary.Downloaded, dataset)
	}

	return summary, nil
}

func (s *DownloadService) downloadOne(ctx context.Context, dataset, name string) error {
	s.logger.Info("▶ %s: requesting export", dataset)
	link, err := s.exporter.ExportLink(ctx, dataset)
	if err != nil {
		return err
	}
	s.logger.Verbose("%s: export ready", dataset)

	archiveData, err := s.fetch(ctx, dataset, link)
	if err != nil {
		return err
	}

	part := name + partSuffix
	sum := checksum.New()
	entry, size, err := s.extract(archiveData, part, sum)
	if err != nil {
		_ = s.dataDir.Remove(part)
		return fmt.Errorf("%s: %w", dataset, err)
	}

	if err := s.dataDir.Rename(part, name); err != nil {
		_ = s.dataDir.Remove(part)
		return fmt.Errorf("%s: saving %s: %w", dataset, s.dataDir.Path(name), err)
	}

	s.logger.Verbose("%s: archive entry %s, sha256 %s", dataset, entry, sum.Sum())
	s.logger.Info("✓ %s: saved %s (%s)", dataset, s.dataDir.Path(name), progress.FormatBytes(size))
	return nil
}

// fetch buffers the whole archive in memory; zip needs random access.
func (s *DownloadService) fetch(ctx context.Context, dataset, link string) ([]byte, error) {
	body, total, err := s.exporter.Fetch(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dataset, err)
	}
	defer body.Close()

	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}
	tracker := s.reporter.Track(dataset, total)
	_, err = io.Copy(io.MultiWriter(&buf, tracker), body)
	tracker.Finish()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s download interrupted: %v", ndlsync.ErrTransport, dataset, err)
	}
	return buf.Bytes(), nil
}

func (s *DownloadService) extract(data []byte, part string, sum *checksum.Writer) (string, int64, error) {
	w, err := s.dataDir.Create(part)
	if err != nil {
		return "", 0, err
	}
	entry, n, err := archive.ExtractFirst(data, io.MultiWriter(w, sum))
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	return entry, n, err
}
