package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/vvka-141/ndlsync/internal/db"
	"github.com/vvka-141/ndlsync/internal/files/filesystem"
	"github.com/vvka-141/ndlsync/internal/schema"
	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

// tmpSuffix marks the rewritten metadata file loaded in place of INDICATORS.csv.
const tmpSuffix = ".tmp"

// LoadService loads dataset CSVs from the data directory into PostgreSQL,
// one table per dataset and one transaction per table.
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type LoadService struct {
	store   ndlsync.TableStore
	dataDir filesystem.DataDir
	logger  ndlsync.Logger
	clock   clockwork.Clock
}

// NewLoadService creates a LoadService. Panics on nil dependencies.
func NewLoadService(store ndlsync.TableStore, dataDir filesystem.DataDir, logger ndlsync.Logger) *LoadService {
	if store == nil {
		panic("store cannot be nil")
	}
	if dataDir == nil {
		panic("dataDir cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &LoadService{
		store:   store,
		dataDir: dataDir,
		logger:  logger,
		clock:   clockwork.NewRealClock(),
	}
}

// WithClock returns a copy of s that measures elapsed time with clock.
func (s *LoadService) WithClock(clock clockwork.Clock) *LoadService {
	if clock == nil {
		panic("clock cannot be nil")
	}
	clone := *s
	clone.clock = clock
	return &clone
}

// Run loads datasets in order and returns one result per dataset. A failing
// table is logged and does not stop the run. Run itself fails only when the
// metadata catalog cannot be read or ctx is done; the results gathered so far
// are returned alongside that error.
func (s *LoadService) Run(ctx context.Context, datasets []string) ([]ndlsync.LoadResult, error) {
	catalog, err := s.readCatalog()
	if err != nil {
		return nil, err
	}
	s.logger.Verbose("Metadata catalog: %d indicators", catalog.Len())

	results := make([]ndlsync.LoadResult, 0, len(datasets))
	for _, dataset := range datasets {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := s.loadOne(ctx, catalog, dataset)
		s.report(result)
		results = append(results, result)
	}
	return results, nil
}

func (s *LoadService) readCatalog() (*schema.Catalog, error) {
	name := ndlsync.FileName(ndlsync.MetadataDataset)
	f, err := s.dataDir.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found; run 'ndlsync download' first", ndlsync.ErrMetadataMissing, s.dataDir.Path(name))
		}
		return nil, fmt.Errorf("open %s: %w", s.dataDir.Path(name), err)
	}
	defer f.Close()

	catalog, err := schema.ParseIndicators(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.dataDir.Path(name), err)
	}
	return catalog, nil
}

func (s *LoadService) loadOne(ctx context.Context, catalog *schema.Catalog, dataset string) ndlsync.LoadResult {
	name := ndlsync.FileName(dataset)
	result := ndlsync.LoadResult{Dataset: dataset, Table: strings.ToLower(dataset)}

	exists, err := s.dataDir.Exists(name)
	if err == nil && !exists {
		result.Status = ndlsync.StatusSkipped
		result.Kind = ndlsync.FailureIO
		result.Err = fmt.Errorf("%w: %s", ndlsync.ErrSourceMissing, s.dataDir.Path(name))
		return result
	}

	source := name
	if err == nil && dataset == ndlsync.MetadataDataset {
		source = name + tmpSuffix
		defer func() {
			if rmErr := s.dataDir.Remove(source); rmErr != nil {
				s.logger.Error("Failed to remove %s: %v", s.dataDir.Path(source), rmErr)
			}
		}()
		err = s.rewriteMetadata(name, source)
	}

	start := s.clock.Now()
	if err == nil {
		result.Rows, err = s.loadTable(ctx, catalog, result.Table, source)
	}
	result.Elapsed = s.clock.Since(start)

	if err != nil {
		result.Status = ndlsync.StatusFailed
		result.Kind = db.ClassifyError(err)
		result.Err = err
		return result
	}
	result.Status = ndlsync.StatusLoaded
	return result
}

func (s *LoadService) rewriteMetadata(name, tmp string) error {
	in, err := s.dataDir.Open(name)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := s.dataDir.Create(tmp)
	if err != nil {
		return err
	}
	err = schema.RewriteIndicators(in, out)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}

func (s *LoadService) loadTable(ctx context.Context, catalog *schema.Catalog, table, source string) (int64, error) {
	header, err := s.readHeader(source)
	if err != nil {
		return 0, err
	}

	tableSchema, defaulted, err := catalog.Infer(table, header)
	if err != nil {
		return 0, err
	}
	if len(defaulted) > 0 {
		s.logger.Verbose("%s: no metadata for %s, using TEXT", table, strings.Join(defaulted, ", "))
	}
	if len(tableSchema.PrimaryKey) > 0 {
		s.logger.Verbose("%s: primary key (%s)", table, strings.Join(tableSchema.PrimaryKey, ", "))
	}

	f, err := s.dataDir.Open(source)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var rows int64
	err = s.store.InTx(ctx, func(w ndlsync.TableWriter) error {
		if err := w.Recreate(ctx, tableSchema); err != nil {
			return err
		}
		copied, err := w.CopyCSV(ctx, tableSchema, f)
		if err != nil {
			return err
		}
		s.logger.Verbose("%s: copied %d rows", table, copied)
		if err := w.AddPrimaryKey(ctx, tableSchema); err != nil {
			return err
		}
		rows, err = w.CountRows(ctx, table)
		return err
	})
	return rows, err
}

func (s *LoadService) readHeader(source string) ([]string, error) {
	f, err := s.dataDir.Open(source)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return schema.ReadHeader(io.LimitReader(f, maxHeaderBytes))
}

// maxHeaderBytes bounds the header read; SHARADAR headers are a few KiB.
const maxHeaderBytes = 1 << 20

func (s *LoadService) report(r ndlsync.LoadResult) {
	switch r.Status {
	case ndlsync.StatusLoaded:
		s.logger.Info("✓ %s: %d rows in %.2fs", r.Table, r.Rows, r.Elapsed.Seconds())
	case ndlsync.StatusSkipped:
		s.logger.Info("⚠️ Missing file: %s", ndlsync.FileName(r.Dataset))
	case ndlsync.StatusFailed:
		s.logger.Error("❌ %s: ERROR [%s] – %v", r.Table, r.Kind, r.Err)
	}
}
