package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

// fakeTable is the committed state of one table in fakeStore.
type fakeTable struct {
	schema ndlsync.TableSchema
	rows   [][]string
}

// fakeStore is an in-memory TableStore. Writes inside InTx land in a copy of
// the tables that replaces the committed state only when fn succeeds.
type fakeStore struct {
	mu        sync.Mutex
	tables    map[string]fakeTable
	txCount   int
	failCopy  map[string]error
	clock     *clockwork.FakeClock
	copyTakes time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{tables: map[string]fakeTable{}, failCopy: map[string]error{}}
}

func (s *fakeStore) InTx(ctx context.Context, fn func(ndlsync.TableWriter) error) error {
	s.mu.Lock()
	s.txCount++
	staged := make(map[string]fakeTable, len(s.tables))
	for k, v := range s.tables {
		staged[k] = v
	}
	s.mu.Unlock()

	if err := fn(&fakeWriter{store: s, staged: staged}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = staged
	return nil
}

func (s *fakeStore) table(name string) (fakeTable, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	return t, ok
}

type fakeWriter struct {
	store  *fakeStore
	staged map[string]fakeTable
}

func (w *fakeWriter) Recreate(_ context.Context, schema ndlsync.TableSchema) error {
	w.staged[schema.Table] = fakeTable{schema: schema}
	return nil
}

func (w *fakeWriter) CopyCSV(_ context.Context, schema ndlsync.TableSchema, r io.Reader) (int64, error) {
	if err := w.store.failCopy[schema.Table]; err != nil {
		return 0, err
	}
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return 0, err
	}
	if len(records) > 0 {
		records = records[1:]
	}
	t := w.staged[schema.Table]
	t.rows = append(t.rows, records...)
	w.staged[schema.Table] = t

	if w.store.clock != nil {
		w.store.clock.Advance(w.store.copyTakes)
	}
	return int64(len(records)), nil
}

func (w *fakeWriter) AddPrimaryKey(_ context.Context, schema ndlsync.TableSchema) error {
	if len(schema.PrimaryKey) == 0 {
		return nil
	}
	idx := make([]int, 0, len(schema.PrimaryKey))
	for _, pk := range schema.PrimaryKey {
		for i, c := range schema.Columns {
			if c.Name == pk {
				idx = append(idx, i)
			}
		}
	}
	seen := map[string]bool{}
	for _, row := range w.staged[schema.Table].rows {
		var key bytes.Buffer
		for _, i := range idx {
			if row[i] == "" {
				return &pgconn.PgError{Code: "23502", Message: fmt.Sprintf("column %q contains null values", schema.Columns[i].Name)}
			}
			key.WriteString(row[i])
			key.WriteByte(0)
		}
		if seen[key.String()] {
			return &pgconn.PgError{Code: "23505", Message: fmt.Sprintf("could not create unique index %q", schema.Table+"_pkey")}
		}
		seen[key.String()] = true
	}
	return nil
}

func (w *fakeWriter) CountRows(_ context.Context, table string) (int64, error) {
	t, ok := w.staged[table]
	if !ok {
		return 0, &pgconn.PgError{Code: "42P01", Message: fmt.Sprintf("relation %q does not exist", table)}
	}
	return int64(len(t.rows)), nil
}

// fakeExporter serves one archive per dataset and counts calls.
type fakeExporter struct {
	mu         sync.Mutex
	archives   map[string][]byte
	linkErr    map[string]error
	fetchErr   map[string]error
	linkCalls  int
	fetchCalls int
}

func newFakeExporter() *fakeExporter {
	return &fakeExporter{
		archives: map[string][]byte{},
		linkErr:  map[string]error{},
		fetchErr: map[string]error{},
	}
}

func (e *fakeExporter) ExportLink(_ context.Context, dataset string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.linkCalls++
	if err := e.linkErr[dataset]; err != nil {
		return "", err
	}
	return "https://files.example/" + dataset + ".zip", nil
}

func (e *fakeExporter) Fetch(_ context.Context, link string) (io.ReadCloser, int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fetchCalls++
	for dataset, err := range e.fetchErr {
		if link == "https://files.example/"+dataset+".zip" {
			return nil, 0, err
		}
	}
	for dataset, data := range e.archives {
		if link == "https://files.example/"+dataset+".zip" {
			return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
		}
	}
	return nil, 0, errors.New("unexpected link " + link)
}

func (e *fakeExporter) calls() (links, fetches int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.linkCalls, e.fetchCalls
}

func zipOf(t *testing.T, entryName, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(entryName)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
