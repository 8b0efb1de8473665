package ndlsync

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5"
)

// Connector opens the single database connection a load run works on.
type Connector interface {
	Connect(ctx context.Context) (*pgx.Conn, error)
}

// Column is one column of a table to be created.
type Column struct {
	Name string
	Type string
}

// TableSchema is the inferred shape of a table: columns in CSV header order
// and primary key columns in metadata order.
type TableSchema struct {
	Table      string
	Columns    []Column
	PrimaryKey []string
}

// ColumnNames returns the column names in declaration order.
func (s TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// TableStore runs table operations inside a transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type TableStore interface {
	InTx(ctx context.Context, fn func(TableWriter) error) error
}

// TableWriter is the set of operations a single table load needs.
type TableWriter interface {
	// Recreate drops the table if it exists and creates it without constraints.
	Recreate(ctx context.Context, schema TableSchema) error

	// CopyCSV bulk loads CSV data whose first line is a header.
	// Empty fields become NULL. Returns the number of rows copied.
	CopyCSV(ctx context.Context, schema TableSchema, r io.Reader) (int64, error)

	// AddPrimaryKey adds the primary key constraint. A no-op when schema has none.
	AddPrimaryKey(ctx context.Context, schema TableSchema) error

	// CountRows returns the number of rows in the table.
	CountRows(ctx context.Context, table string) (int64, error)
}

// Exporter resolves and streams vendor bulk exports.
type Exporter interface {
	// ExportLink waits until the export for dataset is ready and returns its link.
	ExportLink(ctx context.Context, dataset string) (string, error)

	// Fetch opens the archive behind link and reports its size (-1 if unknown).
	Fetch(ctx context.Context, link string) (io.ReadCloser, int64, error)
}
