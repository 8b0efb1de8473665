package db

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

// PgTableStore runs table loads on a single connection, one transaction per table.
type PgTableStore struct {
	conn *pgx.Conn
}

// NewPgTableStore wraps conn. Panics if conn is nil.
func NewPgTableStore(conn *pgx.Conn) *PgTableStore {
	if conn == nil {
		panic("conn cannot be nil")
	}
	return &PgTableStore{conn: conn}
}

// InTx runs fn in a transaction that commits when fn returns nil and rolls back otherwise.
func (s *PgTableStore) InTx(ctx context.Context, fn func(ndlsync.TableWriter) error) error {
	return pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		return fn(&pgTableWriter{tx: tx})
	})
}

type pgTableWriter struct {
	tx pgx.Tx
}

func (w *pgTableWriter) Recreate(ctx context.Context, schema ndlsync.TableSchema) error {
	create, err := CreateTableSQL(schema)
	if err != nil {
		return err
	}
	if _, err := w.tx.Exec(ctx, DropTableSQL(schema.Table)); err != nil {
		return fmt.Errorf("drop %s: %w", schema.Table, err)
	}
	if _, err := w.tx.Exec(ctx, create); err != nil {
		return fmt.Errorf("create %s: %w", schema.Table, err)
	}
	return nil
}

// CopyCSV streams r through COPY ... FROM STDIN; the server parses the CSV.
func (w *pgTableWriter) CopyCSV(ctx context.Context, schema ndlsync.TableSchema, r io.Reader) (int64, error) {
	tag, err := w.tx.Conn().PgConn().CopyFrom(ctx, r, CopyFromSQL(schema))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", schema.Table, err)
	}
	return tag.RowsAffected(), nil
}

func (w *pgTableWriter) AddPrimaryKey(ctx context.Context, schema ndlsync.TableSchema) error {
	stmt := AddPrimaryKeySQL(schema)
	if stmt == "" {
		return nil
	}
	if _, err := w.tx.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("add primary key to %s: %w", schema.Table, err)
	}
	return nil
}

func (w *pgTableWriter) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := w.tx.QueryRow(ctx, CountRowsSQL(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
