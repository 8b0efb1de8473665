package db

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

// allowedTypes are the column types CreateTableSQL will emit.
var allowedTypes = map[string]bool{
	"TEXT":    true,
	"NUMERIC": true,
	"DATE":    true,
	"BOOLEAN": true,
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func quoteIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

// DropTableSQL drops table if it exists.
func DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + quoteIdent(table)
}

// CreateTableSQL creates the table with its columns in order and no constraints.
func CreateTableSQL(schema ndlsync.TableSchema) (string, error) {
	if len(schema.Columns) == 0 {
		return "", fmt.Errorf("%w: %s has no columns", ndlsync.ErrSchemaMismatch, schema.Table)
	}
	defs := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		if !allowedTypes[c.Type] {
			return "", fmt.Errorf("%w: column %s has unsupported type %q", ndlsync.ErrSchemaMismatch, c.Name, c.Type)
		}
		defs[i] = quoteIdent(c.Name) + " " + c.Type
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(schema.Table), strings.Join(defs, ", ")), nil
}

// CopyFromSQL streams CSV with a header line into the table. Unquoted empty
// fields become NULL.
func CopyFromSQL(schema ndlsync.TableSchema) string {
	return fmt.Sprintf("COPY %s (%s) FROM STDIN WITH (FORMAT csv, HEADER true, NULL '')",
		quoteIdent(schema.Table), quoteIdents(schema.ColumnNames()))
}

// AddPrimaryKeySQL adds the primary key, or returns "" when the schema has none.
func AddPrimaryKeySQL(schema ndlsync.TableSchema) string {
	if len(schema.PrimaryKey) == 0 {
		return ""
	}
	return fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", quoteIdent(schema.Table), quoteIdents(schema.PrimaryKey))
}

// CountRowsSQL counts the rows of table.
func CountRowsSQL(table string) string {
	return "SELECT COUNT(*) FROM " + quoteIdent(table)
}
