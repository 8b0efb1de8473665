package schema

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

// Required metadata columns, located by header name.
const (
	colTable      = "table"
	colIndicator  = "indicator"
	colUnitType   = "unittype"
	colPrimaryKey = "isprimarykey"
)

// Indicator is one row of the metadata table.
type Indicator struct {
	Table      string
	Name       string
	UnitType   string
	PrimaryKey bool
}

// Catalog answers type and key questions for every table described in the metadata.
type Catalog struct {
	byColumn    map[string]Indicator
	primaryKeys map[string][]string
	count       int
}

// NewCatalog builds a catalog from indicators. When the same (table, column)
// appears twice the first row wins. Primary key columns keep their order.
func NewCatalog(indicators []Indicator) *Catalog {
	c := &Catalog{
		byColumn:    make(map[string]Indicator, len(indicators)),
		primaryKeys: make(map[string][]string),
		count:       len(indicators),
	}
	for _, ind := range indicators {
		k := key(ind.Table, ind.Name)
		if _, dup := c.byColumn[k]; dup {
			continue
		}
		c.byColumn[k] = ind
		if ind.PrimaryKey {
			table := strings.ToLower(strings.TrimSpace(ind.Table))
			c.primaryKeys[table] = append(c.primaryKeys[table], strings.ToLower(strings.TrimSpace(ind.Name)))
		}
	}
	return c
}

// Len returns the number of metadata rows the catalog was built from.
func (c *Catalog) Len() int {
	return c.count
}

// ParseIndicators reads the metadata CSV. Columns are found by header name,
// case-insensitively; other columns such as description are ignored.
func ParseIndicators(r io.Reader) (*Catalog, error) {
	cr := newReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: metadata file is empty", ndlsync.ErrSchemaMismatch)
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata header: %w", err)
	}

	idx, err := locate(header, colTable, colIndicator, colUnitType, colPrimaryKey)
	if err != nil {
		return nil, err
	}

	var indicators []Indicator
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read metadata: %w", err)
		}
		indicators = append(indicators, Indicator{
			Table:      field(rec, idx[colTable]),
			Name:       field(rec, idx[colIndicator]),
			UnitType:   field(rec, idx[colUnitType]),
			PrimaryKey: strings.EqualFold(strings.TrimSpace(field(rec, idx[colPrimaryKey])), "Y"),
		})
	}

	return NewCatalog(indicators), nil
}

// ColumnType returns the SQL type for column of table. matched is false when
// the metadata does not describe the column or its unit type is unknown; the
// type is then TEXT.
func (c *Catalog) ColumnType(table, column string) (sqlType string, matched bool) {
	k := key(table, column)
	if textOverrides[k] {
		return TypeText, true
	}
	ind, ok := c.byColumn[k]
	if !ok {
		return TypeText, false
	}
	return SQLTypeForUnit(ind.UnitType)
}

// PrimaryKey returns the lower-cased primary key columns of table in metadata order.
func (c *Catalog) PrimaryKey(table string) []string {
	pk := c.primaryKeys[strings.ToLower(strings.TrimSpace(table))]
	out := make([]string, len(pk))
	copy(out, pk)
	return out
}

// Infer builds the schema of table from its CSV header. Columns keep header
// order and spelling. Primary key names are matched to header columns
// case-insensitively. defaulted lists columns typed TEXT for lack of metadata.
//
// Inference fails with ErrSchemaMismatch when the header is empty, has blank
// or duplicate names, or lacks a primary key column.
func (c *Catalog) Infer(table string, header []string) (s ndlsync.TableSchema, defaulted []string, err error) {
	if len(header) == 0 {
		return s, nil, fmt.Errorf("%w: %s has no header columns", ndlsync.ErrSchemaMismatch, table)
	}

	s.Table = table
	byFolded := make(map[string]string, len(header))
	for i, col := range header {
		if strings.TrimSpace(col) == "" {
			return s, nil, fmt.Errorf("%w: %s header column %d is blank", ndlsync.ErrSchemaMismatch, table, i+1)
		}
		folded := strings.ToLower(col)
		if _, dup := byFolded[folded]; dup {
			return s, nil, fmt.Errorf("%w: %s header repeats column %q", ndlsync.ErrSchemaMismatch, table, col)
		}
		byFolded[folded] = col

		sqlType, matched := c.ColumnType(table, col)
		if !matched {
			defaulted = append(defaulted, col)
		}
		s.Columns = append(s.Columns, ndlsync.Column{Name: col, Type: sqlType})
	}

	for _, pk := range c.PrimaryKey(table) {
		col, ok := byFolded[pk]
		if !ok {
			return s, nil, fmt.Errorf("%w: %s primary key column %q is not in the CSV header", ndlsync.ErrSchemaMismatch, table, pk)
		}
		s.PrimaryKey = append(s.PrimaryKey, col)
	}

	return s, defaulted, nil
}

// ReadHeader returns the first CSV record of r.
func ReadHeader(r io.Reader) ([]string, error) {
	header, err := newReader(r).Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file is empty", ndlsync.ErrSchemaMismatch)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return header, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(&bomStripper{r: r})
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false
	return cr
}

func locate(header []string, names ...string) (map[string]int, error) {
	idx := make(map[string]int, len(names))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	var missing []string
	for _, n := range names {
		if _, ok := idx[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: metadata is missing column(s) %s", ndlsync.ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return idx, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}
