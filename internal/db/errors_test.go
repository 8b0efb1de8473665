package db

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ndlsync.FailureKind
	}{
		{"nil", nil, ndlsync.FailureNone},
		{"unique violation", fmt.Errorf("add primary key: %w", &pgconn.PgError{Code: "23505"}), ndlsync.FailureConstraintViolation},
		{"not null violation", &pgconn.PgError{Code: "23502"}, ndlsync.FailureConstraintViolation},
		{"invalid numeric", &pgconn.PgError{Code: "22P02"}, ndlsync.FailureDataFormat},
		{"bad date", &pgconn.PgError{Code: "22007"}, ndlsync.FailureDataFormat},
		{"undefined column", &pgconn.PgError{Code: "42703"}, ndlsync.FailureSchema},
		{"connection lost", &pgconn.PgError{Code: "08006"}, ndlsync.FailureTransport},
		{"schema mismatch", fmt.Errorf("sf1: %w", ndlsync.ErrSchemaMismatch), ndlsync.FailureSchema},
		{"csv parse", &csv.ParseError{Line: 3, Err: csv.ErrBareQuote}, ndlsync.FailureDataFormat},
		{"missing file", &fs.PathError{Op: "open", Path: "SF1.csv", Err: fs.ErrNotExist}, ndlsync.FailureIO},
		{"permission", &fs.PathError{Op: "open", Path: "SF1.csv", Err: fs.ErrPermission}, ndlsync.FailureIO},
		{"other", errors.New("boom"), ndlsync.FailureUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}
