package db

import (
	"encoding/csv"
	"errors"
	"io/fs"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

// ClassifyError maps an error from a table load to a FailureKind.
func ClassifyError(err error) ndlsync.FailureKind {
	if err == nil {
		return ndlsync.FailureNone
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "23"):
			return ndlsync.FailureConstraintViolation
		case strings.HasPrefix(pgErr.Code, "22"):
			return ndlsync.FailureDataFormat
		case strings.HasPrefix(pgErr.Code, "42"):
			return ndlsync.FailureSchema
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57"):
			return ndlsync.FailureTransport
		default:
			return ndlsync.FailureUnknown
		}
	}

	var csvErr *csv.ParseError
	var netErr net.Error
	switch {
	case errors.Is(err, ndlsync.ErrSchemaMismatch):
		return ndlsync.FailureSchema
	case errors.As(err, &csvErr):
		return ndlsync.FailureDataFormat
	case errors.Is(err, ndlsync.ErrSourceMissing), errors.Is(err, fs.ErrNotExist):
		return ndlsync.FailureIO
	case errors.As(err, &netErr), pgconn.Timeout(err):
		return ndlsync.FailureTransport
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return ndlsync.FailureIO
	}
	return ndlsync.FailureUnknown
}
