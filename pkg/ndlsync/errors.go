package ndlsync

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := downloader.Run(ctx, cfg)
//	if errors.Is(err, ndlsync.ErrReadinessTimeout) {
//	    // the vendor never finished building the export
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownDataset indicates a dataset name outside the known vendor tables.
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrTransport indicates an HTTP failure talking to the vendor: network error,
	// non-2xx status or an unparseable response body.
	ErrTransport = errors.New("transport error")

	// ErrExportNotReady indicates the vendor is still generating the export.
	// It is transient and drives the readiness poll loop.
	ErrExportNotReady = errors.New("export not ready")

	// ErrReadinessTimeout indicates the export was still generating after the poll budget.
	ErrReadinessTimeout = errors.New("export readiness timeout")

	// ErrArchiveFormat indicates the downloaded payload is not a usable ZIP archive.
	ErrArchiveFormat = errors.New("invalid archive")

	// ErrSourceMissing indicates a CSV file expected in the data directory is absent.
	ErrSourceMissing = errors.New("source file missing")

	// ErrMetadataMissing indicates INDICATORS.csv is absent, so no schema can be inferred.
	ErrMetadataMissing = errors.New("metadata file missing")

	// ErrSchemaMismatch indicates the CSV header cannot satisfy the inferred schema.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrLoadFailed indicates one or more tables failed to load.
	ErrLoadFailed = errors.New("load failed")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")
)

// usageErrorPrefixes match the messages cobra and pflag produce for bad invocations.
var usageErrorPrefixes = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"required flag",
	"invalid argument",
	"flag needs an argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrUnknownDataset):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrReadinessTimeout):
		return ExitReadinessTimeout
	case errors.Is(err, ErrTransport):
		return ExitTransportError
	case errors.Is(err, ErrArchiveFormat):
		return ExitArchiveError
	case errors.Is(err, ErrMetadataMissing):
		return ExitMetadataMissing
	case errors.Is(err, ErrLoadFailed):
		return ExitLoadFailed
	}

	errStr := err.Error()
	for _, prefix := range usageErrorPrefixes {
		if strings.HasPrefix(errStr, prefix) {
			return ExitUsageError
		}
	}
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
