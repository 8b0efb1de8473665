package ndlsync

import (
	"errors"
	"fmt"
	"time"
)

// ConnectionConfig describes how to reach the PostgreSQL server.
type ConnectionConfig struct {
	// URL, when set, is used verbatim and the remaining fields are informational.
	URL string

	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// ConnectRetries is how many times a transient connection failure is
	// retried with exponential backoff. Zero means a single attempt.
	ConnectRetries int
}

// VendorConfig controls the export API client.
type VendorConfig struct {
	BaseURL      string
	APIKey       string
	PollInterval time.Duration

	// MaxPolls bounds status requests per dataset. -1 disables the bound.
	MaxPolls int

	Timeout time.Duration
}

// DownloadConfig is the resolved configuration for one download run.
type DownloadConfig struct {
	DataDir  string
	Datasets []string
	Vendor   VendorConfig
	Verbose  bool
}

// Validate checks the configuration and reports every problem at once.
func (c DownloadConfig) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("data directory is required: %w", ErrInvalidConfig))
	}
	if c.Vendor.APIKey == "" {
		errs = append(errs, fmt.Errorf("API key is required (set %s): %w", APIKeyEnvVar, ErrInvalidConfig))
	}
	if c.Vendor.BaseURL == "" {
		errs = append(errs, fmt.Errorf("vendor base URL is required: %w", ErrInvalidConfig))
	}
	if c.Vendor.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("poll interval must not be negative: %w", ErrInvalidConfig))
	}
	if c.Vendor.MaxPolls == 0 || c.Vendor.MaxPolls < -1 {
		errs = append(errs, fmt.Errorf("max polls must be positive or -1, got %d: %w", c.Vendor.MaxPolls, ErrInvalidConfig))
	}
	errs = append(errs, validateDatasets(c.Datasets)...)
	return errors.Join(errs...)
}

// LoadConfig is the resolved configuration for one load run.
type LoadConfig struct {
	DataDir    string
	Datasets   []string
	LogFile    string
	Connection ConnectionConfig
	Verbose    bool

	// Strict turns any per-table failure into a non-zero exit.
	Strict bool
}

// Validate checks the configuration and reports every problem at once.
func (c LoadConfig) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("data directory is required: %w", ErrInvalidConfig))
	}
	if c.LogFile == "" {
		errs = append(errs, fmt.Errorf("log file is required: %w", ErrInvalidConfig))
	}
	if c.Connection.URL == "" && c.Connection.Database == "" {
		errs = append(errs, fmt.Errorf("database name is required (use -d, PGDATABASE or ndlsync.yaml): %w", ErrInvalidConfig))
	}
	if c.Connection.ConnectRetries < 0 {
		errs = append(errs, fmt.Errorf("connect retries must not be negative: %w", ErrInvalidConfig))
	}
	errs = append(errs, validateDatasets(c.Datasets)...)
	return errors.Join(errs...)
}

func validateDatasets(datasets []string) []error {
	if len(datasets) == 0 {
		return []error{fmt.Errorf("at least one dataset is required: %w", ErrInvalidConfig)}
	}
	var errs []error
	seen := make(map[string]bool, len(datasets))
	for _, d := range datasets {
		switch {
		case d == "":
			errs = append(errs, fmt.Errorf("dataset name must not be empty: %w", ErrInvalidConfig))
		case !IsKnownDataset(d):
			errs = append(errs, fmt.Errorf("%q: %w", d, ErrUnknownDataset))
		case seen[d]:
			errs = append(errs, fmt.Errorf("dataset %q listed twice: %w", d, ErrInvalidConfig))
		}
		seen[d] = true
	}
	return errs
}

// LoadStatus is the terminal state of one table load.
type LoadStatus int

const (
	StatusLoaded LoadStatus = iota
	StatusFailed
	StatusSkipped
)

func (s LoadStatus) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// FailureKind groups errors so operators can tell them apart in the log.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureTransport
	FailureReadinessTimeout
	FailureArchiveFormat
	FailureSchema
	FailureConstraintViolation
	FailureDataFormat
	FailureIO
	FailureUnknown
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureTransport:
		return "transport"
	case FailureReadinessTimeout:
		return "readiness-timeout"
	case FailureArchiveFormat:
		return "archive-format"
	case FailureSchema:
		return "schema"
	case FailureConstraintViolation:
		return "constraint-violation"
	case FailureDataFormat:
		return "data-format"
	case FailureIO:
		return "io"
	default:
		return "unknown"
	}
}

// LoadResult is the outcome of loading one dataset.
type LoadResult struct {
	Dataset string
	Table   string
	Status  LoadStatus
	Rows    int64
	Elapsed time.Duration
	Kind    FailureKind
	Err     error
}

// Failed returns the results whose status is StatusFailed.
func Failed(results []LoadResult) []LoadResult {
	var out []LoadResult
	for _, r := range results {
		if r.Status == StatusFailed {
			out = append(out, r)
		}
	}
	return out
}

// DownloadSummary counts what a download run did.
type DownloadSummary struct {
	Downloaded []string
	Skipped    []string
}
