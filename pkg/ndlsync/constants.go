package ndlsync

import "time"

// Exit codes returned by the ndlsync binary.
const (
	ExitSuccess = 0

	// ExitGeneralError covers unclassified failures.
	ExitGeneralError = 1

	// ExitUsageError indicates invalid arguments or flags.
	ExitUsageError = 2

	// ExitPanic indicates a recovered panic.
	ExitPanic = 3

	// ExitConfigError indicates invalid configuration.
	ExitConfigError = 10

	// ExitConnectionError indicates the database connection failed.
	ExitConnectionError = 11

	// ExitTransportError indicates the vendor API or download failed.
	ExitTransportError = 20

	// ExitReadinessTimeout indicates an export never became ready within the poll budget.
	ExitReadinessTimeout = 21

	// ExitArchiveError indicates a downloaded archive could not be extracted.
	ExitArchiveError = 22

	// ExitLoadFailed indicates at least one table failed to load (only with --strict).
	ExitLoadFailed = 23

	// ExitMetadataMissing indicates INDICATORS.csv is absent from the data directory.
	ExitMetadataMissing = 24
)

// Vendor API constants.
const (
	// DefaultBaseURL is the datatables endpoint of the Nasdaq Data Link API.
	DefaultBaseURL = "https://data.nasdaq.com/api/v3/datatables/SHARADAR"

	// StatusFresh and StatusRegenerating carry a usable download link.
	StatusFresh        = "fresh"
	StatusRegenerating = "regenerating"

	// StatusGenerating means the export is still being built.
	StatusGenerating = "generating"

	// DefaultPollInterval is the wait between export status polls.
	DefaultPollInterval = 60 * time.Second

	// DefaultMaxPolls bounds the readiness loop. -1 polls forever.
	DefaultMaxPolls = 120

	// DefaultHTTPTimeout applies to status requests. Downloads are bounded by the context only.
	DefaultHTTPTimeout = 60 * time.Second

	// APIKeyEnvVar holds the vendor API key.
	APIKeyEnvVar = "NASDAQ_DATA_LINK_API_KEY"

	// LegacyAPIKeyEnvVar is read when APIKeyEnvVar is unset.
	LegacyAPIKeyEnvVar = "NASDAQKEY"
)

// Data directory constants.
const (
	// DefaultDataDir is where CSV files are written and read.
	DefaultDataDir = "."

	// DefaultLogFile is the persistent load log, placed in the data directory unless configured.
	DefaultLogFile = "upload_log.txt"

	// MetadataDataset holds the per-column metadata that drives schema inference.
	MetadataDataset = "INDICATORS"

	// CSVExtension is appended to a dataset name to form its file name.
	CSVExtension = ".csv"
)

// Database defaults.
const (
	DefaultConnectRetries    = 0
	DefaultRetryInitialDelay = 1 * time.Second
	DefaultRetryMaxDelay     = 30 * time.Second
	DefaultConnectTimeout    = 30 * time.Second
	DefaultAppName           = "ndlsync"
)

// knownDatasets is the fixed list of tables the vendor exports, in download order.
var knownDatasets = []string{
	"SF1", "SF2", "SF3", "EVENTS", "SF3A", "SF3B", "SEP",
	"TICKERS", "INDICATORS", "DAILY", "SP500", "ACTIONS", "SFP", "METRICS",
}

// DefaultDatasets returns a copy of the known dataset list in its canonical order.
func DefaultDatasets() []string {
	out := make([]string, len(knownDatasets))
	copy(out, knownDatasets)
	return out
}

// IsKnownDataset reports whether name is one of the vendor tables.
// Names are compared exactly; dataset names are upper case.
func IsKnownDataset(name string) bool {
	for _, d := range knownDatasets {
		if d == name {
			return true
		}
	}
	return false
}

// FileName returns the canonical CSV file name for a dataset.
func FileName(dataset string) string {
	return dataset + CSVExtension
}
