package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/ndlsync/internal/config"
	"github.com/vvka-141/ndlsync/internal/datalink"
	"github.com/vvka-141/ndlsync/internal/files/filesystem"
	"github.com/vvka-141/ndlsync/internal/logging"
	"github.com/vvka-141/ndlsync/internal/progress"
	"github.com/vvka-141/ndlsync/internal/services"
	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download SHARADAR bulk exports into the data directory",
	Long: `Download requests a bulk export of each table, waits until the vendor has
generated it, and saves the CSV inside the ZIP as <TABLE>.csv.

Tables whose CSV already exists are skipped without contacting the vendor;
delete the file to fetch a fresh copy. The first error stops the run.

API Key:
  Read from $NASDAQ_DATA_LINK_API_KEY (or the legacy $NASDAQKEY).
  A .env file in the working directory is loaded automatically.

Examples:
  # Every table into the current directory
  ndlsync download

  # Two tables into ./data, giving up after 30 polls of 20s each
  ndlsync download --data-dir ./data --table SF1 --table TICKERS \
    --poll-interval 20s --max-polls 30`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

type downloadFlagValues struct {
	dataDir      string
	tables       []string
	baseURL      string
	pollInterval time.Duration
	maxPolls     int
	timeout      time.Duration
}

var downloadFlags downloadFlagValues

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVar(&downloadFlags.dataDir, "data-dir", "",
		"Directory the CSV files are written to (default: data_dir in ndlsync.yaml, else .)")
	downloadCmd.Flags().StringSliceVarP(&downloadFlags.tables, "table", "t", nil,
		"Table to download (repeatable; default: every SHARADAR table)")
	downloadCmd.Flags().StringVar(&downloadFlags.baseURL, "base-url", "",
		"Datatables endpoint (default: "+ndlsync.DefaultBaseURL+")")
	downloadCmd.Flags().DurationVar(&downloadFlags.pollInterval, "poll-interval", 0,
		"Wait between export status checks (default: 1m0s)")
	downloadCmd.Flags().IntVar(&downloadFlags.maxPolls, "max-polls", 0,
		fmt.Sprintf("Status checks per table before giving up; -1 waits forever (default: %d)", ndlsync.DefaultMaxPolls))
	downloadCmd.Flags().DurationVar(&downloadFlags.timeout, "timeout", 0,
		"Timeout of each status request (default: 1m0s)")
}

// buildDownloadConfig resolves flags, environment and ndlsync.yaml into a validated DownloadConfig.
func buildDownloadConfig(cmd *cobra.Command, verbose bool) (ndlsync.DownloadConfig, error) {
	projectCfg, err := loadProjectConfig(getConfigFlag(cmd))
	if err != nil {
		return ndlsync.DownloadConfig{}, err
	}

	var vendor config.VendorConfig
	if projectCfg != nil {
		vendor = projectCfg.Vendor
	}

	cfg := ndlsync.DownloadConfig{
		DataDir:  resolveDataDir(downloadFlags.dataDir, projectCfg),
		Datasets: resolveDatasets(downloadFlags.tables, projectCfg),
		Vendor: ndlsync.VendorConfig{
			BaseURL:      firstString(downloadFlags.baseURL, vendor.BaseURL, ndlsync.DefaultBaseURL),
			APIKey:       resolveAPIKey(os.Getenv),
			PollInterval: firstDuration(downloadFlags.pollInterval, vendor.PollInterval, ndlsync.DefaultPollInterval),
			MaxPolls:     firstInt(downloadFlags.maxPolls, vendor.MaxPolls, ndlsync.DefaultMaxPolls),
			Timeout:      firstDuration(downloadFlags.timeout, vendor.Timeout, ndlsync.DefaultHTTPTimeout),
		},
		Verbose: verbose,
	}

	if err := cfg.Validate(); err != nil {
		return ndlsync.DownloadConfig{}, err
	}
	return cfg, nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	cfg, err := buildDownloadConfig(cmd, verbose)
	if err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(verbose)
	logger.Verbose("Data directory: %s", cfg.DataDir)
	logger.Verbose("Tables: %v", cfg.Datasets)
	logger.Verbose("Polling every %s, max polls %d", cfg.Vendor.PollInterval, cfg.Vendor.MaxPolls)

	dataDir, err := filesystem.NewOSDataDir(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("data directory %s: %w", cfg.DataDir, err)
	}

	client := datalink.NewClient(datalink.Options{
		BaseURL:      cfg.Vendor.BaseURL,
		APIKey:       cfg.Vendor.APIKey,
		Timeout:      cfg.Vendor.Timeout,
		PollInterval: cfg.Vendor.PollInterval,
		MaxPolls:     cfg.Vendor.MaxPolls,
		Logger:       logger,
	})
	downloader := services.NewDownloadService(client, dataDir, progress.NewReporter(os.Stderr), logger)

	ctx, cancel := signalContext("download")
	defer cancel()

	summary, err := downloader.Run(ctx, cfg.Datasets)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	logger.Info("Download complete: %d downloaded, %d already present", len(summary.Downloaded), len(summary.Skipped))
	return nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstDuration(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
