package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vvka-141/ndlsync/internal/config"
	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

// loadProjectConfig loads .env into the environment and reads the project config.
// Without an explicit path, a missing ./ndlsync.yaml yields a nil config (not an error).
func loadProjectConfig(path string) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	if path != "" {
		projectCfg, err := config.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %v: %w", path, err, ndlsync.ErrInvalidConfig)
		}
		return projectCfg, nil
	}

	projectCfg, err := config.Load(".")
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %v: %w", config.ConfigFileName, err, ndlsync.ErrInvalidConfig)
	}
	return projectCfg, nil
}

// resolveAPIKey reads the vendor key, preferring the documented variable over the legacy one.
func resolveAPIKey(getenv func(string) string) string {
	if key := strings.TrimSpace(getenv(ndlsync.APIKeyEnvVar)); key != "" {
		return key
	}
	return strings.TrimSpace(getenv(ndlsync.LegacyAPIKeyEnvVar))
}

// resolveDatasets returns --table values, else ndlsync.yaml tables, else every
// known dataset. Names are upper-cased.
func resolveDatasets(flagTables []string, projectCfg *config.ProjectConfig) []string {
	source := flagTables
	if len(source) == 0 && projectCfg != nil {
		source = projectCfg.Tables
	}
	if len(source) == 0 {
		return ndlsync.DefaultDatasets()
	}
	datasets := make([]string, len(source))
	for i, name := range source {
		datasets[i] = strings.ToUpper(strings.TrimSpace(name))
	}
	return datasets
}

// resolveDataDir applies flag > ndlsync.yaml > current directory.
func resolveDataDir(flagDir string, projectCfg *config.ProjectConfig) string {
	if flagDir != "" {
		return flagDir
	}
	if projectCfg != nil && projectCfg.DataDir != "" {
		return projectCfg.DataDir
	}
	return ndlsync.DefaultDataDir
}

// resolveLogFile applies flag > ndlsync.yaml > <data dir>/upload_log.txt.
func resolveLogFile(flagFile string, projectCfg *config.ProjectConfig, dataDir string) string {
	if flagFile != "" {
		return flagFile
	}
	if projectCfg != nil && projectCfg.LogFile != "" {
		return projectCfg.LogFile
	}
	return filepath.Join(dataDir, ndlsync.DefaultLogFile)
}

// signalContext returns a context cancelled on Ctrl+C or SIGTERM.
func signalContext(stage string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintf(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling %s...\n", stage)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
