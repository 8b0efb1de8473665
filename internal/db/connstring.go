package db

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

// BuildConnectionString renders config as a postgresql:// URI. A config
// carrying a URL returns it unchanged.
func BuildConnectionString(config *ndlsync.ConnectionConfig) string {
	if config.URL != "" {
		return config.URL
	}

	u := &url.URL{
		Scheme: "postgresql",
		Host:   fmt.Sprintf("%s:%d", config.Host, config.Port),
		Path:   "/" + config.Database,
	}

	if config.Username != "" {
		if config.Password != "" {
			u.User = url.UserPassword(config.Username, config.Password)
		} else {
			u.User = url.User(config.Username)
		}
	}

	query := url.Values{}
	if config.SSLMode != "" {
		query.Set("sslmode", config.SSLMode)
	}
	if config.AppName != "" {
		query.Set("application_name", config.AppName)
	}
	if config.ConnectTimeout > 0 {
		query.Set("connect_timeout", strconv.Itoa(int(config.ConnectTimeout.Seconds())))
	}
	for key, value := range config.AdditionalParams {
		query.Set(key, value)
	}

	u.RawQuery = query.Encode()
	return u.String()
}

// ParseConnectionString accepts a URI or keyword/value connection string and
// returns a config that keeps the original string as URL. The remaining
// fields are filled for display.
func ParseConnectionString(connStr string) (*ndlsync.ConnectionConfig, error) {
	parsed, err := pgx.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %v: %w", err, ndlsync.ErrInvalidConfig)
	}
	return &ndlsync.ConnectionConfig{
		URL:      connStr,
		Host:     parsed.Host,
		Port:     int(parsed.Port),
		Database: parsed.Database,
		Username: parsed.User,
	}, nil
}
