package db

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/vvka-141/ndlsync/internal/config"
	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

// ConnectionStringEnvVar may hold a full connection string for the load stage.
const ConnectionStringEnvVar = "NDLSYNC_CONNECTION_STRING"

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Password is not a flag. Use $PGPASSWORD or a connection string.
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty reports whether no server-addressing flag was given.
// Database is excluded: it may override the database of a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// EnvVars holds the PostgreSQL standard environment variables plus the
// connection-string variables ndlsync honours.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST            string
	PGPORT            string
	PGUSER            string
	PGPASSWORD        string
	PGDATABASE        string
	PGSSLMODE         string
	DATABASE_URL      string
	CONNECTION_STRING string
}

// LoadFromEnvironment reads EnvVars from the process environment.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:            os.Getenv("PGHOST"),
		PGPORT:            os.Getenv("PGPORT"),
		PGUSER:            os.Getenv("PGUSER"),
		PGPASSWORD:        os.Getenv("PGPASSWORD"),
		PGDATABASE:        os.Getenv("PGDATABASE"),
		PGSSLMODE:         os.Getenv("PGSSLMODE"),
		DATABASE_URL:      os.Getenv("DATABASE_URL"),
		CONNECTION_STRING: os.Getenv(ConnectionStringEnvVar),
	}
}

// ResolveConnectionParams resolves the connection with PostgreSQL-standard precedence:
//
//  1. --connection flag
//  2. $NDLSYNC_CONNECTION_STRING, then $DATABASE_URL, when no granular flags are set
//  3. granular flags > PG* environment > ndlsync.yaml > defaults, per parameter
//
// A --database flag overrides the database of a connection string.
// Supplying both --connection and granular flags is an error.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*ndlsync.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U, --sslmode)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/sharadar\"\n"+
				"  2. Granular flags: -h localhost -p 5432 -U myuser -d sharadar\n"+
				"  3. Environment variables: export PGHOST=localhost PGPORT=5432 PGUSER=myuser: %w",
			ndlsync.ErrInvalidConfig,
		)
	}

	connStr := connStringFlag
	if connStr == "" && granularFlags.IsEmpty() {
		connStr = envVars.CONNECTION_STRING
		if connStr == "" {
			connStr = envVars.DATABASE_URL
		}
	}

	if connStr != "" {
		if granularFlags.Database != "" {
			connStr = withDatabase(connStr, granularFlags.Database)
		}
		return ParseConnectionString(connStr)
	}

	return resolveFromGranularParams(granularFlags, envVars, projectConfig)
}

// resolveFromGranularParams applies flag > environment > ndlsync.yaml > default per parameter.
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*ndlsync.ConnectionConfig, error) {
	cfg := &ndlsync.ConnectionConfig{
		AppName:        ndlsync.DefaultAppName,
		ConnectTimeout: ndlsync.DefaultConnectTimeout,
	}

	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	cfg.Host = firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, "localhost")

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", envVars.PGPORT, ndlsync.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = 5432
	}

	cfg.Username = firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME"))
	cfg.Password = envVars.PGPASSWORD
	cfg.Database = firstNonEmpty(flags.Database, envVars.PGDATABASE, pc.Database)
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, "prefer")

	return cfg, nil
}

// withDatabase points connStr at database, for URIs and keyword/value strings alike.
func withDatabase(connStr, database string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		u, err := url.Parse(connStr)
		if err == nil {
			u.Path = "/" + database
			return u.String()
		}
	}
	return connStr + " dbname='" + strings.ReplaceAll(database, "'", `\'`) + "'"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
