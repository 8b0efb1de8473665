package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/ndlsync/internal/retry"
	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

// StandardConnector opens a single connection with username/password
// authentication, retrying transient failures.
type StandardConnector struct {
	config        *ndlsync.ConnectionConfig
	retryExecutor *retry.Executor
	logger        ndlsync.Logger
}

// NewStandardConnector creates a StandardConnector. Transient failures are
// retried config.ConnectRetries times with exponential backoff from
// DefaultRetryInitialDelay up to DefaultRetryMaxDelay; by default there is a
// single attempt.
func NewStandardConnector(config *ndlsync.ConnectionConfig, logger ndlsync.Logger) *StandardConnector {
	if config == nil {
		panic("config cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	strategy := retry.NewExponentialBackoff(max(config.ConnectRetries, 0),
		retry.WithInitialDelay(ndlsync.DefaultRetryInitialDelay),
		retry.WithMaxDelay(ndlsync.DefaultRetryMaxDelay),
	)
	executor := retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Info("Connection attempt %d failed, retrying in %s: %v", attempt+1, delay, err)
		})

	return &StandardConnector{
		config:        config,
		retryExecutor: executor,
		logger:        logger,
	}
}

// Connect opens and pings a connection.
func (c *StandardConnector) Connect(ctx context.Context) (*pgx.Conn, error) {
	connConfig, err := pgx.ParseConfig(BuildConnectionString(c.config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %v: %w", err, ndlsync.ErrInvalidConfig)
	}
	connConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		c.logger.Verbose("postgres %s: %s", strings.ToLower(notice.Severity), notice.Message)
	}

	var conn *pgx.Conn
	err = c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		var connErr error
		conn, connErr = pgx.ConnectConfig(ctx, connConfig)
		if connErr != nil {
			return connErr
		}
		if pingErr := conn.Ping(ctx); pingErr != nil {
			conn.Close(context.Background())
			return pingErr
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ndlsync.ErrConnectionFailed,
			wrapConnectionError(err, connConfig.Host, int(connConfig.Port), connConfig.Database))
	}

	return conn, nil
}

// NewConnector returns the connector for config.
func NewConnector(config *ndlsync.ConnectionConfig, logger ndlsync.Logger) ndlsync.Connector {
	return NewStandardConnector(config, logger)
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port

Original error: %w`, addr, host, port, err)

	case strings.Contains(errStr, "no such host"):
		return fmt.Errorf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not reachable

Original error: %w`, host, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`password authentication failed for database "%s"

Possible causes:
  - Wrong password (check $PGPASSWORD or the connection string)
  - Wrong username

Original error: %w`, database, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`database "%s" does not exist

To create it:
  createdb %s

Original error: %w`, database, database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets

Original error: %w`, addr, err)

	default:
		return fmt.Errorf("failed to connect to database: %w", err)
	}
}
