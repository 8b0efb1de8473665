package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// transientPgClasses are SQLSTATE classes worth retrying while connecting:
// 08 connection exception, 53 insufficient resources, 57 operator intervention.
var transientPgClasses = []string{"08", "53", "57"}

// transientPgCodes are individual SQLSTATEs outside those classes that clear on their own.
var transientPgCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

// transientMessages match driver errors that carry no SQLSTATE.
var transientMessages = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"server closed the connection",
	"unexpected eof",
}

// PostgreSQLErrorClassifier reports connection-level PostgreSQL failures as transient.
type PostgreSQLErrorClassifier struct{}

// NewPostgreSQLErrorClassifier creates a new PostgreSQL error classifier.
func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if transientPgCodes[pgErr.Code] {
			return true
		}
		for _, class := range transientPgClasses {
			if strings.HasPrefix(pgErr.Code, class) {
				return true
			}
		}
		return false
	}

	if isTransientNetError(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientMessages {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func isTransientNetError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	if opErr.Timeout() {
		return true
	}
	return errors.Is(opErr.Err, syscall.ECONNREFUSED) ||
		errors.Is(opErr.Err, syscall.ECONNRESET) ||
		errors.Is(opErr.Err, syscall.ENETUNREACH) ||
		errors.Is(opErr.Err, syscall.EHOSTUNREACH)
}

// SentinelClassifier treats an error as transient when it wraps one of a fixed
// set of sentinel errors. Everything else is fatal.
type SentinelClassifier struct {
	targets []error
}

// NewSentinelClassifier returns a classifier matching targets with errors.Is.
func NewSentinelClassifier(targets ...error) *SentinelClassifier {
	return &SentinelClassifier{targets: targets}
}

// IsTransient reports whether err wraps any of the configured sentinels.
func (c *SentinelClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range c.targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
