package retry

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

func TestPostgreSQLErrorClassifier_IsTransient(t *testing.T) {
	classifier := NewPostgreSQLErrorClassifier()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection failure 08006", &pgconn.PgError{Code: "08006"}, true},
		{"too many connections 53300", &pgconn.PgError{Code: "53300"}, true},
		{"cannot connect now 57P03", &pgconn.PgError{Code: "57P03"}, true},
		{"serialization failure 40001", &pgconn.PgError{Code: "40001"}, true},
		{"lock not available 55P03", &pgconn.PgError{Code: "55P03"}, true},
		{"syntax error 42601", &pgconn.PgError{Code: "42601"}, false},
		{"unique violation 23505", &pgconn.PgError{Code: "23505"}, false},
		{"invalid password 28P01", &pgconn.PgError{Code: "28P01"}, false},
		{"wrapped pg error", fmt.Errorf("connect: %w", &pgconn.PgError{Code: "08001"}), true},
		{"connection refused op error", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
		{"connection reset message", errors.New("read: connection reset by peer"), true},
		{"unexpected EOF message", errors.New("unexpected EOF"), true},
		{"plain error", errors.New("permission denied"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.IsTransient(tt.err))
		})
	}
}

func TestSentinelClassifier_IsTransient(t *testing.T) {
	classifier := NewSentinelClassifier(ndlsync.ErrExportNotReady)

	assert.True(t, classifier.IsTransient(ndlsync.ErrExportNotReady))
	assert.True(t, classifier.IsTransient(fmt.Errorf("SF1 generating: %w", ndlsync.ErrExportNotReady)))
	assert.False(t, classifier.IsTransient(fmt.Errorf("status 500: %w", ndlsync.ErrTransport)))
	assert.False(t, classifier.IsTransient(nil))
}
