package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/ndlsync/internal/config"
	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

func TestGranularConnFlags_IsEmpty(t *testing.T) {
	assert.True(t, (&GranularConnFlags{}).IsEmpty())
	assert.True(t, (&GranularConnFlags{Database: "sharadar"}).IsEmpty(), "database alone may override a connection string")
	assert.False(t, (&GranularConnFlags{Host: "localhost"}).IsEmpty())
	assert.False(t, (&GranularConnFlags{Port: 5432}).IsEmpty())
	assert.False(t, (&GranularConnFlags{SSLMode: "require"}).IsEmpty())
}

func TestResolveConnectionParams_Precedence(t *testing.T) {
	project := &config.ProjectConfig{Connection: config.ConnectionConfig{
		Host: "yaml-host", Port: 6000, Username: "yaml-user", Database: "yaml-db", SSLMode: "disable",
	}}

	t.Run("yaml fills gaps", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("", nil, &EnvVars{}, project)
		require.NoError(t, err)
		assert.Equal(t, "yaml-host", cfg.Host)
		assert.Equal(t, 6000, cfg.Port)
		assert.Equal(t, "yaml-user", cfg.Username)
		assert.Equal(t, "yaml-db", cfg.Database)
		assert.Equal(t, "disable", cfg.SSLMode)
	})

	t.Run("environment beats yaml", func(t *testing.T) {
		env := &EnvVars{PGHOST: "env-host", PGPORT: "7000", PGDATABASE: "env-db", PGPASSWORD: "pw"}
		cfg, err := ResolveConnectionParams("", nil, env, project)
		require.NoError(t, err)
		assert.Equal(t, "env-host", cfg.Host)
		assert.Equal(t, 7000, cfg.Port)
		assert.Equal(t, "env-db", cfg.Database)
		assert.Equal(t, "pw", cfg.Password)
	})

	t.Run("flags beat environment", func(t *testing.T) {
		flags := &GranularConnFlags{Host: "flag-host", Port: 8000, Database: "flag-db"}
		env := &EnvVars{PGHOST: "env-host", PGPORT: "7000", PGDATABASE: "env-db"}
		cfg, err := ResolveConnectionParams("", flags, env, project)
		require.NoError(t, err)
		assert.Equal(t, "flag-host", cfg.Host)
		assert.Equal(t, 8000, cfg.Port)
		assert.Equal(t, "flag-db", cfg.Database)
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("", nil, &EnvVars{}, nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 5432, cfg.Port)
		assert.Equal(t, "prefer", cfg.SSLMode)
		assert.Equal(t, ndlsync.DefaultAppName, cfg.AppName)
	})
}

func TestResolveConnectionParams_ConnectionStrings(t *testing.T) {
	t.Run("flag", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("postgresql://u@h:5432/flagdb", nil, &EnvVars{DATABASE_URL: "postgresql://u@h/urldb"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "flagdb", cfg.Database)
	})

	t.Run("ndlsync env beats DATABASE_URL", func(t *testing.T) {
		env := &EnvVars{CONNECTION_STRING: "postgresql://u@h/ndldb", DATABASE_URL: "postgresql://u@h/urldb"}
		cfg, err := ResolveConnectionParams("", nil, env, nil)
		require.NoError(t, err)
		assert.Equal(t, "ndldb", cfg.Database)
	})

	t.Run("database flag overrides uri", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("postgresql://u:pw@h:5432/postgres?sslmode=disable", &GranularConnFlags{Database: "sharadar"}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "sharadar", cfg.Database)
		assert.Equal(t, "postgresql://u:pw@h:5432/sharadar?sslmode=disable", cfg.URL)
	})

	t.Run("database flag overrides keyword string", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("host=h user=u dbname=postgres", &GranularConnFlags{Database: "sharadar"}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "sharadar", cfg.Database)
	})

	t.Run("granular flags disable DATABASE_URL", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("", &GranularConnFlags{Host: "flag-host", Database: "d"}, &EnvVars{DATABASE_URL: "postgresql://u@h/urldb"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "flag-host", cfg.Host)
		assert.Empty(t, cfg.URL)
	})
}

func TestResolveConnectionParams_Errors(t *testing.T) {
	_, err := ResolveConnectionParams("postgresql://h/db", &GranularConnFlags{Host: "x"}, nil, nil)
	assert.ErrorIs(t, err, ndlsync.ErrInvalidConfig)

	_, err = ResolveConnectionParams("", nil, &EnvVars{PGPORT: "abc"}, nil)
	assert.ErrorIs(t, err, ndlsync.ErrInvalidConfig)
}
