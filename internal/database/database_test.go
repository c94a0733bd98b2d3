package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"bookshelf/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMySQLDSN(t *testing.T) {
	tests := []struct {
		name    string
		config  config.DatabaseConfig
		want    string
		missing []string
	}{
		{
			name: "valid config",
			config: config.DatabaseConfig{
				DSN:      "tcp(localhost:3306)/bookshelf",
				User:     "shelf",
				Password: "secret",
			},
			want: "shelf:secret@tcp(localhost:3306)/bookshelf?parseTime=true&clientFoundRows=true",
		},
		{
			name: "dsn already carries params",
			config: config.DatabaseConfig{
				DSN:      "tcp(localhost:3306)/bookshelf?charset=utf8mb4",
				User:     "shelf",
				Password: "secret",
			},
			want: "shelf:secret@tcp(localhost:3306)/bookshelf?charset=utf8mb4&parseTime=true&clientFoundRows=true",
		},
		{
			name: "missing dsn",
			config: config.DatabaseConfig{
				User:     "shelf",
				Password: "secret",
			},
			missing: []string{"MYSQL_DSN"},
		},
		{
			name: "missing user",
			config: config.DatabaseConfig{
				DSN:      "tcp(localhost:3306)/bookshelf",
				Password: "secret",
			},
			missing: []string{"MYSQL_USER"},
		},
		{
			name: "missing password",
			config: config.DatabaseConfig{
				DSN:  "tcp(localhost:3306)/bookshelf",
				User: "shelf",
			},
			missing: []string{"MYSQL_PASSWORD"},
		},
		{
			name:    "everything missing",
			config:  config.DatabaseConfig{},
			missing: []string{"MYSQL_DSN", "MYSQL_USER", "MYSQL_PASSWORD"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildMySQLDSN(tt.config)

			if len(tt.missing) > 0 {
				var cfgErr *ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, tt.missing, cfgErr.Missing)
				assert.Empty(t, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnvConnectorMissingEnv(t *testing.T) {
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("MYSQL_USER", "")
	t.Setenv("MYSQL_PASSWORD", "")

	db, err := EnvConnector{}.Connect(context.Background())

	assert.Nil(t, db)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.ElementsMatch(t, []string{"MYSQL_DSN", "MYSQL_USER", "MYSQL_PASSWORD"}, cfgErr.Missing)
}

func TestEnvConnectorOpenFailure(t *testing.T) {
	t.Setenv("MYSQL_DSN", "tcp(localhost:3306)/bookshelf")
	t.Setenv("MYSQL_USER", "shelf")
	t.Setenv("MYSQL_PASSWORD", "secret")

	orig := sqlOpen
	defer func() { sqlOpen = orig }()
	sqlOpen = func(driverName, dsn string) (*sql.DB, error) {
		return nil, errors.New("boom")
	}

	db, err := EnvConnector{}.Connect(context.Background())

	assert.Nil(t, db)
	assert.ErrorContains(t, err, "sql open")
}
