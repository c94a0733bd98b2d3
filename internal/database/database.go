package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/XSAM/otelsql"
	_ "github.com/go-sql-driver/mysql"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"bookshelf/internal/config"
)

var sqlOpen = sql.Open

// ConfigurationError reports required environment variables that were unset
// or empty when a connection was requested.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Missing, ", "))
}

// BuildMySQLDSN assembles a driver DSN from the configured parts.
// Example: user:pass@tcp(localhost:3306)/bookshelf?parseTime=true&clientFoundRows=true
//
// parseTime makes DATE columns scan into time.Time values; clientFoundRows
// makes UPDATE report matched rows instead of changed rows, so updating a
// row to its current values still counts as one affected row.
func BuildMySQLDSN(c config.DatabaseConfig) (string, error) {
	var missing []string
	if c.DSN == "" {
		missing = append(missing, "MYSQL_DSN")
	}
	if c.User == "" {
		missing = append(missing, "MYSQL_USER")
	}
	if c.Password == "" {
		missing = append(missing, "MYSQL_PASSWORD")
	}
	if len(missing) > 0 {
		return "", &ConfigurationError{Missing: missing}
	}

	sep := "?"
	if strings.Contains(c.DSN, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s:%s@%s%sparseTime=true&clientFoundRows=true", c.User, c.Password, c.DSN, sep), nil
}

var (
	registerOnce sync.Once
	otelName     string
	otelErr      error
)

// otelDriver registers the otelsql wrapper around the mysql driver.
// Registration happens once per process; every connection opened through it
// carries SQL spans and query comments.
func otelDriver() (string, error) {
	registerOnce.Do(func() {
		otelName, otelErr = otelsql.Register("mysql",
			otelsql.WithAttributes(semconv.DBSystemMySQL),
			otelsql.WithSQLCommenter(true),
		)
	})
	if otelErr != nil {
		return "", fmt.Errorf("failed to register otelsql: %w", otelErr)
	}
	return otelName, nil
}

// Connector opens a database handle for a single logical operation.
// The caller owns the returned handle and must close it when the
// operation completes; nothing is reused across calls.
type Connector interface {
	Connect(ctx context.Context) (*sql.DB, error)
}

// EnvConnector reads MYSQL_DSN, MYSQL_USER and MYSQL_PASSWORD fresh from
// the environment on every Connect. A *ConfigurationError is returned
// before any connection attempt if any of the three is unset or empty.
type EnvConnector struct{}

var _ Connector = EnvConnector{}

func (EnvConnector) Connect(ctx context.Context) (*sql.DB, error) {
	dsn, err := BuildMySQLDSN(config.LoadDatabase())
	if err != nil {
		return nil, err
	}

	name, err := otelDriver()
	if err != nil {
		return nil, err
	}

	db, err := sqlOpen(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	// One connection per operation; the handle is closed by the caller
	// when the operation returns, so idle reuse never happens.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)

	return db, nil
}
