// Package sqlstore persists the roster through sqlx on PostgreSQL or SQLite.
package sqlstore

import (
	"errors"
	"strings"

	apperrors "goattend/internal/errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// sqlitePragmas are applied to every connection the pool opens.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Open connects to the database named by url. postgres:// and postgresql:// URLs use lib/pq;
// sqlite://<path> (or sqlite://:memory:) uses the pure-Go SQLite driver.
func Open(url string) (*sqlx.DB, error) {
	driver, dsn, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to connect to database", err)
	}

	if driver == DriverSQLite {
		// One connection serialises writers and keeps an in-memory database alive.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// ParseURL maps a DATABASE_URL to a driver name and DSN.
func ParseURL(url string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, url, nil
	case strings.HasPrefix(url, "sqlite://"):
		path := strings.TrimPrefix(url, "sqlite://")
		if path == "" {
			return "", "", apperrors.ConfigInvalid("sqlite URL has no path")
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return DriverSQLite, path + sep + sqlitePragmas, nil
	default:
		return "", "", apperrors.ConfigInvalid("unsupported database URL scheme: " + url)
	}
}

// isUniqueViolation reports whether err comes from a unique constraint on either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
		return true
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
