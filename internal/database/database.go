package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialects understood by the store.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// DB is a connection pool that knows which SQL dialect it speaks.
type DB struct {
	*sql.DB
	dialect string
}

// New opens a connection pool for the given driver and verifies it.
func New(ctx context.Context, driver, dataSourceName string) (*DB, error) {
	switch driver {
	case DialectSQLite:
		return openSQLite(ctx, dataSourceName)
	case DialectPostgres:
		return openPostgres(ctx, dataSourceName)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Wrap adapts an existing pool, e.g. one created by sqlmock.
func Wrap(db *sql.DB, dialect string) *DB {
	return &DB{DB: db, dialect: dialect}
}

func openSQLite(ctx context.Context, path string) (*DB, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite benefits from a single writer connection; it also keeps an
	// in-memory database alive for the life of the pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{"PRAGMA foreign_keys = ON"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			closeQuietly(db)
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return &DB{DB: db, dialect: DialectSQLite}, nil
}

func openPostgres(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return &DB{DB: db, dialect: DialectPostgres}, nil
}

func closeQuietly(db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("error closing db")
	}
}

// Dialect reports the SQL dialect of the pool.
func (db *DB) Dialect() string {
	return db.dialect
}

// Rebind rewrites '?' placeholders into the dialect's bind syntax.
func (db *DB) Rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Optimize refreshes the planner statistics of the store.
func (db *DB) Optimize(ctx context.Context) error {
	stmt := "PRAGMA optimize"
	if db.dialect == DialectPostgres {
		stmt = "ANALYZE users, tasks"
	}
	_, err := db.ExecContext(ctx, stmt)
	return err
}

// IsUniqueViolation reports whether err comes from a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return isSQLiteConstraint(liteErr, "UNIQUE", sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
	}
	return false
}

// IsForeignKeyViolation reports whether err comes from a FOREIGN KEY constraint.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return isSQLiteConstraint(liteErr, "FOREIGN KEY", sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY)
	}
	return false
}

// isSQLiteConstraint matches extended result codes, falling back to the
// message when only the primary SQLITE_CONSTRAINT code is reported.
func isSQLiteConstraint(err *sqlite.Error, kind string, codes ...int) bool {
	code := err.Code()
	for _, c := range codes {
		if code == c {
			return true
		}
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT &&
		strings.Contains(err.Error(), kind+" constraint failed")
}
