package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/paulexconde/eventmatch/internal/pkg/fault"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Dialect names the SQL flavour behind a DB.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

func init() {
	// sqlx does not know modernc's driver name; it takes ? bindvars.
	sqlx.BindDriver(string(SQLite), sqlx.QUESTION)
}

// ParseDialect maps a configured driver name onto a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// ForUpdate is the row lock suffix for a SELECT. SQLite has no row locks;
// its transactions are opened IMMEDIATE instead (see SQLiteDSN).
func (d Dialect) ForUpdate() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

// DB is a sqlx handle that knows its dialect.
type DB struct {
	*sqlx.DB
	dialect Dialect
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Open connects to driver/dsn and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database url is required")
	}

	if dialect == SQLite {
		dsn = SQLiteDSN(dsn)
	}

	conn, err := sqlx.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect, err)
	}

	return &DB{DB: conn, dialect: dialect}, nil
}

// SQLiteDSN turns a file path into a modernc DSN with foreign keys on,
// a busy timeout and IMMEDIATE transactions so that concurrent writers
// serialize at BEGIN.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

// TranslateError maps driver errors onto fault sentinels. Unknown errors
// are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fault.ErrNotFound
	}

	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // PostgreSQL unique constraint violation code
			return fmt.Errorf("%w: %s", fault.ErrUniqueViolation, pgErr.Constraint)
		case "23503":
			return fmt.Errorf("%w: %s", fault.ErrForeignKeyViolation, pgErr.Constraint)
		}
		return err
	}

	var liteErr *msqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", fault.ErrUniqueViolation, liteErr.Error())
		case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %s", fault.ErrForeignKeyViolation, liteErr.Error())
		}
	}

	return err
}
