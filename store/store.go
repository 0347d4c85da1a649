package store

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/xy-planning-network/switchyard"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PG Docs: https://www.postgresql.org/docs/current/libpq-connect.html#LIBPQ-PARAMKEYWORDS
const cxnStr = "host=%s port=%s dbname=%s user=%s password=%s sslmode=%s"

// A Dialect names the SQL database a DB talks to.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

func (d Dialect) String() string { return string(d) }

func (d Dialect) Valid() error {
	switch d {
	case Postgres, SQLite:
		return nil
	default:
		return fmt.Errorf("%w: unknown dialect %q", switchyard.ErrNotValid, string(d))
	}
}

// CxnConfig holds connection information used to connect to a database.
//
// For SQLite, Name or URL is the path of the database file.
type CxnConfig struct {
	Dialect  Dialect
	IsTestDB bool
	URL      string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

// Connect creates a database connection through GORM according to the connection config and runs all migrations.
func Connect(config *CxnConfig, migrations []Migration, env switchyard.Environment) (*DB, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: no connection config", switchyard.ErrBadConfig)
	}

	if config.Dialect == "" {
		config.Dialect = Postgres
	}

	if err := config.Dialect.Valid(); err != nil {
		return nil, fmt.Errorf("%w: %s", switchyard.ErrBadConfig, err)
	}

	// https://gorm.io/docs/logger.html
	c := logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  env.IsDevelopment(),
	}

	if env.IsTesting() {
		c.LogLevel = logger.Silent
	}

	var dialector gorm.Dialector
	switch config.Dialect {
	case SQLite:
		dialector = sqlite.Open(sqliteDSN(config))
	default:
		dialector = postgres.Open(buildCxnStr(config))
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), c),
		NowFunc: func() time.Time {
			return time.Now().Truncate(time.Microsecond)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed connecting to %s: %s", switchyard.ErrUnexpected, config.Dialect, err)
	}

	if config.IsTestDB && config.Dialect == Postgres {
		if err := gdb.Exec("DROP SCHEMA IF EXISTS public CASCADE;").Error; err != nil {
			return nil, fmt.Errorf("%w: %s", switchyard.ErrUnexpected, err)
		}
	}

	if err := MigrateUp(gdb, "public", migrations); err != nil {
		return nil, err
	}

	return NewDB(gdb), nil
}

func buildCxnStr(config *CxnConfig) string {
	if config.URL != "" {
		return config.URL
	}

	if config.SSLMode == "" {
		// PG Docs: https://www.postgresql.org/docs/current/libpq-ssl.html#LIBPQ-SSL-SSLMODE-STATEMENTS
		config.SSLMode = "prefer"
	}

	return fmt.Sprintf(
		cxnStr,
		config.Host,
		config.Port,
		config.Name,
		config.User,
		config.Password,
		config.SSLMode,
	)
}

func sqliteDSN(config *CxnConfig) string {
	dsn := config.URL
	if dsn == "" {
		dsn = config.Name
	}

	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
}

// WipeDB queries for all of the tables and then drops the data in these tables.
// The migrations table is left alone.
func WipeDB(db *DB) error {
	gdb := db.DB()

	var tables []string
	var err error
	switch gdb.Dialector.Name() {
	case SQLite.String():
		err = gdb.
			Table("sqlite_master").
			Where("type = ? AND name NOT LIKE ?", "table", "sqlite_%").
			Pluck("name", &tables).
			Error
	default:
		err = gdb.
			Table("information_schema.tables").
			Where("table_schema = ?", "public").
			Not("table_type = ?", "VIEW").
			Pluck("table_name", &tables).
			Error
	}
	if err != nil {
		return fmt.Errorf("%w: %s", switchyard.ErrUnexpected, err)
	}

	for _, table := range tables {
		if table == migrationsTable {
			continue
		}

		if err := gdb.Exec("DELETE FROM " + gdb.Statement.Quote(table)).Error; err != nil {
			return fmt.Errorf("%w: %s", switchyard.ErrUnexpected, err)
		}
	}

	return nil
}
