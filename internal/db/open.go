package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Driver names accepted in configuration. The dashboard talks to two
// databases (its own and the game server's) and each can independently be
// PostgreSQL or MySQL.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func ValidDriver(driver string) bool {
	return driver == DriverPostgres || driver == DriverMySQL
}

func Open(driver, dsn string, pool PoolConfig) (*sql.DB, error) {
	var database *sql.DB
	var err error

	switch driver {
	case DriverPostgres:
		database, err = sql.Open("pgx", dsn)
	case DriverMySQL:
		database, err = sql.Open("mysql", dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if pool.MaxOpenConns > 0 {
		database.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		database.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		database.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if pool.ConnMaxIdleTime > 0 {
		database.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}

	return database, nil
}
