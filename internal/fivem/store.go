package fivem

import (
	"context"
	"database/sql"
	"fmt"

	"fivem-dashboard/internal/db"
)

const (
	defaultPlayerLimit = 100
	leaderboardLimit   = 10
)

// GameStore reads the external game database. The two backends target the
// schemas actually seen in the wild: the live ESX server keeps balances in an
// accounts JSON blob with millisecond last_seen epochs (MySQL), while the
// staging mirror uses flat money/bank columns and timestamp last_login
// (PostgreSQL). All access is read-only.
type GameStore interface {
	Players(ctx context.Context, limit int) ([]Player, error)
	Vehicles(ctx context.Context) ([]Vehicle, error)
	HallOfFame(ctx context.Context) (*HallOfFame, error)
	Stats(ctx context.Context) (*Stats, error)
}

func NewGameStore(database *sql.DB, driver string) (GameStore, error) {
	switch driver {
	case db.DriverPostgres:
		return &postgresGameStore{db: database}, nil
	case db.DriverMySQL:
		return &mysqlGameStore{db: database}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}
