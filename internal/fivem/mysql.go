package fivem

import (
	"context"
	"database/sql"
	"time"
)

// mysqlGameStore targets a stock ESX schema: balances live in the users
// accounts JSON column and last_seen is a millisecond unix epoch.
type mysqlGameStore struct {
	db *sql.DB
}

func (s *mysqlGameStore) Players(ctx context.Context, limit int) ([]Player, error) {
	if limit <= 0 {
		limit = defaultPlayerLimit
	}

	rows, err := s.db.QueryContext(ctx, "SELECT identifier, firstname, lastname, accounts, job, job_grade, `group`, last_seen, position FROM users ORDER BY last_seen DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]Player, 0, limit)
	for rows.Next() {
		var (
			player    Player
			accounts  sql.NullString
			job       sql.NullString
			jobGrade  sql.NullInt64
			group     sql.NullString
			lastSeen  sql.NullInt64
			position  sql.NullString
			firstname sql.NullString
			lastname  sql.NullString
		)
		if err := rows.Scan(&player.Identifier, &firstname, &lastname, &accounts, &job, &jobGrade, &group, &lastSeen, &position); err != nil {
			return nil, err
		}

		player.Firstname = firstname.String
		player.Lastname = lastname.String
		player.Job = job.String
		player.JobGrade = int(jobGrade.Int64)
		player.Group = group.String
		player.Position = position.String
		if lastSeen.Valid {
			player.LastSeen = time.UnixMilli(lastSeen.Int64).UTC().Format(lastSeenLayout)
		}

		balances := parseAccounts(accounts.String)
		player.Money = balances.Money
		player.Bank = balances.Bank
		player.BlackMoney = balances.BlackMoney

		players = append(players, player)
	}
	return players, rows.Err()
}

func (s *mysqlGameStore) Vehicles(ctx context.Context) ([]Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT ov.owner, ov.plate, ov.vehicle, ov.stored, CONCAT(u.firstname, ' ', u.lastname) FROM owned_vehicles ov LEFT JOIN users u ON u.identifier = ov.owner ORDER BY ov.plate")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		var (
			vehicle   Vehicle
			blob      sql.NullString
			stored    sql.NullInt64
			ownerName sql.NullString
		)
		if err := rows.Scan(&vehicle.Owner, &vehicle.Plate, &blob, &stored, &ownerName); err != nil {
			return nil, err
		}
		vehicle.Model = parseVehicleModel(blob.String)
		vehicle.Stored = stored.Int64 != 0
		vehicle.OwnerName = ownerName.String
		if vehicle.OwnerName == "" {
			vehicle.OwnerName = "Unknown"
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, rows.Err()
}

func (s *mysqlGameStore) HallOfFame(ctx context.Context) (*HallOfFame, error) {
	fame := &HallOfFame{}

	// Balance extraction happens in SQL here rather than in Go so the top-10
	// sort does not require reading the whole users table.
	rows, err := s.db.QueryContext(ctx, "SELECT identifier, firstname, lastname, CAST(COALESCE(JSON_EXTRACT(accounts, '$.money'), 0) AS SIGNED) + CAST(COALESCE(JSON_EXTRACT(accounts, '$.bank'), 0) AS SIGNED) AS total_money FROM users ORDER BY total_money DESC LIMIT ?", leaderboardLimit)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			entry     RichPlayer
			firstname sql.NullString
			lastname  sql.NullString
		)
		if err := rows.Scan(&entry.Identifier, &firstname, &lastname, &entry.TotalMoney); err != nil {
			rows.Close()
			return nil, err
		}
		entry.Firstname = firstname.String
		entry.Lastname = lastname.String
		fame.Richest = append(fame.Richest, entry)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, "SELECT ov.owner, COALESCE(u.firstname, ''), COALESCE(u.lastname, ''), COUNT(*) AS vehicle_count FROM owned_vehicles ov LEFT JOIN users u ON u.identifier = ov.owner GROUP BY ov.owner, u.firstname, u.lastname ORDER BY vehicle_count DESC LIMIT ?", leaderboardLimit)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var entry VehicleOwner
		if err := rows.Scan(&entry.Identifier, &entry.Firstname, &entry.Lastname, &entry.VehicleCount); err != nil {
			rows.Close()
			return nil, err
		}
		fame.MostVehicles = append(fame.MostVehicles, entry)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, "SELECT identifier, COALESCE(firstname, ''), COALESCE(lastname, ''), last_seen FROM users WHERE last_seen IS NOT NULL ORDER BY last_seen DESC LIMIT ?", leaderboardLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			entry    ActivePlayer
			lastSeen int64
		)
		if err := rows.Scan(&entry.Identifier, &entry.Firstname, &entry.Lastname, &lastSeen); err != nil {
			return nil, err
		}
		entry.LastSeen = time.UnixMilli(lastSeen).UTC().Format(lastSeenLayout)
		fame.MostActive = append(fame.MostActive, entry)
	}
	return fame, rows.Err()
}

func (s *mysqlGameStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&stats.TotalUsers); err != nil {
		return nil, err
	}

	activeSince := time.Now().Add(-24 * time.Hour).UnixMilli()
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE last_seen >= ?", activeSince).Scan(&stats.ActiveUsers); err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM owned_vehicles").Scan(&stats.TotalVehicles); err != nil {
		return nil, err
	}
	return stats, nil
}
