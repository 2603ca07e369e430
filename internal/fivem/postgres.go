package fivem

import (
	"context"
	"database/sql"
	"time"
)

// postgresGameStore targets the staging mirror schema, which flattens the ESX
// accounts blob into money/bank/dirty_money columns and keeps timestamps as
// timestamptz.
type postgresGameStore struct {
	db *sql.DB
}

func (s *postgresGameStore) Players(ctx context.Context, limit int) ([]Player, error) {
	if limit <= 0 {
		limit = defaultPlayerLimit
	}

	rows, err := s.db.QueryContext(ctx, "SELECT identifier, firstname, lastname, job, job_grade, group_name, money, bank, dirty_money, last_login, position FROM users ORDER BY last_login DESC NULLS LAST LIMIT $1", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]Player, 0, limit)
	for rows.Next() {
		var (
			player     Player
			firstname  sql.NullString
			lastname   sql.NullString
			job        sql.NullString
			jobGrade   sql.NullInt64
			group      sql.NullString
			money      sql.NullInt64
			bank       sql.NullInt64
			dirtyMoney sql.NullInt64
			lastLogin  sql.NullTime
			position   sql.NullString
		)
		if err := rows.Scan(&player.Identifier, &firstname, &lastname, &job, &jobGrade, &group, &money, &bank, &dirtyMoney, &lastLogin, &position); err != nil {
			return nil, err
		}

		player.Firstname = firstname.String
		player.Lastname = lastname.String
		player.Job = job.String
		player.JobGrade = int(jobGrade.Int64)
		player.Group = group.String
		player.Money = money.Int64
		player.Bank = bank.Int64
		player.BlackMoney = dirtyMoney.Int64
		player.Position = position.String
		if lastLogin.Valid {
			player.LastSeen = lastLogin.Time.UTC().Format(lastSeenLayout)
		}

		players = append(players, player)
	}
	return players, rows.Err()
}

func (s *postgresGameStore) Vehicles(ctx context.Context) ([]Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT v.owner, v.plate, v.vehicle, v.stored, u.firstname || ' ' || u.lastname FROM vehicles v LEFT JOIN users u ON u.identifier = v.owner ORDER BY v.plate")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		var (
			vehicle   Vehicle
			blob      sql.NullString
			stored    sql.NullBool
			ownerName sql.NullString
		)
		if err := rows.Scan(&vehicle.Owner, &vehicle.Plate, &blob, &stored, &ownerName); err != nil {
			return nil, err
		}
		vehicle.Model = parseVehicleModel(blob.String)
		vehicle.Stored = stored.Bool
		vehicle.OwnerName = ownerName.String
		if vehicle.OwnerName == "" {
			vehicle.OwnerName = "Unknown"
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, rows.Err()
}

func (s *postgresGameStore) HallOfFame(ctx context.Context) (*HallOfFame, error) {
	fame := &HallOfFame{}

	rows, err := s.db.QueryContext(ctx, "SELECT identifier, COALESCE(firstname, ''), COALESCE(lastname, ''), COALESCE(money, 0) + COALESCE(bank, 0) AS total_money FROM users ORDER BY total_money DESC LIMIT $1", leaderboardLimit)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var entry RichPlayer
		if err := rows.Scan(&entry.Identifier, &entry.Firstname, &entry.Lastname, &entry.TotalMoney); err != nil {
			rows.Close()
			return nil, err
		}
		fame.Richest = append(fame.Richest, entry)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, "SELECT v.owner, COALESCE(u.firstname, ''), COALESCE(u.lastname, ''), COUNT(*) AS vehicle_count FROM vehicles v LEFT JOIN users u ON u.identifier = v.owner GROUP BY v.owner, u.firstname, u.lastname ORDER BY vehicle_count DESC LIMIT $1", leaderboardLimit)
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

	rows, err = s.db.QueryContext(ctx, "SELECT identifier, COALESCE(firstname, ''), COALESCE(lastname, ''), last_login FROM users WHERE last_login IS NOT NULL ORDER BY last_login DESC LIMIT $1", leaderboardLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			entry     ActivePlayer
			lastLogin time.Time
		)
		if err := rows.Scan(&entry.Identifier, &entry.Firstname, &entry.Lastname, &lastLogin); err != nil {
			return nil, err
		}
		entry.LastSeen = lastLogin.UTC().Format(lastSeenLayout)
		fame.MostActive = append(fame.MostActive, entry)
	}
	return fame, rows.Err()
}

func (s *postgresGameStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&stats.TotalUsers); err != nil {
		return nil, err
	}

	activeSince := time.Now().Add(-24 * time.Hour)
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE last_login >= $1", activeSince).Scan(&stats.ActiveUsers); err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vehicles").Scan(&stats.TotalVehicles); err != nil {
		return nil, err
	}
	return stats, nil
}
