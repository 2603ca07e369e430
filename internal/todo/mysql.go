package todo

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type mysqlStore struct {
	db *sql.DB
}

const mysqlTaskColumns = `id, title, description, completed, created_at, due_date, priority`

func (s *mysqlStore) List(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+mysqlTaskColumns+`
		FROM todo_tasks
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	return scanTasks(rows)
}

func (s *mysqlStore) Create(ctx context.Context, params CreateTaskParams) (*Task, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO todo_tasks (id, title, description, priority, due_date, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, FALSE, ?, ?)
	`, params.ID, params.Title, params.Description, params.Priority, params.DueDate, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	return s.get(ctx, params.ID)
}

func (s *mysqlStore) Toggle(ctx context.Context, id string) (*Task, error) {
	// MySQL evaluates SET clauses left to right: completed already holds
	// the flipped value when completed_at is assigned.
	res, err := s.db.ExecContext(ctx, `
		UPDATE todo_tasks
		SET completed = NOT completed,
			completed_at = IF(completed, ?, NULL)
		WHERE id = ?
	`, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("toggle task rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrTaskNotFound
	}

	return s.get(ctx, id)
}

func (s *mysqlStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM todo_tasks WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task rows affected: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

func (s *mysqlStore) get(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+mysqlTaskColumns+`
		FROM todo_tasks
		WHERE id = ?
	`, id)
	return scanTask(row)
}
