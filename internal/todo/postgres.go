package todo

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type postgresStore struct {
	db *sql.DB
}

const postgresTaskColumns = `id, title, description, completed, created_at, due_date, priority`

func (s *postgresStore) List(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postgresTaskColumns+`
		FROM todo_tasks
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	return scanTasks(rows)
}

func (s *postgresStore) Create(ctx context.Context, params CreateTaskParams) (*Task, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO todo_tasks (id, title, description, priority, due_date, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $6)
	`, params.ID, params.Title, params.Description, params.Priority, params.DueDate, now)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	return s.get(ctx, params.ID)
}

func (s *postgresStore) Toggle(ctx context.Context, id string) (*Task, error) {
	// All assignments see the pre-update row, so NOT completed is the new
	// state in both expressions.
	res, err := s.db.ExecContext(ctx, `
		UPDATE todo_tasks
		SET completed = NOT completed,
			completed_at = CASE WHEN NOT completed THEN $2 ELSE NULL END,
			updated_at = $2
		WHERE id = $1
	`, id, time.Now().UTC())
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

func (s *postgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM todo_tasks WHERE id = $1
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

func (s *postgresStore) get(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+postgresTaskColumns+`
		FROM todo_tasks
		WHERE id = $1
	`, id)
	return scanTask(row)
}
