package todo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fivem-dashboard/internal/db"
)

var ErrTaskNotFound = errors.New("task not found")

// Priority values accepted for a task; anything else falls back to Medium.
var validPriorities = map[string]bool{
	"Low":      true,
	"Medium":   true,
	"High":     true,
	"Critical": true,
}

const DefaultPriority = "Medium"

func NormalizePriority(priority string) string {
	if validPriorities[priority] {
		return priority
	}
	return DefaultPriority
}

type Task struct {
	ID          string     `json:"id"`
	Task        string     `json:"task"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority"`
}

type CreateTaskParams struct {
	ID          string
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
}

type Store interface {
	List(ctx context.Context) ([]Task, error)
	Create(ctx context.Context, params CreateTaskParams) (*Task, error)
	// Toggle flips completion in a single update, stamping or clearing
	// completed_at, and returns the updated task.
	Toggle(ctx context.Context, id string) (*Task, error)
	Delete(ctx context.Context, id string) error
}

func NewStore(database *sql.DB, driver string) (Store, error) {
	switch driver {
	case db.DriverPostgres:
		return &postgresStore{db: database}, nil
	case db.DriverMySQL:
		return &mysqlStore{db: database}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}

func scanTask(row *sql.Row) (*Task, error) {
	var task Task
	var dueDate sql.NullTime
	err := row.Scan(&task.ID, &task.Task, &task.Description, &task.Completed, &task.CreatedAt, &dueDate, &task.Priority)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	if dueDate.Valid {
		value := dueDate.Time
		task.DueDate = &value
	}

	return &task, nil
}

func scanTasks(rows *sql.Rows) ([]Task, error) {
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		var task Task
		var dueDate sql.NullTime
		if err := rows.Scan(&task.ID, &task.Task, &task.Description, &task.Completed, &task.CreatedAt, &dueDate, &task.Priority); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if dueDate.Valid {
			value := dueDate.Time
			task.DueDate = &value
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}
