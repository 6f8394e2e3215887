package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id BIGSERIAL PRIMARY KEY,
	owner TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	complete BOOLEAN NOT NULL DEFAULT FALSE,
	priority TEXT NOT NULL DEFAULT '',
	tags JSONB NOT NULL DEFAULT '[]',
	due_date DATE,
	due_time TEXT,
	recurrence TEXT NOT NULL DEFAULT '',
	recurrence_day INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks (owner, id);
`

// PostgresProvider scopes a shared connection pool per owner. The BIGSERIAL
// id sequence guarantees ids are never reused, even across processes.
type PostgresProvider struct {
	db *sql.DB
}

// NewPostgresProvider opens the database and ensures the schema exists.
func NewPostgresProvider(databaseURL string) (*PostgresProvider, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, pgSchema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &PostgresProvider{db: db}, nil
}

// For returns a Store whose rows are scoped to the given owner.
func (p *PostgresProvider) For(ctx context.Context, owner string) (Store, error) {
	return &PostgresStore{db: p.db, owner: owner}, nil
}

// Owners lists every owner with at least one task.
func (p *PostgresProvider) Owners(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT DISTINCT owner FROM tasks ORDER BY owner`)
	if err != nil {
		return nil, fmt.Errorf("failed to query owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("failed to scan owner: %w", err)
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owners: %w", err)
	}

	return owners, nil
}

// Close closes the shared connection pool.
func (p *PostgresProvider) Close() error {
	return p.db.Close()
}

// Ping verifies the database connection is healthy.
func (p *PostgresProvider) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// PostgresStore implements Store over a shared pool, scoped to one owner.
type PostgresStore struct {
	db    *sql.DB
	owner string
}

// Create inserts a new task, letting the database assign the id.
func (s *PostgresStore) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (owner, title, description, complete, priority, tags, due_date, due_time, recurrence, recurrence_day, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	tagsJSON, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	dueDate, dueTime := dueColumns(task)
	err = s.db.QueryRowContext(ctx, query,
		s.owner,
		task.Title,
		task.Description,
		task.Complete,
		string(task.Priority),
		tagsJSON,
		dueDate,
		dueTime,
		string(task.Recurrence),
		task.RecurrenceDay,
		now,
		now,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// Get retrieves a task by id.
func (s *PostgresStore) Get(ctx context.Context, id int64) (*models.Task, error) {
	query := `
		SELECT id, title, description, complete, priority, tags, due_date, due_time, recurrence, recurrence_day, created_at, updated_at
		FROM tasks
		WHERE owner = $1 AND id = $2
	`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, s.owner, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// Update replaces an existing task row in a single statement.
func (s *PostgresStore) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $3, description = $4, complete = $5, priority = $6, tags = $7, due_date = $8, due_time = $9, recurrence = $10, recurrence_day = $11, updated_at = $12
		WHERE owner = $1 AND id = $2
		RETURNING updated_at
	`

	tagsJSON, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	dueDate, dueTime := dueColumns(task)
	err = s.db.QueryRowContext(ctx, query,
		s.owner,
		task.ID,
		task.Title,
		task.Description,
		task.Complete,
		string(task.Priority),
		tagsJSON,
		dueDate,
		dueTime,
		string(task.Recurrence),
		task.RecurrenceDay,
		time.Now(),
	).Scan(&task.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("update task %d: %w", task.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return nil
}

// Delete removes a task row.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner = $1 AND id = $2`, s.owner, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("delete task %d: %w", id, ErrNotFound)
	}

	return nil
}

// List returns the owner's tasks in insertion (id) order.
func (s *PostgresStore) List(ctx context.Context) ([]*models.Task, error) {
	query := `
		SELECT id, title, description, complete, priority, tags, due_date, due_time, recurrence, recurrence_day, created_at, updated_at
		FROM tasks
		WHERE owner = $1
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// Close is a no-op; the provider owns the pool.
func (s *PostgresStore) Close() error {
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var (
		priority   string
		tagsJSON   []byte
		dueDate    sql.NullTime
		dueTime    sql.NullString
		recurrence string
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Complete,
		&priority,
		&tagsJSON,
		&dueDate,
		&dueTime,
		&recurrence,
		&task.RecurrenceDay,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Priority = models.Priority(priority)
	task.Recurrence = models.Recurrence(recurrence)
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &task.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if dueDate.Valid {
		d := models.DateOf(dueDate.Time)
		task.DueDate = &d
	}
	if dueTime.Valid && dueTime.String != "" {
		t, err := models.ParseTimeOfDay(dueTime.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored due_time: %w", err)
		}
		task.DueTime = &t
	}

	return task, nil
}

func dueColumns(task *models.Task) (any, any) {
	var dueDate any
	if task.DueDate != nil {
		dueDate = time.Date(task.DueDate.Year, task.DueDate.Month, task.DueDate.Day, 0, 0, 0, 0, time.UTC)
	}
	var dueTime any
	if task.DueTime != nil {
		dueTime = task.DueTime.String()
	}
	return dueDate, dueTime
}

var (
	_ Store       = (*PostgresStore)(nil)
	_ Provider    = (*PostgresProvider)(nil)
	_ OwnerLister = (*PostgresProvider)(nil)
)
