package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
)

type migration struct {
	version int
	sql     string
}

var sqliteMigrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE schema_version (version INTEGER NOT NULL);
CREATE TABLE tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	complete INTEGER NOT NULL DEFAULT 0,
	priority TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]',
	due_date TEXT,
	due_time TEXT,
	recurrence TEXT NOT NULL DEFAULT '',
	recurrence_day INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

// SQLiteStore implements Store over a local SQLite database. AUTOINCREMENT
// keeps the id sequence monotonic so deleted ids are never reused.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, enables WAL
// mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// runMigrations checks the current schema version and applies any outstanding
// migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range sqliteMigrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Create inserts a new task and reads back the assigned id.
func (s *SQLiteStore) Create(ctx context.Context, task *models.Task) error {
	tagsJSON, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	dueDate, dueTime := sqliteDueColumns(task)
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			title, description, complete, priority, tags,
			due_date, due_time, recurrence, recurrence_day,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.Title, task.Description, boolToInt(task.Complete),
		string(task.Priority), string(tagsJSON),
		dueDate, dueTime, string(task.Recurrence), task.RecurrenceDay,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	task.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading new task id: %w", err)
	}
	return nil
}

// Get retrieves a task by id.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*models.Task, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT id, title, description, complete, priority, tags,
		       due_date, due_time, recurrence, recurrence_day,
		       created_at, updated_at
		FROM tasks WHERE id = ?`, id)

	task, err := scanSQLiteTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %d: %w", id, err)
	}
	return task, nil
}

// Update replaces an existing task row.
func (s *SQLiteStore) Update(ctx context.Context, task *models.Task) error {
	tagsJSON, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}

	task.UpdatedAt = time.Now().UTC()
	dueDate, dueTime := sqliteDueColumns(task)
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, complete = ?, priority = ?, tags = ?,
			due_date = ?, due_time = ?, recurrence = ?, recurrence_day = ?,
			updated_at = ?
		WHERE id = ?`,
		task.Title, task.Description, boolToInt(task.Complete),
		string(task.Priority), string(tagsJSON),
		dueDate, dueTime, string(task.Recurrence), task.RecurrenceDay,
		task.UpdatedAt, task.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task %d: %w", task.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update task %d: %w", task.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a task row. AUTOINCREMENT guarantees the id is not reissued.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete task %d: %w", id, ErrNotFound)
	}
	return nil
}

// List returns all tasks in insertion (id) order.
func (s *SQLiteStore) List(ctx context.Context) ([]*models.Task, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, title, description, complete, priority, tags,
		       due_date, due_time, recurrence, recurrence_day,
		       created_at, updated_at
		FROM tasks ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanSQLiteTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanSQLiteTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var (
		complete   int
		priority   string
		tagsJSON   string
		dueDate    sql.NullString
		dueTime    sql.NullString
		recurrence string
	)

	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &complete, &priority, &tagsJSON,
		&dueDate, &dueTime, &recurrence, &task.RecurrenceDay,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Complete = complete != 0
	task.Priority = models.Priority(priority)
	task.Recurrence = models.Recurrence(recurrence)
	if tagsJSON != "" && tagsJSON != "null" {
		if err := json.Unmarshal([]byte(tagsJSON), &task.Tags); err != nil {
			return nil, fmt.Errorf("unmarshaling tags: %w", err)
		}
	}
	if dueDate.Valid && dueDate.String != "" {
		d, err := models.ParseDate(dueDate.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored due_date: %w", err)
		}
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

func sqliteDueColumns(task *models.Task) (any, any) {
	var dueDate any
	if task.DueDate != nil {
		dueDate = task.DueDate.String()
	}
	var dueTime any
	if task.DueTime != nil {
		dueTime = task.DueTime.String()
	}
	return dueDate, dueTime
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ Store = (*SQLiteStore)(nil)
