package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteStore(t)
	ctx := context.Background()

	due := models.Date{Year: 2025, Month: time.June, Day: 20}
	at := models.TimeOfDay{Hour: 9, Minute: 30}
	task := &models.Task{
		Title:         "water plants",
		Description:   "back garden too",
		Priority:      models.PriorityHigh,
		Tags:          []string{"home", "garden"},
		DueDate:       &due,
		DueTime:       &at,
		Recurrence:    models.RecurrenceWeekly,
		RecurrenceDay: 5,
	}
	if err := s.Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.ID != 1 {
		t.Errorf("first id = %d", task.ID)
	}

	got, err := s.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != task.Title || got.Description != task.Description {
		t.Errorf("text fields: %+v", got)
	}
	if got.Priority != models.PriorityHigh || got.Recurrence != models.RecurrenceWeekly || got.RecurrenceDay != 5 {
		t.Errorf("enum fields: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "home" || got.Tags[1] != "garden" {
		t.Errorf("tags: %v", got.Tags)
	}
	if got.DueDate == nil || *got.DueDate != due {
		t.Errorf("due date: %v", got.DueDate)
	}
	if got.DueTime == nil || *got.DueTime != at {
		t.Errorf("due time: %v", got.DueTime)
	}
}

func TestSQLiteStoreOptionalFieldsStayNull(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteStore(t)
	ctx := context.Background()

	task := &models.Task{Title: "bare"}
	if err := s.Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DueDate != nil || got.DueTime != nil {
		t.Errorf("optional dates not null: %+v", got)
	}
	if got.Priority != models.PriorityNone || got.Recurrence != models.RecurrenceNone {
		t.Errorf("optional enums not empty: %+v", got)
	}
	if got.Tags != nil {
		t.Errorf("tags = %v, want nil", got.Tags)
	}
}

func TestSQLiteStoreUpdate(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteStore(t)
	ctx := context.Background()

	task := &models.Task{Title: "before"}
	if err := s.Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	task.Title = "after"
	task.Complete = true
	due := models.Date{Year: 2025, Month: time.July, Day: 1}
	task.DueDate = &due
	if err := s.Update(ctx, task); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "after" || !got.Complete || got.DueDate == nil {
		t.Errorf("update not applied: %+v", got)
	}

	if err := s.Update(ctx, &models.Task{ID: 999, Title: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(999) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStoreDeleteDoesNotReuseIDs(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Create(ctx, &models.Task{Title: "task"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := s.Delete(ctx, 3); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("double Delete error = %v, want ErrNotFound", err)
	}

	task := &models.Task{Title: "after delete"}
	if err := s.Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.ID != 4 {
		t.Errorf("id after delete = %d, want 4", task.ID)
	}
}

func TestSQLiteStoreList(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		if err := s.Create(ctx, &models.Task{Title: title}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	tasks, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("List returned %d tasks", len(tasks))
	}
	for i, task := range tasks {
		if task.ID != int64(i+1) {
			t.Errorf("tasks[%d].ID = %d", i, task.ID)
		}
	}
}

func TestSQLiteStoreMigrationsAreIdempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "tasks.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s.Create(context.Background(), &models.Task{Title: "persisted"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopening must not re-run migrations or lose data.
	s, err = NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s.Close()

	tasks, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "persisted" {
		t.Errorf("data lost across reopen: %+v", tasks)
	}
}
