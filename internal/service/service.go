// Package service composes the task store, query engine, and recurrence
// engine behind a single API surface shared by the CLI, HTTP handlers, and
// chat tools. All validation runs here, before any mutation reaches the
// store.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/query"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/recurrence"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/store"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/validation"
)

// Service exposes task operations over a single-owner store.
type Service struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

// ToggleResult is the outcome of ToggleComplete. CreatedNext is non-nil only
// when completing a recurring task materialized a successor.
type ToggleResult struct {
	Task        *models.Task `json:"task"`
	CreatedNext *models.Task `json:"created_next,omitempty"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a service over the given store.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add validates the input and creates a new task.
func (s *Service) Add(ctx context.Context, input AddInput) (*models.Task, error) {
	task := &models.Task{
		Title:         validation.SanitizeText(input.Title),
		Description:   validation.SanitizeText(input.Description),
		Priority:      input.Priority,
		Recurrence:    input.Recurrence,
		RecurrenceDay: input.RecurrenceDay,
	}
	if input.DueDate != nil {
		d := *input.DueDate
		task.DueDate = &d
	}
	if input.DueTime != nil {
		t := *input.DueTime
		task.DueTime = &t
	}

	tags, err := validation.NormalizeTags(input.Tags)
	if err != nil {
		return nil, newValidationError(err)
	}
	task.Tags = tags

	if err := validateTask(task); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("task_created",
		zap.Int64("task_id", task.ID),
		zap.String("recurrence", string(task.Recurrence)),
	)
	return task, nil
}

// Get retrieves a task by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	return task, nil
}

// List returns tasks matching the filter and search keyword, in the requested
// order. Unrecognized filter or sort enum values are validation errors.
func (s *Service) List(ctx context.Context, input ListInput) ([]*models.Task, error) {
	tasks, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	filter := query.Filter{
		Status:   input.Status,
		Priority: input.Priority,
		Tag:      input.Tag,
		Due:      input.Due,
	}
	sortSpec := query.Sort{Field: input.SortBy, Order: input.SortOrder}

	out, err := query.Run(tasks, filter, input.Search, sortSpec, models.DateOf(s.now()))
	if err != nil {
		return nil, newValidationError(err)
	}
	return out, nil
}

// Update applies a partial patch to a task. Unspecified fields retain their
// prior value; cleared fields are removed. Validation runs on the merged
// record before anything is written.
func (s *Service) Update(ctx context.Context, id int64, patch Patch) (*models.Task, error) {
	task, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}

	if err := applyPatch(task, patch); err != nil {
		return nil, err
	}
	if err := validateTask(task); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, task); err != nil {
		return nil, s.wrapStoreErr(err)
	}

	s.logger.Info("task_updated", zap.Int64("task_id", task.ID))
	return task, nil
}

// Delete removes a task. The id is never reissued.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return s.wrapStoreErr(err)
	}
	s.logger.Info("task_deleted", zap.Int64("task_id", id))
	return nil
}

// ToggleComplete flips a task's completion state. Completing a recurring task
// is a two-step operation: the original is marked complete first (durably),
// then a successor is created for the next occurrence. If the second step
// fails the returned error has KindAdvanceFailed and carries the completed
// original; callers retry successor creation alone via Advance rather than
// re-toggling.
func (s *Service) ToggleComplete(ctx context.Context, id int64) (*ToggleResult, error) {
	task, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}

	wasComplete := task.Complete
	task.Complete = !task.Complete

	if err := s.store.Update(ctx, task); err != nil {
		return nil, s.wrapStoreErr(err)
	}

	result := &ToggleResult{Task: task}

	// Only the incomplete -> complete transition of a recurring task
	// triggers the next occurrence. Toggling back and forth never does.
	if wasComplete || task.Recurrence == models.RecurrenceNone {
		s.logger.Info("task_toggled",
			zap.Int64("task_id", task.ID),
			zap.Bool("complete", task.Complete),
		)
		return result, nil
	}

	next, err := s.advance(ctx, task)
	if err != nil {
		s.logger.Error("recurrence_advance_failed",
			zap.Int64("task_id", task.ID),
			zap.Error(err),
		)
		return result, &Error{
			Kind:    KindAdvanceFailed,
			Message: fmt.Sprintf("task %d is complete but its next occurrence could not be created", task.ID),
			Err:     err,
			Task:    task,
		}
	}

	result.CreatedNext = next
	s.logger.Info("task_completed_with_successor",
		zap.Int64("task_id", task.ID),
		zap.Int64("successor_id", next.ID),
		zap.String("next_due", next.DueDate.String()),
	)
	return result, nil
}

// Advance creates the successor of a completed recurring task. It is the
// retry path for a partial ToggleComplete failure and is also exposed
// directly so callers never need to re-toggle.
func (s *Service) Advance(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	if task.Recurrence == models.RecurrenceNone {
		return nil, newValidationError(errors.New("task has no recurrence pattern"))
	}
	if !task.Complete {
		return nil, newValidationError(errors.New("task is not complete; toggle it instead"))
	}
	return s.advance(ctx, task)
}

// advance materializes the next occurrence of a recurring task. The original
// is left untouched as a historical record.
func (s *Service) advance(ctx context.Context, task *models.Task) (*models.Task, error) {
	if task.DueDate == nil {
		return nil, fmt.Errorf("recurring task %d has no due date", task.ID)
	}

	nextDue, err := recurrence.NextDueDate(*task.DueDate, task.Recurrence, task.RecurrenceDay)
	if err != nil {
		return nil, fmt.Errorf("failed to compute next due date: %w", err)
	}

	next := &models.Task{
		Title:         task.Title,
		Description:   task.Description,
		Priority:      task.Priority,
		Tags:          append([]string(nil), task.Tags...),
		DueDate:       &nextDue,
		Recurrence:    task.Recurrence,
		RecurrenceDay: task.RecurrenceDay,
	}
	if task.DueTime != nil {
		t := *task.DueTime
		next.DueTime = &t
	}

	if err := s.store.Create(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to create successor task: %w", err)
	}
	return next, nil
}

func (s *Service) wrapStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return newNotFoundError(err)
	}
	return err
}

// validateTask enforces the data-model invariants on a fully merged record.
func validateTask(task *models.Task) error {
	if err := validation.ValidateTitle(task.Title); err != nil {
		return newValidationError(err)
	}
	if err := validation.ValidateDescription(task.Description); err != nil {
		return newValidationError(err)
	}
	if err := validation.ValidatePriority(string(task.Priority)); err != nil {
		return newValidationError(err)
	}
	if err := validation.ValidateRecurrence(string(task.Recurrence)); err != nil {
		return newValidationError(err)
	}
	if err := validation.ValidateRecurrenceDay(task.Recurrence, task.RecurrenceDay); err != nil {
		return newValidationError(err)
	}
	if task.Recurrence != models.RecurrenceNone && task.DueDate == nil {
		return newValidationError(errors.New("recurrence requires a due date"))
	}
	if task.DueTime != nil && task.DueDate == nil {
		return newValidationError(errors.New("due time requires a due date"))
	}
	return nil
}

// applyPatch merges a partial update into the task. Clearing the due date
// also clears the due time.
func applyPatch(task *models.Task, patch Patch) error {
	if patch.Title.Clear {
		return newValidationError(errors.New("title cannot be cleared"))
	}
	if patch.Title.Set {
		task.Title = validation.SanitizeText(patch.Title.Value)
	}

	if patch.Description.Set {
		task.Description = validation.SanitizeText(patch.Description.Value)
	} else if patch.Description.Clear {
		task.Description = ""
	}

	if patch.Priority.Set {
		task.Priority = patch.Priority.Value
	} else if patch.Priority.Clear {
		task.Priority = models.PriorityNone
	}

	if patch.Tags.Set {
		tags, err := validation.NormalizeTags(patch.Tags.Value)
		if err != nil {
			return newValidationError(err)
		}
		task.Tags = tags
	} else if patch.Tags.Clear {
		task.Tags = nil
	}

	if patch.DueDate.Set {
		d := patch.DueDate.Value
		task.DueDate = &d
	} else if patch.DueDate.Clear {
		task.DueDate = nil
		task.DueTime = nil
	}

	if patch.DueTime.Set {
		t := patch.DueTime.Value
		task.DueTime = &t
	} else if patch.DueTime.Clear {
		task.DueTime = nil
	}

	if patch.Recurrence.Set {
		task.Recurrence = patch.Recurrence.Value
		// A recurrence day only makes sense for weekly/monthly patterns.
		if task.Recurrence == models.RecurrenceNone || task.Recurrence == models.RecurrenceDaily {
			task.RecurrenceDay = 0
		}
	} else if patch.Recurrence.Clear {
		task.Recurrence = models.RecurrenceNone
		task.RecurrenceDay = 0
	}

	if patch.RecurrenceDay.Set {
		task.RecurrenceDay = patch.RecurrenceDay.Value
	} else if patch.RecurrenceDay.Clear {
		task.RecurrenceDay = 0
	}

	return nil
}
