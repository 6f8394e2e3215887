package service

import "github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"

// Field is a tri-state patch value for an optional attribute. A plain pointer
// cannot distinguish "leave unchanged" from "remove", so each field carries
// explicit Set/Clear flags: the zero value means absent (keep the prior
// value), Clear removes the value, Set replaces it.
type Field[T any] struct {
	Set   bool
	Clear bool
	Value T
}

// SetField returns a Field that replaces the current value.
func SetField[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// ClearField returns a Field that removes the current value.
func ClearField[T any]() Field[T] {
	return Field[T]{Clear: true}
}

// Absent reports whether the field was not provided at all.
func (f Field[T]) Absent() bool {
	return !f.Set && !f.Clear
}

// Patch is a partial task update. Absent fields retain their prior value.
type Patch struct {
	Title         Field[string]
	Description   Field[string]
	Priority      Field[models.Priority]
	Tags          Field[[]string]
	DueDate       Field[models.Date]
	DueTime       Field[models.TimeOfDay]
	Recurrence    Field[models.Recurrence]
	RecurrenceDay Field[int]
}

// AddInput is the input to Add. Optional fields use pointers; there is no
// "clear" state at creation time.
type AddInput struct {
	Title         string
	Description   string
	Priority      models.Priority
	Tags          []string
	DueDate       *models.Date
	DueTime       *models.TimeOfDay
	Recurrence    models.Recurrence
	RecurrenceDay int
}

// ListInput selects and orders tasks for List.
type ListInput struct {
	Status    models.StatusFilter
	Priority  *models.Priority
	Tag       string
	Search    string
	Due       models.DueFilter
	SortBy    models.SortField
	SortOrder models.SortOrder
}
