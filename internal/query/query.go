// Package query implements filtering, search, and sorting over a snapshot of
// tasks. All functions are pure: they never touch the store and never mutate
// their input beyond reordering the returned slice.
package query

import (
	"sort"
	"strings"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/validation"
)

// Filter combines selection criteria with AND semantics. Zero values mean
// "no constraint on this criterion".
type Filter struct {
	Status   models.StatusFilter
	Priority *models.Priority
	Tag      string
	Due      models.DueFilter
}

// Sort specifies the output ordering. The zero value sorts by id ascending.
type Sort struct {
	Field models.SortField
	Order models.SortOrder
}

// Run filters, searches, and sorts the given snapshot. today anchors the
// derived due-status predicates. An unrecognized enum value in the filter or
// sort spec is a caller error, not a silent no-op.
func Run(tasks []*models.Task, filter Filter, keyword string, sortSpec Sort, today models.Date) ([]*models.Task, error) {
	if err := validate(filter, sortSpec); err != nil {
		return nil, err
	}

	out := make([]*models.Task, 0, len(tasks))
	for _, task := range tasks {
		if matches(task, filter, keyword, today) {
			out = append(out, task)
		}
	}

	sortTasks(out, sortSpec)
	return out, nil
}

func validate(filter Filter, sortSpec Sort) error {
	if err := validation.ValidateStatusFilter(string(filter.Status)); err != nil {
		return err
	}
	if filter.Priority != nil {
		if err := validation.ValidatePriority(string(*filter.Priority)); err != nil {
			return err
		}
	}
	if err := validation.ValidateDueFilter(string(filter.Due)); err != nil {
		return err
	}
	if err := validation.ValidateSortField(string(sortSpec.Field)); err != nil {
		return err
	}
	if err := validation.ValidateSortOrder(string(sortSpec.Order)); err != nil {
		return err
	}
	return nil
}

func matches(task *models.Task, filter Filter, keyword string, today models.Date) bool {
	switch filter.Status {
	case models.StatusFilterComplete:
		if !task.Complete {
			return false
		}
	case models.StatusFilterIncomplete:
		if task.Complete {
			return false
		}
	}

	if filter.Priority != nil && task.Priority != *filter.Priority {
		return false
	}

	if filter.Tag != "" && !task.HasTag(filter.Tag) {
		return false
	}

	if !matchesDue(task, filter.Due, today) {
		return false
	}

	if keyword != "" && !matchesKeyword(task, keyword) {
		return false
	}

	return true
}

func matchesDue(task *models.Task, due models.DueFilter, today models.Date) bool {
	if due == models.DueFilterNone {
		return true
	}
	if task.DueDate == nil {
		return false
	}
	switch due {
	case models.DueFilterOverdue:
		return task.DueDate.Before(today) && !task.Complete
	case models.DueFilterToday:
		return task.DueDate.Equal(today)
	case models.DueFilterWeek:
		// Due within the next 7 days, inclusive of today and day 7.
		return !task.DueDate.Before(today) && !task.DueDate.After(today.AddDays(7))
	}
	return true
}

func matchesKeyword(task *models.Task, keyword string) bool {
	needle := strings.ToLower(keyword)
	return strings.Contains(strings.ToLower(task.Title), needle) ||
		strings.Contains(strings.ToLower(task.Description), needle)
}

func sortTasks(tasks []*models.Task, spec Sort) {
	field := spec.Field
	if field == "" {
		field = models.SortByID
	}
	desc := spec.Order == models.SortDesc

	sort.Slice(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]

		// Undated tasks sort after dated ones in both directions.
		if field == models.SortByDueDate {
			switch {
			case a.DueDate == nil && b.DueDate != nil:
				return false
			case a.DueDate != nil && b.DueDate == nil:
				return true
			}
		}

		cmp := compare(a, b, field)
		if desc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp < 0
		}
		// Tie-break is always ascending id, regardless of direction, so
		// output is deterministic for equal sort keys.
		return a.ID < b.ID
	})
}

// compare returns -1, 0, or 1 ordering a before b in ascending terms.
func compare(a, b *models.Task, field models.SortField) int {
	switch field {
	case models.SortByTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case models.SortByPriority:
		return compareInts(a.Priority.Rank(), b.Priority.Rank())
	case models.SortByDueDate:
		return compareDue(a, b)
	case models.SortByCreated:
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return 1
		}
		return 0
	default:
		return compareInts64(a.ID, b.ID)
	}
}

// compareDue orders dated tasks by date then time. The dated/undated split is
// handled before direction is applied, so both inputs here may be assumed
// dated or both undated.
func compareDue(a, b *models.Task) int {
	if a.DueDate == nil || b.DueDate == nil {
		return 0
	}
	if a.DueDate.Before(*b.DueDate) {
		return -1
	}
	if a.DueDate.After(*b.DueDate) {
		return 1
	}
	return compareInts(dueMinutes(a), dueMinutes(b))
}

func dueMinutes(t *models.Task) int {
	if t.DueTime == nil {
		return -1
	}
	return t.DueTime.Minutes()
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInts64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// String renders the filter for logging.
func (f Filter) String() string {
	parts := make([]string, 0, 4)
	if f.Status != "" && f.Status != models.StatusFilterAll {
		parts = append(parts, "status="+string(f.Status))
	}
	if f.Priority != nil {
		parts = append(parts, "priority="+string(*f.Priority))
	}
	if f.Tag != "" {
		parts = append(parts, "tag="+f.Tag)
	}
	if f.Due != models.DueFilterNone {
		parts = append(parts, "due="+string(f.Due))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}
