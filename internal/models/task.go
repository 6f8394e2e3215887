package models

import (
	"strings"
	"time"
)

// Priority represents how urgent a task is. The empty value means the task
// has no priority assigned, which is distinct from PriorityLow.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank returns the ordering value of a priority: high > medium > low > none.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// Recurrence represents a repetition pattern. The empty value means the task
// does not recur.
type Recurrence string

const (
	RecurrenceNone    Recurrence = ""
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// StatusFilter selects tasks by completion state.
type StatusFilter string

const (
	StatusFilterAll        StatusFilter = "all"
	StatusFilterComplete   StatusFilter = "complete"
	StatusFilterIncomplete StatusFilter = "incomplete"
)

// DueFilter selects tasks by how their due date relates to today.
type DueFilter string

const (
	DueFilterNone    DueFilter = ""
	DueFilterOverdue DueFilter = "overdue"
	DueFilterToday   DueFilter = "today"
	DueFilterWeek    DueFilter = "week"
)

// SortField names a sortable task attribute.
type SortField string

const (
	SortByID       SortField = "id"
	SortByTitle    SortField = "title"
	SortByPriority SortField = "priority"
	SortByDueDate  SortField = "due-date"
	SortByCreated  SortField = "created"
)

// SortOrder is the sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Task represents a single to-do item.
type Task struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Complete      bool       `json:"complete"`
	Priority      Priority   `json:"priority,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	DueDate       *Date      `json:"due_date,omitempty"`
	DueTime       *TimeOfDay `json:"due_time,omitempty"`
	Recurrence    Recurrence `json:"recurrence,omitempty"`
	RecurrenceDay int        `json:"recurrence_day,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// HasTag reports whether the task carries the given tag. Matching is
// case-insensitive; display case is preserved in Tags.
func (t *Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if strings.EqualFold(existing, tag) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	out := *t
	if t.Tags != nil {
		out.Tags = append([]string(nil), t.Tags...)
	}
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	if t.DueTime != nil {
		tod := *t.DueTime
		out.DueTime = &tod
	}
	return &out
}
