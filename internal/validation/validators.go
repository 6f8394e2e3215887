package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
)

const (
	// MaxTitleLength is the maximum length for a task title after trimming
	MaxTitleLength = 200
	// MaxDescriptionLength is the maximum length for a task description
	MaxDescriptionLength = 1000
	// MaxTags is the maximum number of tags on a single task
	MaxTags = 10
	// MaxTagLength is the maximum length of a single tag
	MaxTagLength = 20
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	tagPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("task_priority", validatePriorityField); err != nil {
		panic(fmt.Sprintf("failed to register task_priority validator: %v", err))
	}
	if err := Validate.RegisterValidation("task_recurrence", validateRecurrenceField); err != nil {
		panic(fmt.Sprintf("failed to register task_recurrence validator: %v", err))
	}
}

// validatePriorityField validates that a string is a valid Priority enum value
func validatePriorityField(fl validator.FieldLevel) bool {
	return ValidatePriority(fl.Field().String()) == nil
}

// validateRecurrenceField validates that a string is a valid Recurrence enum value
func validateRecurrenceField(fl validator.FieldLevel) bool {
	return ValidateRecurrence(fl.Field().String()) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateTitle checks a task title after trimming: 1-200 characters.
func ValidateTitle(title string) error {
	length := utf8.RuneCountInString(title)
	if length == 0 {
		return fmt.Errorf("title is required")
	}
	if length > MaxTitleLength {
		return fmt.Errorf("title exceeds maximum length of %d characters", MaxTitleLength)
	}
	return nil
}

// ValidateDescription checks a task description length.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("description exceeds maximum length of %d characters", MaxDescriptionLength)
	}
	return nil
}

// ValidateTag checks a single tag: 1-20 characters, alphanumeric plus '-' and '_'.
func ValidateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("tag must not be empty")
	}
	if utf8.RuneCountInString(tag) > MaxTagLength {
		return fmt.Errorf("tag %q exceeds maximum length of %d characters", tag, MaxTagLength)
	}
	if !tagPattern.MatchString(tag) {
		return fmt.Errorf("tag %q contains invalid characters (allowed: letters, digits, '-', '_')", tag)
	}
	return nil
}

// NormalizeTags validates a tag list and removes case-insensitive duplicates,
// preserving the display case of the first occurrence.
func NormalizeTags(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if err := ValidateTag(tag); err != nil {
			return nil, err
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	if len(out) > MaxTags {
		return nil, fmt.Errorf("too many tags: %d (maximum is %d)", len(out), MaxTags)
	}
	return out, nil
}

// ValidatePriority validates a Priority string value. The empty string means
// no priority and is valid.
func ValidatePriority(value string) error {
	switch models.Priority(value) {
	case models.PriorityNone, models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return nil
	default:
		return fmt.Errorf("invalid priority: %s (must be 'low', 'medium', or 'high')", value)
	}
}

// ValidateRecurrence validates a Recurrence string value. The empty string
// means no recurrence and is valid.
func ValidateRecurrence(value string) error {
	switch models.Recurrence(value) {
	case models.RecurrenceNone, models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceMonthly:
		return nil
	default:
		return fmt.Errorf("invalid recurrence: %s (must be 'daily', 'weekly', or 'monthly')", value)
	}
}

// ValidateRecurrenceDay checks the recurrence day against the recurrence kind.
func ValidateRecurrenceDay(recurrence models.Recurrence, day int) error {
	switch recurrence {
	case models.RecurrenceWeekly:
		if day != 0 && (day < 1 || day > 7) {
			return fmt.Errorf("invalid recurrence day: %d (weekly recurrence requires 1-7, Mon-Sun)", day)
		}
	case models.RecurrenceMonthly:
		if day != 0 && (day < 1 || day > 31) {
			return fmt.Errorf("invalid recurrence day: %d (monthly recurrence requires 1-31)", day)
		}
	default:
		if day != 0 {
			return fmt.Errorf("recurrence day is only valid for weekly or monthly recurrence")
		}
	}
	return nil
}

// ValidateStatusFilter validates a StatusFilter string value. The empty string
// is treated as "all".
func ValidateStatusFilter(value string) error {
	switch models.StatusFilter(value) {
	case "", models.StatusFilterAll, models.StatusFilterComplete, models.StatusFilterIncomplete:
		return nil
	default:
		return fmt.Errorf("invalid status filter: %s (must be 'all', 'complete', or 'incomplete')", value)
	}
}

// ValidateDueFilter validates a DueFilter string value.
func ValidateDueFilter(value string) error {
	switch models.DueFilter(value) {
	case models.DueFilterNone, models.DueFilterOverdue, models.DueFilterToday, models.DueFilterWeek:
		return nil
	default:
		return fmt.Errorf("invalid due filter: %s (must be 'overdue', 'today', or 'week')", value)
	}
}

// ValidateSortField validates a SortField string value. The empty string means
// the default sort (id).
func ValidateSortField(value string) error {
	switch models.SortField(value) {
	case "", models.SortByID, models.SortByTitle, models.SortByPriority, models.SortByDueDate, models.SortByCreated:
		return nil
	default:
		return fmt.Errorf("invalid sort field: %s (must be 'id', 'title', 'priority', 'due-date', or 'created')", value)
	}
}

// ValidateSortOrder validates a SortOrder string value. The empty string means
// the default order (asc).
func ValidateSortOrder(value string) error {
	switch models.SortOrder(value) {
	case "", models.SortAsc, models.SortDesc:
		return nil
	default:
		return fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", value)
	}
}
