package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/service"
)

// Action is the envelope the model responds with: a task operation to run,
// its parameters, and a short reply for the user.
type Action struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
	Reply  string          `json:"reply,omitempty"`
}

// ParseAction extracts the action envelope from raw model output. Models
// occasionally wrap the JSON in prose, so retry on the outermost braces.
func ParseAction(content string) (*Action, error) {
	var action Action
	raw := content
	if err := json.Unmarshal([]byte(raw), &action); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("failed to parse action response: %w", err)
		}
		raw = raw[start : end+1]
		if err := json.Unmarshal([]byte(raw), &action); err != nil {
			return nil, fmt.Errorf("failed to parse action response: %w", err)
		}
	}
	return &action, nil
}

type addParams struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Priority      string   `json:"priority"`
	Tags          []string `json:"tags"`
	DueDate       *string  `json:"due_date"`
	DueTime       *string  `json:"due_time"`
	Recurrence    string   `json:"recurrence"`
	RecurrenceDay int      `json:"recurrence_day"`
}

type listParams struct {
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Tag      string `json:"tag"`
	Search   string `json:"search"`
	Due      string `json:"due"`
	Sort     string `json:"sort"`
	Order    string `json:"order"`
}

type idParams struct {
	ID int64 `json:"id"`
}

type updateParams struct {
	ID            int64     `json:"id"`
	Title         *string   `json:"title"`
	Description   *string   `json:"description"`
	Priority      *string   `json:"priority"`
	Tags          *[]string `json:"tags"`
	DueDate       *string   `json:"due_date"`
	DueTime       *string   `json:"due_time"`
	Recurrence    *string   `json:"recurrence"`
	RecurrenceDay *int      `json:"recurrence_day"`
}

// Execute runs the requested action against the owner's task service and
// composes a reply describing the actual outcome.
func Execute(ctx context.Context, svc *service.Service, action *Action) (string, error) {
	switch action.Action {
	case "", "none":
		if action.Reply != "" {
			return action.Reply, nil
		}
		return "I can add, list, update, complete, and delete tasks. What would you like to do?", nil
	case "add_task":
		return executeAdd(ctx, svc, action.Params)
	case "list_tasks":
		return executeList(ctx, svc, action.Params)
	case "get_task":
		return executeGet(ctx, svc, action.Params)
	case "update_task":
		return executeUpdate(ctx, svc, action.Params)
	case "complete_task":
		return executeComplete(ctx, svc, action.Params)
	case "delete_task":
		return executeDelete(ctx, svc, action.Params)
	default:
		return "", fmt.Errorf("unknown action: %s", action.Action)
	}
}

func executeAdd(ctx context.Context, svc *service.Service, params json.RawMessage) (string, error) {
	var p addParams
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid add_task params: %w", err)
	}

	input := service.AddInput{
		Title:         p.Title,
		Description:   p.Description,
		Priority:      models.Priority(normalizeEnum(p.Priority)),
		Tags:          p.Tags,
		Recurrence:    models.Recurrence(normalizeEnum(p.Recurrence)),
		RecurrenceDay: p.RecurrenceDay,
	}

	if p.DueDate != nil && *p.DueDate != "" {
		d, err := models.ParseDate(*p.DueDate)
		if err != nil {
			return "", err
		}
		input.DueDate = &d
	}
	if p.DueTime != nil && *p.DueTime != "" {
		t, err := models.ParseTimeOfDay(*p.DueTime)
		if err != nil {
			return "", err
		}
		input.DueTime = &t
	}

	task, err := svc.Add(ctx, input)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Created task %d: %s", task.ID, task.Title), nil
}

func executeList(ctx context.Context, svc *service.Service, params json.RawMessage) (string, error) {
	var p listParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return "", fmt.Errorf("invalid list_tasks params: %w", err)
		}
	}

	input := service.ListInput{
		Status:    models.StatusFilter(p.Status),
		Tag:       p.Tag,
		Search:    p.Search,
		Due:       models.DueFilter(p.Due),
		SortBy:    models.SortField(p.Sort),
		SortOrder: models.SortOrder(p.Order),
	}
	if p.Priority != "" {
		pEnum := models.Priority(normalizeEnum(p.Priority))
		input.Priority = &pEnum
	}

	tasks, err := svc.List(ctx, input)
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "No tasks found.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d task(s):\n", len(tasks))
	for _, task := range tasks {
		sb.WriteString(formatTaskLine(task))
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func executeGet(ctx context.Context, svc *service.Service, params json.RawMessage) (string, error) {
	var p idParams
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid get_task params: %w", err)
	}

	task, err := svc.Get(ctx, p.ID)
	if err != nil {
		return "", err
	}
	return formatTaskLine(task), nil
}

func executeUpdate(ctx context.Context, svc *service.Service, params json.RawMessage) (string, error) {
	var p updateParams
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid update_task params: %w", err)
	}

	var patch service.Patch
	if p.Title != nil {
		patch.Title = service.SetField(*p.Title)
	}
	if p.Description != nil {
		patch.Description = service.SetField(*p.Description)
	}
	if p.Priority != nil {
		patch.Priority = service.SetField(models.Priority(normalizeEnum(*p.Priority)))
	}
	if p.Tags != nil {
		patch.Tags = service.SetField(*p.Tags)
	}
	if p.DueDate != nil {
		if *p.DueDate == "" {
			patch.DueDate = service.ClearField[models.Date]()
		} else {
			d, err := models.ParseDate(*p.DueDate)
			if err != nil {
				return "", err
			}
			patch.DueDate = service.SetField(d)
		}
	}
	if p.DueTime != nil {
		if *p.DueTime == "" {
			patch.DueTime = service.ClearField[models.TimeOfDay]()
		} else {
			t, err := models.ParseTimeOfDay(*p.DueTime)
			if err != nil {
				return "", err
			}
			patch.DueTime = service.SetField(t)
		}
	}
	if p.Recurrence != nil {
		patch.Recurrence = service.SetField(models.Recurrence(normalizeEnum(*p.Recurrence)))
	}
	if p.RecurrenceDay != nil {
		patch.RecurrenceDay = service.SetField(*p.RecurrenceDay)
	}

	task, err := svc.Update(ctx, p.ID, patch)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Updated task %d: %s", task.ID, task.Title), nil
}

func executeComplete(ctx context.Context, svc *service.Service, params json.RawMessage) (string, error) {
	var p idParams
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid complete_task params: %w", err)
	}

	result, err := svc.ToggleComplete(ctx, p.ID)
	if err != nil {
		if service.IsAdvanceFailed(err) && result != nil {
			return fmt.Sprintf("Task %d is complete, but I could not schedule its next occurrence. Ask me to advance it to retry.", p.ID), nil
		}
		return "", err
	}

	if result.CreatedNext != nil {
		return fmt.Sprintf("Completed task %d and scheduled the next occurrence as task %d, due %s.",
			result.Task.ID, result.CreatedNext.ID, result.CreatedNext.DueDate.String()), nil
	}
	if result.Task.Complete {
		return fmt.Sprintf("Completed task %d: %s", result.Task.ID, result.Task.Title), nil
	}
	return fmt.Sprintf("Reopened task %d: %s", result.Task.ID, result.Task.Title), nil
}

func executeDelete(ctx context.Context, svc *service.Service, params json.RawMessage) (string, error) {
	var p idParams
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid delete_task params: %w", err)
	}

	if err := svc.Delete(ctx, p.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted task %d.", p.ID), nil
}

// normalizeEnum maps the spoken "none" to the empty enum value.
func normalizeEnum(value string) string {
	if strings.EqualFold(value, "none") {
		return ""
	}
	return value
}

func formatTaskLine(task *models.Task) string {
	mark := " "
	if task.Complete {
		mark = "x"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d [%s] %s", task.ID, mark, task.Title)
	if task.Priority != models.PriorityNone {
		fmt.Fprintf(&sb, " (%s)", task.Priority)
	}
	if task.DueDate != nil {
		fmt.Fprintf(&sb, " due %s", task.DueDate.String())
		if task.DueTime != nil {
			fmt.Fprintf(&sb, " %s", task.DueTime.String())
		}
	}
	if task.Recurrence != models.RecurrenceNone {
		fmt.Fprintf(&sb, " repeats %s", task.Recurrence)
	}
	if len(task.Tags) > 0 {
		fmt.Fprintf(&sb, " [%s]", strings.Join(task.Tags, ", "))
	}
	return sb.String()
}
