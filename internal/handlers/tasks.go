package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/queue"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/request"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/service"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/store"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/validation"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	provider store.Provider
	jobQueue queue.JobQueue
	logger   *zap.Logger
}

// NewTaskHandler creates a new task handler. jobQueue may be nil when the
// deployment runs without RabbitMQ; failed recurrence advances are then left
// to manual retry via the advance endpoint.
func NewTaskHandler(provider store.Provider, jobQueue queue.JobQueue, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{provider: provider, jobQueue: jobQueue, logger: logger}
}

// RegisterRoutes registers task routes on the given router
// The router should already have the /tasks prefix (e.g., from apiRouter.PathPrefix("/tasks"))
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/toggle", h.ToggleTask).Methods("POST")
	r.HandleFunc("/{id}/advance", h.AdvanceTask).Methods("POST")
}

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Title         string   `json:"title" validate:"required"`
	Description   string   `json:"description"`
	Priority      string   `json:"priority" validate:"omitempty,task_priority"`
	Tags          []string `json:"tags"`
	DueDate       *string  `json:"due_date"`
	DueTime       *string  `json:"due_time"`
	Recurrence    string   `json:"recurrence" validate:"omitempty,task_recurrence"`
	RecurrenceDay int      `json:"recurrence_day"`
}

// serviceFor resolves the owner-scoped service for the request, or writes an
// error response and returns nil.
func (h *TaskHandler) serviceFor(w http.ResponseWriter, r *http.Request) *service.Service {
	owner := request.OwnerFromContext(r)
	if owner == "" {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Owner not found in context")
		return nil
	}

	st, err := h.provider.For(r.Context(), owner)
	if err != nil {
		h.logger.Error("store_resolve_failed", zap.String("owner", owner), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to access task store")
		return nil
	}
	return service.New(st, service.WithLogger(h.logger))
}

// taskID parses the id path variable, or writes an error response.
func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || id <= 0 {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return 0, false
	}
	return id, true
}

// respondServiceError maps service error kinds to HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch service.KindOf(err) {
	case service.KindValidation:
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
	case service.KindNotFound:
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
	case service.KindAdvanceFailed:
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", err.Error())
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Operation failed")
	}
}

// decodeBody decodes a JSON request body, or writes an error response.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}
	return true
}

// ListTasks lists tasks for the authenticated owner with filtering and sorting
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	svc := h.serviceFor(w, r)
	if svc == nil {
		return
	}

	q := r.URL.Query()
	input := service.ListInput{
		Status:    models.StatusFilter(q.Get("status")),
		Tag:       q.Get("tag"),
		Search:    q.Get("search"),
		Due:       models.DueFilter(q.Get("due")),
		SortBy:    models.SortField(q.Get("sort")),
		SortOrder: models.SortOrder(q.Get("order")),
	}
	if p := q.Get("priority"); p != "" {
		pEnum := models.Priority(p)
		input.Priority = &pEnum
	}

	tasks, err := svc.List(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	svc := h.serviceFor(w, r)
	if svc == nil {
		return
	}

	var req CreateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	input := service.AddInput{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      models.Priority(req.Priority),
		Tags:          req.Tags,
		Recurrence:    models.Recurrence(req.Recurrence),
		RecurrenceDay: req.RecurrenceDay,
	}

	if req.DueDate != nil {
		d, err := models.ParseDate(*req.DueDate)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		input.DueDate = &d
	}
	if req.DueTime != nil {
		t, err := models.ParseTimeOfDay(*req.DueTime)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		input.DueTime = &t
	}

	task, err := svc.Add(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	svc := h.serviceFor(w, r)
	if svc == nil {
		return
	}

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := svc.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// UpdateTask applies a partial update to an existing task. Fields present in
// the body are replaced, fields set to null are cleared, and absent fields
// keep their prior value.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	svc := h.serviceFor(w, r)
	if svc == nil {
		return
	}

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var raw map[string]json.RawMessage
	if !decodeBody(w, r, &raw) {
		return
	}

	patch, err := buildPatch(raw)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	task, err := svc.Update(r.Context(), id, patch)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// buildPatch converts a raw JSON object into a tri-state patch. A JSON null
// clears the field; an absent key leaves it unchanged.
func buildPatch(raw map[string]json.RawMessage) (service.Patch, error) {
	var patch service.Patch

	for key, value := range raw {
		isNull := string(value) == "null"

		switch key {
		case "title":
			if isNull {
				patch.Title = service.ClearField[string]()
				continue
			}
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return patch, fmt.Errorf("invalid title: must be a string")
			}
			patch.Title = service.SetField(s)
		case "description":
			if isNull {
				patch.Description = service.ClearField[string]()
				continue
			}
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return patch, fmt.Errorf("invalid description: must be a string")
			}
			patch.Description = service.SetField(s)
		case "priority":
			if isNull {
				patch.Priority = service.ClearField[models.Priority]()
				continue
			}
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return patch, fmt.Errorf("invalid priority: must be a string")
			}
			patch.Priority = service.SetField(models.Priority(s))
		case "tags":
			if isNull {
				patch.Tags = service.ClearField[[]string]()
				continue
			}
			var tags []string
			if err := json.Unmarshal(value, &tags); err != nil {
				return patch, fmt.Errorf("invalid tags: must be an array of strings")
			}
			patch.Tags = service.SetField(tags)
		case "due_date":
			if isNull {
				patch.DueDate = service.ClearField[models.Date]()
				continue
			}
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return patch, fmt.Errorf("invalid due_date: must be a string")
			}
			d, err := models.ParseDate(s)
			if err != nil {
				return patch, err
			}
			patch.DueDate = service.SetField(d)
		case "due_time":
			if isNull {
				patch.DueTime = service.ClearField[models.TimeOfDay]()
				continue
			}
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return patch, fmt.Errorf("invalid due_time: must be a string")
			}
			t, err := models.ParseTimeOfDay(s)
			if err != nil {
				return patch, err
			}
			patch.DueTime = service.SetField(t)
		case "recurrence":
			if isNull {
				patch.Recurrence = service.ClearField[models.Recurrence]()
				continue
			}
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return patch, fmt.Errorf("invalid recurrence: must be a string")
			}
			patch.Recurrence = service.SetField(models.Recurrence(s))
		case "recurrence_day":
			if isNull {
				patch.RecurrenceDay = service.ClearField[int]()
				continue
			}
			var day int
			if err := json.Unmarshal(value, &day); err != nil {
				return patch, fmt.Errorf("invalid recurrence_day: must be an integer")
			}
			patch.RecurrenceDay = service.SetField(day)
		default:
			return patch, fmt.Errorf("unknown field: %s", key)
		}
	}

	return patch, nil
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	svc := h.serviceFor(w, r)
	if svc == nil {
		return
	}

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := svc.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleTask flips a task's completion state. Completing a recurring task
// also creates its next occurrence; if that second step fails, the completed
// task is returned with a 502 and a retry job is enqueued.
func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	svc := h.serviceFor(w, r)
	if svc == nil {
		return
	}

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	result, err := svc.ToggleComplete(r.Context(), id)
	if err != nil {
		if service.IsAdvanceFailed(err) {
			h.enqueueAdvanceRetry(r, id)
			respondAdvanceFailed(w, err, result)
			return
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// AdvanceTask retries successor creation for a completed recurring task.
func (h *TaskHandler) AdvanceTask(w http.ResponseWriter, r *http.Request) {
	svc := h.serviceFor(w, r)
	if svc == nil {
		return
	}

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	next, err := svc.Advance(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, next)
}

// enqueueAdvanceRetry schedules a background retry of successor creation.
func (h *TaskHandler) enqueueAdvanceRetry(r *http.Request, id int64) {
	if h.jobQueue == nil {
		return
	}

	owner := request.OwnerFromContext(r)
	job := queue.NewJob(queue.JobTypeRecurrenceAdvance, owner, id)
	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("advance_retry_enqueue_failed",
			zap.Int64("task_id", id),
			zap.Error(err),
		)
		return
	}
	h.logger.Info("advance_retry_enqueued",
		zap.Int64("task_id", id),
		zap.String("job_id", job.ID.String()),
	)
}

// respondAdvanceFailed reports a partial toggle: the task is durably complete
// but its successor was not created.
func respondAdvanceFailed(w http.ResponseWriter, err error, result *service.ToggleResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)

	response := map[string]any{
		"success":   false,
		"error":     "Bad Gateway",
		"message":   sanitizeErrorMessage(err.Error()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if result != nil {
		response["data"] = result
	}

	if encErr := json.NewEncoder(w).Encode(response); encErr != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
