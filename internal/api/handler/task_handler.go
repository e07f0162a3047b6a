package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
)

type TaskHandler struct {
	store ports.StoreService
}

func NewTaskHandler(store ports.StoreService) *TaskHandler {
	return &TaskHandler{store: store}
}

type createTaskRequest struct {
	Title       string     `json:"title"       validate:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"    validate:"oneof=low medium high urgent"`
	Status      string     `json:"status"      validate:"oneof=pending in-progress completed"`
	AssignedTo  string     `json:"assignedTo"  validate:"required"`
	DueDate     time.Time  `json:"dueDate"     validate:"required"`
	ReminderSet *time.Time `json:"reminderSet"`
	Tags        []string   `json:"tags"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	Status      *string    `json:"status"`
	AssignedTo  *string    `json:"assignedTo"`
	DueDate     *time.Time `json:"dueDate"`
	CompletedAt *time.Time `json:"completedAt"`
	ReminderSet *time.Time `json:"reminderSet"`
	Tags        []string   `json:"tags"`
}

// statusOnly reports whether the request touches nothing but the status.
func (r updateTaskRequest) statusOnly() bool {
	return r.Status != nil && r.Title == nil && r.Description == nil && r.Priority == nil &&
		r.AssignedTo == nil && r.DueDate == nil && r.CompletedAt == nil && r.ReminderSet == nil && r.Tags == nil
}

// List returns the tasks visible to the caller.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Param        search    query     string  false  "Match on title or description"
// @Param        status    query     string  false  "pending, in-progress or completed"
// @Param        priority  query     string  false  "low, medium, high or urgent"
// @Success      200       {array}   domain.Task
// @Failure      401       {object}  ErrorResponse
// @Router       /v1/tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.store.Tasks(ports.TaskFilter{
		Search:    c.QueryParam("search"),
		Status:    c.QueryParam("status"),
		Priority:  c.QueryParam("priority"),
		VisibleTo: id,
	}))
}

// Create adds a task. Only users who can assign tasks may create them.
//
// @Summary      Create task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        body  body      createTaskRequest  true  "Task"
// @Success      201   {object}  domain.Task
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Router       /v1/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	if !id.CanAssignTasks() {
		return domain.ErrForbidden
	}

	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.Status == "" {
		req.Status = string(domain.TaskPending)
	}
	if req.Priority == "" {
		req.Priority = string(domain.PriorityMedium)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.store.AddTask(c.Request().Context(), ports.NewTask{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
		AssignedBy:  id.ID,
		DueDate:     req.DueDate,
		ReminderSet: req.ReminderSet,
		Tags:        req.Tags,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// Update patches a task. Admins and the assigner may change anything; the
// assignee may only move the status.
//
// @Summary      Update task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Task ID"
// @Param        body  body      updateTaskRequest  true  "Fields to change"
// @Success      200   {object}  domain.Task
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /v1/tasks/{id} [patch]
func (h *TaskHandler) Update(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	current, err := h.store.Task(c.Param("id"))
	if err != nil {
		return err
	}
	switch {
	case id.IsAdmin(), current.AssignedBy == id.ID:
	case current.AssignedTo == id.ID && req.statusOnly():
	default:
		return domain.ErrForbidden
	}

	task, err := h.store.UpdateTask(current.ID, ports.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
		DueDate:     req.DueDate,
		CompletedAt: req.CompletedAt,
		ReminderSet: req.ReminderSet,
		Tags:        req.Tags,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Delete removes a task. Admin only.
//
// @Summary      Delete task
// @Tags         tasks
// @Param        id   path  string  true  "Task ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	if err := h.store.DeleteTask(c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
