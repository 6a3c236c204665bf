package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/dto"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/middleware"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/pipeline"
	"github.com/yukikurage/taskboard-api/internal/services"
	"github.com/yukikurage/taskboard-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// taskRequest is the body of create and full-replace requests
type taskRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      models.TaskStatus `json:"status"`
	DueDate     *time.Time        `json:"due_date"`
	AssignedTo  *string           `json:"assigned_to"`
}

func (r taskRequest) input() services.CreateTaskInput {
	return services.CreateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		DueDate:     r.DueDate,
		AssignedTo:  r.AssignedTo,
	}
}

// ListTasks returns one filtered page of the tasks visible to the current user
func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params, err := utils.GetPaginationParams(c, "pageSize")
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	query := pipeline.Query{
		Scope:        pipeline.Scope(c.Query("scope")),
		SearchTerm:   c.Query("searchTerm"),
		StatusFilter: c.Query("statusFilter"),
		DateFilter:   pipeline.DateFilter(c.Query("dateFilter")),
		Page:         params.Page,
		PageSize:     params.Limit,
	}

	result, err := h.taskService.ListTasks(c.Request.Context(), actor, c.Query("userId"), query)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(result))
}

// GetStats returns counts over the tasks visible to the current user
func (h *TaskHandler) GetStats(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	stats, err := h.taskService.GetStats(c.Request.Context(), actor)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetTask returns a specific task by ID
// Task is already loaded by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task owned by the current user
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), actor, req.input())
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// ReplaceTask overwrites every mutable field of a task
func (h *TaskHandler) ReplaceTask(c *gin.Context) {
	actor, task, ok := actorAndTask(c)
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.taskService.ReplaceTask(c.Request.Context(), actor, task, req.input())
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// UpdateTask applies a partial update; "assigned_to": null unassigns
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, task, ok := actorAndTask(c)
	if !ok {
		return
	}

	// Parse raw JSON to detect which fields were sent
	var rawReq map[string]json.RawMessage
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := patchInput(rawReq)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	updated, err := h.taskService.PatchTask(c.Request.Context(), actor, task, input)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, task, ok := actorAndTask(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), actor, task); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func actorAndTask(c *gin.Context) (models.Actor, *models.Task, bool) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return models.Actor{}, nil, false
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return models.Actor{}, nil, false
	}

	return actor, task, true
}

// patchInput decodes the fields present in a PATCH body.
func patchInput(raw map[string]json.RawMessage) (services.PatchTaskInput, error) {
	var input services.PatchTaskInput

	decode := func(field string, dest any) error {
		if err := json.Unmarshal(raw[field], dest); err != nil {
			return apierrors.NewValidationError(field, "has the wrong type")
		}
		return nil
	}
	isNull := func(field string) bool {
		return string(raw[field]) == "null"
	}

	if _, ok := raw["title"]; ok {
		input.Title = new(string)
		if err := decode("title", input.Title); err != nil {
			return input, err
		}
	}
	if _, ok := raw["description"]; ok {
		input.Description = new(string)
		if err := decode("description", input.Description); err != nil {
			return input, err
		}
	}
	if _, ok := raw["status"]; ok {
		input.Status = new(models.TaskStatus)
		if err := decode("status", input.Status); err != nil {
			return input, err
		}
	}
	if _, ok := raw["due_date"]; ok {
		if isNull("due_date") {
			return input, apierrors.NewValidationError("due_date", "cannot be cleared")
		}
		input.DueDate = new(time.Time)
		if err := decode("due_date", input.DueDate); err != nil {
			return input, err
		}
	}
	if _, ok := raw["assigned_to"]; ok {
		if isNull("assigned_to") {
			input.ClearAssignee = true
		} else {
			input.AssignedTo = new(string)
			if err := decode("assigned_to", input.AssignedTo); err != nil {
				return input, err
			}
			if *input.AssignedTo == "" {
				input.AssignedTo = nil
				input.ClearAssignee = true
			}
		}
	}

	return input, nil
}
