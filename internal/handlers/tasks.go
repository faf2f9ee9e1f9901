package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"task-manager/server/internal/models"
	"task-manager/server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const assigneesNotArray = "Assigned to must be an array of user IDs"

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

type taskRequest struct {
	Title         *string                `json:"title"`
	Description   *string                `json:"description"`
	Priority      *models.Priority       `json:"priority"`
	DueDate       *string                `json:"dueDate"`
	Attachments   []string               `json:"attachments"`
	AssignedTo    json.RawMessage        `json:"assignedTo"`
	TodoChecklist []models.ChecklistItem `json:"todoChecklist"`
}

type statusRequest struct {
	Status json.RawMessage `json:"status"`
}

type checklistRequest struct {
	TodoChecklist []models.ChecklistItem `json:"todoChecklist"`
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// parseStatus reads an optional status field. Falsy JSON values mean the
// status was not supplied and decode to the zero Status.
func parseStatus(raw json.RawMessage) (models.Status, error) {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", `""`, "false", "0":
		return 0, nil
	}
	var status models.Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return 0, err
	}
	return status, nil
}

// parseAssignees requires a JSON array of user id strings.
func parseAssignees(raw json.RawMessage) ([]uuid.UUID, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal(trimmed, &ids); err != nil {
		return nil, false
	}
	out := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.FromString(raw)
		if err != nil {
			return nil, false
		}
		out = append(out, id)
	}
	return out, true
}

// toInput converts the request body. On create the assignee list is
// mandatory; on update it is only validated when present.
func (r taskRequest) toInput(c *gin.Context, creating bool) (services.TaskInput, bool) {
	input := services.TaskInput{
		Title:         r.Title,
		Description:   r.Description,
		Priority:      r.Priority,
		Attachments:   r.Attachments,
		TodoChecklist: r.TodoChecklist,
	}

	if creating || !isNull(r.AssignedTo) {
		ids, ok := parseAssignees(r.AssignedTo)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"message": assigneesNotArray})
			return input, false
		}
		input.AssignedTo = ids
	}

	if r.DueDate != nil && *r.DueDate != "" {
		due, err := services.ParseDueDate(*r.DueDate)
		if err != nil {
			respondError(c, err)
			return input, false
		}
		input.DueDate = &due
	}
	return input, true
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var status *models.Status
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status"})
			return
		}
		status = &parsed
	}

	list, err := h.taskService.List(c.Request.Context(), user, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id, ok := paramID(c, "Task not found")
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	input, ok := req.toInput(c, true)
	if !ok {
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), user, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Task created successfully", "task": task})
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "Task not found")
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	input, ok := req.toInput(c, false)
	if !ok {
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), user, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task updated successfully", "task": task})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := paramID(c, "Task not found")
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "Task not found")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.taskService.UpdateStatus(c.Request.Context(), user, id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task status updated successfully", "task": task})
}

func (h *TaskHandler) UpdateTaskChecklist(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "Task not found")
	if !ok {
		return
	}

	var req checklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.taskService.UpdateChecklist(c.Request.Context(), user, id, req.TodoChecklist)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task checklist updated successfully", "task": task})
}
