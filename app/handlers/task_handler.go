// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/junwei-lin/smsflow/app/dto"
	businessflow "github.com/junwei-lin/smsflow/business_flow"
	"github.com/junwei-lin/smsflow/models"
)

// TaskHandlerInterface defines the contract for task handlers
type TaskHandlerInterface interface {
	CreateTask(c fiber.Ctx) error
	ListTasks(c fiber.Ctx) error
	ExecuteTask(c fiber.Ctx) error
}

// TaskHandler handles bulk-send task HTTP requests
type TaskHandler struct {
	taskFlow     businessflow.TaskFlow
	contactFlow  businessflow.ContactFlow
	templateFlow businessflow.TemplateFlow
	validator    *validator.Validate
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskFlow businessflow.TaskFlow, contactFlow businessflow.ContactFlow, templateFlow businessflow.TemplateFlow) *TaskHandler {
	return &TaskHandler{
		taskFlow:     taskFlow,
		contactFlow:  contactFlow,
		templateFlow: templateFlow,
		validator:    validator.New(),
	}
}

// CreateTask registers a bulk-send task. Without a send time the task is
// executed immediately and the outcome is returned; with one it stays
// pending for the scheduler.
func (h *TaskHandler) CreateTask(c fiber.Ctx) error {
	var req dto.CreateTaskRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c, "create_task", 10*time.Minute)
	defer cancel()

	phones := req.Phones
	if len(phones) == 0 && req.Group != "" {
		var err error
		phones, err = h.contactFlow.PhonesForGroup(ctx, req.Group)
		if err != nil {
			return errorResponse(c, fiber.StatusInternalServerError, "Failed to resolve group", "INTERNAL_ERROR", nil)
		}
	}

	content := strings.TrimSpace(req.Content)
	templateName := ""
	if content == "" && req.TemplateID != nil {
		tpl, err := h.templateFlow.Get(ctx, *req.TemplateID)
		if err != nil {
			if businessflow.IsTemplateNotFound(err) {
				return errorResponse(c, fiber.StatusNotFound, "Template not found", "TEMPLATE_NOT_FOUND", nil)
			}
			return errorResponse(c, fiber.StatusInternalServerError, "Failed to load template", "INTERNAL_ERROR", nil)
		}
		content = tpl.Content
		templateName = tpl.Title
	}

	task, err := h.taskFlow.CreateTask(ctx, &businessflow.CreateTaskInput{
		Title:    req.Title,
		Template: templateName,
		Content:  content,
		Phones:   phones,
		SendAt:   req.SendAt,
	})
	if err != nil {
		return h.mapTaskError(c, err)
	}

	if task.SendAt != nil && task.SendAt.After(time.Now()) {
		return successResponse(c, fiber.StatusCreated, "Task scheduled", task)
	}

	done, err := h.taskFlow.Execute(ctx, task.ID, nil)
	if err != nil {
		return h.mapTaskError(c, err)
	}

	return successResponse(c, fiber.StatusOK, "Task executed", dto.ExecuteTaskResponse{
		TaskID:       done.ID,
		Status:       string(done.Status),
		Total:        done.ContactCount,
		SuccessCount: done.SuccessCount,
		FailedCount:  done.FailedCount,
		Cost:         done.Cost,
		Results:      done.Results,
	})
}

// ListTasks returns tasks, newest first, optionally filtered by status.
func (h *TaskHandler) ListTasks(c fiber.Ctx) error {
	var req dto.ListTasksRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c, "list_tasks", 30*time.Second)
	defer cancel()

	var filter *models.TaskFilter
	if req.Status != "" {
		status := models.TaskStatus(req.Status)
		filter = &models.TaskFilter{Status: &status}
	}

	tasks, err := h.taskFlow.ListTasks(ctx, filter)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list tasks", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusOK, "Tasks retrieved", tasks)
}

// ExecuteTask runs a pending task immediately.
func (h *TaskHandler) ExecuteTask(c fiber.Ctx) error {
	taskID := c.Params("id")
	if taskID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Task ID is required", "MISSING_TASK_ID", nil)
	}

	ctx, cancel := requestContext(c, "execute_task", 10*time.Minute)
	defer cancel()

	done, err := h.taskFlow.Execute(ctx, taskID, nil)
	if err != nil {
		return h.mapTaskError(c, err)
	}

	return successResponse(c, fiber.StatusOK, "Task executed", dto.ExecuteTaskResponse{
		TaskID:       done.ID,
		Status:       string(done.Status),
		Total:        done.ContactCount,
		SuccessCount: done.SuccessCount,
		FailedCount:  done.FailedCount,
		Cost:         done.Cost,
		Results:      done.Results,
	})
}

func (h *TaskHandler) mapTaskError(c fiber.Ctx, err error) error {
	switch {
	case businessflow.IsMissingContacts(err):
		return errorResponse(c, fiber.StatusBadRequest, "No recipients selected", "MISSING_CONTACTS", nil)
	case businessflow.IsMissingTemplate(err):
		return errorResponse(c, fiber.StatusBadRequest, "No message content provided", "MISSING_TEMPLATE", nil)
	case businessflow.IsInsufficientBalance(err):
		return errorResponse(c, fiber.StatusBadRequest, "Insufficient balance", "INSUFFICIENT_BALANCE", err.Error())
	case businessflow.IsTaskNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Task not found", "TASK_NOT_FOUND", nil)
	case businessflow.IsTaskNotPending(err):
		return errorResponse(c, fiber.StatusConflict, "Task is not pending", "TASK_NOT_PENDING", nil)
	case businessflow.IsSendCanceled(err):
		return errorResponse(c, fiber.StatusRequestTimeout, "Send canceled", "SEND_CANCELED", nil)
	default:
		return errorResponse(c, fiber.StatusInternalServerError, "Task processing failed", "INTERNAL_ERROR", nil)
	}
}
