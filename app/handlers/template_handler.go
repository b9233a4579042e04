package handlers

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/junwei-lin/smsflow/app/dto"
	businessflow "github.com/junwei-lin/smsflow/business_flow"
	"github.com/junwei-lin/smsflow/models"
)

// TemplateHandlerInterface defines the contract for template handlers
type TemplateHandlerInterface interface {
	ListTemplates(c fiber.Ctx) error
	CreateTemplate(c fiber.Ctx) error
	UpdateTemplate(c fiber.Ctx) error
	DeleteTemplate(c fiber.Ctx) error
}

// TemplateHandler handles message template HTTP requests
type TemplateHandler struct {
	templateFlow businessflow.TemplateFlow
	validator    *validator.Validate
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templateFlow businessflow.TemplateFlow) *TemplateHandler {
	return &TemplateHandler{
		templateFlow: templateFlow,
		validator:    validator.New(),
	}
}

// ListTemplates returns all templates.
func (h *TemplateHandler) ListTemplates(c fiber.Ctx) error {
	ctx, cancel := requestContext(c, "list_templates", 30*time.Second)
	defer cancel()

	templates, err := h.templateFlow.List(ctx)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list templates", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusOK, "Templates retrieved", templates)
}

// CreateTemplate registers a new template.
func (h *TemplateHandler) CreateTemplate(c fiber.Ctx) error {
	var req dto.CreateTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c, "create_template", 30*time.Second)
	defer cancel()

	template, err := h.templateFlow.Create(ctx, req.Title, req.Content, req.Type, models.TemplateCategory(req.Category))
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to create template", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Template created", template)
}

// UpdateTemplate replaces a template's title and content.
func (h *TemplateHandler) UpdateTemplate(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid template ID", "INVALID_TEMPLATE_ID", nil)
	}

	var req dto.UpdateTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c, "update_template", 30*time.Second)
	defer cancel()

	template, err := h.templateFlow.Update(ctx, id, req.Title, req.Content)
	if err != nil {
		if businessflow.IsTemplateNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Template not found", "TEMPLATE_NOT_FOUND", nil)
		}
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to update template", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusOK, "Template updated", template)
}

// DeleteTemplate removes a template by ID.
func (h *TemplateHandler) DeleteTemplate(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid template ID", "INVALID_TEMPLATE_ID", nil)
	}

	ctx, cancel := requestContext(c, "delete_template", 30*time.Second)
	defer cancel()

	if err := h.templateFlow.Delete(ctx, id); err != nil {
		if businessflow.IsTemplateNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Template not found", "TEMPLATE_NOT_FOUND", nil)
		}
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to delete template", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusOK, "Template deleted", nil)
}
