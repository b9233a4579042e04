package handlers

import (
	"bytes"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/junwei-lin/smsflow/app/dto"
	businessflow "github.com/junwei-lin/smsflow/business_flow"
	"github.com/junwei-lin/smsflow/models"
)

// ContactHandlerInterface defines the contract for contact handlers
type ContactHandlerInterface interface {
	ListContacts(c fiber.Ctx) error
	AddContact(c fiber.Ctx) error
	DeleteContact(c fiber.Ctx) error
	ImportContacts(c fiber.Ctx) error
	ImportContactsXLSX(c fiber.Ctx) error
	ListGroups(c fiber.Ctx) error
	CreateGroup(c fiber.Ctx) error
	DeleteGroup(c fiber.Ctx) error
}

// ContactHandler handles contact and group HTTP requests
type ContactHandler struct {
	contactFlow businessflow.ContactFlow
	validator   *validator.Validate
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactFlow businessflow.ContactFlow) *ContactHandler {
	return &ContactHandler{
		contactFlow: contactFlow,
		validator:   validator.New(),
	}
}

// ListContacts returns contacts, optionally narrowed to one group.
func (h *ContactHandler) ListContacts(c fiber.Ctx) error {
	ctx, cancel := requestContext(c, "list_contacts", 30*time.Second)
	defer cancel()

	var group *string
	if g := c.Query("group"); g != "" {
		group = &g
	}

	contacts, err := h.contactFlow.ListContacts(ctx, group)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list contacts", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusOK, "Contacts retrieved", contacts)
}

// AddContact stores a single contact.
func (h *ContactHandler) AddContact(c fiber.Ctx) error {
	var req dto.AddContactRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c, "add_contact", 30*time.Second)
	defer cancel()

	contact, err := h.contactFlow.AddContact(ctx, req.Name, req.Phone, req.Group, req.Remark)
	if err != nil {
		if businessflow.IsDuplicatePhone(err) {
			return errorResponse(c, fiber.StatusConflict, "Phone number already exists", "DUPLICATE_PHONE", nil)
		}
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to add contact", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Contact added", contact)
}

// DeleteContact removes a contact by ID.
func (h *ContactHandler) DeleteContact(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Contact ID is required", "MISSING_CONTACT_ID", nil)
	}

	ctx, cancel := requestContext(c, "delete_contact", 30*time.Second)
	defer cancel()

	if err := h.contactFlow.DeleteContact(ctx, id); err != nil {
		if businessflow.IsContactNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Contact not found", "CONTACT_NOT_FOUND", nil)
		}
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to delete contact", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusOK, "Contact deleted", nil)
}

// ImportContacts imports a JSON batch of contacts.
func (h *ContactHandler) ImportContacts(c fiber.Ctx) error {
	var req dto.ImportContactsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c, "import_contacts", 1*time.Minute)
	defer cancel()

	incoming := make([]models.Contact, 0, len(req.Contacts))
	for _, rc := range req.Contacts {
		incoming = append(incoming, models.Contact{
			Name:   rc.Name,
			Phone:  rc.Phone,
			Group:  rc.Group,
			Remark: rc.Remark,
		})
	}

	added, skipped, err := h.contactFlow.ImportContacts(ctx, incoming, req.SkipDuplicates)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to import contacts", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusOK, "Contacts imported", dto.ImportContactsResponse{
		Added:   added,
		Skipped: skipped,
	})
}

// ImportContactsXLSX imports contacts from an uploaded spreadsheet.
func (h *ContactHandler) ImportContactsXLSX(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Spreadsheet file is required", "MISSING_FILE", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Failed to open uploaded file", "INVALID_FILE", nil)
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(file); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Failed to read uploaded file", "INVALID_FILE", nil)
	}

	ctx, cancel := requestContext(c, "import_contacts_xlsx", 2*time.Minute)
	defer cancel()

	skipDuplicates := c.FormValue("skip_duplicates") != "false"
	added, skipped, err := h.contactFlow.ImportFromXLSX(ctx, &buf, skipDuplicates)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Failed to parse spreadsheet", "INVALID_SPREADSHEET", err.Error())
	}

	return successResponse(c, fiber.StatusOK, "Contacts imported", dto.ImportContactsResponse{
		Added:   added,
		Skipped: skipped,
	})
}

// ListGroups returns all groups with derived counts.
func (h *ContactHandler) ListGroups(c fiber.Ctx) error {
	ctx, cancel := requestContext(c, "list_groups", 30*time.Second)
	defer cancel()

	groups, err := h.contactFlow.ListGroups(ctx)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list groups", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusOK, "Groups retrieved", groups)
}

// CreateGroup registers a new group.
func (h *ContactHandler) CreateGroup(c fiber.Ctx) error {
	var req dto.CreateGroupRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c, "create_group", 30*time.Second)
	defer cancel()

	group, err := h.contactFlow.CreateGroup(ctx, req.Name)
	if err != nil {
		if businessflow.IsGroupAlreadyExists(err) {
			return errorResponse(c, fiber.StatusConflict, "Group already exists", "GROUP_EXISTS", nil)
		}
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to create group", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Group created", group)
}

// DeleteGroup removes a group; its contacts move to the default group.
func (h *ContactHandler) DeleteGroup(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Group name is required", "MISSING_GROUP_NAME", nil)
	}

	ctx, cancel := requestContext(c, "delete_group", 30*time.Second)
	defer cancel()

	if err := h.contactFlow.DeleteGroup(ctx, name); err != nil {
		switch {
		case businessflow.IsDefaultGroupImmutable(err):
			return errorResponse(c, fiber.StatusBadRequest, "Default group cannot be removed", "DEFAULT_GROUP_IMMUTABLE", nil)
		case businessflow.IsGroupNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Group not found", "GROUP_NOT_FOUND", nil)
		default:
			return errorResponse(c, fiber.StatusInternalServerError, "Failed to delete group", "INTERNAL_ERROR", nil)
		}
	}

	return successResponse(c, fiber.StatusOK, "Group deleted", nil)
}
