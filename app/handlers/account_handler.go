package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/junwei-lin/smsflow/app/dto"
	businessflow "github.com/junwei-lin/smsflow/business_flow"
	"github.com/junwei-lin/smsflow/models"
)

// AccountHandlerInterface defines the contract for account handlers
type AccountHandlerInterface interface {
	GetProfile(c fiber.Ctx) error
	UpdateProfile(c fiber.Ctx) error
	GetBalance(c fiber.Ctx) error
}

// AccountHandler handles account profile and balance HTTP requests
type AccountHandler struct {
	accountFlow businessflow.AccountFlow
	balanceFlow businessflow.BalanceFlow
	validator   *validator.Validate
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountFlow businessflow.AccountFlow, balanceFlow businessflow.BalanceFlow) *AccountHandler {
	return &AccountHandler{
		accountFlow: accountFlow,
		balanceFlow: balanceFlow,
		validator:   validator.New(),
	}
}

// GetProfile returns the account profile.
func (h *AccountHandler) GetProfile(c fiber.Ctx) error {
	ctx, cancel := requestContext(c, "get_profile", 30*time.Second)
	defer cancel()

	acc, err := h.accountFlow.Profile(ctx)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load profile", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusOK, "Profile retrieved", acc)
}

// UpdateProfile applies partial profile changes.
func (h *AccountHandler) UpdateProfile(c fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c, "update_profile", 30*time.Second)
	defer cancel()

	input := &businessflow.UpdateProfileInput{
		Name:     req.Name,
		Company:  req.Company,
		Industry: req.Industry,
	}
	if req.UserType != nil {
		ut := models.AccountType(*req.UserType)
		input.UserType = &ut
	}

	acc, err := h.accountFlow.UpdateProfile(ctx, input)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to update profile", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusOK, "Profile updated", acc)
}

// GetBalance returns the current balance buckets.
func (h *AccountHandler) GetBalance(c fiber.Ctx) error {
	ctx, cancel := requestContext(c, "get_balance", 30*time.Second)
	defer cancel()

	summary, err := h.balanceFlow.Summary(ctx)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load balance", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusOK, "Balance retrieved", summary)
}
