// Package businessflow contains the core business logic and use cases for the bulk-send workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Task validation errors
	ErrMissingContacts     = errors.New("no recipients selected")
	ErrMissingTemplate     = errors.New("no message content provided")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTaskNotFound        = errors.New("task not found")
	ErrTaskNotPending      = errors.New("task is not pending")
	ErrSendCanceled        = errors.New("send canceled")
	ErrSenderUnavailable   = errors.New("send capability unavailable")

	// Contact and group errors
	ErrContactNameRequired   = errors.New("contact name is required")
	ErrContactPhoneRequired  = errors.New("contact phone is required")
	ErrContactNotFound       = errors.New("contact not found")
	ErrDuplicatePhone        = errors.New("phone number already exists")
	ErrGroupNameRequired     = errors.New("group name is required")
	ErrGroupNotFound         = errors.New("group not found")
	ErrGroupAlreadyExists    = errors.New("group already exists")
	ErrDefaultGroupImmutable = errors.New("default group cannot be removed")

	// Template errors
	ErrTemplateNotFound        = errors.New("template not found")
	ErrTemplateTitleRequired   = errors.New("template title is required")
	ErrTemplateContentRequired = errors.New("template content is required")

	// Statistics errors
	ErrInvalidStatsWindow = errors.New("invalid statistics window")

	// Payment errors
	ErrOrderNotFound    = errors.New("order not found")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrAmountMismatch   = errors.New("amount mismatch")
	ErrAmountTooLow     = errors.New("amount is too low")
	ErrSmsCountRequired = errors.New("sms count is required")
	ErrOrderAlreadyPaid = errors.New("order already processed")

	// Storage errors
	ErrStorageDegraded = errors.New("storage unavailable, in-memory state is authoritative")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsMissingContacts(err error) bool {
	return errors.Is(err, ErrMissingContacts)
}

func IsMissingTemplate(err error) bool {
	return errors.Is(err, ErrMissingTemplate)
}

func IsInsufficientBalance(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

func IsTaskNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}

func IsTaskNotPending(err error) bool {
	return errors.Is(err, ErrTaskNotPending)
}

func IsSendCanceled(err error) bool {
	return errors.Is(err, ErrSendCanceled)
}

func IsSenderUnavailable(err error) bool {
	return errors.Is(err, ErrSenderUnavailable)
}

func IsContactNotFound(err error) bool {
	return errors.Is(err, ErrContactNotFound)
}

func IsDuplicatePhone(err error) bool {
	return errors.Is(err, ErrDuplicatePhone)
}

func IsGroupNotFound(err error) bool {
	return errors.Is(err, ErrGroupNotFound)
}

func IsGroupAlreadyExists(err error) bool {
	return errors.Is(err, ErrGroupAlreadyExists)
}

func IsDefaultGroupImmutable(err error) bool {
	return errors.Is(err, ErrDefaultGroupImmutable)
}

func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

func IsInvalidStatsWindow(err error) bool {
	return errors.Is(err, ErrInvalidStatsWindow)
}

func IsOrderNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}

func IsInvalidSignature(err error) bool {
	return errors.Is(err, ErrInvalidSignature)
}

func IsAmountMismatch(err error) bool {
	return errors.Is(err, ErrAmountMismatch)
}

func IsAmountTooLow(err error) bool {
	return errors.Is(err, ErrAmountTooLow)
}

func IsOrderAlreadyPaid(err error) bool {
	return errors.Is(err, ErrOrderAlreadyPaid)
}

func IsStorageDegraded(err error) bool {
	return errors.Is(err, ErrStorageDegraded)
}
