package services

import (
	"errors"
)

type StatusCode int

const (
	StatusInvalidArgument StatusCode = iota
	StatusFailedPrecondition
)

// Error messages reported to the user.
const (
	ErrMsgNameRequired        = "Item name is required"
	ErrMsgQuantityPositive    = "Quantity must be at least 1"
	ErrMsgPriceNegative       = "Price cannot be negative"
	ErrMsgSupermarketRequired = "Supermarket name is required"
	ErrMsgBudgetPositive      = "Budget must be greater than zero"
	ErrMsgNotShopping         = "Finish the budget setup before shopping"
	ErrMsgNotInSetup          = "Setup can only be edited during budget setup"
	ErrMsgItemNotInList       = "Item not in shopping list"
	ErrMsgItemNotInCart       = "Item not in cart"
	ErrMsgCartEmpty           = "Cart is empty, add items before finalizing"
	ErrMsgAmbiguousID         = "Item id prefix is ambiguous"
)

func (s StatusCode) String() string {
	switch s {
	case StatusInvalidArgument:
		return "INVALID_ARGUMENT"
	case StatusFailedPrecondition:
		return "FAILED_PRECONDITION"
	default:
		return "UNKNOWN"
	}
}

// CommandError is a rejected operation. Nothing was changed when one is returned.
type CommandError struct {
	Code    StatusCode
	Message string
}

func (e *CommandError) Error() string {
	return e.Message
}

func NewInvalidArgument(message string) *CommandError {
	return &CommandError{Code: StatusInvalidArgument, Message: message}
}

func NewFailedPrecondition(message string) *CommandError {
	return &CommandError{Code: StatusFailedPrecondition, Message: message}
}

// IsInvalidArgument reports whether err is a CommandError with StatusInvalidArgument.
func IsInvalidArgument(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce) && ce.Code == StatusInvalidArgument
}

// IsFailedPrecondition reports whether err is a CommandError with StatusFailedPrecondition.
func IsFailedPrecondition(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce) && ce.Code == StatusFailedPrecondition
}
