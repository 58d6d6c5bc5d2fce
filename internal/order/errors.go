package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotEditable    = errors.New("order lines can no longer be edited")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrLineNotFound        = errors.New("order line not found")
	ErrMenuItemUnavailable = errors.New("menu item is not available")
	ErrConcurrencyConflict = errors.New("order was modified concurrently, retry the operation")

	// ErrInvalidTransition is the errors.Is target for InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// InvalidTransitionError reports a rejected state change together with the
// attempted and current states.
type InvalidTransitionError struct {
	OrderNumber string
	From        Status
	To          Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition for order %s: %s -> %s", e.OrderNumber, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
