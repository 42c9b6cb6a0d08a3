package contract

import "errors"

var (
	ErrModelInvoke      = errors.New("model invoke failed")
	ErrSchemaViolation  = errors.New("model response violates schema")
	ErrValidation       = errors.New("validation failed")
	ErrOrderClosed      = errors.New("order is no longer collecting")
	ErrNoRestaurant     = errors.New("no restaurant selected")
	ErrCheckoutInFlight = errors.New("a checkout run is already in flight")
)
