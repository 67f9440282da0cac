package services

import "errors"

// Typed failures returned by the core operations. Controllers map these
// onto HTTP codes; none of them leaves a partial mutation behind.
var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrDriverNotFound         = errors.New("driver not found")
	ErrSubscriptionNotFound   = errors.New("subscription not found")
	ErrAlreadyAssigned        = errors.New("order is already assigned to a driver")
	ErrNotAssigned            = errors.New("order is not assigned to this driver")
	ErrInactiveDriver         = errors.New("driver is not active or not online")
	ErrInvalidStateTransition = errors.New("status transition not allowed from current state")
	ErrValidation             = errors.New("validation failed")
)
