package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound                 = errors.New("entity not found")
	ErrInvalidArgument          = errors.New("invalid argument")
	ErrSignatureInvalid         = errors.New("webhook signature invalid")
	ErrUnrecognizedEvent        = errors.New("unrecognized event type")
	ErrMalformedPayload         = errors.New("malformed event payload")
	ErrCorrelationNotFound      = errors.New("no record matches the event correlation key")
	ErrStoreConflict            = errors.New("store write conflict")
	ErrOrganizationNotOnboarded = errors.New("organization has not completed payment onboarding")
	ErrLockNotAcquired          = errors.New("correlation key is locked by another delivery")
	ErrPermissionDenied         = errors.New("permission denied by chat platform")
)
