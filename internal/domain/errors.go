package domain

import "errors"

var (
	ErrValidation                = errors.New("validation error")
	ErrNotFound                  = errors.New("not_found")
	ErrForbidden                 = errors.New("forbidden")
	ErrInvalidStateTransition    = errors.New("invalid_status_transition")
	ErrConflictingTransition     = errors.New("conflicting_transition")
	ErrSlotUnavailable           = errors.New("slot_unavailable")
	ErrRescheduleRestricted      = errors.New("reschedule_restricted")
	ErrPaymentVerificationFailed = errors.New("payment_verification_failed")
	ErrAlreadyCompleted          = errors.New("already_completed")
	ErrConfig                    = errors.New("config_error")
)
