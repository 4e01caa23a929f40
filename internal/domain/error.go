package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound             = errors.New("entity not found")
	ErrNoReply              = errors.New("no reply to this cast")
	ErrReplyNotSelfAuthored = errors.New("reply not authored by requesting user")
	ErrRecordConflict       = errors.New("conflicting record already exists for job")
	ErrPaymentPending       = errors.New("payment not confirmed yet")
	ErrPaymentNotFound      = errors.New("no payment submitted for job")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInvalidExecContext   = errors.New("invalid executor context")
	ErrOperationFailed      = errors.New("storage operation failed")
	ErrReadDatabaseRow      = errors.New("failed to read database row")
	ErrQueueFull            = errors.New("worker queue full")
	ErrStageLocked          = errors.New("stage already being processed")
)
