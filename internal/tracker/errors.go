package tracker

import "errors"

var (
	ErrDuplicateParticipant      = errors.New("participant already registered")
	ErrParticipantsNotRegistered = errors.New("participants not registered")
	ErrInsufficientBalance       = errors.New("balance of debtor less than debit")
	ErrTransferExecutionFailed   = errors.New("transfer execution failed")
	ErrInvalidAmount             = errors.New("amount must be a positive whole number of base units")
	ErrInvalidIdentity           = errors.New("identity is required")
	ErrUnbalancedLedger          = errors.New("net balances do not sum to zero")
)
