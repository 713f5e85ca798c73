package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrIneligibleOwner   = errors.New("owner role is not eligible for a wallet ledger")
	ErrDuplicatePosting  = errors.New("ledger entry already posted for this source")
	ErrDuplicateRateRule = errors.New("rate rule already exists for this combination and date")
	ErrInvalidTransition = errors.New("transition not permitted from current state")
	ErrMissingQuantity   = errors.New("quantity required for tonnes contract")
	ErrUnknownReference  = errors.New("referenced record does not exist")
	ErrInvalidAmount     = errors.New("amount must not be negative")
	ErrPermissionDenied  = errors.New("role does not permit this action")
	ErrUserInactive      = errors.New("user is inactive")
)
