package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrPermissionDenied  = &AppError{http.StatusForbidden, "PERMISSION_DENIED", "Role does not permit this action"}
	ErrIneligibleOwner   = &AppError{http.StatusUnprocessableEntity, "INELIGIBLE_OWNER", "Owner role does not carry a wallet"}
	ErrDuplicatePosting  = &AppError{http.StatusConflict, "DUPLICATE_POSTING", "Ledger entry already posted for this source"}
	ErrInvalidTransition = &AppError{http.StatusConflict, "INVALID_TRANSITION", "Transition not permitted from current state"}
	ErrMissingQuantity   = &AppError{http.StatusUnprocessableEntity, "MISSING_QUANTITY", "Quantity is required for tonnes contracts"}
	ErrUnknownReference  = &AppError{http.StatusUnprocessableEntity, "UNKNOWN_REFERENCE", "Referenced record does not exist"}
	ErrInvalidAmount     = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must not be negative"}
	ErrUserInactive      = &AppError{http.StatusUnprocessableEntity, "USER_INACTIVE", "User is inactive"}
	ErrDuplicateRateRule = &AppError{http.StatusConflict, "DUPLICATE_RATE_RULE", "Rate rule already exists for this combination and date"}
)
