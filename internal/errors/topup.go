package errors

import "net/http"

var (
	ErrTopupInvalidPackage = &DomainError{
		Code:    "topup_invalid_package",
		Message: "amount is not one of the offered top-up packages",
		Status:  http.StatusBadRequest,
	}
	ErrTopupNotFound = &DomainError{
		Code:    "topup_not_found",
		Message: "top-up request not found",
		Status:  http.StatusNotFound,
	}
	ErrTopupAlreadyProcessed = &DomainError{
		Code:    "topup_already_processed",
		Message: "top-up request was already credited",
		Status:  http.StatusConflict,
	}
	ErrTopupAlreadyRejected = &DomainError{
		Code:    "topup_already_rejected",
		Message: "top-up request was already rejected",
		Status:  http.StatusConflict,
	}
)
