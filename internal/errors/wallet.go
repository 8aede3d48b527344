package errors

import "net/http"

var (
	ErrInvalidAmount = &DomainError{
		Code:    "wallet_invalid_amount",
		Message: "amount must be a positive whole number of minor units",
		Status:  http.StatusBadRequest,
	}
	ErrInvalidRequest = &DomainError{
		Code:    "wallet_invalid_request",
		Message: "user, type and source id are required",
		Status:  http.StatusBadRequest,
	}
	ErrInvalidCursor = &DomainError{
		Code:    "wallet_invalid_cursor",
		Message: "pagination cursor is malformed",
		Status:  http.StatusBadRequest,
	}
	ErrInsufficientBalance = &DomainError{
		Code:    "wallet_insufficient_balance",
		Message: "insufficient wallet balance",
		Status:  http.StatusUnprocessableEntity,
	}
	ErrTransactionNotFound = &DomainError{
		Code:    "wallet_tx_not_found",
		Message: "wallet transaction not found",
		Status:  http.StatusNotFound,
	}
	ErrTransactionVoid = &DomainError{
		Code:    "wallet_tx_void",
		Message: "transaction for this source was voided; post with a new source id",
		Status:  http.StatusConflict,
	}
	ErrVoidInsufficientBalance = &DomainError{
		Code:    "wallet_void_insufficient_balance",
		Message: "balance too low to reverse this credit",
		Status:  http.StatusUnprocessableEntity,
	}
)
