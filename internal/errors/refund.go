package errors

import "net/http"

var (
	ErrRefundCreditZero = &DomainError{
		Code:    "refund_credit_zero",
		Message: "refund amount must be greater than zero to credit the wallet",
		Status:  http.StatusUnprocessableEntity,
	}
	ErrSettlementInvalid = &DomainError{
		Code:    "settlement_invalid",
		Message: "invalid refund settlement",
		Status:  http.StatusBadRequest,
	}
)
