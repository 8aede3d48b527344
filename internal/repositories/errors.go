package repositories

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrBalanceNotFound      = errors.New("wallet balance not found")
	ErrInsufficientFunds    = errors.New("balance below requested decrement")
	ErrTransactionNotFound  = errors.New("wallet transaction not found")
	ErrDuplicateTransaction = errors.New("wallet transaction already exists for type and source")
	ErrStatusConflict       = errors.New("row is no longer in the expected status")
	ErrSettlementNotFound   = errors.New("refund settlement not found")
	ErrTopupNotFound        = errors.New("top-up request not found")
)

const pqUniqueViolation = "23505"

// isUniqueViolation recognises duplicate-key failures from every driver the
// service runs on: gorm's translated error, lib/pq, and sqlite's message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
