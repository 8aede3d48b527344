package repositories

import (
	"context"
	"time"

	"tripwallet/internal/models"
)

// WalletRepository is the storage contract of the ledger. Balance mutations
// are only exposed as atomic increment and conditional decrement so callers
// never read-modify-write a balance.
type WalletRepository interface {
	GetBalance(ctx context.Context, userID string) (*models.WalletBalance, error)
	ListBalances(ctx context.Context) ([]models.WalletBalance, error)

	// IncrementBalance upserts the row and returns it as of after the change.
	IncrementBalance(ctx context.Context, userID, currency string, amount int64) (*models.WalletBalance, error)
	// DecrementBalance returns ErrInsufficientFunds when the row is missing or
	// holds less than amount.
	DecrementBalance(ctx context.Context, userID string, amount int64) (*models.WalletBalance, error)

	FindTransactionBySource(ctx context.Context, txType, sourceID string) (*models.WalletTransaction, error)
	// CreateTransaction returns ErrDuplicateTransaction on a (type, source_id) collision.
	CreateTransaction(ctx context.Context, tx *models.WalletTransaction) error
	// MarkTransactionVoid flips posted to void; ErrStatusConflict if it was not posted.
	MarkTransactionVoid(ctx context.Context, id string, meta models.TxMetadata, at time.Time) error
	ListTransactions(ctx context.Context, userID string, q TransactionQuery) ([]models.WalletTransaction, error)
	SumPostedByUser(ctx context.Context) ([]LedgerSum, error)

	// ExecuteInTransaction runs fn against a repository bound to one store
	// transaction. Any error returned by fn rolls everything back.
	ExecuteInTransaction(ctx context.Context, fn func(WalletRepository) error) error
}

// TransactionQuery selects a newest-first slice of a user's transactions.
// Before takes precedence over Offset.
type TransactionQuery struct {
	Type   string
	Limit  int
	Offset int
	Before *TransactionCursor
}

type TransactionCursor struct {
	CreatedAt time.Time
	ID        string
}

// LedgerSum is the net of a user's posted deltas.
type LedgerSum struct {
	UserID string
	Total  int64
}
