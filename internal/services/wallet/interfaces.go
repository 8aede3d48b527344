package wallet

import (
	"context"
	"time"
)

// Service defines the ledger operations
type Service interface {
	Credit(ctx context.Context, req PostRequest) (*PostResult, error)
	Debit(ctx context.Context, req PostRequest) (*PostResult, error)
	VoidBySource(ctx context.Context, req VoidRequest) (*PostResult, error)

	GetBalance(ctx context.Context, userID string) (*Balance, error)
	ListTransactions(ctx context.Context, userID string, opts ListOptions) (*TransactionPage, error)
}

// BalanceCache is a best-effort read cache in front of wallet_balances.
// SetBalance must not replace an entry cached at the same or a newer row
// version; it reports whether it wrote.
type BalanceCache interface {
	GetBalance(ctx context.Context, userID string) (int64, bool, error)
	SetBalance(ctx context.Context, userID string, balance, version int64) (bool, error)
	InvalidateBalance(ctx context.Context, userID string) error
}

type MetricsCollector interface {
	RecordOperationDuration(operation string, d time.Duration)
	RecordPosting(txType, direction string, amount int64)
	RecordReplay(operation, txType string)
	RecordVoid(txType string)
	RecordError(operation, code string)
	RecordCacheHit()
	RecordCacheMiss()
}
