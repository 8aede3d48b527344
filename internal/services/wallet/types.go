package wallet

import (
	"time"

	"tripwallet/internal/models"
)

type WalletConfig struct {
	Currency        string
	DefaultPageSize int
	MaxPageSize     int
}

// PostRequest describes one credit or debit. Type and SourceID form the
// idempotency key.
type PostRequest struct {
	UserID     string
	Amount     int64
	Type       string
	SourceID   string
	SourceType string
	ExpiresAt  *time.Time
	PostedBy   string
	Note       string
	Metadata   models.TxMetadata
}

type VoidRequest struct {
	Type     string
	SourceID string
	VoidedBy string
	Note     string
}

// PostResult carries the stored transaction. Replayed is set when no money
// moved because the key had already been posted (or voided, for VoidBySource).
type PostResult struct {
	Transaction *models.WalletTransaction `json:"transaction"`
	Replayed    bool                      `json:"replayed"`
}

type Balance struct {
	UserID   string `json:"user_id"`
	Currency string `json:"currency"`
	Balance  int64  `json:"balance"`
}

// ListOptions selects a page of history. Cursor wins over Page when both are set.
type ListOptions struct {
	Limit  int
	Page   int
	Cursor string
	Type   string
}

type TransactionPage struct {
	Transactions []models.WalletTransaction `json:"transactions"`
	Page         int                        `json:"page"`
	Limit        int                        `json:"limit"`
	NextCursor   string                     `json:"next_cursor,omitempty"`
}
