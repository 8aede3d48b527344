package models

import "time"

const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

// Transaction statuses
const (
	TxStatusPosted = "posted"
	TxStatusVoid   = "void"
)

// Transaction types
const (
	TxTypeTopupCredit      = "topup_credit"
	TxTypeRefundCredit     = "refund_credit"
	TxTypeBookingPayment   = "booking_payment"
	TxTypeManualAdjustment = "manual_adjustment"
)

// Source types
const (
	SourceTypeTopupRequest     = "topup_request"
	SourceTypeRefundSettlement = "refund_settlement"
	SourceTypeBooking          = "booking"
	SourceTypeAdmin            = "admin"
)

// WalletTransaction is one immutable ledger posting. Only Status and the void
// fields inside Metadata change after insert. (Type, SourceID) is the
// idempotency key.
type WalletTransaction struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	UserID       string     `gorm:"size:64;not null;index:idx_wallet_tx_user_created,priority:1" json:"user_id"`
	Direction    string     `gorm:"size:8;not null" json:"direction"`
	Amount       int64      `gorm:"not null" json:"amount"`
	Type         string     `gorm:"size:40;not null;uniqueIndex:idx_wallet_tx_type_source,priority:1" json:"type"`
	Status       string     `gorm:"size:8;not null;index" json:"status"`
	SourceType   string     `gorm:"size:40" json:"source_type,omitempty"`
	SourceID     string     `gorm:"size:128;not null;uniqueIndex:idx_wallet_tx_type_source,priority:2" json:"source_id"`
	BalanceAfter int64      `gorm:"not null" json:"balance_after"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	PostedBy     string     `gorm:"size:64" json:"posted_by,omitempty"`
	Note         string     `gorm:"size:255" json:"note,omitempty"`
	Metadata     TxMetadata `gorm:"type:jsonb" json:"metadata"`
	CreatedAt    time.Time  `gorm:"index:idx_wallet_tx_user_created,priority:2" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// SignedAmount is the balance delta this posting applied.
func (t *WalletTransaction) SignedAmount() int64 {
	if t.Direction == DirectionDebit {
		return -t.Amount
	}
	return t.Amount
}

func (t *WalletTransaction) IsVoid() bool {
	return t.Status == TxStatusVoid
}
