package models

import "time"

const (
	SettlementMethodWalletCredit = "wallet_credit"
	SettlementMethodBankRefund   = "bank_refund"
)

const (
	SettlementStatusPending = "pending"
	SettlementStatusPosted  = "posted"
	SettlementStatusVoid    = "void"
)

// RefundSettlement records how an approved refund is paid out. There is at
// most one row per (RefundID, Method).
type RefundSettlement struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	RefundID  string     `gorm:"size:64;not null;uniqueIndex:idx_refund_settlement_method,priority:1" json:"refund_id"`
	UserID    string     `gorm:"size:64;not null;index" json:"user_id"`
	Amount    int64      `gorm:"not null" json:"amount"`
	Method    string     `gorm:"size:20;not null;uniqueIndex:idx_refund_settlement_method,priority:2" json:"method"`
	Status    string     `gorm:"size:12;not null" json:"status"`
	PostedBy  string     `gorm:"size:64" json:"posted_by,omitempty"`
	PostedAt  *time.Time `json:"posted_at,omitempty"`
	Metadata  JSON       `gorm:"type:jsonb" json:"metadata"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (RefundSettlement) TableName() string {
	return "refund_settlements"
}

func IsValidSettlementMethod(m string) bool {
	return m == SettlementMethodWalletCredit || m == SettlementMethodBankRefund
}

func IsValidSettlementStatus(s string) bool {
	switch s {
	case SettlementStatusPending, SettlementStatusPosted, SettlementStatusVoid:
		return true
	}
	return false
}
