package models

import "time"

// WalletBalance is the materialized running balance of one user. It is only
// ever mutated through the ledger's atomic increment and decrement paths and
// must equal the sum of the user's posted transaction deltas. Version goes
// up by one with every mutation.
type WalletBalance struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	UserID    string    `gorm:"size:64;uniqueIndex;not null" json:"user_id"`
	Currency  string    `gorm:"size:8;not null" json:"currency"`
	Balance   int64     `gorm:"not null;check:balance >= 0" json:"balance"`
	Version   int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WalletBalance) TableName() string {
	return "wallet_balances"
}
