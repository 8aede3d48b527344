package models

import "time"

const (
	TopupStatusPending   = "pending"
	TopupStatusProcessed = "processed"
	TopupStatusRejected  = "rejected"
)

// TopupRequest is a user's request to add funds, approved or rejected by an admin.
type TopupRequest struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	UserID          string     `gorm:"size:64;not null;index:idx_topup_user_created,priority:1" json:"user_id"`
	PackageAmount   int64      `gorm:"not null" json:"package_amount"`
	Status          string     `gorm:"size:12;not null;index:idx_topup_status_created,priority:1" json:"status"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ProcessedBy     string     `gorm:"size:64" json:"processed_by,omitempty"`
	RejectionReason string     `gorm:"size:255" json:"rejection_reason,omitempty"`
	TransactionID   string     `gorm:"size:36" json:"transaction_id,omitempty"`
	CreatedAt       time.Time  `gorm:"index:idx_topup_status_created,priority:2;index:idx_topup_user_created,priority:2" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (TopupRequest) TableName() string {
	return "topup_requests"
}
