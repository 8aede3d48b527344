package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// TxMetadata is the structured context attached to every ledger posting.
// SourceID mirrors the transaction's idempotency key and is always set.
type TxMetadata struct {
	SourceID  string `json:"sourceId"`
	SourceRef string `json:"sourceRef,omitempty"`
	ActorID   string `json:"actorId,omitempty"`
	ActorRole string `json:"actorRole,omitempty"`
	Reason    string `json:"reason,omitempty"`

	VoidedAt         *time.Time `json:"voidedAt,omitempty"`
	VoidedBy         string     `json:"voidedBy,omitempty"`
	VoidNote         string     `json:"voidNote,omitempty"`
	VoidBalanceAfter *int64     `json:"voidBalanceAfter,omitempty"`

	Extra map[string]interface{} `json:"extra,omitempty"`
}

// Value implements the driver.Valuer interface
func (m TxMetadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (m *TxMetadata) Scan(value interface{}) error {
	return scanJSON(value, m)
}
