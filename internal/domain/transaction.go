package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transaction submission outcomes recorded in the audit journal.
const (
	TxStatusConfirmed   = "confirmed"
	TxStatusRejected    = "rejected"
	TxStatusUnavailable = "unavailable"
)

// LedgerTransaction is an audit row written for every submission, whatever its outcome.
type LedgerTransaction struct {
	TxID        uuid.UUID `gorm:"column:tx_id;type:uuid;primaryKey" json:"tx_id"`
	TxHash      *string   `gorm:"column:tx_hash;type:varchar(66)" json:"tx_hash"`
	Method      string    `gorm:"column:method;type:varchar(40);not null" json:"method"`
	PropertyID  *uint64   `gorm:"column:property_id;index" json:"property_id"`
	FromAccount string    `gorm:"column:from_account;type:varchar(42);not null;index" json:"from_account"`
	ValueWei    string    `gorm:"column:value_wei;type:varchar(80);not null" json:"value_wei"`
	Status      string    `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Reason      *string   `gorm:"column:reason" json:"reason"`
	BlockNumber *uint64   `gorm:"column:block_number" json:"block_number"`
	CreatedAt   time.Time `gorm:"column:createdAt" json:"createdAt"`
}

func (LedgerTransaction) TableName() string {
	return "ledger_transactions"
}

func (t *LedgerTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.TxID == uuid.Nil {
		t.TxID = uuid.New()
	}
	return nil
}
