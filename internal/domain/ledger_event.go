package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LedgerEvent is a journal row for a contract event seen during replay or in a receipt.
type LedgerEvent struct {
	EventID     uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	Name        string         `gorm:"column:name;type:varchar(40);not null;index" json:"name"`
	PropertyID  *uint64        `gorm:"column:property_id;index" json:"property_id"`
	BlockNumber uint64         `gorm:"column:block_number;not null" json:"block_number"`
	LogIndex    uint           `gorm:"column:log_index;not null;uniqueIndex:idx_ledger_events_position" json:"log_index"`
	TxHash      string         `gorm:"column:tx_hash;type:varchar(66);not null;uniqueIndex:idx_ledger_events_position" json:"tx_hash"`
	Fields      datatypes.JSON `gorm:"column:fields;not null" json:"fields"`
	CreatedAt   time.Time      `gorm:"column:createdAt" json:"createdAt"`
}

func (LedgerEvent) TableName() string {
	return "ledger_events"
}

func (e *LedgerEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
