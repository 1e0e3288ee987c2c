package transactions

import (
	"context"
	"math/big"
	"time"

	"propertydeals-backend/internal/domain"
	"propertydeals-backend/internal/pkg/units"
	"propertydeals-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// Service reads the ledger_transactions audit journal.
type Service struct {
	DB *gorm.DB
}

// Filter narrows the journal. Zero values match everything.
type Filter struct {
	Account    string
	PropertyID uint64
	Status     string
	Limit      int
}

type FormattedTx struct {
	TxID        uuid.UUID `json:"tx_id"`
	TxHash      *string   `json:"tx_hash"`
	Method      string    `json:"method"`
	PropertyID  *uint64   `json:"property_id"`
	From        string    `json:"from"`
	Value       string    `json:"value"`
	ValueWei    string    `json:"value_wei"`
	Status      string    `json:"status"`
	Reason      *string   `json:"reason"`
	BlockNumber *uint64   `json:"block_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// ViewTransactions returns journal rows newest first.
func (s *Service) ViewTransactions(ctx context.Context, f Filter) ([]FormattedTx, error) {
	q := s.DB.WithContext(ctx).Model(&domain.LedgerTransaction{})
	if f.Account != "" {
		addr, err := validation.Address("account", f.Account)
		if err != nil {
			return nil, err
		}
		q = q.Where("from_account = ?", addr.Hex())
	}
	if f.PropertyID > 0 {
		q = q.Where("property_id = ?", f.PropertyID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	var rows []domain.LedgerTransaction
	if err := q.Order(`"createdAt" DESC`).Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]FormattedTx, len(rows))
	for i, row := range rows {
		out[i] = FormattedTx{
			TxID:        row.TxID,
			TxHash:      row.TxHash,
			Method:      row.Method,
			PropertyID:  row.PropertyID,
			From:        row.FromAccount,
			ValueWei:    row.ValueWei,
			Status:      row.Status,
			Reason:      row.Reason,
			BlockNumber: row.BlockNumber,
			CreatedAt:   row.CreatedAt,
		}
		out[i].Value = "0"
		if wei, ok := new(big.Int).SetString(row.ValueWei, 10); ok {
			out[i].Value = units.MustDecimal(wei)
		}
	}
	return out, nil
}
