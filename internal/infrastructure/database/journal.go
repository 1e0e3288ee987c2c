package database

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"

	"propertydeals-backend/internal/domain"
	"propertydeals-backend/internal/infrastructure/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Journal writes the ledger audit trail. It implements ledger.Recorder; write failures are
// logged and never surface to the operation that triggered them.
type Journal struct {
	DB *gorm.DB
}

var _ ledger.Recorder = (*Journal)(nil)

func (j *Journal) RecordTransaction(ctx context.Context, tx ledger.Tx, rec *ledger.Receipt, err error) {
	row := domain.LedgerTransaction{
		Method:      tx.Method,
		FromAccount: tx.From.Hex(),
		ValueWei:    "0",
		Status:      domain.TxStatusConfirmed,
	}
	if tx.Value != nil {
		row.ValueWei = tx.Value.String()
	}
	if id, ok := ledger.PropertyIDOf(tx, rec); ok {
		row.PropertyID = &id
	}
	if rec != nil {
		hash := rec.TxHash.Hex()
		block := rec.BlockNumber
		row.TxHash = &hash
		row.BlockNumber = &block
	}
	if err != nil {
		row.Status = domain.TxStatusRejected
		if errors.Is(err, domain.ErrLedgerUnavailable) {
			row.Status = domain.TxStatusUnavailable
		}
		reason := err.Error()
		row.Reason = &reason
	}
	if dbErr := j.DB.WithContext(context.WithoutCancel(ctx)).Create(&row).Error; dbErr != nil {
		log.Error().Err(dbErr).Str("method", tx.Method).Msg("journal: record transaction")
	}
}

func (j *Journal) RecordEvents(ctx context.Context, events []ledger.Event) {
	if len(events) == 0 {
		return
	}
	rows := make([]domain.LedgerEvent, 0, len(events))
	for _, ev := range events {
		fields, err := json.Marshal(jsonFields(ev.Fields))
		if err != nil {
			log.Error().Err(err).Str("event", ev.Name).Msg("journal: encode event fields")
			continue
		}
		row := domain.LedgerEvent{
			Name:        ev.Name,
			BlockNumber: ev.BlockNumber,
			LogIndex:    ev.LogIndex,
			TxHash:      ev.TxHash.Hex(),
			Fields:      datatypes.JSON(fields),
		}
		if id := ev.Uint("propertyId"); id != nil && id.IsUint64() {
			pid := id.Uint64()
			row.PropertyID = &pid
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return
	}
	err := j.DB.WithContext(context.WithoutCancel(ctx)).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tx_hash"}, {Name: "log_index"}}, DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		log.Error().Err(err).Int("count", len(rows)).Msg("journal: record events")
	}
}

// jsonFields renders uint256 values as decimal strings and addresses as checksummed hex.
func jsonFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		switch x := v.(type) {
		case *big.Int:
			out[k] = x.String()
		case common.Address:
			out[k] = x.Hex()
		default:
			out[k] = x
		}
	}
	return out
}
