package ledgerevents

import (
	"context"

	"propertydeals-backend/internal/domain"

	"gorm.io/gorm"
)

const maxEvents = 1000

// Service reads the ledger_events journal.
type Service struct {
	DB *gorm.DB
}

// GetPropertyEvents returns journaled events in ledger order. propertyID 0 and an empty name
// match every event.
func (s *Service) GetPropertyEvents(ctx context.Context, propertyID uint64, name string) ([]domain.LedgerEvent, error) {
	q := s.DB.WithContext(ctx)
	if propertyID > 0 {
		q = q.Where("property_id = ?", propertyID)
	}
	if name != "" {
		q = q.Where("name = ?", name)
	}
	var events []domain.LedgerEvent
	if err := q.Order("block_number ASC, log_index ASC").Limit(maxEvents).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
