package database

import (
	"context"
	"errors"
	"fmt"

	"propertydeals-backend/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegistryCursor is the sync_cursors row holding the last replayed PropertyListed block.
const RegistryCursor = "registry.property_listed"

// PropertyStore persists the registry snapshot so a restart can resume an incremental rebuild.
type PropertyStore struct {
	DB *gorm.DB
}

// LoadSnapshot returns every stored property and the replay cursor (0 when never synced).
func (s *PropertyStore) LoadSnapshot(ctx context.Context) ([]domain.Property, uint64, error) {
	var rows []domain.PropertyRecord
	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	props := make([]domain.Property, 0, len(rows))
	for _, row := range rows {
		p, err := row.ToProperty()
		if err != nil {
			return nil, 0, fmt.Errorf("property %d: %w", row.ID, err)
		}
		props = append(props, p)
	}
	var cursor domain.SyncCursor
	err := s.DB.WithContext(ctx).Where("name = ?", RegistryCursor).First(&cursor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return props, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return props, cursor.Block, nil
}

// SaveProperty upserts one property.
func (s *PropertyStore) SaveProperty(ctx context.Context, p domain.Property) error {
	rec := p.ToRecord()
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error
}

// SaveSnapshot upserts every property and advances the cursor in one transaction.
func (s *PropertyStore) SaveSnapshot(ctx context.Context, props []domain.Property, cursor uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range props {
			rec := p.ToRecord()
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
				return err
			}
		}
		row := domain.SyncCursor{Name: RegistryCursor, Block: cursor}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	})
}

// Reset drops every cached property and the replay cursor.
func (s *PropertyStore) Reset(ctx context.Context) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.PropertyRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("name = ?", RegistryCursor).Delete(&domain.SyncCursor{}).Error
	})
}
