package retention

import (
	"time"

	"gorm.io/gorm"

	"dc-panel/internal/models"
)

// GormStore backs the cleanup loop with the command_logs table. Each
// DeleteByIDs call is a single statement, so every batch commits on its own.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) SelectExpired(cutoff time.Time, limit int) ([]uint, error) {
	var ids []uint
	err := s.db.Model(&models.CommandLog{}).
		Where("timestamp < ?", cutoff).
		Order("id").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (s *GormStore) DeleteByIDs(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.Where("id IN ?", ids).Delete(&models.CommandLog{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) CountExpired(cutoff time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&models.CommandLog{}).Where("timestamp < ?", cutoff).Count(&count).Error
	return count, err
}
