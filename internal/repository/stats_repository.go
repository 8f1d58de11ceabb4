package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ranz0c/leakhub/internal/models"
)

// StatsRepository handles user statistics database operations.
type StatsRepository struct {
	db *DB
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetByUsername retrieves stats for a user.
func (r *StatsRepository) GetByUsername(username string) (*models.UserStats, error) {
	var stats models.UserStats
	err := r.db.Where("username = ?", username).First(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetOrCreate retrieves stats for a user, creating a zeroed record with the
// current join date if none exists yet.
func (r *StatsRepository) GetOrCreate(username string) (*models.UserStats, error) {
	stats, err := r.GetByUsername(username)
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	stats = &models.UserStats{
		Username: username,
		JoinDate: time.Now(),
	}
	if err := r.db.Create(stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// Save persists updated stats.
func (r *StatsRepository) Save(stats *models.UserStats) error {
	return r.db.Save(stats).Error
}

// GetAll retrieves all user stats records.
func (r *StatsRepository) GetAll() ([]models.UserStats, error) {
	var stats []models.UserStats
	err := r.db.Find(&stats).Error
	return stats, err
}

// TopByScore retrieves users ordered by total score descending, up to limit.
// Zero or negative limit returns everyone.
func (r *StatsRepository) TopByScore(limit int) ([]models.UserStats, error) {
	query := r.db.Order("total_score DESC, username ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var stats []models.UserStats
	err := query.Find(&stats).Error
	return stats, err
}

// ClearAll deletes every stats record. Used by the bulk reset endpoint.
func (r *StatsRepository) ClearAll() error {
	return r.db.Where("1 = 1").Delete(&models.UserStats{}).Error
}

// CountUsers returns the number of users with a stats record.
func (r *StatsRepository) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&models.UserStats{}).Count(&count).Error
	return count, err
}
