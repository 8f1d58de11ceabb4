package repository

import (
	"time"

	"github.com/ranz0c/leakhub/internal/models"
)

// AchievementRepository handles achievement unlock database operations.
type AchievementRepository struct {
	db *DB
}

// NewAchievementRepository creates a new achievement repository.
func NewAchievementRepository(db *DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// HasUnlocked checks if a user has already unlocked an achievement.
func (r *AchievementRepository) HasUnlocked(username, achievementID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.UserAchievement{}).
		Where("username = ? AND achievement_id = ?", username, achievementID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Unlock records an achievement unlock for a user.
// Returns nil if the achievement was already unlocked.
func (r *AchievementRepository) Unlock(username, achievementID string) error {
	exists, err := r.HasUnlocked(username, achievementID)
	if err != nil {
		return err
	}
	if exists {
		// Idempotent: already unlocked, return success
		return nil
	}

	unlock := &models.UserAchievement{
		Username:      username,
		AchievementID: achievementID,
		UnlockedAt:    time.Now(),
	}
	return r.db.Create(unlock).Error
}

// ListByUser retrieves all achievements a user has unlocked, newest first.
func (r *AchievementRepository) ListByUser(username string) ([]models.UserAchievement, error) {
	var unlocks []models.UserAchievement
	err := r.db.
		Where("username = ?", username).
		Order("unlocked_at DESC").
		Find(&unlocks).Error
	return unlocks, err
}

// CountByUser returns the number of achievements a user has unlocked.
func (r *AchievementRepository) CountByUser(username string) (int64, error) {
	var count int64
	err := r.db.Model(&models.UserAchievement{}).
		Where("username = ?", username).
		Count(&count).Error
	return count, err
}

// GetRecentlyUnlocked retrieves unlocks within a time period across all users.
func (r *AchievementRepository) GetRecentlyUnlocked(since time.Time) ([]models.UserAchievement, error) {
	var unlocks []models.UserAchievement
	err := r.db.
		Where("unlocked_at >= ?", since).
		Order("unlocked_at DESC").
		Find(&unlocks).Error
	return unlocks, err
}
