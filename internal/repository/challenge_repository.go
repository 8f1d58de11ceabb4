package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ranz0c/leakhub/internal/models"
)

// ChallengeRepository handles daily challenge database operations.
type ChallengeRepository struct {
	db *DB
}

// NewChallengeRepository creates a new challenge repository.
func NewChallengeRepository(db *DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// Create creates a new daily challenge.
func (r *ChallengeRepository) Create(challenge *models.DailyChallenge) error {
	return r.db.Create(challenge).Error
}

// GetActive retrieves the newest challenge that has not expired yet.
// Returns nil without error when there is no active challenge.
func (r *ChallengeRepository) GetActive(now time.Time) (*models.DailyChallenge, error) {
	var challenge models.DailyChallenge
	err := r.db.
		Where("expires_at > ?", now).
		Order("created_at DESC").
		First(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

// HasCompleted checks if a user already completed a challenge.
func (r *ChallengeRepository) HasCompleted(username string, challengeID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.ChallengeCompletion{}).
		Where("username = ? AND challenge_id = ?", username, challengeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkCompleted records that a user completed a challenge.
// Returns nil if the completion was already recorded.
func (r *ChallengeRepository) MarkCompleted(username string, challengeID uint) error {
	exists, err := r.HasCompleted(username, challengeID)
	if err != nil {
		return err
	}
	if exists {
		// Idempotent: already completed, return success
		return nil
	}

	completion := &models.ChallengeCompletion{
		Username:    username,
		ChallengeID: challengeID,
		CompletedAt: time.Now(),
	}
	return r.db.Create(completion).Error
}

// CountCompletions returns the number of users who completed a challenge.
func (r *ChallengeRepository) CountCompletions(challengeID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ChallengeCompletion{}).
		Where("challenge_id = ?", challengeID).
		Count(&count).Error
	return count, err
}
