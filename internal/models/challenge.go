package models

import (
	"time"
)

// DailyChallenge is the rotating "leak this target" challenge. Only one
// challenge is active at a time; a new one is drawn when the current expires.
type DailyChallenge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TargetModel string    `gorm:"not null;size:255" json:"target_model"`
	Reward      int       `gorm:"not null" json:"reward"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for DailyChallenge model.
func (DailyChallenge) TableName() string {
	return "daily_challenges"
}

// Active reports whether the challenge has not expired yet.
func (c *DailyChallenge) Active(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

// ChallengeCompletion records that a user completed a challenge. The
// (username, challenge_id) pair is unique so the reward pays out once.
type ChallengeCompletion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"not null;uniqueIndex:idx_challenge_completion;size:255" json:"username"`
	ChallengeID uint      `gorm:"not null;uniqueIndex:idx_challenge_completion;index" json:"challenge_id"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`
}

// TableName specifies the table name for ChallengeCompletion model.
func (ChallengeCompletion) TableName() string {
	return "challenge_completions"
}
