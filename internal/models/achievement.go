package models

import (
	"time"
)

// Achievement describes one entry of the fixed badge catalog. The catalog
// itself lives in code (service/achievements); only unlock state is persisted.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Points      int    `json:"points"`
}

// UserAchievement records that a user unlocked an achievement. The
// (username, achievement_id) pair is unique so an unlock can happen only once.
type UserAchievement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"not null;uniqueIndex:idx_user_achievement;size:255" json:"username"`
	AchievementID string    `gorm:"not null;uniqueIndex:idx_user_achievement;size:50" json:"achievement_id"`
	UnlockedAt    time.Time `gorm:"not null" json:"unlocked_at"`
}

// TableName specifies the table name for UserAchievement model.
func (UserAchievement) TableName() string {
	return "user_achievements"
}
