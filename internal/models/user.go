package models

import (
	"time"
)

// UserStats tracks cumulative contribution counters and score for a user.
// A record is created lazily on the user's first scoring event and counters
// only ever grow afterwards.
type UserStats struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;not null;size:255" json:"username"`

	Submissions         int `gorm:"not null;default:0" json:"submissions"`
	FirstDiscoveries    int `gorm:"not null;default:0" json:"first_discoveries"`
	VerifiedLeaks       int `gorm:"not null;default:0" json:"verified_leaks"`
	Comparisons         int `gorm:"not null;default:0" json:"comparisons"`
	ChallengesCompleted int `gorm:"not null;default:0" json:"challenges_completed"`
	RequestsSubmitted   int `gorm:"not null;default:0" json:"requests_submitted"`

	ToolsDiscovered  int `gorm:"not null;default:0" json:"tools_discovered"`
	AppsDiscovered   int `gorm:"not null;default:0" json:"apps_discovered"`
	AgentsDiscovered int `gorm:"not null;default:0" json:"agents_discovered"`

	TotalScore int `gorm:"not null;default:0" json:"total_score"`

	JoinDate  time.Time `gorm:"not null" json:"join_date"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for UserStats model.
func (UserStats) TableName() string {
	return "user_stats"
}
