package models

import (
	"time"
)

// Request statuses.
const (
	RequestOpen      = "open"
	RequestFulfilled = "fulfilled"
)

// LeakRequest is a community request for a prompt that has not been leaked yet,
// optionally backed by a point bounty.
type LeakRequest struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TargetType    string    `gorm:"size:50;default:model" json:"target_type"`
	Instance      string    `gorm:"not null;size:255" json:"instance"`
	TargetURL     string    `gorm:"size:2048" json:"target_url,omitempty"`
	Description   string    `gorm:"type:text" json:"description,omitempty"`
	Bounty        int       `gorm:"not null;default:0" json:"bounty"`
	RequestedBy   string    `gorm:"not null;size:255" json:"requested_by"`
	RequiresLogin bool      `json:"requires_login"`
	RequiresPaid  bool      `json:"requires_paid"`
	Votes         int       `gorm:"not null;default:0" json:"votes"`
	Status        string    `gorm:"size:50;default:open" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for LeakRequest model.
func (LeakRequest) TableName() string {
	return "leak_requests"
}

// RequestVote records one user's vote for a request. Voting is a toggle, so a
// row may be deleted again; the (username, request_id) pair is unique.
type RequestVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"not null;uniqueIndex:idx_request_vote;size:255" json:"username"`
	RequestID uint      `gorm:"not null;uniqueIndex:idx_request_vote;index" json:"request_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for RequestVote model.
func (RequestVote) TableName() string {
	return "request_votes"
}
