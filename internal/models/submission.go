// Package models defines domain models for the LeakHub platform.
package models

import (
	"fmt"
	"time"
)

// Target types a leaked prompt can belong to.
const (
	TargetModel  = "model"
	TargetApp    = "app"
	TargetTool   = "tool"
	TargetAgent  = "agent"
	TargetPlugin = "plugin"
	TargetCustom = "custom"
)

// ValidTargetType reports whether t is one of the known target types.
func ValidTargetType(t string) bool {
	switch t {
	case TargetModel, TargetApp, TargetTool, TargetAgent, TargetPlugin, TargetCustom:
		return true
	}
	return false
}

// Submission represents a leaked system prompt submitted by a user.
type Submission struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Source       string `gorm:"not null;index;size:255" json:"source"`
	TargetType   string `gorm:"size:50;default:model" json:"target_type"`
	Instance     string `gorm:"not null;index;size:255" json:"instance"`
	FunctionName string `gorm:"size:255" json:"function_name,omitempty"`
	ParentSystem string `gorm:"size:255" json:"parent_system,omitempty"`
	TargetURL    string `gorm:"size:2048" json:"target_url,omitempty"`

	Content     string `gorm:"type:text;not null" json:"content"`
	Context     string `gorm:"type:text" json:"context,omitempty"`
	HasTools    bool   `json:"has_tools"`
	ToolPrompts string `gorm:"type:text" json:"tool_prompts,omitempty"`

	RequiresLogin bool   `json:"requires_login"`
	RequiresPaid  bool   `json:"requires_paid"`
	AccessNotes   string `gorm:"type:text" json:"access_notes,omitempty"`

	Confidence       int  `gorm:"not null;default:0" json:"confidence"`
	Verifications    int  `gorm:"not null;default:0" json:"verifications"`
	WasVerified      bool `gorm:"not null;default:false" json:"was_verified"`
	IsFirstDiscovery bool `gorm:"not null;default:false" json:"is_first_discovery"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Submission model.
func (Submission) TableName() string {
	return "submissions"
}

// NormalizedTargetType returns the submission's target type, falling back to
// "model" for records created before target types existed.
func (s *Submission) NormalizedTargetType() string {
	if s.TargetType == "" {
		return TargetModel
	}
	return s.TargetType
}

// TargetKey builds the composite identifier used for first-discovery detection:
// targetType:instance[:functionName].
func (s *Submission) TargetKey() string {
	key := fmt.Sprintf("%s:%s", s.NormalizedTargetType(), s.Instance)
	if s.FunctionName != "" {
		key += ":" + s.FunctionName
	}
	return key
}

// IsVerified reports whether the submission has reached the terminal verified state.
func (s *Submission) IsVerified() bool {
	return s.WasVerified && s.Confidence >= VerifiedConfidence
}

// Confidence thresholds for the verification state machine.
const (
	// MaxConfidence is the saturation ceiling for comparison boosts.
	MaxConfidence = 100
	// VerifiedConfidence is the confidence a submission must reach to become verified.
	VerifiedConfidence = 95
	// InitialConfidenceCap bounds heuristic confidence until a comparison corroborates it.
	InitialConfidenceCap = 90
)
