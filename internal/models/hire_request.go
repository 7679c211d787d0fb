package models

import "time"

// Hire request states. Accepted and rejected are terminal.
const (
	HireStatusPending  = "pending"
	HireStatusAccepted = "accepted"
	HireStatusRejected = "rejected"
)

// HireRequest links a creator to a talent. An accepted request is what makes
// the talent part of the creator's team.
type HireRequest struct {
	BaseModel

	CreatorID   string     `gorm:"type:uuid;not null;uniqueIndex:idx_hire_requests_pair" json:"creator_id"`
	TalentID    string     `gorm:"type:uuid;not null;uniqueIndex:idx_hire_requests_pair;index" json:"talent_id"`
	Message     string     `gorm:"type:text" json:"message"`
	Status      string     `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	RespondedAt *time.Time `json:"responded_at"`

	Creator *User `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"creator,omitempty"`
	Talent  *User `gorm:"foreignKey:TalentID;constraint:OnDelete:CASCADE" json:"talent,omitempty"`
}
