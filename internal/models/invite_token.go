package models

import "time"

// InviteToken is a single-use onboarding link issued by a creator. Tokens are
// never deleted; redemption only flips IsUsed.
type InviteToken struct {
	BaseModel

	Token        string     `gorm:"type:varchar(128);uniqueIndex;not null" json:"token"`
	CreatorID    string     `gorm:"type:uuid;not null;index" json:"creator_id"`
	InvitedEmail *string    `json:"invited_email"`
	IsUsed       bool       `gorm:"default:false;index" json:"is_used"`
	UsedByID     *string    `gorm:"type:uuid" json:"used_by_id"`
	UsedAt       *time.Time `json:"used_at"`
	ExpiresAt    time.Time  `gorm:"index;not null" json:"expires_at"`

	Creator *User `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"creator,omitempty"`
	UsedBy  *User `gorm:"foreignKey:UsedByID;constraint:OnDelete:SET NULL" json:"-"`
}

// IsValid reports whether the token can still be redeemed at the given instant.
func (t *InviteToken) IsValid(now time.Time) bool {
	if t == nil || t.IsUsed {
		return false
	}
	return !now.After(t.ExpiresAt)
}
