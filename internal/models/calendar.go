package models

import "time"

// CalendarConnection stores a user's calendar OAuth grant. Token fields hold
// AES-GCM ciphertext, never plaintext.
type CalendarConnection struct {
	BaseModel

	UserID       string    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	AccessToken  string    `gorm:"type:text;not null" json:"-"`
	RefreshToken string    `gorm:"type:text" json:"-"`
	TokenType    string    `gorm:"type:varchar(32)" json:"token_type"`
	Expiry       time.Time `json:"expiry"`
	Scopes       string    `gorm:"type:text" json:"scopes"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// CalendarSyncedTask maps a task to the event created for it in a user's calendar.
type CalendarSyncedTask struct {
	BaseModel

	TaskID          string    `gorm:"type:uuid;not null;uniqueIndex:idx_calendar_synced_pair" json:"task_id"`
	UserID          string    `gorm:"type:uuid;not null;uniqueIndex:idx_calendar_synced_pair;index" json:"user_id"`
	ExternalEventID string    `gorm:"not null" json:"external_event_id"`
	SyncedAt        time.Time `json:"synced_at"`

	Task *Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"task,omitempty"`
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
