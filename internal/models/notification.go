package models

// Notification types.
const (
	NotificationTypeHire   = "hire"
	NotificationTypeSystem = "system"
)

// Notification is an append-only message addressed to one user. Only IsRead changes after insert.
type Notification struct {
	BaseModel

	UserID  string `gorm:"type:uuid;not null;index" json:"user_id"`
	Title   string `gorm:"type:varchar(255);not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`
	Type    string `gorm:"column:notification_type;type:varchar(16);not null;default:'system'" json:"notification_type"`
	IsRead  bool   `gorm:"default:false;index" json:"is_read"`

	HireRequestID *string `gorm:"type:uuid;index" json:"hire_request_id"`

	User        *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	HireRequest *HireRequest `gorm:"foreignKey:HireRequestID;constraint:OnDelete:SET NULL" json:"-"`
}
