package models

import "time"

// Group attachment kinds.
const (
	GroupFileImage    = "image"
	GroupFileVideo    = "video"
	GroupFileDocument = "document"
)

// Group is a multi-member chat room. While it has members at least one is an admin.
type Group struct {
	BaseModel

	Name      string `gorm:"not null" json:"name"`
	AvatarURL string `json:"avatar_url"`
	CreatorID string `gorm:"type:uuid;not null;index" json:"creator_id"`

	Members  []GroupMember  `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Messages []GroupMessage `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
}

// GroupMember is a user's membership in a group.
type GroupMember struct {
	BaseModel

	GroupID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_group_members_pair" json:"group_id"`
	UserID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_group_members_pair;index" json:"user_id"`
	IsAdmin  bool      `gorm:"default:false" json:"is_admin"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// GroupMessage is a message posted in a group, optionally with an attachment or a reply target.
type GroupMessage struct {
	BaseModel

	GroupID   string  `gorm:"type:uuid;not null;index" json:"group_id"`
	SenderID  string  `gorm:"type:uuid;not null" json:"sender_id"`
	Content   string  `gorm:"type:text" json:"content"`
	FileURL   string  `gorm:"type:text" json:"file_url"`
	FileName  string  `json:"file_name"`
	FileType  string  `gorm:"type:varchar(16)" json:"file_type"`
	ReplyToID *string `gorm:"type:uuid" json:"reply_to_id"`

	Sender  *User              `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
	ReplyTo *GroupMessage      `gorm:"foreignKey:ReplyToID;constraint:OnDelete:SET NULL" json:"-"`
	Reads   []GroupMessageRead `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
}

// GroupMessageRead is a read receipt.
type GroupMessageRead struct {
	BaseModel

	MessageID string    `gorm:"type:uuid;not null;uniqueIndex:idx_group_message_reads_pair" json:"message_id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_group_message_reads_pair" json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}
