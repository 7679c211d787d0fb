package models

// Conversation is a direct thread between exactly two users. PairKey is the
// sorted participant ids joined by ':' so a pair can only hold one thread.
type Conversation struct {
	BaseModel

	PairKey string `gorm:"type:varchar(80);uniqueIndex;not null" json:"-"`

	Participants []User    `gorm:"many2many:conversation_participants;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	Messages     []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
}

// Message is a single direct message. RecipientID is denormalised so unread
// counts do not need the participant join.
type Message struct {
	BaseModel

	ConversationID string `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       string `gorm:"type:uuid;not null" json:"sender_id"`
	RecipientID    string `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Content        string `gorm:"type:text;not null" json:"content"`
	IsRead         bool   `gorm:"default:false;index" json:"is_read"`

	Sender *User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
}
