package models

import "time"

// Project statuses.
const (
	ProjectStatusPending    = "pending"
	ProjectStatusInProgress = "in-progress"
	ProjectStatusCompleted  = "completed"
)

// Sample types.
const (
	SampleTypeFile = "file"
	SampleTypeLink = "link"
)

// Project is owned by a creator and groups tasks.
type Project struct {
	BaseModel

	CreatorID   string     `gorm:"type:uuid;not null;index" json:"creator_id"`
	Name        string     `gorm:"not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Status      string     `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`

	Creator *User           `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"-"`
	Tasks   []Task          `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Samples []ProjectSample `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"samples,omitempty"`
}

// ProjectSample is a reference file or link attached to a project brief.
type ProjectSample struct {
	BaseModel

	ProjectID   string `gorm:"type:uuid;not null;index" json:"project_id"`
	Name        string `gorm:"not null" json:"name"`
	Type        string `gorm:"column:sample_type;type:varchar(8);not null" json:"sample_type"`
	URL         string `gorm:"type:text" json:"url"`
	Description string `gorm:"type:text" json:"description"`
}
