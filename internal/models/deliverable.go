package models

// Deliverable review states.
const (
	DeliverableStatusPending  = "pending"
	DeliverableStatusApproved = "approved"
	DeliverableStatusRevision = "revision"
)

// Deliverable is work submitted by a task assignee for the project owner to review.
type Deliverable struct {
	BaseModel

	TaskID        string `gorm:"type:uuid;not null;index" json:"task_id"`
	Title         string `gorm:"not null" json:"title"`
	Description   string `gorm:"type:text" json:"description"`
	SubmittedByID string `gorm:"type:uuid;not null;index" json:"submitted_by_id"`
	Status        string `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	Feedback      string `gorm:"type:text" json:"feedback"`
	RevisionCount int    `gorm:"not null;default:0" json:"revision_count"`

	Task        *Task             `gorm:"foreignKey:TaskID" json:"-"`
	SubmittedBy *User             `gorm:"foreignKey:SubmittedByID;constraint:OnDelete:CASCADE" json:"-"`
	Files       []DeliverableFile `gorm:"foreignKey:DeliverableID;constraint:OnDelete:CASCADE" json:"files"`
}

// DeliverableFile records metadata for a file held in external media storage.
type DeliverableFile struct {
	BaseModel

	DeliverableID string `gorm:"type:uuid;not null;index" json:"deliverable_id"`
	Name          string `gorm:"not null" json:"name"`
	URL           string `gorm:"type:text;not null" json:"url"`
	Size          int64  `json:"size"`
	FileType      string `gorm:"type:varchar(128)" json:"file_type"`
}
