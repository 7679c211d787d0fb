package models

import "time"

// Task statuses.
const (
	TaskStatusPlanning   = "planning"
	TaskStatusInProgress = "in-progress"
	TaskStatusCompleted  = "completed"
)

// Task belongs to a project and is optionally assigned to a talent on the owner's team.
type Task struct {
	BaseModel

	ProjectID   string     `gorm:"type:uuid;not null;index" json:"project_id"`
	Name        string     `gorm:"not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	AssigneeID  *string    `gorm:"type:uuid;index" json:"assignee_id"`
	Status      string     `gorm:"type:varchar(16);not null;default:'planning'" json:"status"`
	Deadline    *time.Time `json:"deadline"`

	Project      *Project      `gorm:"foreignKey:ProjectID" json:"-"`
	Assignee     *User         `gorm:"foreignKey:AssigneeID;constraint:OnDelete:SET NULL" json:"assignee,omitempty"`
	Deliverables []Deliverable `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
}
