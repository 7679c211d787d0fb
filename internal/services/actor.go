package services

import (
	"gorm.io/gorm"

	"github.com/onswift/backend/internal/models"
)

// Actor is the authenticated user seen through their role. Role specific
// behaviour lives on the two implementations instead of in role checks.
type Actor interface {
	ID() string
	Role() string
	DisplayName() string
	User() *models.User

	// TaskScope narrows a task query to tasks the actor may see.
	TaskScope(db *gorm.DB) *gorm.DB
	// DeliverableScope narrows a deliverable query to deliverables the actor may see.
	DeliverableScope(db *gorm.DB) *gorm.DB
	// Collaborators lists users the actor works with through accepted hire requests.
	Collaborators(db *gorm.DB) ([]string, error)
}

// Creator is an actor who owns projects and hires talents.
type Creator struct {
	user *models.User
}

// Talent is an actor who receives hire requests and works on assigned tasks.
type Talent struct {
	user *models.User
}

// NewActor wraps user in the implementation matching its role.
func NewActor(user *models.User) (Actor, error) {
	switch {
	case user.IsCreator():
		return &Creator{user: user}, nil
	case user.IsTalent():
		return &Talent{user: user}, nil
	default:
		return nil, ErrForbiddenRole
	}
}

// AsCreator narrows an actor to a creator.
func AsCreator(actor Actor) (*Creator, error) {
	if creator, ok := actor.(*Creator); ok && creator != nil {
		return creator, nil
	}
	return nil, ErrCreatorRequired
}

// AsTalent narrows an actor to a talent.
func AsTalent(actor Actor) (*Talent, error) {
	if talent, ok := actor.(*Talent); ok && talent != nil {
		return talent, nil
	}
	return nil, ErrTalentRequired
}

func (c *Creator) ID() string          { return c.user.ID }
func (c *Creator) Role() string        { return models.RoleCreator }
func (c *Creator) DisplayName() string { return c.user.FullName }
func (c *Creator) User() *models.User  { return c.user }

func (c *Creator) TaskScope(db *gorm.DB) *gorm.DB {
	return db.Where("tasks.project_id IN (?)", ownedProjectIDs(db, c.user.ID))
}

func (c *Creator) DeliverableScope(db *gorm.DB) *gorm.DB {
	tasks := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Task{}).
		Select("id").
		Where("project_id IN (?)", ownedProjectIDs(db, c.user.ID))
	return db.Where("deliverables.task_id IN (?)", tasks)
}

func (c *Creator) Collaborators(db *gorm.DB) ([]string, error) {
	var ids []string
	err := db.Model(&models.HireRequest{}).
		Where("creator_id = ? AND status = ?", c.user.ID, models.HireStatusAccepted).
		Pluck("talent_id", &ids).Error
	return ids, err
}

func (t *Talent) ID() string          { return t.user.ID }
func (t *Talent) Role() string        { return models.RoleTalent }
func (t *Talent) DisplayName() string { return t.user.FullName }
func (t *Talent) User() *models.User  { return t.user }

func (t *Talent) TaskScope(db *gorm.DB) *gorm.DB {
	return db.Where("tasks.assignee_id = ?", t.user.ID)
}

func (t *Talent) DeliverableScope(db *gorm.DB) *gorm.DB {
	return db.Where("deliverables.submitted_by_id = ?", t.user.ID)
}

func (t *Talent) Collaborators(db *gorm.DB) ([]string, error) {
	var ids []string
	err := db.Model(&models.HireRequest{}).
		Where("talent_id = ? AND status = ?", t.user.ID, models.HireStatusAccepted).
		Pluck("creator_id", &ids).Error
	return ids, err
}

func ownedProjectIDs(db *gorm.DB, creatorID string) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Project{}).
		Select("id").
		Where("creator_id = ?", creatorID)
}
