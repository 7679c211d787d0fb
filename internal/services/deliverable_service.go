package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/onswift/backend/internal/models"
	apperrors "github.com/onswift/backend/pkg/errors"
)

var (
	// ErrDeliverableNotFound is returned for deliverables outside the caller's scope.
	ErrDeliverableNotFound = apperrors.New("DELIVERABLE_NOT_FOUND", "Deliverable not found", http.StatusNotFound)
	// ErrDeliverableLocked is returned when an approved deliverable is edited.
	ErrDeliverableLocked = apperrors.New("DELIVERABLE_LOCKED", "Only pending or revision deliverables can be updated", http.StatusBadRequest)
)

// FileInput describes file metadata stored alongside a deliverable.
type FileInput struct {
	Name     string
	URL      string
	Size     int64
	FileType string
}

// SubmitDeliverableInput describes work submitted for a task.
type SubmitDeliverableInput struct {
	TaskID      string
	Title       string
	Description string
	Files       []FileInput
}

// UpdateDeliverableInput enumerates mutable deliverable attributes. A non-nil
// Files replaces the attached files.
type UpdateDeliverableInput struct {
	Title       *string
	Description *string
	Files       []FileInput
}

// ReviewInput is the creator's verdict on a deliverable.
type ReviewInput struct {
	Status   string
	Feedback string
}

// DeliverableFilter narrows deliverable listings.
type DeliverableFilter struct {
	Status string
	TaskID string
}

// DeliverableDTO is a deliverable with task context and files.
type DeliverableDTO struct {
	ID            string                   `json:"id"`
	TaskID        string                   `json:"task_id"`
	TaskName      string                   `json:"task_name"`
	ProjectID     string                   `json:"project_id"`
	ProjectName   string                   `json:"project_name"`
	Title         string                   `json:"title"`
	Description   string                   `json:"description"`
	SubmittedByID string                   `json:"submitted_by_id"`
	SubmittedBy   *UserSummary             `json:"submitted_by,omitempty"`
	Status        string                   `json:"status"`
	Feedback      string                   `json:"feedback"`
	RevisionCount int                      `json:"revision_count"`
	Files         []models.DeliverableFile `json:"files"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// DeliverableService runs the submit and review cycle for task deliverables.
type DeliverableService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewDeliverableService constructs a DeliverableService.
func NewDeliverableService(db *gorm.DB, notifications *NotificationService) (*DeliverableService, error) {
	if db == nil {
		return nil, errors.New("deliverable service: db is required")
	}
	if notifications == nil {
		return nil, errors.New("deliverable service: notification service is required")
	}
	return &DeliverableService{db: db, notifications: notifications}, nil
}

// Submit records a deliverable from the task assignee and notifies the project owner.
func (s *DeliverableService) Submit(ctx context.Context, talent *Talent, input SubmitDeliverableInput) (*DeliverableDTO, error) {
	ctx = ensureContext(ctx)
	if talent == nil {
		return nil, ErrTalentRequired
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	files, err := buildFiles(input.Files)
	if err != nil {
		return nil, err
	}

	deliverable := &models.Deliverable{
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		SubmittedByID: talent.ID(),
		Status:        models.DeliverableStatusPending,
		Files:         files,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := loadScopedTask(ctx, tx, talent, input.TaskID)
		if err != nil {
			return err
		}
		deliverable.TaskID = task.ID

		if err := tx.Create(deliverable).Error; err != nil {
			return fmt.Errorf("deliverable service: create: %w", err)
		}

		if task.Project == nil {
			return nil
		}
		_, err = s.notifications.Notify(ctx, tx, NotifyInput{
			UserID:  task.Project.CreatorID,
			Title:   "New Deliverable Submitted",
			Message: fmt.Sprintf("%s submitted \"%s\" for %s.", talent.DisplayName(), title, task.Name),
			Type:    models.NotificationTypeSystem,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, talent, deliverable.ID)
}

// List returns deliverables visible to the actor, newest first.
func (s *DeliverableService) List(ctx context.Context, actor Actor, filter DeliverableFilter) ([]DeliverableDTO, error) {
	ctx = ensureContext(ctx)
	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}

	query := s.scoped(ctx, s.db, actor)
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("deliverables.status = ?", status)
	}
	if taskID := strings.TrimSpace(filter.TaskID); taskID != "" {
		query = query.Where("deliverables.task_id = ?", taskID)
	}

	var rows []models.Deliverable
	if err := query.Order("deliverables.created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("deliverable service: list: %w", err)
	}

	result := make([]DeliverableDTO, 0, len(rows))
	for i := range rows {
		result = append(result, mapDeliverable(&rows[i]))
	}
	return result, nil
}

// Get returns one deliverable visible to the actor.
func (s *DeliverableService) Get(ctx context.Context, actor Actor, deliverableID string) (*DeliverableDTO, error) {
	ctx = ensureContext(ctx)

	deliverable, err := s.load(ctx, s.db, actor, deliverableID)
	if err != nil {
		return nil, err
	}
	dto := mapDeliverable(deliverable)
	return &dto, nil
}

// Update lets the submitter revise a pending or revision deliverable. Updating
// a deliverable sent back for revision puts it back into review.
func (s *DeliverableService) Update(ctx context.Context, talent *Talent, deliverableID string, input UpdateDeliverableInput) (*DeliverableDTO, error) {
	ctx = ensureContext(ctx)
	if talent == nil {
		return nil, ErrTalentRequired
	}

	var files []models.DeliverableFile
	if input.Files != nil {
		var err error
		if files, err = buildFiles(input.Files); err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deliverable, err := s.load(ctx, tx, talent, deliverableID)
		if err != nil {
			return err
		}
		if deliverable.Status == models.DeliverableStatusApproved {
			return ErrDeliverableLocked
		}

		if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
			return apperrors.NewBadRequest("title cannot be empty")
		}
		applyString(&deliverable.Title, input.Title)
		applyString(&deliverable.Description, input.Description)

		res := tx.Model(&models.Deliverable{}).
			Where("id = ? AND status IN ?", deliverable.ID, []string{models.DeliverableStatusPending, models.DeliverableStatusRevision}).
			Updates(map[string]any{
				"title":       deliverable.Title,
				"description": deliverable.Description,
				"status":      models.DeliverableStatusPending,
			})
		if res.Error != nil {
			return fmt.Errorf("deliverable service: update: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrDeliverableLocked
		}

		if input.Files == nil {
			return nil
		}
		if err := tx.Where("deliverable_id = ?", deliverable.ID).Delete(&models.DeliverableFile{}).Error; err != nil {
			return fmt.Errorf("deliverable service: replace files: %w", err)
		}
		for i := range files {
			files[i].DeliverableID = deliverable.ID
		}
		if len(files) > 0 {
			if err := tx.Create(&files).Error; err != nil {
				return fmt.Errorf("deliverable service: replace files: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, talent, deliverableID)
}

// Review approves a deliverable or sends it back for revision, notifying the submitter.
func (s *DeliverableService) Review(ctx context.Context, creator *Creator, deliverableID string, input ReviewInput) (*DeliverableDTO, error) {
	ctx = ensureContext(ctx)
	if creator == nil {
		return nil, ErrCreatorRequired
	}

	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status != models.DeliverableStatusApproved && status != models.DeliverableStatusRevision {
		return nil, apperrors.NewBadRequest("status must be approved or revision")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deliverable, err := s.load(ctx, tx, creator, deliverableID)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"status":   status,
			"feedback": strings.TrimSpace(input.Feedback),
		}
		if status == models.DeliverableStatusRevision {
			updates["revision_count"] = gorm.Expr("revision_count + ?", 1)
		}
		if err := tx.Model(&models.Deliverable{}).Where("id = ?", deliverable.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("deliverable service: review: %w", err)
		}

		title, message := "Deliverable Approved", fmt.Sprintf("%s approved \"%s\".", creator.DisplayName(), deliverable.Title)
		if status == models.DeliverableStatusRevision {
			title, message = "Revision Requested", fmt.Sprintf("%s requested changes to \"%s\".", creator.DisplayName(), deliverable.Title)
		}
		_, err = s.notifications.Notify(ctx, tx, NotifyInput{
			UserID:  deliverable.SubmittedByID,
			Title:   title,
			Message: message,
			Type:    models.NotificationTypeSystem,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, creator, deliverableID)
}

func (s *DeliverableService) scoped(ctx context.Context, db *gorm.DB, actor Actor) *gorm.DB {
	return db.WithContext(ctx).
		Model(&models.Deliverable{}).
		Scopes(actor.DeliverableScope).
		Preload("Task").
		Preload("Task.Project").
		Preload("SubmittedBy").
		Preload("Files", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
}

func (s *DeliverableService) load(ctx context.Context, db *gorm.DB, actor Actor, deliverableID string) (*models.Deliverable, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}

	var deliverable models.Deliverable
	err := s.scoped(ctx, db, actor).
		Where("deliverables.id = ?", strings.TrimSpace(deliverableID)).
		First(&deliverable).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrDeliverableNotFound
		}
		return nil, fmt.Errorf("deliverable service: load: %w", err)
	}
	return &deliverable, nil
}

func buildFiles(inputs []FileInput) ([]models.DeliverableFile, error) {
	files := make([]models.DeliverableFile, 0, len(inputs))
	for _, input := range inputs {
		name := strings.TrimSpace(input.Name)
		url := strings.TrimSpace(input.URL)
		if name == "" || url == "" {
			return nil, apperrors.NewBadRequest("each file needs a name and url")
		}
		if input.Size < 0 {
			return nil, apperrors.NewBadRequest("file size cannot be negative")
		}
		files = append(files, models.DeliverableFile{
			Name:     name,
			URL:      url,
			Size:     input.Size,
			FileType: strings.TrimSpace(input.FileType),
		})
	}
	return files, nil
}

func mapDeliverable(deliverable *models.Deliverable) DeliverableDTO {
	dto := DeliverableDTO{
		ID:            deliverable.ID,
		TaskID:        deliverable.TaskID,
		Title:         deliverable.Title,
		Description:   deliverable.Description,
		SubmittedByID: deliverable.SubmittedByID,
		SubmittedBy:   summariseUser(deliverable.SubmittedBy),
		Status:        deliverable.Status,
		Feedback:      deliverable.Feedback,
		RevisionCount: deliverable.RevisionCount,
		Files:         deliverable.Files,
		CreatedAt:     deliverable.CreatedAt,
		UpdatedAt:     deliverable.UpdatedAt,
	}
	if dto.Files == nil {
		dto.Files = []models.DeliverableFile{}
	}
	if task := deliverable.Task; task != nil {
		dto.TaskName = task.Name
		dto.ProjectID = task.ProjectID
		if task.Project != nil {
			dto.ProjectName = task.Project.Name
		}
	}
	return dto
}
