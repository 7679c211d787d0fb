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
	// ErrProjectNotFound is returned for missing projects and projects owned by someone else.
	ErrProjectNotFound = apperrors.New("PROJECT_NOT_FOUND", "Project not found", http.StatusNotFound)
	// ErrSampleNotFound is returned for missing samples and samples on foreign projects.
	ErrSampleNotFound = apperrors.New("SAMPLE_NOT_FOUND", "Sample not found", http.StatusNotFound)
)

var projectStatuses = []string{models.ProjectStatusPending, models.ProjectStatusInProgress, models.ProjectStatusCompleted}

// ProjectInput describes a new project.
type ProjectInput struct {
	Name        string
	Description string
	DueDate     *time.Time
	Status      string
}

// UpdateProjectInput enumerates mutable project attributes.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	DueDate     *time.Time
	ClearDue    bool
	Status      *string
}

// SampleInput describes a reference attached to a project.
type SampleInput struct {
	Name        string
	Type        string
	URL         string
	Description string
}

// ProjectDTO is a project with task progress counters.
type ProjectDTO struct {
	ID             string     `json:"id"`
	CreatorID      string     `json:"creator_id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	DueDate        *time.Time `json:"due_date"`
	Status         string     `json:"status"`
	TaskCount      int64      `json:"task_count"`
	CompletedTasks int64      `json:"completed_tasks"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ProjectService manages creator owned projects and their samples.
type ProjectService struct {
	db *gorm.DB
}

// NewProjectService constructs a ProjectService.
func NewProjectService(db *gorm.DB) (*ProjectService, error) {
	if db == nil {
		return nil, errors.New("project service: db is required")
	}
	return &ProjectService{db: db}, nil
}

// Create persists a project owned by the creator.
func (s *ProjectService) Create(ctx context.Context, creator *Creator, input ProjectInput) (*ProjectDTO, error) {
	ctx = ensureContext(ctx)
	if creator == nil {
		return nil, ErrCreatorRequired
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("project name is required")
	}
	status := defaultIfEmpty(strings.TrimSpace(input.Status), models.ProjectStatusPending)
	if !containsString(projectStatuses, status) {
		return nil, apperrors.NewBadRequest("invalid project status")
	}

	project := &models.Project{
		CreatorID:   creator.ID(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		DueDate:     input.DueDate,
		Status:      status,
	}
	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, fmt.Errorf("project service: create: %w", err)
	}

	dto := mapProject(project, taskCounts{})
	return &dto, nil
}

// List returns the creator's projects, newest first.
func (s *ProjectService) List(ctx context.Context, creator *Creator) ([]ProjectDTO, error) {
	ctx = ensureContext(ctx)
	if creator == nil {
		return nil, ErrCreatorRequired
	}

	var projects []models.Project
	if err := s.db.WithContext(ctx).
		Where("creator_id = ?", creator.ID()).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project service: list: %w", err)
	}

	ids := make([]string, 0, len(projects))
	for _, project := range projects {
		ids = append(ids, project.ID)
	}
	counts, err := s.countTasks(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]ProjectDTO, 0, len(projects))
	for i := range projects {
		result = append(result, mapProject(&projects[i], counts[projects[i].ID]))
	}
	return result, nil
}

// Get returns a single project owned by the creator.
func (s *ProjectService) Get(ctx context.Context, creator *Creator, projectID string) (*ProjectDTO, error) {
	ctx = ensureContext(ctx)

	project, err := s.loadOwned(ctx, s.db, creator, projectID)
	if err != nil {
		return nil, err
	}
	counts, err := s.countTasks(ctx, []string{project.ID})
	if err != nil {
		return nil, err
	}
	dto := mapProject(project, counts[project.ID])
	return &dto, nil
}

// Update applies changes to a project owned by the creator.
func (s *ProjectService) Update(ctx context.Context, creator *Creator, projectID string, input UpdateProjectInput) (*ProjectDTO, error) {
	ctx = ensureContext(ctx)

	project, err := s.loadOwned(ctx, s.db, creator, projectID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, apperrors.NewBadRequest("project name cannot be empty")
	}
	applyString(&project.Name, input.Name)
	applyString(&project.Description, input.Description)
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if !containsString(projectStatuses, status) {
			return nil, apperrors.NewBadRequest("invalid project status")
		}
		project.Status = status
	}
	switch {
	case input.ClearDue:
		project.DueDate = nil
	case input.DueDate != nil:
		project.DueDate = input.DueDate
	}

	if err := s.db.WithContext(ctx).Save(project).Error; err != nil {
		return nil, fmt.Errorf("project service: update: %w", err)
	}
	return s.Get(ctx, creator, project.ID)
}

// Delete removes a project together with its tasks and samples.
func (s *ProjectService) Delete(ctx context.Context, creator *Creator, projectID string) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := s.loadOwned(ctx, tx, creator, projectID)
		if err != nil {
			return err
		}

		// Cascade by hand so sqlite without foreign key enforcement behaves the same.
		tasks := tx.Model(&models.Task{}).Select("id").Where("project_id = ?", project.ID)
		deliverables := tx.Model(&models.Deliverable{}).Select("id").Where("task_id IN (?)", tasks)
		steps := []func() error{
			func() error {
				return tx.Where("deliverable_id IN (?)", deliverables).Delete(&models.DeliverableFile{}).Error
			},
			func() error { return tx.Where("task_id IN (?)", tasks).Delete(&models.Deliverable{}).Error },
			func() error { return tx.Where("task_id IN (?)", tasks).Delete(&models.CalendarSyncedTask{}).Error },
			func() error { return tx.Where("project_id = ?", project.ID).Delete(&models.Task{}).Error },
			func() error { return tx.Where("project_id = ?", project.ID).Delete(&models.ProjectSample{}).Error },
			func() error { return tx.Delete(project).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return fmt.Errorf("project service: delete: %w", err)
			}
		}
		return nil
	})
}

// ListSamples returns samples attached to a project owned by the creator.
func (s *ProjectService) ListSamples(ctx context.Context, creator *Creator, projectID string) ([]models.ProjectSample, error) {
	ctx = ensureContext(ctx)

	project, err := s.loadOwned(ctx, s.db, creator, projectID)
	if err != nil {
		return nil, err
	}

	var samples []models.ProjectSample
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", project.ID).
		Order("created_at ASC").
		Find(&samples).Error; err != nil {
		return nil, fmt.Errorf("project service: list samples: %w", err)
	}
	return samples, nil
}

// AddSample attaches a file or link to a project owned by the creator.
func (s *ProjectService) AddSample(ctx context.Context, creator *Creator, projectID string, input SampleInput) (*models.ProjectSample, error) {
	ctx = ensureContext(ctx)

	project, err := s.loadOwned(ctx, s.db, creator, projectID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("sample name is required")
	}
	kind := defaultIfEmpty(strings.ToLower(strings.TrimSpace(input.Type)), models.SampleTypeLink)
	if kind != models.SampleTypeFile && kind != models.SampleTypeLink {
		return nil, apperrors.NewBadRequest("sample type must be file or link")
	}

	sample := &models.ProjectSample{
		ProjectID:   project.ID,
		Name:        name,
		Type:        kind,
		URL:         strings.TrimSpace(input.URL),
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.db.WithContext(ctx).Create(sample).Error; err != nil {
		return nil, fmt.Errorf("project service: add sample: %w", err)
	}
	return sample, nil
}

// DeleteSample removes a sample from a project owned by the creator.
func (s *ProjectService) DeleteSample(ctx context.Context, creator *Creator, sampleID string) error {
	ctx = ensureContext(ctx)
	if creator == nil {
		return ErrCreatorRequired
	}

	res := s.db.WithContext(ctx).
		Where("id = ? AND project_id IN (?)", strings.TrimSpace(sampleID), ownedProjectIDs(s.db.WithContext(ctx), creator.ID())).
		Delete(&models.ProjectSample{})
	if res.Error != nil {
		return fmt.Errorf("project service: delete sample: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSampleNotFound
	}
	return nil
}

func (s *ProjectService) loadOwned(ctx context.Context, db *gorm.DB, creator *Creator, projectID string) (*models.Project, error) {
	if creator == nil {
		return nil, ErrCreatorRequired
	}
	return loadOwnedProject(ctx, db, creator.ID(), projectID)
}

func loadOwnedProject(ctx context.Context, db *gorm.DB, creatorID, projectID string) (*models.Project, error) {
	var project models.Project
	err := db.WithContext(ctx).
		Where("id = ? AND creator_id = ?", strings.TrimSpace(projectID), creatorID).
		First(&project).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("project service: load project: %w", err)
	}
	return &project, nil
}

type taskCounts struct {
	Total     int64
	Completed int64
}

func (s *ProjectService) countTasks(ctx context.Context, projectIDs []string) (map[string]taskCounts, error) {
	counts := make(map[string]taskCounts, len(projectIDs))
	if len(projectIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ProjectID string
		Total     int64
		Completed int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Select("project_id, COUNT(*) AS total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed", models.TaskStatusCompleted).
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("project service: count tasks: %w", err)
	}

	for _, row := range rows {
		counts[row.ProjectID] = taskCounts{Total: row.Total, Completed: row.Completed}
	}
	return counts, nil
}

func mapProject(project *models.Project, counts taskCounts) ProjectDTO {
	return ProjectDTO{
		ID:             project.ID,
		CreatorID:      project.CreatorID,
		Name:           project.Name,
		Description:    project.Description,
		DueDate:        project.DueDate,
		Status:         project.Status,
		TaskCount:      counts.Total,
		CompletedTasks: counts.Completed,
		CreatedAt:      project.CreatedAt,
		UpdatedAt:      project.UpdatedAt,
	}
}
