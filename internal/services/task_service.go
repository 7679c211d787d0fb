package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/onswift/backend/internal/models"
	apperrors "github.com/onswift/backend/pkg/errors"
	"github.com/onswift/backend/pkg/logger"
)

var (
	// ErrTaskNotFound is returned for tasks outside the caller's scope.
	ErrTaskNotFound = apperrors.New("TASK_NOT_FOUND", "Task not found", http.StatusNotFound)
	// ErrAssigneeNotOnTeam is returned when the assignee has no accepted hire request from the owner.
	ErrAssigneeNotOnTeam = apperrors.New("ASSIGNEE_NOT_ON_TEAM", "assignee must be an accepted team member", http.StatusBadRequest)
)

var taskStatuses = []string{models.TaskStatusPlanning, models.TaskStatusInProgress, models.TaskStatusCompleted}

// TaskObserver is told about committed task changes. Implementations must not
// fail the caller; the calendar sync uses this to refresh events.
type TaskObserver interface {
	TaskChanged(ctx context.Context, task *models.Task)
	TaskRemoved(ctx context.Context, taskID string)
}

// TaskInput describes a new task.
type TaskInput struct {
	Name        string
	Description string
	AssigneeID  string
	Status      string
	Deadline    *time.Time
}

// UpdateTaskInput enumerates mutable task attributes. UnassignTask and
// ClearDeadline explicitly null their fields.
type UpdateTaskInput struct {
	Name          *string
	Description   *string
	AssigneeID    *string
	UnassignTask  bool
	Status        *string
	Deadline      *time.Time
	ClearDeadline bool
}

// TaskDTO is a task with its project name and assignee summary.
type TaskDTO struct {
	ID          string       `json:"id"`
	ProjectID   string       `json:"project_id"`
	ProjectName string       `json:"project_name"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	AssigneeID  *string      `json:"assignee_id"`
	Assignee    *UserSummary `json:"assignee,omitempty"`
	Status      string       `json:"status"`
	Deadline    *time.Time   `json:"deadline"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TaskOption customises TaskService behaviour.
type TaskOption func(*TaskService)

// WithTaskObserver registers an observer for committed task changes.
func WithTaskObserver(observer TaskObserver) TaskOption {
	return func(s *TaskService) {
		s.observer = observer
	}
}

// TaskService manages tasks within creator owned projects.
type TaskService struct {
	db            *gorm.DB
	notifications *NotificationService
	observer      TaskObserver
	log           *zap.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(db *gorm.DB, notifications *NotificationService, opts ...TaskOption) (*TaskService, error) {
	if db == nil {
		return nil, errors.New("task service: db is required")
	}
	if notifications == nil {
		return nil, errors.New("task service: notification service is required")
	}
	svc := &TaskService{db: db, notifications: notifications, log: logger.WithModule("tasks")}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// SetObserver registers the observer after construction. The calendar service
// depends on tasks, so it is wired in afterwards.
func (s *TaskService) SetObserver(observer TaskObserver) {
	s.observer = observer
}

// Create adds a task to a project owned by the creator, notifying the assignee.
func (s *TaskService) Create(ctx context.Context, creator *Creator, projectID string, input TaskInput) (*TaskDTO, error) {
	ctx = ensureContext(ctx)
	if creator == nil {
		return nil, ErrCreatorRequired
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("task name is required")
	}
	status := defaultIfEmpty(strings.TrimSpace(input.Status), models.TaskStatusPlanning)
	if !containsString(taskStatuses, status) {
		return nil, apperrors.NewBadRequest("invalid task status")
	}

	var task *models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := loadOwnedProject(ctx, tx, creator.ID(), projectID)
		if err != nil {
			return err
		}

		task = &models.Task{
			ProjectID:   project.ID,
			Name:        name,
			Description: strings.TrimSpace(input.Description),
			Status:      status,
			Deadline:    input.Deadline,
			Project:     project,
		}

		if assignee := strings.TrimSpace(input.AssigneeID); assignee != "" {
			if err := s.ensureTeamMember(tx, creator.ID(), assignee); err != nil {
				return err
			}
			task.AssigneeID = &assignee
		}

		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("task service: create: %w", err)
		}

		if task.AssigneeID != nil {
			return s.notifyAssignee(ctx, tx, creator, task, project)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, task.ID)
}

// ListForProject returns the tasks in a project owned by the creator.
func (s *TaskService) ListForProject(ctx context.Context, creator *Creator, projectID string) ([]TaskDTO, error) {
	ctx = ensureContext(ctx)
	if creator == nil {
		return nil, ErrCreatorRequired
	}

	project, err := loadOwnedProject(ctx, s.db, creator.ID(), projectID)
	if err != nil {
		return nil, err
	}

	var tasks []models.Task
	if err := s.db.WithContext(ctx).
		Preload("Project").
		Preload("Assignee").
		Where("project_id = ?", project.ID).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task service: list: %w", err)
	}
	return mapTasks(tasks), nil
}

// ListAssigned returns tasks assigned to the talent across all projects.
func (s *TaskService) ListAssigned(ctx context.Context, talent *Talent) ([]TaskDTO, error) {
	ctx = ensureContext(ctx)
	if talent == nil {
		return nil, ErrTalentRequired
	}

	var tasks []models.Task
	if err := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Scopes(talent.TaskScope).
		Preload("Project").
		Preload("Assignee").
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task service: list assigned: %w", err)
	}
	return mapTasks(tasks), nil
}

// Get returns a task visible to the actor: the project owner or the assignee.
func (s *TaskService) Get(ctx context.Context, actor Actor, taskID string) (*TaskDTO, error) {
	ctx = ensureContext(ctx)

	task, err := loadScopedTask(ctx, s.db, actor, taskID)
	if err != nil {
		return nil, err
	}
	dto := mapTask(task)
	return &dto, nil
}

// Update changes a task owned by the creator. A new assignee is notified in
// the same transaction; observers see the change after commit.
func (s *TaskService) Update(ctx context.Context, creator *Creator, taskID string, input UpdateTaskInput) (*TaskDTO, error) {
	ctx = ensureContext(ctx)
	if creator == nil {
		return nil, ErrCreatorRequired
	}

	var task *models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = loadScopedTask(ctx, tx, creator, taskID)
		if err != nil {
			return err
		}

		if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
			return apperrors.NewBadRequest("task name cannot be empty")
		}
		applyString(&task.Name, input.Name)
		applyString(&task.Description, input.Description)
		if input.Status != nil {
			status := strings.TrimSpace(*input.Status)
			if !containsString(taskStatuses, status) {
				return apperrors.NewBadRequest("invalid task status")
			}
			task.Status = status
		}
		switch {
		case input.ClearDeadline:
			task.Deadline = nil
		case input.Deadline != nil:
			task.Deadline = input.Deadline
		}

		reassigned := false
		switch {
		case input.UnassignTask:
			task.AssigneeID = nil
		case input.AssigneeID != nil:
			assignee := strings.TrimSpace(*input.AssigneeID)
			if assignee == "" {
				task.AssigneeID = nil
				break
			}
			if task.AssigneeID == nil || *task.AssigneeID != assignee {
				if err := s.ensureTeamMember(tx, creator.ID(), assignee); err != nil {
					return err
				}
				task.AssigneeID = &assignee
				reassigned = true
			}
		}

		updates := map[string]any{
			"name":        task.Name,
			"description": task.Description,
			"status":      task.Status,
			"deadline":    task.Deadline,
			"assignee_id": task.AssigneeID,
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("task service: update: %w", err)
		}

		if reassigned {
			return s.notifyAssignee(ctx, tx, creator, task, task.Project)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto, err := s.reload(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if s.observer != nil {
		fresh, loadErr := loadScopedTask(ctx, s.db, creator, task.ID)
		if loadErr == nil {
			s.observer.TaskChanged(ctx, fresh)
		} else {
			s.log.Warn("reload task for observers failed", zap.String("task_id", task.ID), zap.Error(loadErr))
		}
	}
	return dto, nil
}

// Delete removes a task owned by the creator with its deliverables.
func (s *TaskService) Delete(ctx context.Context, creator *Creator, taskID string) error {
	ctx = ensureContext(ctx)
	if creator == nil {
		return ErrCreatorRequired
	}

	// Remote calendar events go first, while the sync rows still exist.
	task, err := loadScopedTask(ctx, s.db, creator, taskID)
	if err != nil {
		return err
	}
	if s.observer != nil {
		s.observer.TaskRemoved(ctx, task.ID)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deliverables := tx.Model(&models.Deliverable{}).Select("id").Where("task_id = ?", task.ID)
		if err := tx.Where("deliverable_id IN (?)", deliverables).Delete(&models.DeliverableFile{}).Error; err != nil {
			return fmt.Errorf("task service: delete files: %w", err)
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.Deliverable{}).Error; err != nil {
			return fmt.Errorf("task service: delete deliverables: %w", err)
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.CalendarSyncedTask{}).Error; err != nil {
			return fmt.Errorf("task service: delete calendar rows: %w", err)
		}
		if err := tx.Where("id = ?", task.ID).Delete(&models.Task{}).Error; err != nil {
			return fmt.Errorf("task service: delete: %w", err)
		}
		return nil
	})
}

func (s *TaskService) ensureTeamMember(tx *gorm.DB, creatorID, talentID string) error {
	ok, err := isTeamMember(tx, creatorID, talentID)
	if err != nil {
		return fmt.Errorf("task service: check team: %w", err)
	}
	if !ok {
		return ErrAssigneeNotOnTeam
	}
	return nil
}

func (s *TaskService) notifyAssignee(ctx context.Context, tx *gorm.DB, creator *Creator, task *models.Task, project *models.Project) error {
	projectName := ""
	if project != nil {
		projectName = project.Name
	}
	_, err := s.notifications.Notify(ctx, tx, NotifyInput{
		UserID:  *task.AssigneeID,
		Title:   "New Task Assigned",
		Message: fmt.Sprintf("%s assigned you \"%s\" in %s.", creator.DisplayName(), task.Name, projectName),
		Type:    models.NotificationTypeSystem,
	})
	return err
}

func (s *TaskService) reload(ctx context.Context, taskID string) (*TaskDTO, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).
		Preload("Project").
		Preload("Assignee").
		First(&task, "id = ?", taskID).Error; err != nil {
		return nil, fmt.Errorf("task service: reload: %w", err)
	}
	dto := mapTask(&task)
	return &dto, nil
}

// loadScopedTask loads a task through the actor's scope with project and assignee.
func loadScopedTask(ctx context.Context, db *gorm.DB, actor Actor, taskID string) (*models.Task, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}

	var task models.Task
	err := db.WithContext(ctx).
		Model(&models.Task{}).
		Scopes(actor.TaskScope).
		Preload("Project").
		Preload("Assignee").
		Where("tasks.id = ?", strings.TrimSpace(taskID)).
		First(&task).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("task service: load task: %w", err)
	}
	return &task, nil
}

func mapTasks(tasks []models.Task) []TaskDTO {
	result := make([]TaskDTO, 0, len(tasks))
	for i := range tasks {
		result = append(result, mapTask(&tasks[i]))
	}
	return result
}

func mapTask(task *models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		ProjectID:   task.ProjectID,
		Name:        task.Name,
		Description: task.Description,
		AssigneeID:  task.AssigneeID,
		Assignee:    summariseUser(task.Assignee),
		Status:      task.Status,
		Deadline:    task.Deadline,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.Project != nil {
		dto.ProjectName = task.Project.Name
	}
	return dto
}
