package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/onswift/backend/internal/calendar"
	"github.com/onswift/backend/internal/models"
	"github.com/onswift/backend/pkg/crypto"
	apperrors "github.com/onswift/backend/pkg/errors"
	"github.com/onswift/backend/pkg/logger"
	"github.com/onswift/backend/pkg/metrics"
)

var (
	// ErrCalendarDisabled is returned by every operation when no provider is configured.
	ErrCalendarDisabled = apperrors.New("CALENDAR_DISABLED", "calendar integration disabled", http.StatusNotFound)
	// ErrCalendarNotConnected is returned when the user has not granted calendar access.
	ErrCalendarNotConnected = apperrors.New("CALENDAR_NOT_CONNECTED", "Calendar is not connected", http.StatusBadRequest)
	// ErrCalendarState is returned when the OAuth state does not belong to the caller.
	ErrCalendarState = apperrors.New("CALENDAR_INVALID_STATE", "Invalid authorization state", http.StatusBadRequest)
	// ErrTaskWithoutDeadline is returned when syncing a task that has no deadline.
	ErrTaskWithoutDeadline = apperrors.New("TASK_WITHOUT_DEADLINE", "Task has no deadline to sync", http.StatusBadRequest)
	// ErrTaskNotSynced is returned when unsyncing a task that has no event.
	ErrTaskNotSynced = apperrors.New("TASK_NOT_SYNCED", "Task is not synced", http.StatusNotFound)
)

// CalendarStatus reports a user's calendar connection.
type CalendarStatus struct {
	Connected   bool       `json:"connected"`
	Expiry      *time.Time `json:"expiry,omitempty"`
	SyncedCount int64      `json:"synced_count"`
}

// SyncSummary counts the outcome of a bulk sync.
type SyncSummary struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// SyncedTaskDTO is a task with its calendar event.
type SyncedTaskDTO struct {
	TaskID          string     `json:"task_id"`
	TaskName        string     `json:"task_name"`
	ProjectName     string     `json:"project_name"`
	Status          string     `json:"status"`
	Deadline        *time.Time `json:"deadline"`
	ExternalEventID string     `json:"external_event_id"`
	SyncedAt        time.Time  `json:"synced_at"`
}

// CalendarService keeps task deadlines mirrored in users' external calendars.
type CalendarService struct {
	db       *gorm.DB
	provider calendar.Provider
	key      []byte
	now      func() time.Time
	log      *zap.Logger
}

// NewCalendarService constructs a CalendarService. A nil provider yields a
// disabled service whose operations return ErrCalendarDisabled.
func NewCalendarService(db *gorm.DB, provider calendar.Provider, key []byte) (*CalendarService, error) {
	if db == nil {
		return nil, errors.New("calendar service: db is required")
	}
	if provider != nil && len(key) == 0 {
		return nil, errors.New("calendar service: encryption key is required")
	}
	return &CalendarService{
		db:       db,
		provider: provider,
		key:      key,
		now:      systemClock,
		log:      logger.WithModule("calendar"),
	}, nil
}

// Enabled reports whether a provider is configured.
func (s *CalendarService) Enabled() bool {
	return s != nil && s.provider != nil
}

// Status reports whether the user is connected and how many tasks are synced.
func (s *CalendarService) Status(ctx context.Context, userID string) (*CalendarStatus, error) {
	if !s.Enabled() {
		return nil, ErrCalendarDisabled
	}
	ctx = ensureContext(ctx)

	status := &CalendarStatus{}
	conn, err := s.connection(ctx, userID)
	switch {
	case err == nil:
		status.Connected = true
		expiry := conn.Expiry
		status.Expiry = &expiry
	case !errors.Is(err, ErrCalendarNotConnected):
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Model(&models.CalendarSyncedTask{}).
		Where("user_id = ?", userID).
		Count(&status.SyncedCount).Error; err != nil {
		return nil, fmt.Errorf("calendar service: count synced: %w", err)
	}
	return status, nil
}

// AuthURL returns the provider consent URL. The state is the user id signed with the secrets key.
func (s *CalendarService) AuthURL(ctx context.Context, userID string) (string, error) {
	if !s.Enabled() {
		return "", ErrCalendarDisabled
	}
	return s.provider.AuthCodeURL(crypto.SignValue(userID, s.key)), nil
}

// Connect exchanges an authorization code and stores the encrypted grant.
func (s *CalendarService) Connect(ctx context.Context, userID, code, state string) (*CalendarStatus, error) {
	if !s.Enabled() {
		return nil, ErrCalendarDisabled
	}
	ctx = ensureContext(ctx)

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.NewBadRequest("code is required")
	}
	if signed, ok := crypto.VerifySignedValue(strings.TrimSpace(state), s.key); !ok || signed != userID {
		return nil, ErrCalendarState
	}

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		metrics.CalendarSyncs.WithLabelValues("connect", "failure").Inc()
		return nil, apperrors.NewBadRequest("authorization code was rejected").WithInternal(err)
	}

	conn, err := s.connection(ctx, userID)
	switch {
	case errors.Is(err, ErrCalendarNotConnected):
		conn = &models.CalendarConnection{UserID: userID}
	case err != nil:
		return nil, err
	}
	if err := s.sealToken(conn, token); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(conn).Error; err != nil {
		return nil, fmt.Errorf("calendar service: store connection: %w", err)
	}

	metrics.CalendarSyncs.WithLabelValues("connect", "success").Inc()
	return s.Status(ctx, userID)
}

// Disconnect forgets the grant and the user's synced events.
func (s *CalendarService) Disconnect(ctx context.Context, userID string) error {
	if !s.Enabled() {
		return ErrCalendarDisabled
	}
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.CalendarSyncedTask{}).Error; err != nil {
			return fmt.Errorf("calendar service: delete synced tasks: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.CalendarConnection{}).Error; err != nil {
			return fmt.Errorf("calendar service: delete connection: %w", err)
		}
		return nil
	})
}

// SyncTask creates or refreshes the event for a task in the actor's scope.
func (s *CalendarService) SyncTask(ctx context.Context, actor Actor, taskID string) (*SyncedTaskDTO, error) {
	if !s.Enabled() {
		return nil, ErrCalendarDisabled
	}
	ctx = ensureContext(ctx)

	task, err := loadScopedTask(ctx, s.db, actor, taskID)
	if err != nil {
		return nil, err
	}

	ts, conn, err := s.tokenSource(ctx, actor.ID())
	if err != nil {
		return nil, err
	}
	defer s.persistRefreshedToken(ctx, conn, ts)

	synced, err := s.syncOne(ctx, ts, actor.ID(), task)
	if err != nil {
		return nil, err
	}
	dto := mapSyncedTask(synced, task)
	return &dto, nil
}

// UnsyncTask deletes the task's event. The local row goes even if the remote delete fails.
func (s *CalendarService) UnsyncTask(ctx context.Context, actor Actor, taskID string) error {
	if !s.Enabled() {
		return ErrCalendarDisabled
	}
	ctx = ensureContext(ctx)
	if actor == nil {
		return apperrors.ErrUnauthorized
	}

	var synced models.CalendarSyncedTask
	err := s.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", strings.TrimSpace(taskID), actor.ID()).
		First(&synced).Error
	if err != nil {
		if isNotFound(err) {
			return ErrTaskNotSynced
		}
		return fmt.Errorf("calendar service: load synced task: %w", err)
	}

	if ts, conn, tsErr := s.tokenSource(ctx, actor.ID()); tsErr == nil {
		if err := s.provider.DeleteEvent(ctx, ts, synced.ExternalEventID); err != nil {
			metrics.CalendarSyncs.WithLabelValues("delete", "failure").Inc()
			s.log.Warn("delete calendar event failed",
				zap.String("task_id", synced.TaskID),
				zap.String("user_id", actor.ID()),
				zap.Error(err))
		} else {
			metrics.CalendarSyncs.WithLabelValues("delete", "success").Inc()
		}
		s.persistRefreshedToken(ctx, conn, ts)
	}

	if err := s.db.WithContext(ctx).Delete(&synced).Error; err != nil {
		return fmt.Errorf("calendar service: delete synced task: %w", err)
	}
	return nil
}

// SyncAll syncs every task in the actor's scope that has a deadline. Per-task
// failures are counted and combined into the returned error.
func (s *CalendarService) SyncAll(ctx context.Context, actor Actor) (*SyncSummary, error) {
	if !s.Enabled() {
		return nil, ErrCalendarDisabled
	}
	ctx = ensureContext(ctx)
	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}

	ts, conn, err := s.tokenSource(ctx, actor.ID())
	if err != nil {
		return nil, err
	}
	defer s.persistRefreshedToken(ctx, conn, ts)

	var tasks []models.Task
	if err := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Scopes(actor.TaskScope).
		Preload("Project").
		Where("tasks.deadline IS NOT NULL").
		Order("tasks.deadline ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("calendar service: load tasks: %w", err)
	}

	summary := &SyncSummary{}
	var errs error
	for i := range tasks {
		if _, err := s.syncOne(ctx, ts, actor.ID(), &tasks[i]); err != nil {
			summary.Failed++
			errs = multierr.Append(errs, fmt.Errorf("task %s: %w", tasks[i].ID, err))
			continue
		}
		summary.Success++
	}
	return summary, errs
}

// ListSynced returns the user's synced tasks ordered by deadline.
func (s *CalendarService) ListSynced(ctx context.Context, userID string) ([]SyncedTaskDTO, error) {
	if !s.Enabled() {
		return nil, ErrCalendarDisabled
	}
	ctx = ensureContext(ctx)

	var rows []models.CalendarSyncedTask
	if err := s.db.WithContext(ctx).
		Preload("Task").
		Preload("Task.Project").
		Where("user_id = ?", userID).
		Order("synced_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("calendar service: list synced: %w", err)
	}

	result := make([]SyncedTaskDTO, 0, len(rows))
	for i := range rows {
		result = append(result, mapSyncedTask(&rows[i], rows[i].Task))
	}
	return result, nil
}

// TaskChanged pushes a committed task change to every user who synced it.
// Failures are logged, never returned.
func (s *CalendarService) TaskChanged(ctx context.Context, task *models.Task) {
	if !s.Enabled() || task == nil {
		return
	}
	ctx = ensureContext(ctx)

	var rows []models.CalendarSyncedTask
	if err := s.db.WithContext(ctx).Where("task_id = ?", task.ID).Find(&rows).Error; err != nil {
		s.log.Warn("load synced rows failed", zap.String("task_id", task.ID), zap.Error(err))
		return
	}

	for i := range rows {
		row := &rows[i]
		ts, conn, err := s.tokenSource(ctx, row.UserID)
		if err != nil {
			s.log.Warn("calendar token unavailable", zap.String("user_id", row.UserID), zap.Error(err))
			continue
		}

		if task.Deadline == nil {
			if err := s.provider.DeleteEvent(ctx, ts, row.ExternalEventID); err != nil {
				s.log.Warn("delete calendar event failed", zap.String("task_id", task.ID), zap.Error(err))
			}
			if err := s.db.WithContext(ctx).Delete(row).Error; err != nil {
				s.log.Warn("delete synced row failed", zap.String("task_id", task.ID), zap.Error(err))
			}
		} else if _, err := s.syncOne(ctx, ts, row.UserID, task); err != nil {
			s.log.Warn("refresh calendar event failed",
				zap.String("task_id", task.ID),
				zap.String("user_id", row.UserID),
				zap.Error(err))
		}
		s.persistRefreshedToken(ctx, conn, ts)
	}
}

// TaskRemoved deletes remote events for a task that is about to be deleted.
func (s *CalendarService) TaskRemoved(ctx context.Context, taskID string) {
	if !s.Enabled() {
		return
	}
	ctx = ensureContext(ctx)

	var rows []models.CalendarSyncedTask
	if err := s.db.WithContext(ctx).Where("task_id = ?", taskID).Find(&rows).Error; err != nil {
		s.log.Warn("load synced rows failed", zap.String("task_id", taskID), zap.Error(err))
		return
	}
	for _, row := range rows {
		ts, conn, err := s.tokenSource(ctx, row.UserID)
		if err != nil {
			continue
		}
		if err := s.provider.DeleteEvent(ctx, ts, row.ExternalEventID); err != nil {
			s.log.Warn("delete calendar event failed", zap.String("task_id", taskID), zap.Error(err))
		}
		s.persistRefreshedToken(ctx, conn, ts)
	}
}

// syncOne creates the event on first sync and updates it afterwards. An event
// deleted on the provider side is recreated.
func (s *CalendarService) syncOne(ctx context.Context, ts oauth2.TokenSource, userID string, task *models.Task) (*models.CalendarSyncedTask, error) {
	if task.Deadline == nil {
		return nil, ErrTaskWithoutDeadline
	}

	projectName := ""
	if task.Project != nil {
		projectName = task.Project.Name
	}
	event := calendar.TaskEvent(task.Name, task.Description, projectName, task.Status, *task.Deadline)

	var synced models.CalendarSyncedTask
	err := s.db.WithContext(ctx).Where("task_id = ? AND user_id = ?", task.ID, userID).First(&synced).Error
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("calendar service: load synced task: %w", err)
	}
	exists := err == nil

	if exists {
		err := s.provider.UpdateEvent(ctx, ts, synced.ExternalEventID, event)
		var apiErr *calendar.APIError
		switch {
		case err == nil:
			metrics.CalendarSyncs.WithLabelValues("update", "success").Inc()
			synced.SyncedAt = s.now()
			if err := s.db.WithContext(ctx).Save(&synced).Error; err != nil {
				return nil, fmt.Errorf("calendar service: save synced task: %w", err)
			}
			return &synced, nil
		case errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusGone):
			// Fall through to create a replacement event.
		default:
			metrics.CalendarSyncs.WithLabelValues("update", "failure").Inc()
			return nil, err
		}
	}

	eventID, err := s.provider.CreateEvent(ctx, ts, event)
	if err != nil {
		metrics.CalendarSyncs.WithLabelValues("create", "failure").Inc()
		return nil, err
	}
	metrics.CalendarSyncs.WithLabelValues("create", "success").Inc()

	synced.TaskID = task.ID
	synced.UserID = userID
	synced.ExternalEventID = eventID
	synced.SyncedAt = s.now()
	if err := s.db.WithContext(ctx).Save(&synced).Error; err != nil {
		return nil, fmt.Errorf("calendar service: save synced task: %w", err)
	}
	return &synced, nil
}

func (s *CalendarService) connection(ctx context.Context, userID string) (*models.CalendarConnection, error) {
	var conn models.CalendarConnection
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&conn).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrCalendarNotConnected
		}
		return nil, fmt.Errorf("calendar service: load connection: %w", err)
	}
	return &conn, nil
}

func (s *CalendarService) tokenSource(ctx context.Context, userID string) (oauth2.TokenSource, *models.CalendarConnection, error) {
	conn, err := s.connection(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	token, err := s.openToken(conn)
	if err != nil {
		return nil, nil, err
	}
	return s.provider.TokenSource(ctx, token), conn, nil
}

// persistRefreshedToken stores the token again when the source refreshed it.
func (s *CalendarService) persistRefreshedToken(ctx context.Context, conn *models.CalendarConnection, ts oauth2.TokenSource) {
	if conn == nil || ts == nil {
		return
	}
	current, err := ts.Token()
	if err != nil {
		return
	}
	previous, err := s.openToken(conn)
	if err != nil || previous.AccessToken == current.AccessToken {
		return
	}

	if err := s.sealToken(conn, current); err != nil {
		s.log.Warn("seal refreshed token failed", zap.String("user_id", conn.UserID), zap.Error(err))
		return
	}
	if err := s.db.WithContext(ctx).Model(&models.CalendarConnection{}).
		Where("id = ?", conn.ID).
		Updates(map[string]any{
			"access_token":  conn.AccessToken,
			"refresh_token": conn.RefreshToken,
			"token_type":    conn.TokenType,
			"expiry":        conn.Expiry,
		}).Error; err != nil {
		s.log.Warn("persist refreshed token failed", zap.String("user_id", conn.UserID), zap.Error(err))
	}
}

func (s *CalendarService) sealToken(conn *models.CalendarConnection, token *oauth2.Token) error {
	access, err := crypto.Encrypt([]byte(token.AccessToken), s.key)
	if err != nil {
		return fmt.Errorf("calendar service: encrypt access token: %w", err)
	}
	conn.AccessToken = access

	// Providers omit the refresh token on later grants; keep the one we have.
	if token.RefreshToken != "" {
		refresh, err := crypto.Encrypt([]byte(token.RefreshToken), s.key)
		if err != nil {
			return fmt.Errorf("calendar service: encrypt refresh token: %w", err)
		}
		conn.RefreshToken = refresh
	}

	conn.TokenType = defaultIfEmpty(token.TokenType, "Bearer")
	conn.Expiry = token.Expiry
	if scope, ok := token.Extra("scope").(string); ok {
		conn.Scopes = scope
	}
	return nil
}

func (s *CalendarService) openToken(conn *models.CalendarConnection) (*oauth2.Token, error) {
	access, err := crypto.Decrypt(conn.AccessToken, s.key)
	if err != nil {
		return nil, fmt.Errorf("calendar service: decrypt access token: %w", err)
	}
	token := &oauth2.Token{
		AccessToken: string(access),
		TokenType:   conn.TokenType,
		Expiry:      conn.Expiry,
	}
	if conn.RefreshToken != "" {
		refresh, err := crypto.Decrypt(conn.RefreshToken, s.key)
		if err != nil {
			return nil, fmt.Errorf("calendar service: decrypt refresh token: %w", err)
		}
		token.RefreshToken = string(refresh)
	}
	return token, nil
}

func mapSyncedTask(synced *models.CalendarSyncedTask, task *models.Task) SyncedTaskDTO {
	dto := SyncedTaskDTO{
		TaskID:          synced.TaskID,
		ExternalEventID: synced.ExternalEventID,
		SyncedAt:        synced.SyncedAt,
	}
	if task != nil {
		dto.TaskName = task.Name
		dto.Status = task.Status
		dto.Deadline = task.Deadline
		if task.Project != nil {
			dto.ProjectName = task.Project.Name
		}
	}
	return dto
}
